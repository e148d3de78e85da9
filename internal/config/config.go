package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/ai/openaimodel"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server       ServerConfig
	AI           AIConfig
	Conversation ConversationConfig
	Flow         FlowConfig
	Log          LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	conversation, err := loadConversationConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		AI:           ai,
		Conversation: conversation,
		Flow:         FlowConfig{Path: strings.TrimSpace(os.Getenv("ONBOARDING_FLOW_FILE"))},
		Log:          LogConfig{Mode: getEnvOrDefault("LOG_MODE", "development")},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// Provider 标识大模型供应商。
type Provider string

const (
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider       Provider
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	if c.Provider == ProviderOpenAI {
		clientCfg := openai.DefaultConfig(c.OpenAIAPIKey)
		if c.OpenAIBaseURL != "" {
			clientCfg.BaseURL = c.OpenAIBaseURL
		}
		return openaimodel.New(openai.NewClientWithConfig(clientCfg), openaimodel.Config{
			Model:       c.OpenAIModel,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		}), nil
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := Provider(strings.ToLower(getEnvOrDefault("LLM_PROVIDER", string(ProviderOpenAI))))
	if provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	// OpenAI 默认参数沿用产品原有的对话风格
	if provider == ProviderOpenAI {
		if temperature == nil {
			val := 0.8
			temperature = &val
		}
		if maxTokens == nil {
			val := 1500
			maxTokens = &val
		}
	}

	stream, err := parseBoolEnv("LLM_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:       provider,
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:    getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}, nil
}

// ConversationConfig 描述对话流程的限制与默认行为。
type ConversationConfig struct {
	MaxLength    int
	HistoryLimit int
	TypingDelay  time.Duration
	Timeout      time.Duration
	DefaultMode  chat.Mode
}

func loadConversationConfig() (ConversationConfig, error) {
	maxLength, err := parseIntEnvWithMin("MAX_CONVERSATION_LENGTH", 50, 2)
	if err != nil {
		return ConversationConfig{}, err
	}

	historyLimit, err := parseIntEnvWithMin("CONVERSATION_HISTORY_LIMIT", 4, 0)
	if err != nil {
		return ConversationConfig{}, err
	}

	typingDelay, err := parseIntEnvWithMin("TYPING_DELAY_MS", 1000, 0)
	if err != nil {
		return ConversationConfig{}, err
	}

	timeout, err := parseIntEnvWithMin("CONVERSATION_TIMEOUT_MS", 300000, 0)
	if err != nil {
		return ConversationConfig{}, err
	}

	mode := chat.Mode(getEnvOrDefault("ONBOARDING_DEFAULT_MODE", string(chat.ModeLinear)))
	if !mode.Valid() {
		return ConversationConfig{}, fmt.Errorf("invalid ONBOARDING_DEFAULT_MODE value %q", mode)
	}

	return ConversationConfig{
		MaxLength:    maxLength,
		HistoryLimit: historyLimit,
		TypingDelay:  time.Duration(typingDelay) * time.Millisecond,
		Timeout:      time.Duration(timeout) * time.Millisecond,
		DefaultMode:  mode,
	}, nil
}

// FlowConfig 指定问卷流程定义文件，为空时使用内置流程。
type FlowConfig struct {
	Path string
}

// LogConfig 控制日志输出模式（development / production）。
type LogConfig struct {
	Mode string
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseIntEnvWithMin(key string, defaultValue, floor int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < floor {
		return floor, nil
	}
	return *val, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
