package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/config"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/persona"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/ai"
	chatService "github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/terminal"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Run the MentorCloud onboarding conversation in a terminal",
	Long: `onboard runs the same onboarding core as the HTTP backend, in-process,
and renders the conversation on the terminal. Multi-select questions accept
comma separated option names or numbers.`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.onboard.yaml)")
	flags.String("mode", string(chat.ModeLinear), "conversation mode (linear, assistant)")
	flags.String("persona", persona.DefaultID, "assistant persona id")
	flags.String("flow", "", "question flow YAML file (default is ONBOARDING_FLOW_FILE or the built-in flow)")
	flags.Duration("typing-delay", 0, "pause before each bot reply, e.g. 1s (default is TYPING_DELAY_MS)")
	flags.String("log-mode", "", "enable logs to stderr (development, production)")
	flags.Bool("no-color", false, "disable coloured output")

	for _, name := range []string{"mode", "persona", "flow", "typing-delay", "log-mode", "no-color"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".onboard")
	}

	viper.SetEnvPrefix("ONBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := chat.Mode(viper.GetString("mode"))
	if !mode.Valid() {
		return fmt.Errorf("invalid --mode %q", mode)
	}

	log := logger.Nop()
	if logMode := viper.GetString("log-mode"); logMode != "" {
		var err error
		if log, err = logger.New(logMode); err != nil {
			return err
		}
		defer log.Sync()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flowPath := viper.GetString("flow")
	if flowPath == "" {
		flowPath = cfg.Flow.Path
	}
	questionFlow, err := flow.Load(flowPath)
	if err != nil {
		return err
	}

	aiSvc, err := newAIService(ctx, cfg, mode, log)
	if err != nil {
		return err
	}

	svc := onboarding.NewService(
		chatService.NewService(chatService.Limits{
			MaxMessages: cfg.Conversation.MaxLength,
			IdleTimeout: cfg.Conversation.Timeout,
		}),
		persona.NewMemoryStore(persona.Seed()),
		questionFlow,
		aiSvc,
		log,
		onboarding.Options{DefaultMode: mode},
	)

	renderer := terminal.New(svc, cmd.InOrStdin(), cmd.OutOrStdout(), terminal.Options{
		TypingDelay: typingDelay(viper.GetViper(), cfg),
		NoColor:     viper.GetBool("no-color") || color.NoColor,
	})

	snap, err := renderer.Run(ctx, viper.GetString("persona"), mode)
	if err != nil {
		return err
	}
	if !snap.Complete {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "conversation ended at %d%%\n", snap.Progress)
	}
	return nil
}

// typingDelay prefers --typing-delay, ONBOARD_TYPING_DELAY or the config file
// and falls back to TYPING_DELAY_MS like the HTTP backend.
func typingDelay(v *viper.Viper, cfg *config.Config) time.Duration {
	if v.IsSet("typing-delay") {
		return v.GetDuration("typing-delay")
	}
	return cfg.Conversation.TypingDelay
}

func newAIService(ctx context.Context, cfg *config.Config, mode chat.Mode, log *logger.Logger) (*ai.Service, error) {
	if mode != chat.ModeAssistant {
		return nil, nil
	}
	if !cfg.AI.Enabled() {
		return nil, fmt.Errorf("assistant mode needs %s credentials, see LLM_PROVIDER", cfg.AI.Provider)
	}
	return ai.NewService(ctx, cfg.AI, cfg.Conversation.HistoryLimit, log)
}
