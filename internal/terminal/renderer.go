// Package terminal renders an onboarding conversation on a text console.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/conversation"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/chat"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/model/flow"
	"github.com/zhouzirui/mentorcloud-onboarding/backend/internal/service/onboarding"
)

// Options tune the renderer.
type Options struct {
	TypingDelay time.Duration
	NoColor     bool
}

// Renderer drives one conversation from a line-oriented reader.
type Renderer struct {
	svc  *onboarding.Service
	in   *bufio.Scanner
	out  io.Writer
	opts Options

	bot  *color.Color
	user *color.Color
	hint *color.Color
	warn *color.Color
}

// New returns a renderer reading answers from in and writing to out.
func New(svc *onboarding.Service, in io.Reader, out io.Writer, opts Options) *Renderer {
	r := &Renderer{
		svc:  svc,
		in:   bufio.NewScanner(in),
		out:  out,
		opts: opts,
		bot:  color.New(color.FgCyan),
		user: color.New(color.FgGreen, color.Bold),
		hint: color.New(color.FgYellow),
		warn: color.New(color.FgRed),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{r.bot, r.user, r.hint, r.warn} {
			c.DisableColor()
		}
	}
	return r
}

// Run starts a session and loops until the profile is complete or input ends.
// It returns the final snapshot.
func (r *Renderer) Run(ctx context.Context, personaID string, mode chat.Mode) (onboarding.Snapshot, error) {
	snap, err := r.svc.Start(ctx, personaID, mode)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	sessionID := snap.Session.ID
	r.printBot(snap.Persona.Name, snap.Messages)
	input := snap.Input

	for !input.Disabled {
		r.printInputHint(input)
		r.user.Fprint(r.out, "> ")
		if !r.in.Scan() {
			break
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if input.Kind == flow.InputMultiSelect {
			line = expandIndexes(line, input.Options)
		}

		if !r.typing(ctx) {
			return r.svc.State(ctx, sessionID)
		}

		var streamed strings.Builder
		turn, err := r.svc.Reply(ctx, sessionID, line, onboarding.WithDelta(func(delta string) {
			if streamed.Len() == 0 {
				r.bot.Fprintf(r.out, "%s: ", snap.Persona.Name)
			}
			streamed.WriteString(delta)
			r.bot.Fprint(r.out, delta)
		}))
		if streamed.Len() > 0 {
			fmt.Fprintln(r.out)
		}
		if err != nil {
			if fatal(err) {
				r.warn.Fprintf(r.out, "! %v\n", err)
				return onboarding.Snapshot{}, err
			}
			r.warn.Fprintf(r.out, "! %v\n", err)
			continue
		}

		replies := botMessages(turn.Messages)
		if streamed.Len() > 0 && len(replies) > 0 && strings.TrimSpace(replies[0].Content) == strings.TrimSpace(streamed.String()) {
			replies = replies[1:]
		}
		r.printBot(snap.Persona.Name, replies)
		r.hint.Fprintf(r.out, "[progress %d%%]\n", turn.Progress)
		input = turn.Input
	}

	return r.svc.State(ctx, sessionID)
}

func (r *Renderer) typing(ctx context.Context) bool {
	if r.opts.TypingDelay <= 0 {
		return true
	}
	r.hint.Fprint(r.out, "…\r")
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.opts.TypingDelay):
		return true
	}
}

func (r *Renderer) printBot(name string, messages []chat.Message) {
	for _, msg := range messages {
		if msg.Sender != chat.SenderBot {
			continue
		}
		r.bot.Fprintf(r.out, "%s: %s\n", name, msg.Content)
	}
}

func (r *Renderer) printInputHint(input conversation.Input) {
	if input.Kind != flow.InputMultiSelect {
		if input.Optional {
			r.hint.Fprintln(r.out, "(optional, type skip to move on)")
		}
		return
	}
	for i, option := range input.Options {
		r.hint.Fprintf(r.out, "  %d) %s\n", i+1, option)
	}
	r.hint.Fprintf(r.out, "(pick up to %d, comma separated names or numbers)\n", input.MaxSelections)
}

func botMessages(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Sender == chat.SenderBot {
			out = append(out, msg)
		}
	}
	return out
}

// expandIndexes turns "1, 3" into the matching option names. Tokens that
// are not valid indexes are passed through.
func expandIndexes(line string, options []string) string {
	parts := strings.Split(line, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if n, err := strconv.Atoi(part); err == nil && n >= 1 && n <= len(options) {
			part = options[n-1]
		}
		parts[i] = part
	}
	return strings.Join(parts, ", ")
}

func fatal(err error) bool {
	return !errors.Is(err, conversation.ErrEmptyReply) &&
		!errors.Is(err, conversation.ErrUnknownOption) &&
		!errors.Is(err, conversation.ErrSelectionLimit) &&
		!errors.Is(err, conversation.ErrEmptySelection)
}
