package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/domain"
)

// ErrNotStarted is returned when a conversation could not begin, e.g. the
// owner is unknown or has no Start node.
var ErrNotStarted = errors.New("conversation not started")

// Game is the part of palaver.Game the runner drives.
type Game interface {
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Start(ctx context.Context, sessionID, ownerID string) (*palaver.Turn, error)
	Select(ctx context.Context, sessionID string, index int) (*palaver.Turn, error)
	Continue(ctx context.Context, sessionID string) (*palaver.Turn, error)
	CloseShop(ctx context.Context, sessionID string) (*palaver.Turn, error)
	End(ctx context.Context, sessionID string) (*palaver.Turn, error)
	Pending(ctx context.Context, sessionID string) (*palaver.Turn, error)
}

// Runner handles the conversation loop using the provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run talks to ownerID until the conversation ends or the input is exhausted.
// A conversation already active in the session is resumed instead, whoever
// its owner is. On io.EOF the conversation stays parked and Run returns nil.
func (r *Runner) Run(ctx context.Context, game Game, sessionID, ownerID string) (*domain.Session, error) {
	turn, err := r.begin(ctx, game, sessionID, ownerID)
	if err != nil {
		return nil, err
	}

	for {
		if err := r.Handler.Output(ctx, turn.Events); err != nil {
			return turn.Session, fmt.Errorf("output error: %w", err)
		}

		state := turn.Session.ActiveConversation()
		if state == nil {
			r.Logger.Debug("conversation finished", "session_id", sessionID)
			return turn.Session, nil
		}

		prompt := promptFor(state, turn.Events)
		next, err := r.reply(ctx, game, sessionID, prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.Logger.Debug("input closed, conversation parked",
					"session_id", sessionID, "node_id", state.CurrentNodeID)
				return turn.Session, nil
			}
			return turn.Session, err
		}
		turn = next
	}
}

func (r *Runner) begin(ctx context.Context, game Game, sessionID, ownerID string) (*palaver.Turn, error) {
	sess, err := game.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state := sess.ActiveConversation(); state != nil {
		r.Logger.Info("Session Resumed", "session_id", sessionID, "owner_id", state.OwnerID, "node", state.CurrentNodeID)
		if err := r.Handler.SystemOutput(ctx, fmt.Sprintf("Resuming conversation with %s.", state.OwnerID)); err != nil {
			return nil, err
		}
		return game.Pending(ctx, sessionID)
	}

	turn, err := game.Start(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if turn.Outcome != domain.Started.String() {
		// Diagnostics explain why, in debug mode.
		_ = r.Handler.Output(ctx, turn.Events)
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotStarted, ownerID, turn.Outcome)
	}
	return turn, nil
}

// promptFor derives the pending reply from the cursor and the last events.
func promptFor(state *domain.ExecutionState, events []domain.Event) Prompt {
	if state.HasOptions() {
		return Prompt{Kind: PromptChoice, Options: append([]domain.Option{}, state.CurrentOptions...)}
	}
	for _, e := range events {
		if _, ok := e.(domain.TradeOpened); ok {
			return Prompt{Kind: PromptShop}
		}
	}
	return Prompt{Kind: PromptParked}
}

func (r *Runner) reply(ctx context.Context, game Game, sessionID string, prompt Prompt) (*palaver.Turn, error) {
	for {
		text, err := r.Handler.Input(ctx, prompt)
		if err != nil {
			return nil, err
		}
		cmd := strings.ToLower(strings.TrimSpace(text))
		if isQuit(cmd) {
			return game.End(ctx, sessionID)
		}

		switch prompt.Kind {
		case PromptChoice:
			n, err := strconv.Atoi(cmd)
			if err != nil || n < 1 || n > len(prompt.Options) {
				if err := r.Handler.SystemOutput(ctx, fmt.Sprintf("Pick an option between 1 and %d.", len(prompt.Options))); err != nil {
					return nil, err
				}
				continue
			}
			return game.Select(ctx, sessionID, prompt.Options[n-1].Index)
		case PromptShop:
			return game.CloseShop(ctx, sessionID)
		default:
			return game.Continue(ctx, sessionID)
		}
	}
}

func isQuit(cmd string) bool {
	switch cmd {
	case "q", "quit", "exit", "end":
		return true
	}
	return false
}
