package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/presentation/tui"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/runner"
)

// PlayOptions configures an interactive conversation.
type PlayOptions struct {
	OwnerID   string
	SessionID string
	// Fresh deletes the session before playing.
	Fresh bool
	JSON  bool
	// Plain disables the banner and markdown rendering.
	Plain bool

	In  io.Reader
	Out io.Writer
}

// Play talks to an owner in the terminal (or over JSON-Lines). The session is
// created when missing and left parked when the input ends.
func Play(ctx context.Context, app *App, opts PlayOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	sessions := app.Game.Sessions()

	if opts.Fresh && opts.SessionID != "" {
		if err := sessions.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	var sess *domain.Session
	var err error
	if opts.SessionID == "" {
		sess, err = sessions.Create(ctx)
	} else {
		sess, err = sessions.LoadOrCreate(ctx, opts.SessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	app.Logger.Info("Session Active", "session_id", sess.ID, "owner_id", opts.OwnerID)

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		var textOpts []runner.TextHandlerOption
		if !opts.Plain {
			tui.PrintBanner(opts.Out, palaver.Version)
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(80)))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.NewRunner(runner.WithLogger(app.Logger), runner.WithInputHandler(handler))
	final, err := r.Run(ctx, app.Game, sess.ID, opts.OwnerID)
	if err != nil {
		return handleExecutionError(err)
	}

	if !opts.JSON && final != nil && final.ActiveConversation() != nil {
		fmt.Fprintf(opts.Out, ">>> Conversation parked at '%s'. Resume with --session %s.\n",
			final.Conversation.CurrentNodeID, sess.ID)
	}
	return nil
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
