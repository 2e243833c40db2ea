package runner

import (
	"context"

	"github.com/aretw0/palaver/pkg/domain"
)

// PromptKind tells a handler what kind of reply the runner waits for.
type PromptKind string

const (
	// PromptChoice waits for one of the presented options.
	PromptChoice PromptKind = "choice"
	// PromptShop waits for the trade window to close.
	PromptShop PromptKind = "shop"
	// PromptParked waits for the player to continue or leave a conversation
	// that stopped without asking anything.
	PromptParked PromptKind = "parked"
)

// Prompt describes the pending reply.
type Prompt struct {
	Kind    PromptKind      `json:"kind"`
	Options []domain.Option `json:"options,omitempty"`
}

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the events of one call, in order.
	Output(ctx context.Context, events []domain.Event) error

	// Input reads the reply to a prompt.
	Input(ctx context.Context, prompt Prompt) (string, error)

	// SystemOutput presents a meta-message (e.g. invalid input, status).
	// This is distinct from conversation events.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms NPC text before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
