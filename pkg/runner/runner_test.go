package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/dsl"
	"github.com/muesli/termenv"
)

func merchantGame(t *testing.T, money int) (*palaver.Game, string) {
	t.Helper()
	b := dsl.New("merchant", "Old Merchant")
	b.Start("start").Next("hello")
	b.Say("hello", "Welcome, traveler.").Emotion("Happy").Next("menu")
	b.Choice("menu").Option(1, "Trade", "shop").Option(2, "Buy a sword", "buy")
	b.Shop("shop").OnClose("menu")
	b.Buy("buy", "sword", 5).Success("bye").NotEnoughMoney("bye")
	b.End("bye")

	game := palaver.New(b.Store(), palaver.WithStartMoney(money))
	sess, err := game.NewSession(context.Background())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return game, sess.ID
}

func textRunner(input string, out *bytes.Buffer) *Runner {
	handler := NewTextHandler(strings.NewReader(input), out, WithTextHandlerProfile(termenv.Ascii))
	return NewRunner(WithInputHandler(handler))
}

func TestRunner_Run_BasicFlow(t *testing.T) {
	game, sessionID := merchantGame(t, 5)
	out := &bytes.Buffer{}

	// Trade, close the shop, then buy.
	r := textRunner("1\n\n2\n", out)
	sess, err := r.Run(context.Background(), game, sessionID, "merchant")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		"Old Merchant: (Happy) Welcome, traveler.",
		"1. Trade",
		"2. Buy a sword",
		"[Shop] Old Merchant opens the trade window.",
		"* Bought sword for 5 coins.",
		"(conversation ended)",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
		}
	}
	if sess.Conversation != nil {
		t.Errorf("Expected conversation to be cleared, got %+v", sess.Conversation)
	}
	if len(sess.Inventory) != 1 || sess.Inventory[0] != "sword" {
		t.Errorf("Expected sword in inventory, got %v", sess.Inventory)
	}
}

func TestRunner_Run_InvalidChoiceReprompts(t *testing.T) {
	game, sessionID := merchantGame(t, 0)
	out := &bytes.Buffer{}

	r := textRunner("7\nabc\n2\n", out)
	sess, err := r.Run(context.Background(), game, sessionID, "merchant")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := strings.Count(out.String(), "[System] Pick an option between 1 and 2."); got != 2 {
		t.Errorf("Expected 2 re-prompts, got %d:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "Not enough money: sword costs 5 coins.") {
		t.Errorf("Expected refusal notice, got:\n%s", out.String())
	}
	if sess.Conversation != nil {
		t.Error("Expected conversation to end")
	}
}

func TestRunner_Run_QuitEndsConversation(t *testing.T) {
	game, sessionID := merchantGame(t, 0)
	out := &bytes.Buffer{}

	sess, err := textRunner("quit\n", out).Run(context.Background(), game, sessionID, "merchant")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.Conversation != nil {
		t.Error("Expected quit to force-end the conversation")
	}
	if !strings.Contains(out.String(), "(conversation ended)") {
		t.Errorf("Expected end marker, got:\n%s", out.String())
	}
}

func TestRunner_Run_EOFParksAndResumes(t *testing.T) {
	ctx := context.Background()
	game, sessionID := merchantGame(t, 5)

	// Open the shop, then run out of input.
	first := &bytes.Buffer{}
	sess, err := textRunner("1\n", first).Run(ctx, game, sessionID, "merchant")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.ActiveConversation() == nil || sess.Conversation.CurrentNodeID != "shop" {
		t.Fatalf("Expected conversation parked on the shop, got %+v", sess.Conversation)
	}

	// A second run resumes at the shop; the owner argument is ignored.
	second := &bytes.Buffer{}
	sess, err = textRunner("\n2\n", second).Run(ctx, game, sessionID, "someone-else")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if !strings.Contains(second.String(), "[System] Resuming conversation with merchant.") {
		t.Errorf("Expected resume message, got:\n%s", second.String())
	}
	if !strings.Contains(second.String(), "[Shop] Old Merchant opens the trade window.") {
		t.Errorf("Expected pending trade window, got:\n%s", second.String())
	}
	if sess.Conversation != nil || sess.Money != 0 {
		t.Errorf("Expected purchase to complete, got money=%d conversation=%+v", sess.Money, sess.Conversation)
	}
}

func TestRunner_Run_ParkedConversation(t *testing.T) {
	b := dsl.New("guard", "Guard")
	b.Start("start").Next("halt")
	b.Say("halt", "Halt!")

	game := palaver.New(b.Store())
	sess, err := game.NewSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	// Continue is a no-op on a dead end; "end" leaves.
	got, err := textRunner("\nend\n", out).Run(context.Background(), game, sess.ID, "guard")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got.Conversation != nil {
		t.Error("Expected conversation to end")
	}
	if strings.Count(out.String(), "Guard: Halt!") != 1 {
		t.Errorf("Expected the line once, got:\n%s", out.String())
	}
}

func TestRunner_Run_NotStarted(t *testing.T) {
	game, sessionID := merchantGame(t, 0)

	_, err := textRunner("", &bytes.Buffer{}).Run(context.Background(), game, sessionID, "nobody")
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Expected ErrNotStarted, got %v", err)
	}

	_, err = textRunner("", &bytes.Buffer{}).Run(context.Background(), game, "missing", "merchant")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestRunner_Run_ContextCancel(t *testing.T) {
	game, sessionID := merchantGame(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A pipe that never yields input.
	handler := NewTextHandler(blockingReader{}, &bytes.Buffer{}, WithTextHandlerProfile(termenv.Ascii))
	_, err := NewRunner(WithInputHandler(handler)).Run(ctx, game, sessionID, "merchant")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}
