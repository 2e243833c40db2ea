package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/palaver/pkg/domain"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	events := []domain.Event{
		domain.DialogueLine{Text: "Hello", Speaker: "Bob", IsNPC: true},
		domain.TradeOpened{NPCID: "bob", NPCName: "Bob"},
	}
	if err := handler.Output(context.Background(), events); err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	// Nothing is written for an empty call.
	if err := handler.Output(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var got []struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(got) != 2 || got[0].Type != "dialogue" || got[1].Type != "trade_opened" {
		t.Fatalf("Unexpected envelopes: %+v", got)
	}
	if got[0].Payload["text"] != "Hello" || got[1].Payload["npc_name"] != "Bob" {
		t.Errorf("Unexpected payloads: %+v", got)
	}
}

func TestJSONHandler_Input(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader("\"2\"\n1\nraw text"), buf)
	ctx := context.Background()
	prompt := Prompt{Kind: PromptChoice, Options: []domain.Option{{Index: 0, Text: "Yes", Enabled: true}}}

	for _, want := range []string{"2", "1", "raw text"} {
		got, err := handler.Input(ctx, prompt)
		if err != nil {
			t.Fatalf("Input failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
	if _, err := handler.Input(ctx, prompt); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	var msg struct {
		Type    string `json:"type"`
		Payload Prompt `json:"payload"`
	}
	if err := json.Unmarshal([]byte(first), &msg); err != nil {
		t.Fatalf("Invalid prompt line: %v", err)
	}
	if msg.Type != "prompt" || msg.Payload.Kind != PromptChoice || len(msg.Payload.Options) != 1 {
		t.Errorf("Unexpected prompt: %+v", msg)
	}
}

func TestJSONHandler_SystemOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	if err := handler.SystemOutput(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != `{"type":"system","payload":{"text":"hello"}}` {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}
