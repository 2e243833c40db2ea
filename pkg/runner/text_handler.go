package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	out         *termenv.Output
	interactive bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the renderer of NPC lines.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerProfile forces a color profile, e.g. termenv.Ascii in tests.
func WithTextHandlerProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.out = termenv.NewOutput(h.Writer, termenv.WithProfile(p))
	}
}

// WithTextHandlerInteractive overrides terminal detection. Prompts are only
// printed in interactive mode.
func WithTextHandlerInteractive(interactive bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.interactive = interactive
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:      bufio.NewReader(r),
		Writer:      w,
		out:         termenv.NewOutput(w),
		interactive: IsTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		switch ev := e.(type) {
		case domain.DialogueLine:
			h.dialogue(ev)
		case domain.OptionsPresented:
			for i, o := range ev.Options {
				fmt.Fprintf(h.Writer, "  %s %s\n", h.out.String(fmt.Sprintf("%d.", i+1)).Bold(), o.Text)
			}
		case domain.TradeOpened:
			fmt.Fprintln(h.Writer, h.out.String(fmt.Sprintf("[Shop] %s opens the trade window.", ev.NPCName)).Foreground(h.out.Color("#c084fc")))
		case domain.SystemMessage:
			if ev.Severity == domain.SeverityDiagnostic {
				fmt.Fprintln(h.Writer, h.out.String("! "+ev.Text).Foreground(h.out.Color("#fbbf24")))
			} else {
				fmt.Fprintln(h.Writer, h.out.String("* "+ev.Text).Faint())
			}
		case domain.ConversationEnded:
			fmt.Fprintln(h.Writer, h.out.String("(conversation ended)").Faint())
		}
	}
	return nil
}

func (h *TextHandler) dialogue(line domain.DialogueLine) {
	text := line.Text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			text = strings.TrimSpace(rendered)
		}
	}
	speaker := h.out.String(line.Speaker + ":").Bold().Foreground(h.out.Color("#818cf8"))
	if line.Emotion != "" && !strings.EqualFold(line.Emotion, "Neutral") {
		fmt.Fprintf(h.Writer, "%s %s %s\n", speaker, h.out.String("("+line.Emotion+")").Italic(), text)
		return
	}
	fmt.Fprintf(h.Writer, "%s %s\n", speaker, text)
}

func (h *TextHandler) Input(ctx context.Context, prompt Prompt) (string, error) {
	h.initPump()

	for {
		if h.interactive {
			fmt.Fprint(h.Writer, promptText(prompt))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func promptText(p Prompt) string {
	switch p.Kind {
	case PromptShop:
		return "[Enter to close the shop] "
	case PromptParked:
		return "[Enter to continue, q to leave] "
	default:
		return "> "
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
