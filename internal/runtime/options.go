package runtime

import (
	"strings"

	"github.com/aretw0/palaver/pkg/domain"
)

// collectOptions reads the choice slots of a PlayerChoice node. A slot is kept
// only when its text is non-blank and its port is wired; survivors are indexed
// densely from 0.
func collectOptions(graph *domain.ConversationGraph, node domain.ScriptNode) []domain.Option {
	var options []domain.Option
	for slot := 1; slot <= domain.MaxChoiceSlots; slot++ {
		text := strings.TrimSpace(node.Properties.String(domain.OptionTextProperty(slot), ""))
		if text == "" {
			continue
		}
		if _, wired := graph.Follow(node.ID, domain.OptionPort(slot)); !wired {
			continue
		}
		options = append(options, domain.Option{
			Index:   len(options),
			Text:    text,
			Enabled: true,
			Slot:    slot,
		})
	}
	return options
}
