package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/palaver/internal/presentation/graph"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/dsl"
	"github.com/aretw0/palaver/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func conversation() *domain.ConversationGraph {
	b := dsl.New("merchant", "Merchant")
	b.Node("on-talk", "OnInteract").Next("start")
	b.Start("start").Next("hello")
	b.Say("hello", `He said "hi"`).Next("menu")
	b.Choice("menu").Option(1, "Trade", "shop").Option(2, "Bye", "bye")
	b.Shop("shop").OnClose("menu")
	b.Branch("check", domain.ConditionHasFlag).True("bye").False("bye")
	b.Action("give", domain.ActionGiveItem)
	b.End("bye")
	return domain.ExtractConversation(b.Build(), registry.NewDefault().Category)
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(conversation(), nil)

	for _, want := range []string{
		"graph TD\n",
		`start(("start"))`,
		`bye((("bye")))`,
		`menu[/"menu"/]`,
		`check{"check <br/> HasFlag"}`,
		`shop[["shop"]]`,
		`give[("give <br/> GiveItem")]`,
		`hello["hello <br/> He said 'hi'"]`,
		"start --> hello",
		`menu -- "Trade" --> shop`,
		`shop -- "OnClose" --> menu`,
		`check -- "True" --> bye`,
		"on_talk -.-> start",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	state := domain.NewExecutionState("c1", "merchant", "start")
	state.MarkVisited("start")
	state.MarkVisited("HELLO")
	state.MarkVisited("menu")
	state.MarkVisited("ghost")
	state.CurrentNodeID = "menu"

	out := graph.GenerateMermaid(conversation(), graph.OverlayFor(state))

	assert.Contains(t, out, "class start visited;")
	assert.Contains(t, out, "class hello visited;")
	assert.Contains(t, out, "class menu current;")
	assert.NotContains(t, out, "ghost")
	assert.Equal(t, 1, strings.Count(out, "class menu visited;"))
}

func TestOverlayFor_Inactive(t *testing.T) {
	assert.Nil(t, graph.OverlayFor(nil))

	state := domain.NewExecutionState("c1", "merchant", "start")
	state.Terminate()
	assert.Nil(t, graph.OverlayFor(state))
}
