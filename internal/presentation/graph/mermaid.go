package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/palaver/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds an overlay from a conversation cursor. A nil or ended
// state yields nil.
func OverlayFor(state *domain.ExecutionState) *GraphOverlay {
	if state == nil || !state.Active {
		return nil
	}
	return &GraphOverlay{
		VisitedNodes: append([]string{}, state.VisitedNodeIDs...),
		CurrentNode:  state.CurrentNodeID,
	}
}

// GenerateMermaid produces a Mermaid flowchart of a conversation graph.
// It applies semantic styling:
// - Start and End: ((Circle)) and (((Double circle)))
// - PlayerChoice: [/Parallelogram/]
// - Branch: {Rhombus}
// - Shop, BuyItem, SellItem: [[Subroutine]]
// - Action: [(Database)]
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(g *domain.ConversationGraph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]string)
	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.ID)
		ids[domain.FoldID(node.ID)] = safeID

		opener, closer := shape(node.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label(node), closer)
	}

	for _, c := range g.Connections() {
		from, ok := ids[domain.FoldID(c.From)]
		if !ok {
			// Entry from a non-dialogue node, e.g. an OnInteract event.
			from = sanitizeMermaidID(c.From)
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, target(ids, c.To))
			continue
		}
		to := target(ids, c.To)
		if strings.EqualFold(c.Port, domain.PortExec) {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escape(portLabel(g, c)), to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID, ok := ids[domain.FoldID(id)]
			if !ok || visitedSet[safeID] {
				continue
			}
			visitedSet[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}

		if safeCurrent, ok := ids[domain.FoldID(overlay.CurrentNode)]; ok {
			fmt.Fprintf(&sb, "    class %s current;\n", safeCurrent)
		}
	}

	return sb.String()
}

func shape(t domain.NodeType) (string, string) {
	nodeType, _ := domain.ParseNodeType(string(t))
	switch nodeType {
	case domain.NodeStart:
		return "((", "))"
	case domain.NodeEnd:
		return "(((", ")))"
	case domain.NodePlayerChoice:
		return "[/", "/]"
	case domain.NodeBranch:
		return "{", "}"
	case domain.NodeShop, domain.NodeBuyItem, domain.NodeSellItem:
		return "[[", "]]"
	case domain.NodeAction:
		return "[(", ")]"
	default:
		return "[", "]"
	}
}

// label shows the node id plus the property that explains it best.
func label(node domain.ScriptNode) string {
	nodeType, _ := domain.ParseNodeType(string(node.Type))
	var detail string
	switch nodeType {
	case domain.NodeNpcSay:
		detail = node.Properties.String(domain.PropText, "")
	case domain.NodeBranch:
		detail = node.Properties.String(domain.PropCondition, "")
	case domain.NodeAction:
		detail = node.Properties.String(domain.PropActionType, "")
	case domain.NodeBuyItem, domain.NodeSellItem:
		detail = fmt.Sprintf("%s %s %d", nodeType, node.Properties.String(domain.PropObjectID, ""), node.Properties.Int(domain.PropPrice, 0))
	}
	if detail == "" {
		return escape(node.ID)
	}
	return escape(node.ID) + " <br/> " + escape(truncate(detail, 40))
}

func portLabel(g *domain.ConversationGraph, c domain.Connection) string {
	node, ok := g.Node(c.From)
	if !ok {
		return c.Port
	}
	for slot := 1; slot <= domain.MaxChoiceSlots; slot++ {
		if strings.EqualFold(c.Port, domain.OptionPort(slot)) {
			if text := node.Properties.String(domain.OptionTextProperty(slot), ""); text != "" {
				return truncate(text, 30)
			}
		}
	}
	return c.Port
}

func target(ids map[string]string, id string) string {
	if safeID, ok := ids[domain.FoldID(id)]; ok {
		return safeID
	}
	return sanitizeMermaidID(id)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// escape keeps labels inside their double quotes.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
