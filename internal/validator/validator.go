// Package validator checks authored conversation graphs for defects the
// interpreter would otherwise only report while a player is talking.
package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
)

// Severity grades an issue.
type Severity string

const (
	// SeverityError marks content the interpreter cannot run as authored.
	SeverityError Severity = "error"
	// SeverityWarning marks content that runs but is probably a mistake.
	SeverityWarning Severity = "warning"
)

// Issue is one finding of the validator.
type Issue struct {
	Severity Severity `json:"severity"`
	OwnerID  string   `json:"owner_id"`
	NodeID   string   `json:"node_id,omitempty"`
	Port     string   `json:"port,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	loc := i.OwnerID
	if i.NodeID != "" {
		loc += "/" + i.NodeID
	}
	if i.Port != "" {
		loc += "." + i.Port
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, loc, i.Message)
}

// Report collects the issues of one or more owners.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue is an error.
func (r Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of issues of a severity.
func (r Report) Count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Err returns an error listing every error-level issue, or nil.
func (r Report) Err() error {
	var lines []string
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			lines = append(lines, i.String())
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(lines), strings.Join(lines, "\n- "))
}

// ValidateStore validates every owner of a script store, in id order.
func ValidateStore(ctx context.Context, store ports.ScriptStore, registry ports.NodeRegistry) (Report, error) {
	ids, err := store.Owners(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list owners: %w", err)
	}
	sort.Strings(ids)

	var report Report
	for _, id := range ids {
		owner, err := store.Owner(ctx, id)
		if err != nil {
			return Report{}, fmt.Errorf("failed to load owner %s: %w", id, err)
		}
		report.Issues = append(report.Issues, ValidateOwner(owner, registry)...)
	}
	return report, nil
}

// expectedPorts lists the ports the interpreter follows for each node type.
// PlayerChoice ports are checked separately.
var expectedPorts = map[domain.NodeType][]string{
	domain.NodeStart:    {domain.PortExec},
	domain.NodeNpcSay:   {domain.PortExec},
	domain.NodeBranch:   {domain.PortTrue, domain.PortFalse},
	domain.NodeShop:     {domain.PortOnClose},
	domain.NodeBuyItem:  {domain.PortSuccess, domain.PortNotEnoughMoney},
	domain.NodeSellItem: {domain.PortSuccess, domain.PortNoItem},
	domain.NodeAction:   {domain.PortExec},
	domain.NodeEnd:      {},
}

type checker struct {
	owner    domain.Owner
	registry ports.NodeRegistry
	graph    *domain.ConversationGraph
	issues   []Issue
}

// ValidateOwner checks the dialogue graph of one owner.
func ValidateOwner(owner domain.Owner, registry ports.NodeRegistry) []Issue {
	c := &checker{owner: owner, registry: registry}
	var classify domain.Classifier
	if registry != nil {
		classify = registry.Category
	}
	c.graph = domain.ExtractConversation(owner, classify)

	c.checkScript()
	if c.graph.Len() == 0 {
		c.warn("", "", "owner has no dialogue nodes")
		return c.issues
	}
	c.checkStart()
	for _, node := range c.graph.Nodes() {
		c.checkNode(node)
	}
	c.checkConnections()
	c.checkReachability()
	return c.issues
}

func (c *checker) add(s Severity, nodeID, port, format string, args ...any) {
	c.issues = append(c.issues, Issue{
		Severity: s,
		OwnerID:  c.owner.ID,
		NodeID:   nodeID,
		Port:     port,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) fail(nodeID, port, format string, args ...any) {
	c.add(SeverityError, nodeID, port, format, args...)
}

func (c *checker) warn(nodeID, port, format string, args ...any) {
	c.add(SeverityWarning, nodeID, port, format, args...)
}

// checkScript looks at the raw script: ids and registration.
func (c *checker) checkScript() {
	seen := make(map[string]bool)
	for i, n := range c.owner.Script.Nodes {
		if domain.IsBlank(n.ID) {
			c.fail("", "", "node #%d has no id", i+1)
			continue
		}
		key := domain.FoldID(n.ID)
		if seen[key] {
			c.fail(n.ID, "", "duplicate node id; only the first definition is used")
		}
		seen[key] = true

		if n.Category != "" || c.registry == nil {
			continue
		}
		if _, ok := c.registry.Category(n.Type); !ok {
			c.warn(n.ID, "", "node type %q is not registered; the node is ignored", n.Type)
		}
	}
}

func (c *checker) checkStart() {
	starts := c.graph.StartNodes()
	switch len(starts) {
	case 0:
		c.fail("", "", "dialogue has no Start node")
	case 1:
	default:
		c.warn(starts[1].ID, "", "dialogue has %d Start nodes; only %q is used", len(starts), starts[0].ID)
	}
}

func (c *checker) checkNode(node domain.ScriptNode) {
	t, ok := domain.ParseNodeType(string(node.Type))
	if !ok {
		c.fail(node.ID, "", "unknown dialogue node type %q", node.Type)
		return
	}
	props := node.Properties

	switch t {
	case domain.NodeBranch:
		raw := props.String(domain.PropCondition, "")
		if _, ok := domain.ParseConditionType(raw); !ok {
			c.fail(node.ID, "", "unknown condition type %q", raw)
		}
	case domain.NodeAction:
		raw := props.String(domain.PropActionType, "")
		if _, ok := domain.ParseActionType(raw); !ok {
			c.fail(node.ID, "", "unknown action type %q", raw)
		}
	case domain.NodeBuyItem, domain.NodeSellItem:
		if domain.IsBlank(props.String(domain.PropObjectID, "")) {
			c.fail(node.ID, "", "%s has no %s", t, domain.PropObjectID)
		}
		if props.Int(domain.PropPrice, 0) < 0 {
			c.warn(node.ID, "", "negative price is treated as 0")
		}
	case domain.NodePlayerChoice:
		c.checkChoice(node)
		return
	}

	for _, port := range expectedPorts[t] {
		if _, wired := c.graph.Follow(node.ID, port); wired {
			continue
		}
		if port == domain.PortExec {
			if t != domain.NodeStart {
				c.warn(node.ID, port, "dead end: the conversation parks here")
			} else {
				c.fail(node.ID, port, "Start node is not connected")
			}
			continue
		}
		c.warn(node.ID, port, "port is not wired")
	}
}

func (c *checker) checkChoice(node domain.ScriptNode) {
	shown := 0
	for slot := 1; slot <= domain.MaxChoiceSlots; slot++ {
		port := domain.OptionPort(slot)
		text := node.Properties.String(domain.OptionTextProperty(slot), "")
		_, wired := c.graph.Follow(node.ID, port)
		switch {
		case !domain.IsBlank(text) && wired:
			shown++
		case !domain.IsBlank(text):
			c.warn(node.ID, port, "option %q is not wired and is hidden", text)
		case wired:
			c.warn(node.ID, port, "wired option has no text and is hidden")
		}
	}
	if shown == 0 {
		c.fail(node.ID, "", "choice presents no options")
	}
}

func (c *checker) checkConnections() {
	for _, conn := range c.graph.Connections() {
		from, fromDialogue := c.graph.Node(conn.From)
		if !fromDialogue {
			continue
		}
		if _, ok := c.graph.Node(conn.To); !ok {
			if c.inScript(conn.To) {
				c.fail(from.ID, conn.Port, "target %q is not a dialogue node", conn.To)
			} else {
				c.fail(from.ID, conn.Port, "connection to unknown node %q", conn.To)
			}
		}
		if !c.portFollowed(from, conn.Port) {
			c.warn(from.ID, conn.Port, "port is never followed by %s nodes", from.Type)
		}
	}
}

func (c *checker) inScript(id string) bool {
	for _, n := range c.owner.Script.Nodes {
		if domain.SameID(n.ID, id) {
			return true
		}
	}
	return false
}

func (c *checker) portFollowed(node domain.ScriptNode, port string) bool {
	t, ok := domain.ParseNodeType(string(node.Type))
	if !ok {
		return true
	}
	if t == domain.NodePlayerChoice {
		for slot := 1; slot <= domain.MaxChoiceSlots; slot++ {
			if strings.EqualFold(port, domain.OptionPort(slot)) {
				return true
			}
		}
		return false
	}
	for _, p := range expectedPorts[t] {
		if strings.EqualFold(p, port) {
			return true
		}
	}
	return false
}

// checkReachability walks every connection from the first Start node.
func (c *checker) checkReachability() {
	starts := c.graph.StartNodes()
	if len(starts) == 0 {
		return
	}
	visited := map[string]bool{domain.FoldID(starts[0].ID): true}
	queue := []string{starts[0].ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, conn := range c.graph.Outgoing(current) {
			target, ok := c.graph.Node(conn.To)
			if !ok || visited[domain.FoldID(target.ID)] {
				continue
			}
			visited[domain.FoldID(target.ID)] = true
			queue = append(queue, target.ID)
		}
	}

	for _, node := range c.graph.Nodes() {
		if visited[domain.FoldID(node.ID)] {
			continue
		}
		if t, _ := domain.ParseNodeType(string(node.Type)); t == domain.NodeStart {
			continue
		}
		c.warn(node.ID, "", "node is unreachable from %q", starts[0].ID)
	}
}
