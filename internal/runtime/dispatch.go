package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
)

// execution is one call into a conversation: from a start or a resume until
// the next suspension point.
type execution struct {
	ctx     context.Context
	engine  *Engine
	session *domain.Session
	state   *domain.ExecutionState
	owner   domain.Owner
	graph   *domain.ConversationGraph
	sink    ports.EventSink
}

// handler runs one node and returns the id of the next node, or "" to halt.
type handler func(x *execution, node domain.ScriptNode) string

var handlers = map[domain.NodeType]handler{
	domain.NodeStart:        (*execution).passThrough,
	domain.NodeNpcSay:       (*execution).npcSay,
	domain.NodePlayerChoice: (*execution).playerChoice,
	domain.NodeBranch:       (*execution).branch,
	domain.NodeShop:         (*execution).shop,
	domain.NodeBuyItem:      (*execution).buyItem,
	domain.NodeSellItem:     (*execution).sellItem,
	domain.NodeAction:       (*execution).action,
	domain.NodeEnd:          (*execution).end,
}

func (e *Engine) newExecution(ctx context.Context, sess *domain.Session, owner domain.Owner, graph *domain.ConversationGraph, sink ports.EventSink) *execution {
	return &execution{
		ctx:     ctx,
		engine:  e,
		session: sess,
		state:   sess.Conversation,
		owner:   owner,
		graph:   graph,
		sink:    orDiscard(sink),
	}
}

// run executes nodes from nodeID until a node halts.
func (x *execution) run(nodeID string) {
	for steps := 0; nodeID != ""; steps++ {
		if steps >= x.engine.stepLimit {
			x.diagnose(&domain.ContentError{
				OwnerID: x.owner.ID,
				NodeID:  nodeID,
				Reason:  fmt.Sprintf("step limit of %d reached without a suspension point", x.engine.stepLimit),
			})
			return
		}
		node, ok := x.graph.Node(nodeID)
		if !ok {
			x.diagnose(&domain.ContentError{
				OwnerID: x.owner.ID,
				NodeID:  x.state.CurrentNodeID,
				Reason:  fmt.Sprintf("connection to unknown node %q", nodeID),
			})
			return
		}

		x.state.CurrentNodeID = node.ID
		x.state.MarkVisited(node.ID)
		node.Properties = x.properties(node)
		x.enter(node)

		nodeID = x.dispatch(node)
		if !x.state.Active {
			return
		}
		if t, _ := domain.ParseNodeType(string(node.Type)); t.Suspends() {
			return
		}
	}
}

func (x *execution) dispatch(node domain.ScriptNode) string {
	t, _ := domain.ParseNodeType(string(node.Type))
	h, ok := handlers[t]
	if !ok {
		x.diagnose(&domain.ContentError{
			OwnerID: x.owner.ID,
			NodeID:  node.ID,
			Reason:  fmt.Sprintf("unknown node type %q", node.Type),
		})
		return ""
	}
	return h(x, node)
}

// properties overlays the node's own properties on the registry defaults.
func (x *execution) properties(node domain.ScriptNode) domain.Properties {
	props := domain.Properties{}
	if x.engine.registry != nil {
		props = x.engine.registry.Defaults(node.Type)
		if props == nil {
			props = domain.Properties{}
		}
	}
	for k, v := range node.Properties {
		props[k] = v
	}
	return props
}

// follow resolves a port of node. An unwired Exec port is a deliberate park;
// any other unwired port is reported.
func (x *execution) follow(node domain.ScriptNode, port string) string {
	target, ok := x.graph.Follow(node.ID, port)
	if ok {
		return target
	}
	if port == domain.PortExec {
		x.engine.logger.Debug("conversation parked",
			"session_id", x.session.ID, "owner_id", x.owner.ID, "node_id", node.ID)
		return ""
	}
	x.diagnose(&domain.ContentError{
		OwnerID: x.owner.ID,
		NodeID:  node.ID,
		Port:    port,
		Reason:  "port is not wired",
	})
	return ""
}

func (x *execution) passThrough(node domain.ScriptNode) string {
	return x.follow(node, domain.PortExec)
}

func (x *execution) npcSay(node domain.ScriptNode) string {
	speaker := node.Properties.String(domain.PropSpeakerName, "")
	if domain.IsBlank(speaker) {
		speaker = x.owner.DisplayName
	}
	x.sink.Emit(domain.DialogueLine{
		Text:    node.Properties.String(domain.PropText, ""),
		Speaker: speaker,
		Emotion: node.Properties.String(domain.PropEmotion, ""),
		IsNPC:   true,
	})
	return x.follow(node, domain.PortExec)
}

func (x *execution) playerChoice(node domain.ScriptNode) string {
	options := collectOptions(x.graph, node)
	if len(options) == 0 {
		x.diagnose(&domain.ContentError{
			OwnerID: x.owner.ID,
			NodeID:  node.ID,
			Reason:  "choice has no wired options",
		})
	}
	x.state.CurrentOptions = options
	x.sink.Emit(domain.OptionsPresented{Options: append([]domain.Option{}, options...)})
	return ""
}

func (x *execution) branch(node domain.ScriptNode) string {
	raw := node.Properties.String(domain.PropCondition, "")
	condition, ok := domain.ParseConditionType(raw)
	if !ok {
		x.diagnose(&domain.ContentError{
			OwnerID: x.owner.ID,
			NodeID:  node.ID,
			Reason:  fmt.Sprintf("unknown condition type %q", raw),
		})
	}
	if Evaluate(condition, node, x.session) {
		return x.follow(node, domain.PortTrue)
	}
	return x.follow(node, domain.PortFalse)
}

func (x *execution) shop(node domain.ScriptNode) string {
	x.sink.Emit(domain.TradeOpened{NPCID: x.owner.ID, NPCName: x.owner.DisplayName})
	return ""
}

func (x *execution) end(node domain.ScriptNode) string {
	state := x.state
	state.Terminate()
	x.session.Conversation = nil
	x.engine.notifyEnd(x.ctx, x.session, state, domain.EndNode)
	x.sink.Emit(domain.ConversationEnded{})
	return ""
}

func (x *execution) enter(node domain.ScriptNode) {
	if x.engine.hooks.OnNodeEnter == nil {
		return
	}
	x.engine.hooks.OnNodeEnter(x.ctx, &domain.NodeEvent{
		Timestamp:      x.engine.now(),
		SessionID:      x.session.ID,
		ConversationID: x.state.ConversationID,
		OwnerID:        x.owner.ID,
		NodeID:         node.ID,
		NodeType:       node.Type,
	})
}

func (x *execution) notice(format string, args ...any) {
	x.sink.Emit(domain.SystemMessage{
		Severity: domain.SeverityNotice,
		Text:     fmt.Sprintf(format, args...),
	})
}

func (x *execution) diagnose(err error) {
	x.engine.diagnose(x.ctx, x.sink, x.session, err)
}
