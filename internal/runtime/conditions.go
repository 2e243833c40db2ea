package runtime

import (
	"github.com/aretw0/palaver/pkg/domain"
)

// Evaluate checks a Branch condition against the session. It never mutates
// anything. Unknown conditions are false.
func Evaluate(condition domain.ConditionType, node domain.ScriptNode, sess *domain.Session) bool {
	if sess == nil {
		return false
	}
	props := node.Properties
	switch condition {
	case domain.ConditionHasFlag:
		return sess.Flag(props.String(domain.PropFlagName, ""))
	case domain.ConditionHasItem:
		return sess.HasItem(props.String(domain.PropObjectID, ""))
	case domain.ConditionHasMoney:
		return sess.Money >= props.Int(domain.PropAmount, 0)
	case domain.ConditionQuestStatus:
		want, ok := domain.ParseQuestStatus(props.String(domain.PropQuestStatus, ""))
		if !ok {
			return false
		}
		return sess.QuestStatusOf(props.String(domain.PropQuestID, "")) == want
	case domain.ConditionVisitedNode:
		// The branch marks itself visited before it is evaluated.
		return sess.Conversation != nil && sess.Conversation.HasVisited(node.ID)
	default:
		return false
	}
}
