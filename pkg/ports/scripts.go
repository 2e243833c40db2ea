package ports

import (
	"context"

	"github.com/aretw0/palaver/pkg/domain"
)

// ScriptStore resolves conversation owners.
type ScriptStore interface {
	// Owner returns the owner with its full authored script.
	// Returns domain.ErrOwnerNotFound if the owner does not exist.
	Owner(ctx context.Context, ownerID string) (domain.Owner, error)

	// Owners lists the ids of every known owner, sorted.
	Owners(ctx context.Context) ([]string, error)
}

// NodeRegistry classifies node types.
type NodeRegistry interface {
	// Category returns the declared category of a node type.
	Category(t domain.NodeType) (string, bool)

	// Defaults returns the default properties of a node type (never nil).
	Defaults(t domain.NodeType) domain.Properties
}

// ObjectCatalog resolves object display names.
type ObjectCatalog interface {
	ObjectName(objectID string) (string, bool)
}

// EventSink receives interpreter output.
type EventSink interface {
	Emit(domain.Event)
}
