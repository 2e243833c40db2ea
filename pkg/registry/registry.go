package registry

import (
	"sync"

	"github.com/aretw0/palaver/pkg/domain"
)

// Entry declares how a node type is classified.
type Entry struct {
	Category string
	Defaults map[string]any
}

// Registry maps node types to their category and default properties.
// It implements ports.NodeRegistry and is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// NewDefault returns a registry with every dialogue node type plus the world
// node types commonly mixed into the same scripts.
func NewDefault() *Registry {
	r := NewRegistry()
	r.Register(domain.NodeStart, Entry{Category: domain.CategoryDialogue})
	r.Register(domain.NodeNpcSay, Entry{
		Category: domain.CategoryDialogue,
		Defaults: map[string]any{domain.PropEmotion: "Neutral"},
	})
	r.Register(domain.NodePlayerChoice, Entry{Category: domain.CategoryDialogue})
	r.Register(domain.NodeBranch, Entry{Category: domain.CategoryDialogue})
	r.Register(domain.NodeShop, Entry{Category: domain.CategoryDialogue})
	r.Register(domain.NodeBuyItem, Entry{
		Category: domain.CategoryDialogue,
		Defaults: map[string]any{domain.PropPrice: 0},
	})
	r.Register(domain.NodeSellItem, Entry{
		Category: domain.CategoryDialogue,
		Defaults: map[string]any{domain.PropPrice: 0},
	})
	r.Register(domain.NodeAction, Entry{
		Category: domain.CategoryDialogue,
		Defaults: map[string]any{domain.PropAmount: 0},
	})
	r.Register(domain.NodeEnd, Entry{Category: domain.CategoryDialogue})

	r.Register("OnInteract", Entry{Category: "Event"})
	r.Register("OnEnterZone", Entry{Category: "Event"})
	r.Register("Timer", Entry{Category: "Event"})
	r.Register("SetDoorState", Entry{Category: "World"})
	r.Register("MoveEntity", Entry{Category: "World"})
	return r
}

// Register adds a node type to the registry.
// If the type already exists, it is overwritten.
func (r *Registry) Register(t domain.NodeType, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[domain.FoldID(string(t))] = e
}

// Category returns the declared category of a node type.
func (r *Registry) Category(t domain.NodeType) (string, bool) {
	r.mu.RLock()
	e, ok := r.entries[domain.FoldID(string(t))]
	r.mu.RUnlock()
	return e.Category, ok
}

// Defaults returns a fresh copy of the default properties of a node type.
func (r *Registry) Defaults(t domain.NodeType) domain.Properties {
	r.mu.RLock()
	e, ok := r.entries[domain.FoldID(string(t))]
	r.mu.RUnlock()
	if !ok {
		return domain.Properties{}
	}
	return domain.NewProperties(e.Defaults)
}
