package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/palaver/pkg/domain"
)

// ScriptStore implements ports.ScriptStore using an in-memory map keyed by the
// folded owner id. Safe for concurrent use.
type ScriptStore struct {
	mu     sync.RWMutex
	owners map[string]domain.Owner
}

// NewScriptStore creates a store seeded with owners.
func NewScriptStore(owners ...domain.Owner) *ScriptStore {
	s := &ScriptStore{owners: make(map[string]domain.Owner)}
	for _, o := range owners {
		s.Add(o)
	}
	return s
}

// Add registers an owner, replacing any owner with the same id.
func (s *ScriptStore) Add(owner domain.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[domain.FoldID(owner.ID)] = owner
}

// Owner returns a copy of the owner.
func (s *ScriptStore) Owner(ctx context.Context, ownerID string) (domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[domain.FoldID(ownerID)]
	if !ok {
		return domain.Owner{}, fmt.Errorf("%w: %s", domain.ErrOwnerNotFound, ownerID)
	}
	return cloneOwner(owner), nil
}

// Owners returns the owner ids, sorted.
func (s *ScriptStore) Owners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.owners))
	for _, o := range s.owners {
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneOwner(o domain.Owner) domain.Owner {
	nodes := make([]domain.ScriptNode, len(o.Script.Nodes))
	for i, n := range o.Script.Nodes {
		n.Properties = n.Properties.Clone()
		nodes[i] = n
	}
	o.Script = domain.Script{
		Nodes:       nodes,
		Connections: append([]domain.Connection{}, o.Script.Connections...),
	}
	return o
}

// Catalog implements ports.ObjectCatalog over a map of object names.
type Catalog struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewCatalog creates a catalog from object id to display name.
func NewCatalog(names map[string]string) *Catalog {
	c := &Catalog{names: make(map[string]string, len(names))}
	for id, name := range names {
		c.names[domain.FoldID(id)] = name
	}
	return c
}

// Set registers or renames an object.
func (c *Catalog) Set(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[domain.FoldID(id)] = name
}

// ObjectName resolves the display name of an object.
func (c *Catalog) ObjectName(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[domain.FoldID(id)]
	return name, ok
}
