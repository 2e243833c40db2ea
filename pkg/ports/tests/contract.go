package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
)

// ScriptStoreContractTest is a reusable test suite that verifies if an adapter
// complies with ports.ScriptStore. expected lists the owners the store was seeded with.
func ScriptStoreContractTest(t *testing.T, store ports.ScriptStore, expected []domain.Owner) {
	t.Helper()
	ctx := context.Background()

	t.Run("Owner_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := store.Owner(ctx, want.ID)
			if err != nil {
				t.Fatalf("unexpected error getting owner %s: %v", want.ID, err)
			}
			if got.DisplayName != want.DisplayName {
				t.Errorf("display name mismatch for %s. got %q, want %q", want.ID, got.DisplayName, want.DisplayName)
			}
			if len(got.Script.Nodes) != len(want.Script.Nodes) {
				t.Errorf("node count mismatch for %s. got %d, want %d", want.ID, len(got.Script.Nodes), len(want.Script.Nodes))
			}
		}
	})

	t.Run("Owner_CaseInsensitive", func(t *testing.T) {
		for _, want := range expected {
			if _, err := store.Owner(ctx, swapCase(want.ID)); err != nil {
				t.Errorf("expected case-insensitive lookup of %s, got %v", want.ID, err)
			}
		}
	})

	t.Run("Owner_NotFound", func(t *testing.T) {
		_, err := store.Owner(ctx, "non-existent-owner")
		if !errors.Is(err, domain.ErrOwnerNotFound) {
			t.Errorf("expected ErrOwnerNotFound, got %v", err)
		}
	})

	t.Run("Owners", func(t *testing.T) {
		ids, err := store.Owners(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing owners: %v", err)
		}
		if len(ids) != len(expected) {
			t.Errorf("expected %d owners, got %d", len(expected), len(ids))
		}
		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[domain.FoldID(id)] = true
		}
		for _, want := range expected {
			if !lookup[domain.FoldID(want.ID)] {
				t.Errorf("owner %s missing from list", want.ID)
			}
		}
	})
}

func swapCase(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			out[i] = r - 'A' + 'a'
		}
	}
	return string(out)
}
