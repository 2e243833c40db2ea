package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sess := domain.NewSession(sessionID)
		sess.Money = 42
		sess.AddItem("lantern")
		sess.SetFlag("met_greta")
		sess.StartQuest("lost_ring")
		sess.Conversation = domain.NewExecutionState("conv-1", "greta", "choice")
		sess.Conversation.MarkVisited("start")
		sess.Conversation.MarkVisited("choice")
		sess.Conversation.CurrentOptions = []domain.Option{{Index: 0, Text: "Hi", Enabled: true, Slot: 2}}

		require.NoError(t, store.Save(ctx, sess))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 42, loaded.Money)
		assert.Equal(t, []string{"lantern"}, loaded.Inventory)
		assert.True(t, loaded.Flag("met_greta"))
		assert.Equal(t, domain.QuestInProgress, loaded.QuestStatusOf("lost_ring"))
		require.NotNil(t, loaded.ActiveConversation())
		assert.Equal(t, "choice", loaded.Conversation.CurrentNodeID)
		assert.Equal(t, []string{"start", "choice"}, loaded.Conversation.VisitedNodeIDs)
		assert.Equal(t, 2, loaded.Conversation.CurrentOptions[0].Slot)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Money = 0
		loaded.AddItem("stolen")

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 42, again.Money)
		assert.False(t, again.HasItem("stolen"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})
}
