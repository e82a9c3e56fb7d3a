package store_test

import (
	"testing"

	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
	"github.com/stretchr/testify/require"
)

// A negative grant at an outer scope (thread) must not be discarded by a
// positive grant at an inner scope (message): the whole chain is combined
// once via max-positive minus max-magnitude-negative, not resolved level
// by level.
func TestAssignedValueOuterNegativeGrantOverridesInnerPositive(t *testing.T) {
	col := store.NewCollection()
	limits := store.DefaultLimits()
	threads := store.NewThreadRepository(col, &limits)
	messages := store.NewMessageRepository(col, &limits)

	now := idgen.Timestamp(1000)
	status, thread := threads.AddThread(store.ObserverContext{CurrentTime: now}, "thread-one", nil)
	require.Equal(t, store.OK, status)

	status, msg := messages.AddMessage(store.ObserverContext{CurrentTime: now}, thread.ID, "hello")
	require.Equal(t, store.OK, status)

	user := idgen.NewID()
	priv := entities.PrivUpVote

	// Effective ban at thread scope, partially offset by a smaller positive
	// grant at message scope.
	col.DirectSetAssignedPrivilege(user, priv, entities.ScopeThread, thread.ID, -10, now, 0)
	col.DirectSetAssignedPrivilege(user, priv, entities.ScopeMessage, msg.ID, 5, now, 0)

	got := col.AssignedValue(user, priv, entities.ScopeMessage, msg.ID, now)
	require.Equal(t, 0, got, "max(+5) - |-10| = -5, clipped to 0 — outer negative must not be discarded")
}

func TestAssignedValueCombinesAcrossEntireChain(t *testing.T) {
	col := store.NewCollection()
	limits := store.DefaultLimits()
	threads := store.NewThreadRepository(col, &limits)
	messages := store.NewMessageRepository(col, &limits)

	now := idgen.Timestamp(1000)
	status, thread := threads.AddThread(store.ObserverContext{CurrentTime: now}, "thread-two", nil)
	require.Equal(t, store.OK, status)
	status, msg := messages.AddMessage(store.ObserverContext{CurrentTime: now}, thread.ID, "hello")
	require.Equal(t, store.OK, status)

	user := idgen.NewID()
	priv := entities.PrivUpVote

	// A larger positive at thread scope outweighs a smaller negative at
	// forum-wide scope, regardless of which level it was granted at.
	col.DirectSetAssignedPrivilege(user, priv, entities.ScopeForumWide, idgen.Zero, -3, now, 0)
	col.DirectSetAssignedPrivilege(user, priv, entities.ScopeThread, thread.ID, 8, now, 0)

	got := col.AssignedValue(user, priv, entities.ScopeMessage, msg.ID, now)
	require.Equal(t, 5, got, "max(+8) - |-3| = 5")
}
