package store_test

import (
	"testing"

	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryCountOnline(t *testing.T) {
	col := store.NewCollection()
	limits := store.DefaultLimits()
	repo := store.NewUserRepository(col, &limits)

	assert.Equal(t, &limits, repo.Limits())

	status, alice := repo.AddUser(store.ObserverContext{CurrentTime: idgen.Timestamp(100)}, "alice", "alice-auth")
	require.Equal(t, store.OK, status)
	status, _ = repo.AddUser(store.ObserverContext{CurrentTime: idgen.Timestamp(500)}, "bob", "bob-auth")
	require.Equal(t, store.OK, status)

	col.TouchLastSeen(alice.ID, idgen.Timestamp(900), 0)

	// Anonymous sentinel and bob still carry their zero-value lastSeen; alice
	// was bumped to 900. A wide window (cutoff below zero) catches all three.
	assert.Equal(t, 3, repo.CountOnline(idgen.Timestamp(900), 1000))
	// A narrow window only catches alice's freshly bumped lastSeen.
	assert.Equal(t, 1, repo.CountOnline(idgen.Timestamp(900), 5))
}
