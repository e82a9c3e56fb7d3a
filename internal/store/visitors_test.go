package store_test

import (
	"net"
	"testing"

	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestVisitorsTouchAndCount(t *testing.T) {
	v := store.NewVisitors()
	v.Touch(net.ParseIP("10.0.0.1"), idgen.Timestamp(100))
	v.Touch(net.ParseIP("10.0.0.2"), idgen.Timestamp(150))
	v.Touch(net.ParseIP("10.0.0.1"), idgen.Timestamp(160)) // repeat hit, same IP

	assert.Equal(t, 2, v.Count(idgen.Timestamp(200), 300))
}

func TestVisitorsCountPrunesStaleEntries(t *testing.T) {
	v := store.NewVisitors()
	v.Touch(net.ParseIP("10.0.0.1"), idgen.Timestamp(0))
	v.Touch(net.ParseIP("10.0.0.2"), idgen.Timestamp(500))

	assert.Equal(t, 1, v.Count(idgen.Timestamp(500), 100))
	// a second call re-counts against the already-pruned state
	assert.Equal(t, 1, v.Count(idgen.Timestamp(500), 1000))
}

func TestVisitorsTouchIgnoresNilIP(t *testing.T) {
	v := store.NewVisitors()
	v.Touch(nil, idgen.Timestamp(10))

	assert.Equal(t, 0, v.Count(idgen.Timestamp(10), 1000))
}
