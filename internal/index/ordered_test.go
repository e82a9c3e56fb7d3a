package index_test

import (
	"testing"

	"github.com/danij/Forum-sub001/internal/index"
	"github.com/stretchr/testify/assert"
)

func intLess(a, b int) bool { return a < b }

func TestOrderedPageAndRank(t *testing.T) {
	o := index.NewOrdered(intLess)
	o.Insert(10, "a")
	o.Insert(30, "b")
	o.Insert(20, "c")

	assert.Equal(t, []string{"a", "c", "b"}, o.Page(0, 10, true))
	assert.Equal(t, []string{"b", "c", "a"}, o.Page(0, 10, false))
	assert.Equal(t, 1, o.Rank(20, "c"))
	assert.Equal(t, -1, o.Rank(99, "missing"))
}

func TestOrderedRemove(t *testing.T) {
	o := index.NewOrdered(intLess)
	o.Insert(5, "x")
	o.Insert(6, "y")
	o.Remove(5, "x")

	assert.Equal(t, 1, o.Len())
	assert.Equal(t, []string{"y"}, o.All())
}

func TestOrderedCountFrom(t *testing.T) {
	o := index.NewOrdered(intLess)
	for i, id := range []int{100, 200, 300, 400} {
		o.Insert(id, string(rune('a'+i)))
	}

	tests := []struct {
		name   string
		cutoff int
		want   int
	}{
		{"below all", 0, 4},
		{"exact match counts inclusive", 200, 3},
		{"between entries", 250, 2},
		{"above all", 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.CountFrom(tt.cutoff))
		})
	}
}
