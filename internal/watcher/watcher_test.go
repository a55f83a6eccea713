package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

func TestCreateAndGet(t *testing.T) {
	r := New()
	w := r.Create("total", "bp-1", "this.total")

	got, err := r.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "total", got.Label)
	assert.Equal(t, "bp-1", got.BreakpointID)
	assert.Equal(t, "this.total", got.Expression)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	assert.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.WatcherNotFound))
}

func TestForBreakpointGroupsByBreakpoint(t *testing.T) {
	r := New()
	a := r.Create("a", "bp-1", "x")
	b := r.Create("b", "bp-1", "y")
	r.Create("c", "bp-2", "z")

	got := r.ForBreakpoint("bp-1")
	ids := map[string]bool{}
	for _, w := range got {
		ids[w.ID] = true
	}
	assert.Len(t, got, 2)
	assert.True(t, ids[a.ID])
	assert.True(t, ids[b.ID])
}

func TestDeleteRemovesFromBothIndexes(t *testing.T) {
	r := New()
	w := r.Create("a", "bp-1", "x")

	assert.True(t, r.Delete(w.ID))
	assert.False(t, r.Delete(w.ID))

	_, err := r.Get(w.ID)
	assert.Error(t, err)
	assert.Empty(t, r.ForBreakpoint("bp-1"))
}

func TestDeleteForBreakpointRemovesOnlyThatBreakpointsWatchers(t *testing.T) {
	r := New()
	r.Create("a", "bp-1", "x")
	r.Create("b", "bp-1", "y")
	kept := r.Create("c", "bp-2", "z")

	n := r.DeleteForBreakpoint("bp-1")
	assert.Equal(t, 2, n)
	assert.Empty(t, r.ForBreakpoint("bp-1"))

	got, err := r.Get(kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "c", got.Label)
}

func TestAllReturnsEveryWatcher(t *testing.T) {
	r := New()
	r.Create("a", "bp-1", "x")
	r.Create("b", "bp-2", "y")
	assert.Len(t, r.All(), 2)
}

func TestClearEmptiesBothIndexes(t *testing.T) {
	r := New()
	r.Create("a", "bp-1", "x")
	r.Clear()
	assert.Empty(t, r.All())
	assert.Empty(t, r.ForBreakpoint("bp-1"))
}

func TestCreateGeneratesDistinctIDs(t *testing.T) {
	r := New()
	a := r.Create("a", "bp-1", "x")
	b := r.Create("b", "bp-1", "y")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewWatcherAllowsFirstFireThenThrottles(t *testing.T) {
	r := New()
	w := r.Create("a", "bp-1", "x")

	assert.True(t, w.Allow())
	assert.False(t, w.Allow())
}
