package inspector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
)

func TestEventHistoryEvictsOldestPastCapacity(t *testing.T) {
	h := NewEventHistory(2)
	h.Record(HistoryEntry{Kind: jdwp.EventBreakpoint, RequestID: 1})
	h.Record(HistoryEntry{Kind: jdwp.EventStep, RequestID: 2})
	h.Record(HistoryEntry{Kind: jdwp.EventClassPrepare, RequestID: 3})

	snap := h.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, uint32(2), snap[0].RequestID)
	assert.Equal(t, uint32(3), snap[1].RequestID)
}

func TestEventHistorySnapshotIsACopy(t *testing.T) {
	h := NewEventHistory(10)
	h.Record(HistoryEntry{Kind: jdwp.EventThreadStart, RequestID: 1})

	snap := h.Snapshot()
	snap[0].RequestID = 99

	again := h.Snapshot()
	assert.Equal(t, uint32(1), again[0].RequestID)
}
