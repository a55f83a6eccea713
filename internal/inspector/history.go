package inspector

import (
	"sync"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
)

// HistoryEntry is one recorded protocol event (spec.md section 3's
// optional event history: breakpoint, step, exception, thread
// start/death, class prepare).
type HistoryEntry struct {
	Kind      jdwp.EventKind
	RequestID uint32
	ThreadID  jdwp.ThreadID
}

// EventHistory is a bounded ring buffer of the most recent events,
// grounded on the same fixed-capacity-slice-as-ring idiom
// teranos-QNTX/ats/watcher/engine.go uses for its retry queue's maxRetries
// cap.
type EventHistory struct {
	mu    sync.Mutex
	cap   int
	items []HistoryEntry
}

func NewEventHistory(capacity int) *EventHistory {
	return &EventHistory{cap: capacity}
}

// Record appends an entry, evicting the oldest once capacity is exceeded.
func (h *EventHistory) Record(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, e)
	if len(h.items) > h.cap {
		h.items = h.items[len(h.items)-h.cap:]
	}
}

// Snapshot returns a copy of the current ring contents, oldest first.
func (h *EventHistory) Snapshot() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.items))
	copy(out, h.items)
	return out
}
