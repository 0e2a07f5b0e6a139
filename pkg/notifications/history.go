package notifications

import (
	"slices"
	"time"
)

// entry is the mutable record behind a Message. All fields are guarded by
// the dispatcher mutex.
type entry struct {
	msg      Message
	inFlight bool
	retryAt  time.Time
}

// history is a capacity-bounded list of entries, oldest first.
type history struct {
	capacity int
	entries  []*entry
	byID     map[string]*entry
}

func newHistory(capacity int) *history {
	return &history{
		capacity: capacity,
		byID:     make(map[string]*entry),
	}
}

// add appends e and evicts other entries while over capacity. Evicted
// entries that were not settled are returned.
func (h *history) add(e *entry) (unsettled []*entry) {
	h.entries = append(h.entries, e)
	h.byID[e.msg.ID] = e
	return h.trim(e)
}

// resize changes the capacity and evicts down to it.
func (h *history) resize(capacity int) (unsettled []*entry) {
	h.capacity = capacity
	return h.trim(nil)
}

// trim evicts until the list fits its capacity, never choosing keep. The
// oldest settled idle entry goes first, then the oldest idle one, then the
// oldest of the rest.
func (h *history) trim(keep *entry) (unsettled []*entry) {
	for len(h.entries) > h.capacity {
		idx := h.oldest(keep, func(e *entry) bool { return !e.inFlight && e.msg.Settled() })
		if idx < 0 {
			idx = h.oldest(keep, func(e *entry) bool { return !e.inFlight })
		}
		if idx < 0 {
			idx = h.oldest(keep, func(*entry) bool { return true })
		}
		if idx < 0 {
			break
		}

		evicted := h.entries[idx]
		h.entries = slices.Delete(h.entries, idx, idx+1)
		delete(h.byID, evicted.msg.ID)
		if !evicted.msg.Settled() {
			unsettled = append(unsettled, evicted)
		}
	}
	return unsettled
}

func (h *history) oldest(keep *entry, match func(*entry) bool) int {
	return slices.IndexFunc(h.entries, func(e *entry) bool { return e != keep && match(e) })
}

func (h *history) get(id string) (*entry, bool) {
	e, ok := h.byID[id]
	return e, ok
}

func (h *history) len() int { return len(h.entries) }

// newestFirst returns snapshots of entries from newest to oldest, skipping
// offset entries and returning at most limit (limit <= 0 means all).
func (h *history) newestFirst(limit, offset int) []Message {
	n := len(h.entries)
	if offset < 0 {
		offset = 0
	}
	if offset >= n {
		return []Message{}
	}
	count := n - offset
	if limit > 0 && limit < count {
		count = limit
	}

	out := make([]Message, 0, count)
	for i := n - 1 - offset; i >= 0 && len(out) < count; i-- {
		out = append(out, h.entries[i].msg.clone())
	}
	return out
}

func (h *history) filter(keep func(*entry) bool) []*entry {
	var out []*entry
	for _, e := range h.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
