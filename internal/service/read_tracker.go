package service

import (
	"sync"

	"copyforge/internal/notify"
)

// ReadTracker keeps read/unread flags in memory only. They are lost on
// restart and are unrelated to dismissals.
type ReadTracker struct {
	mu     sync.Mutex
	byUser map[uint]notify.ReadSet
}

func NewReadTracker() *ReadTracker {
	return &ReadTracker{byUser: make(map[uint]notify.ReadSet)}
}

func (t *ReadTracker) MarkRead(userID uint, ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.byUser[userID]
	if set == nil {
		set = make(notify.ReadSet)
		t.byUser[userID] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

// ReadSet returns a copy of the user's read ids.
func (t *ReadTracker) ReadSet(userID uint) notify.ReadSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(notify.ReadSet, len(t.byUser[userID]))
	for id := range t.byUser[userID] {
		out[id] = struct{}{}
	}
	return out
}
