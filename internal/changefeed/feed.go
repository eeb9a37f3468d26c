// Package changefeed signals that notification or dismissal records changed.
// Events carry no payload a subscriber must act on: every signal means
// "re-fetch everything".
package changefeed

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Category string

const (
	CategoryNotifications Category = "notifications"
	CategoryDismissals    Category = "dismissals"
	CategoryProfiles      Category = "profiles" // usage counters of one user
)

// Event describes a change. UserID is a hint (zero when the change is not
// scoped to one user). Origin is empty for changes made in this process.
type Event struct {
	Category Category `json:"category"`
	UserID   uint     `json:"user_id,omitempty"`
	Origin   string   `json:"origin,omitempty"`
}

// Publisher is implemented by Feed; services depend on this.
type Publisher interface {
	Publish(Event)
}

type Feed struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(Event)
	log  logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Feed {
	return &Feed{
		subs: make(map[uint64]func(Event)),
		log:  log,
	}
}

// Subscribe registers fn for every published event. The returned function
// removes the registration and is safe to call more than once.
func (f *Feed) Subscribe(fn func(Event)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish calls every subscriber on the caller's goroutine. Subscribers must
// not block; a panicking subscriber is logged and skipped.
func (f *Feed) Publish(ev Event) {
	f.mu.RLock()
	subs := make([]func(Event), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.RUnlock()
	for _, fn := range subs {
		f.call(fn, ev)
	}
}

func (f *Feed) call(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			f.log.WithField("category", ev.Category).Errorf("change subscriber panicked: %v", r)
		}
	}()
	fn(ev)
}

func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
