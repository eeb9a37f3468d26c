package changefeed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"copyforge/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSubscribeAndUnsubscribe(t *testing.T) {
	f := New(logger.Discard())
	var got []Event
	unsubscribe := f.Subscribe(func(ev Event) { got = append(got, ev) })
	assert.Equal(t, 1, f.SubscriberCount())

	f.Publish(Event{Category: CategoryNotifications})
	f.Publish(Event{Category: CategoryDismissals, UserID: 7})
	unsubscribe()
	unsubscribe()
	f.Publish(Event{Category: CategoryNotifications})

	assert.Equal(t, []Event{
		{Category: CategoryNotifications},
		{Category: CategoryDismissals, UserID: 7},
	}, got)
	assert.Zero(t, f.SubscriberCount())
}

func TestFeedSurvivesPanickingSubscriber(t *testing.T) {
	f := New(logger.Discard())
	calls := 0
	f.Subscribe(func(Event) { panic("boom") })
	f.Subscribe(func(Event) { calls++ })

	assert.NotPanics(t, func() { f.Publish(Event{Category: CategoryNotifications}) })
	assert.Equal(t, 1, calls)
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 4)
	d := NewDebouncer(30*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	assert.Equal(t, int32(1), calls.Load())

	d.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second debounced call never fired")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestMonitorPublishesOnFingerprintChange(t *testing.T) {
	var mu sync.Mutex
	values := map[Category]string{CategoryNotifications: "1:100", CategoryDismissals: "0:0"}
	failing := true
	fp := func(c Category) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if c == CategoryDismissals && failing {
				failing = false
				return "", errors.New("db down")
			}
			return values[c], nil
		}
	}
	rec := &recorder{}
	m := NewMonitor(rec, time.Hour, logger.Discard(),
		Source{Category: CategoryNotifications, Fingerprint: fp(CategoryNotifications)},
		Source{Category: CategoryDismissals, Fingerprint: fp(CategoryDismissals)},
	)
	ctx := context.Background()

	m.poll(ctx)
	assert.Empty(t, rec.snapshot(), "first poll only records a baseline")

	m.poll(ctx)
	assert.Empty(t, rec.snapshot(), "recovered source establishes its baseline")

	mu.Lock()
	values[CategoryNotifications] = "2:200"
	mu.Unlock()
	m.poll(ctx)
	m.poll(ctx)
	assert.Equal(t, []Event{{Category: CategoryNotifications}}, rec.snapshot())

	mu.Lock()
	values[CategoryDismissals] = "1:1"
	mu.Unlock()
	m.poll(ctx)
	assert.Equal(t, []Event{{Category: CategoryNotifications}, {Category: CategoryDismissals}}, rec.snapshot())
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	rec := &recorder{}
	var polls atomic.Int32
	m := NewMonitor(rec, 5*time.Millisecond, logger.Discard(), Source{
		Category: CategoryNotifications,
		Fingerprint: func(context.Context) (string, error) {
			polls.Add(1)
			return "same", nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()
	require.Eventually(t, func() bool { return polls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.Empty(t, rec.snapshot())
}

func TestRedisBridgeLoopPrevention(t *testing.T) {
	f := New(logger.Discard())
	b := NewRedisBridge(nil, "test", f, logger.Discard())
	var local []Event
	f.Subscribe(func(ev Event) { local = append(local, ev) })

	b.forward(Event{Category: CategoryDismissals, UserID: 3})
	require.Len(t, b.out, 1)
	queued := <-b.out
	assert.Equal(t, b.instance, queued.Origin)

	b.forward(Event{Category: CategoryDismissals, Origin: "other"})
	assert.Len(t, b.out, 0)

	b.deliver(`{"category":"notifications","origin":"` + b.instance + `"}`)
	b.deliver(`{"category":"notifications"}`)
	b.deliver(`not json`)
	assert.Empty(t, local)

	b.deliver(`{"category":"notifications","origin":"other"}`)
	assert.Equal(t, []Event{{Category: CategoryNotifications, Origin: "other"}}, local)
}
