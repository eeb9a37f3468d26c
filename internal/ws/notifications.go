package ws

import (
	"context"
	"sync"
	"time"

	"copyforge/internal/changefeed"
	"copyforge/internal/service"

	"github.com/sirupsen/logrus"
)

const refreshTimeout = 10 * time.Second

// Feeder produces the current notification feed of a user.
type Feeder interface {
	Feed(ctx context.Context, userID uint) service.Feed
}

type Message struct {
	Type string       `json:"type"`
	Data service.Feed `json:"data"`
}

// NotificationHub pushes a fresh feed to connected users whenever the change
// feed fires. Refreshes are debounced per user; overlapping refreshes are
// harmless because the last one written wins.
type NotificationHub struct {
	*Hub
	feeds    Feeder
	debounce time.Duration
	log      logrus.FieldLogger

	mu         sync.Mutex
	debouncers map[uint]*changefeed.Debouncer
}

func NewNotificationHub(feeds Feeder, debounce time.Duration, log logrus.FieldLogger) *NotificationHub {
	return &NotificationHub{
		Hub:        NewHub(),
		feeds:      feeds,
		debounce:   debounce,
		log:        log,
		debouncers: make(map[uint]*changefeed.Debouncer),
	}
}

// Attach subscribes the hub to feed and returns the unsubscribe function.
func (h *NotificationHub) Attach(feed *changefeed.Feed) func() {
	return feed.Subscribe(h.onChange)
}

func (h *NotificationHub) onChange(ev changefeed.Event) {
	if ev.UserID != 0 && ev.Category != changefeed.CategoryNotifications {
		h.schedule(ev.UserID)
		return
	}
	for _, id := range h.Users() {
		h.schedule(id)
	}
}

func (h *NotificationHub) schedule(userID uint) {
	h.mu.Lock()
	d := h.debouncers[userID]
	h.mu.Unlock()
	if d != nil {
		d.Trigger()
	}
}

// Join registers c and sends it the current feed right away.
func (h *NotificationHub) Join(c *Client) {
	h.Register(c)
	h.mu.Lock()
	if h.debouncers[c.UserID] == nil {
		userID := c.UserID
		h.debouncers[userID] = changefeed.NewDebouncer(h.debounce, func() { h.Refresh(userID) })
	}
	h.mu.Unlock()
	h.Refresh(c.UserID)
}

// Leave closes c and drops the user's debouncer once no connection is left.
func (h *NotificationHub) Leave(c *Client) {
	c.Close()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ConnectionCount(c.UserID) > 0 {
		return
	}
	if d := h.debouncers[c.UserID]; d != nil {
		d.Stop()
		delete(h.debouncers, c.UserID)
	}
}

// Refresh re-aggregates and pushes the feed of userID to all its connections.
func (h *NotificationHub) Refresh(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	feed := h.feeds.Feed(ctx, userID)
	sent := h.BroadcastToUser(userID, Message{Type: "notifications", Data: feed})
	h.log.WithFields(logrus.Fields{"user_id": userID, "connections": sent, "count": len(feed.Notifications)}).Debug("notification feed pushed")
}

// Close stops every pending refresh.
func (h *NotificationHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, d := range h.debouncers {
		d.Stop()
		delete(h.debouncers, id)
	}
}
