package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"copyforge/internal/changefeed"
	"copyforge/internal/notify"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDismissFailed         = errors.New("could not dismiss notification")
	ErrInvalidNotificationID = errors.New("invalid notification id")

	errIncompleteFeed = errors.New("visible notifications could not be fully read")
)

// maxNotificationIDLength matches the dismissal column size.
const maxNotificationIDLength = 64

// Feed is what the badge and the panel render.
type Feed struct {
	Notifications []notify.Item `json:"notifications"`
	UnreadCount   int           `json:"unread_count"`
	// Partial is set when a source could not be read and the list may be stale.
	Partial bool `json:"partial"`
}

type NotificationService struct {
	gw    Gateway
	agg   *notify.Aggregator
	reads *ReadTracker
	pub   changefeed.Publisher
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewNotificationService(gw Gateway, agg *notify.Aggregator, reads *ReadTracker, pub changefeed.Publisher, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{gw: gw, agg: agg, reads: reads, pub: pub, log: log, now: time.Now}
}

// Feed fetches profile, dismissals and active notifications and aggregates
// them. A failed fetch is logged and treated as empty; Feed never fails.
func (s *NotificationService) Feed(ctx context.Context, userID uint) Feed {
	items, partial := s.visible(ctx, userID)
	return Feed{
		Notifications: items,
		UnreadCount:   notify.UnreadCount(items, s.reads.ReadSet(userID)),
		Partial:       partial,
	}
}

func (s *NotificationService) visible(ctx context.Context, userID uint) ([]notify.Item, bool) {
	var (
		profile   notify.Profile
		dismissed notify.DismissedSet
		persisted []notify.Persisted
		failures  [3]error
	)
	log := s.log.WithField("user_id", userID)

	var g errgroup.Group
	g.Go(func() error {
		profile, failures[0] = s.gw.GetProfile(ctx, userID)
		return nil
	})
	g.Go(func() error {
		dismissed, failures[1] = s.gw.ListDismissals(ctx, userID)
		return nil
	})
	g.Go(func() error {
		persisted, failures[2] = s.gw.ListActiveNotifications(ctx)
		return nil
	})
	_ = g.Wait()

	partial := false
	for _, err := range failures {
		if err != nil {
			partial = true
			log.WithError(err).Warn("notification feed: fetch failed, continuing with partial data")
		}
	}
	if failures[1] != nil {
		// Unknown dismissals would resurface items the user already hid.
		return []notify.Item{}, true
	}
	if failures[0] != nil {
		// Without a profile neither welcome nor the usage tiers can be judged.
		return s.agg.AggregatePersisted(dismissed, persisted), partial
	}
	return s.agg.Aggregate(profile, dismissed, persisted, s.now()), partial
}

// Dismiss hides id for userID permanently. Synthetic and persisted ids are
// stored the same way.
func (s *NotificationService) Dismiss(ctx context.Context, userID uint, id string) error {
	if id == "" || len(id) > maxNotificationIDLength {
		return ErrInvalidNotificationID
	}
	if err := s.gw.InsertDismissal(ctx, userID, id); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "notification_id": id}).Error("dismiss failed")
		return fmt.Errorf("%w: %w", ErrDismissFailed, err)
	}
	s.pub.Publish(changefeed.Event{Category: changefeed.CategoryDismissals, UserID: userID})
	return nil
}

// DismissAll dismisses every currently visible notification and returns
// their ids. It fails without writing when the visible list is incomplete.
func (s *NotificationService) DismissAll(ctx context.Context, userID uint) ([]string, error) {
	items, partial := s.visible(ctx, userID)
	if partial {
		return nil, fmt.Errorf("%w: %w", ErrDismissFailed, errIncompleteFeed)
	}
	ids := notify.IDs(items)
	if len(ids) == 0 {
		return ids, nil
	}
	if err := s.gw.InsertDismissalsBulk(ctx, userID, ids); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("dismiss all failed")
		return nil, fmt.Errorf("%w: %w", ErrDismissFailed, err)
	}
	s.pub.Publish(changefeed.Event{Category: changefeed.CategoryDismissals, UserID: userID})
	return ids, nil
}

func (s *NotificationService) MarkRead(userID uint, id string) error {
	if id == "" || len(id) > maxNotificationIDLength {
		return ErrInvalidNotificationID
	}
	s.reads.MarkRead(userID, id)
	return nil
}

// MarkAllRead marks every currently visible notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) {
	items, _ := s.visible(ctx, userID)
	s.reads.MarkRead(userID, notify.IDs(items)...)
}
