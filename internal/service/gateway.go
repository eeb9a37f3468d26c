package service

import (
	"context"
	"fmt"

	"copyforge/internal/notify"
	"copyforge/internal/repository"
)

// Gateway is everything the notification surfaces need from storage.
type Gateway interface {
	GetProfile(ctx context.Context, userID uint) (notify.Profile, error)
	ListActiveNotifications(ctx context.Context) ([]notify.Persisted, error)
	ListDismissals(ctx context.Context, userID uint) (notify.DismissedSet, error)
	InsertDismissal(ctx context.Context, userID uint, notificationID string) error
	InsertDismissalsBulk(ctx context.Context, userID uint, notificationIDs []string) error
}

// RepoGateway implements Gateway on the gorm repositories.
type RepoGateway struct {
	users         *repository.UserRepository
	notifications *repository.NotificationRepository
	dismissals    *repository.DismissalRepository
}

func NewRepoGateway(users *repository.UserRepository, notifications *repository.NotificationRepository, dismissals *repository.DismissalRepository) *RepoGateway {
	return &RepoGateway{users: users, notifications: notifications, dismissals: dismissals}
}

func (g *RepoGateway) GetProfile(ctx context.Context, userID uint) (notify.Profile, error) {
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return notify.Profile{}, fmt.Errorf("loading user %d: %w", userID, err)
	}
	return u.Profile(), nil
}

func (g *RepoGateway) ListActiveNotifications(ctx context.Context) ([]notify.Persisted, error) {
	rows, err := g.notifications.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active notifications: %w", err)
	}
	out := make([]notify.Persisted, len(rows))
	for i := range rows {
		out[i] = rows[i].Persisted()
	}
	return out, nil
}

func (g *RepoGateway) ListDismissals(ctx context.Context, userID uint) (notify.DismissedSet, error) {
	set, err := g.dismissals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing dismissals for user %d: %w", userID, err)
	}
	return set, nil
}

func (g *RepoGateway) InsertDismissal(ctx context.Context, userID uint, notificationID string) error {
	return g.dismissals.Insert(ctx, userID, notificationID)
}

func (g *RepoGateway) InsertDismissalsBulk(ctx context.Context, userID uint, notificationIDs []string) error {
	return g.dismissals.InsertBulk(ctx, userID, notificationIDs)
}
