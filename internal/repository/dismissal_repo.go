package repository

import (
	"context"
	"fmt"

	"copyforge/internal/models"
	"copyforge/internal/notify"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DismissalRepository is insert-only. The unique (user_id, notification_id)
// index turns repeated inserts into no-ops, so concurrent writers converge.
type DismissalRepository struct {
	db *gorm.DB
}

func NewDismissalRepository(db *gorm.DB) *DismissalRepository {
	return &DismissalRepository{db: db}
}

func (r *DismissalRepository) ListByUser(ctx context.Context, userID uint) (notify.DismissedSet, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.NotificationDismissal{}).
		Where("user_id = ?", userID).
		Pluck("notification_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return notify.NewDismissedSet(ids...), nil
}

func (r *DismissalRepository) Insert(ctx context.Context, userID uint, notificationID string) error {
	return r.InsertBulk(ctx, userID, []string{notificationID})
}

func (r *DismissalRepository) InsertBulk(ctx context.Context, userID uint, notificationIDs []string) error {
	seen := make(map[string]struct{}, len(notificationIDs))
	rows := make([]models.NotificationDismissal, 0, len(notificationIDs))
	for _, id := range notificationIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, models.NotificationDismissal{UserID: userID, NotificationID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Fingerprint changes whenever any user dismisses something.
func (r *DismissalRepository) Fingerprint(ctx context.Context) (string, error) {
	var stats struct {
		Total int64
		MaxID int64
	}
	err := r.db.WithContext(ctx).Model(&models.NotificationDismissal{}).
		Select("COUNT(*) AS total, COALESCE(MAX(id), 0) AS max_id").
		Scan(&stats).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d", stats.Total, stats.MaxID), nil
}
