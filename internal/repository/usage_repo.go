package repository

import (
	"context"

	"copyforge/internal/models"

	"gorm.io/gorm"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Record stores a usage event and adds its words to the user's counter in
// one transaction. It returns the updated user.
func (r *UsageRepository) Record(ctx context.Context, ev *models.UsageEvent) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", ev.UserID).
			Update("words_used", gorm.Expr("COALESCE(words_used, 0) + ?", ev.Words))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		return tx.First(&u, ev.UserID).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsageRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.UsageEvent, error) {
	var list []models.UsageEvent
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
