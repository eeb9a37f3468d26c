package repository

import (
	"context"
	"fmt"

	"copyforge/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListActive returns every active notification, newest first. No pagination:
// admins keep a handful of announcements live at a time.
func (r *NotificationRepository) ListActive(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").Find(&list).Error
	return list, err
}

// List returns all notifications for the admin console.
func (r *NotificationRepository) List(ctx context.Context, page, limit int) ([]models.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *NotificationRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Fingerprint changes whenever a notification is created, toggled or deleted.
func (r *NotificationRepository) Fingerprint(ctx context.Context) (string, error) {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		return "", err
	}
	var latest []models.Notification
	if err := db.Select("updated_at").Order("updated_at DESC").Limit(1).Find(&latest).Error; err != nil {
		return "", err
	}
	var ts int64
	if len(latest) > 0 {
		ts = latest[0].UpdatedAt.UnixNano()
	}
	return fmt.Sprintf("%d:%d", count, ts), nil
}
