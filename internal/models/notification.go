package models

import (
	"time"

	"copyforge/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is an admin-authored announcement. Only admins toggle or
// delete it; end users hide it through a NotificationDismissal.
type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (n *Notification) Persisted() notify.Persisted {
	return notify.Persisted{
		ID:        n.ID,
		Type:      notify.Type(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsActive:  n.IsActive,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationDismissal records that a user hid a notification id for good.
// NotificationID is not a foreign key: synthetic ids like "welcome" have no row.
type NotificationDismissal struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_dismissal_user_notification" json:"user_id"`
	NotificationID string    `gorm:"size:64;not null;uniqueIndex:idx_dismissal_user_notification" json:"notification_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (NotificationDismissal) TableName() string {
	return "notification_dismissals"
}
