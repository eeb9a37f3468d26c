package models

import (
	"time"

	"copyforge/internal/notify"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // USER | ADMIN
	WordsUsed    *int           `json:"words_used"`
	WordsLimit   *int           `json:"words_limit"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Profile exposes the usage counters consumed by the aggregator.
func (u *User) Profile() notify.Profile {
	return notify.Profile{WordsUsed: u.WordsUsed, WordsLimit: u.WordsLimit}
}
