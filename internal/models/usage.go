package models

import "time"

// UsageEvent is one generator run and the words it consumed.
type UsageEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Tool      string    `gorm:"size:64;not null" json:"tool"`
	Words     int       `gorm:"not null" json:"words"`
	CreatedAt time.Time `json:"created_at"`
}

func (UsageEvent) TableName() string {
	return "usage_events"
}
