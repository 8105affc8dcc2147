package model

import "time"

// RateWindow is a fixed-window request counter. Keeping the counters in the
// database rather than per-process memory means every bridged instance sees
// the same counts.
type RateWindow struct {
	ID          int       `json:"id"`
	Scope       string    `json:"scope" gorm:"uniqueIndex:idx_rate_window"`
	UserID      int       `json:"user_id" gorm:"uniqueIndex:idx_rate_window"`
	WindowStart int64     `json:"window_start" gorm:"uniqueIndex:idx_rate_window"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RateWindow) TableName() string {
	return "rate_windows"
}
