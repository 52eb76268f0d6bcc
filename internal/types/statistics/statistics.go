package statistics

import "time"

type GameStatistics struct {
	UserID        string     `json:"user_id" db:"user_id"`
	TotalClicks   int64      `json:"total_clicks" db:"total_clicks"`
	PowerUpsUsed  int        `json:"power_ups_used" db:"power_ups_used"`
	PrestigeLevel int        `json:"prestige_level" db:"prestige_level"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	LastClickAt   *time.Time `json:"last_click_at" db:"last_click_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
