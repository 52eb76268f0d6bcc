package streak

import "time"

type Streak struct {
	UserID        string     `json:"user_id" db:"user_id"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	LongestStreak int        `json:"longest_streak" db:"longest_streak"`
	LastClickAt   *time.Time `json:"last_click_at" db:"last_click_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
