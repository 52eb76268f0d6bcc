package settings

import "time"

type GameSettings struct {
	UserID        string    `json:"user_id" db:"user_id"`
	Sound         bool      `json:"sound" db:"sound"`
	Music         bool      `json:"music" db:"music"`
	Notifications bool      `json:"notifications" db:"notifications"`
	Theme         string    `json:"theme" db:"theme"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults returns the settings bundle a fresh user starts with.
func Defaults(userID string) *GameSettings {
	return &GameSettings{
		UserID:        userID,
		Sound:         true,
		Music:         true,
		Notifications: true,
		Theme:         "classic",
		UpdatedAt:     time.Now(),
	}
}
