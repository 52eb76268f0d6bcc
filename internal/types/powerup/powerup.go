package powerup

import "time"

// Known power-up type tags. The store accepts any tag so new
// power-ups ship without a backend deploy.
const (
	TypeAutoClicker = "auto_clicker"
	TypeDoubleTap   = "double_tap"
	TypeGoldenTouch = "golden_touch"
)

type PowerUp struct {
	UserID          string    `json:"user_id" db:"user_id"`
	Type            string    `json:"type" db:"type"`
	Quantity        int       `json:"quantity" db:"quantity"`
	LastPurchasedAt time.Time `json:"last_purchased_at" db:"last_purchased_at"`
}

type AddPowerUpRequest struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}
