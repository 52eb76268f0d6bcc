package clan

import (
	"time"

	"github.com/google/uuid"
)

type Clan struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateClanRequest struct {
	// ID is optional; migration supplies the staged clan's id so a
	// retried run lands on the same row.
	ID      *uuid.UUID `json:"id,omitempty"`
	Name    string     `json:"name"`
	OwnerID string     `json:"owner_id"`
}

type MemberRequest struct {
	UserID string `json:"user_id"`
}
