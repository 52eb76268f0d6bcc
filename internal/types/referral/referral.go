package referral

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	StatusPending   ReferralStatus = "pending"
	StatusCompleted ReferralStatus = "completed"
)

type Referral struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	ReferrerID  string         `json:"referrer_id" db:"referrer_id"`
	ReferredID  string         `json:"referred_id" db:"referred_id"`
	Status      ReferralStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at" db:"completed_at"`
}

type CreateReferralRequest struct {
	ReferredID string `json:"referred_id"`
}
