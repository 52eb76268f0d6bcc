package profile

import "time"

type UserProfile struct {
	ID            string    `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	Username      *string   `json:"username,omitempty" db:"username"`
	WalletAddress *string   `json:"wallet_address,omitempty" db:"wallet_address"`
	Roles         []string  `json:"roles" db:"roles"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateProfileRequest struct {
	Email         *string `json:"email,omitempty"`
	Username      *string `json:"username,omitempty"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// HasRole reports whether the profile carries the given role tag.
func (p *UserProfile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
