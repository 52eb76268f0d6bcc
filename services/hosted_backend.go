package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/profile"
	"tapEmpireAPI/internal/types/settings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HostedBackend implements the storage contract against the hosted
// Postgres service. Each operation is a single independent write or
// read; the hosted store is the system of record once migration ran.
type HostedBackend struct {
	db *pgxpool.Pool
}

var _ storage.Backend = (*HostedBackend)(nil)

func NewHostedBackend(db *pgxpool.Pool) *HostedBackend {
	return &HostedBackend{db: db}
}

const profileColumns = "id, email, username, wallet_address, roles, created_at, updated_at"

func scanProfile(row pgx.Row) (*profile.UserProfile, error) {
	p := &profile.UserProfile{}
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Username,
		&p.WalletAddress,
		&p.Roles,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateUserProfile upserts the profile row. Overwrite semantics on
// conflict keep a retried migration idempotent; roles are never
// touched by the upsert.
func (b *HostedBackend) CreateUserProfile(ctx context.Context, p *profile.UserProfile) (*profile.UserProfile, error) {
	query := `
	INSERT INTO user_profiles (id, email, username, wallet_address, created_at, updated_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET email = EXCLUDED.email,
	    username = EXCLUDED.username,
	    wallet_address = EXCLUDED.wallet_address,
	    updated_at = NOW()
	RETURNING ` + profileColumns

	var createdAt *time.Time
	if !p.CreatedAt.IsZero() {
		createdAt = &p.CreatedAt
	}

	created, err := scanProfile(b.db.QueryRow(ctx, query, p.ID, p.Email, p.Username, p.WalletAddress, createdAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}
	return created, nil
}

func (b *HostedBackend) GetUserProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`

	p, err := scanProfile(b.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return p, nil
}

func (b *HostedBackend) UpdateUserProfile(ctx context.Context, userID string, req *profile.UpdateProfileRequest) (*profile.UserProfile, error) {
	query := `
	UPDATE user_profiles
	SET email = COALESCE($2, email),
	    username = COALESCE($3, username),
	    wallet_address = COALESCE($4, wallet_address),
	    updated_at = NOW()
	WHERE id = $1
	RETURNING ` + profileColumns

	p, err := scanProfile(b.db.QueryRow(ctx, query, userID, req.Email, req.Username, req.WalletAddress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return p, nil
}

// GetProfileByWallet looks up the authenticated user's profile and
// checks that it owns the claimed wallet address. Used directly by
// the admin endpoints, bypassing the selector.
func (b *HostedBackend) GetProfileByWallet(ctx context.Context, userID, walletAddress string) (*profile.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1 AND wallet_address = $2`

	p, err := scanProfile(b.db.QueryRow(ctx, query, userID, walletAddress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by wallet: %w", err)
	}
	return p, nil
}

func (b *HostedBackend) GetGameSettings(ctx context.Context, userID string) (*settings.GameSettings, error) {
	query := `
	SELECT user_id, sound, music, notifications, theme, updated_at
	FROM game_settings
	WHERE user_id = $1
	`

	s := &settings.GameSettings{}
	err := b.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.Sound,
		&s.Music,
		&s.Notifications,
		&s.Theme,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game settings: %w", err)
	}
	return s, nil
}

// UpdateGameSettings overwrites the whole preference bundle.
func (b *HostedBackend) UpdateGameSettings(ctx context.Context, userID string, s *settings.GameSettings) (*settings.GameSettings, error) {
	query := `
	INSERT INTO game_settings (user_id, sound, music, notifications, theme, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET sound = EXCLUDED.sound,
	    music = EXCLUDED.music,
	    notifications = EXCLUDED.notifications,
	    theme = EXCLUDED.theme,
	    updated_at = NOW()
	RETURNING user_id, sound, music, notifications, theme, updated_at
	`

	updated := &settings.GameSettings{}
	err := b.db.QueryRow(ctx, query, userID, s.Sound, s.Music, s.Notifications, s.Theme).Scan(
		&updated.UserID,
		&updated.Sound,
		&updated.Music,
		&updated.Notifications,
		&updated.Theme,
		&updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update game settings: %w", err)
	}
	return updated, nil
}
