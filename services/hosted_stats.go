package services

import (
	"context"
	"errors"
	"fmt"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/powerup"
	"tapEmpireAPI/internal/types/statistics"
	"tapEmpireAPI/internal/types/streak"

	"github.com/jackc/pgx/v5"
)

const statsColumns = "user_id, total_clicks, power_ups_used, prestige_level, current_streak, last_click_at, created_at, updated_at"

func scanStatistics(row pgx.Row) (*statistics.GameStatistics, error) {
	s := &statistics.GameStatistics{}
	err := row.Scan(
		&s.UserID,
		&s.TotalClicks,
		&s.PowerUpsUsed,
		&s.PrestigeLevel,
		&s.CurrentStreak,
		&s.LastClickAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *HostedBackend) GetStatistics(ctx context.Context, userID string) (*statistics.GameStatistics, error) {
	query := `SELECT ` + statsColumns + ` FROM game_statistics WHERE user_id = $1`

	s, err := scanStatistics(b.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return s, nil
}

// UpdateStatistics upserts the whole counters row. Overwrite
// semantics so a retried migration lands on the same values.
func (b *HostedBackend) UpdateStatistics(ctx context.Context, userID string, s *statistics.GameStatistics) (*statistics.GameStatistics, error) {
	query := `
	INSERT INTO game_statistics (user_id, total_clicks, power_ups_used, prestige_level, current_streak, last_click_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total_clicks = EXCLUDED.total_clicks,
	    power_ups_used = EXCLUDED.power_ups_used,
	    prestige_level = EXCLUDED.prestige_level,
	    current_streak = EXCLUDED.current_streak,
	    last_click_at = EXCLUDED.last_click_at,
	    updated_at = NOW()
	RETURNING ` + statsColumns

	updated, err := scanStatistics(b.db.QueryRow(ctx, query, userID, s.TotalClicks, s.PowerUpsUsed, s.PrestigeLevel, s.CurrentStreak, s.LastClickAt))
	if err != nil {
		return nil, fmt.Errorf("failed to update statistics: %w", err)
	}
	return updated, nil
}

func (b *HostedBackend) RecordClick(ctx context.Context, userID string) error {
	query := `
	INSERT INTO game_statistics (user_id, total_clicks, last_click_at, created_at, updated_at)
	VALUES ($1, 1, NOW(), NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total_clicks = game_statistics.total_clicks + 1,
	    last_click_at = NOW(),
	    updated_at = NOW()
	`

	if _, err := b.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

func (b *HostedBackend) GetClickCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := b.db.QueryRow(ctx, `SELECT total_clicks FROM game_statistics WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get click count: %w", err)
	}
	return count, nil
}

func (b *HostedBackend) GetPowerUps(ctx context.Context, userID string) ([]*powerup.PowerUp, error) {
	query := `
	SELECT user_id, type, quantity, last_purchased_at
	FROM power_ups
	WHERE user_id = $1
	ORDER BY type
	`

	rows, err := b.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get power-ups: %w", err)
	}
	defer rows.Close()

	var powerUps []*powerup.PowerUp
	for rows.Next() {
		p := &powerup.PowerUp{}
		if err := rows.Scan(&p.UserID, &p.Type, &p.Quantity, &p.LastPurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan power-up: %w", err)
		}
		powerUps = append(powerUps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read power-ups: %w", err)
	}
	return powerUps, nil
}

// AddPowerUp sets the inventory row for (user, type) to the given
// quantity. The write is scoped to a single type and overwrites, so
// migrating power-ups item by item can be retried safely.
func (b *HostedBackend) AddPowerUp(ctx context.Context, userID, puType string, quantity int) (*powerup.PowerUp, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("power-up quantity must not be negative")
	}

	query := `
	INSERT INTO power_ups (user_id, type, quantity, last_purchased_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, type) DO UPDATE
	SET quantity = EXCLUDED.quantity,
	    last_purchased_at = NOW()
	RETURNING user_id, type, quantity, last_purchased_at
	`

	p := &powerup.PowerUp{}
	err := b.db.QueryRow(ctx, query, userID, puType, quantity).Scan(&p.UserID, &p.Type, &p.Quantity, &p.LastPurchasedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add power-up: %w", err)
	}
	return p, nil
}

func (b *HostedBackend) UsePowerUp(ctx context.Context, userID, puType string) (*powerup.PowerUp, error) {
	query := `
	UPDATE power_ups
	SET quantity = quantity - 1
	WHERE user_id = $1 AND type = $2 AND quantity > 0
	RETURNING user_id, type, quantity, last_purchased_at
	`

	p := &powerup.PowerUp{}
	err := b.db.QueryRow(ctx, query, userID, puType).Scan(&p.UserID, &p.Type, &p.Quantity, &p.LastPurchasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to use power-up: %w", err)
	}

	query = `
	UPDATE game_statistics
	SET power_ups_used = power_ups_used + 1, updated_at = NOW()
	WHERE user_id = $1
	`
	if _, err := b.db.Exec(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count power-up use: %w", err)
	}

	return p, nil
}

func (b *HostedBackend) GetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	query := `
	SELECT user_id, current_streak, longest_streak, last_click_at, updated_at
	FROM game_statistics
	WHERE user_id = $1
	`

	st := &streak.Streak{}
	err := b.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastClickAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

func (b *HostedBackend) UpdateStreak(ctx context.Context, userID string, count int) (*streak.Streak, error) {
	query := `
	INSERT INTO game_statistics (user_id, current_streak, longest_streak, created_at, updated_at)
	VALUES ($1, $2, $2, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET current_streak = EXCLUDED.current_streak,
	    longest_streak = GREATEST(game_statistics.longest_streak, EXCLUDED.current_streak),
	    updated_at = NOW()
	RETURNING user_id, current_streak, longest_streak, last_click_at, updated_at
	`

	st := &streak.Streak{}
	err := b.db.QueryRow(ctx, query, userID, count).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastClickAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}
	return st, nil
}

// ResetStreak zeroes the current streak; the longest streak survives.
func (b *HostedBackend) ResetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	query := `
	UPDATE game_statistics
	SET current_streak = 0, updated_at = NOW()
	WHERE user_id = $1
	RETURNING user_id, current_streak, longest_streak, last_click_at, updated_at
	`

	st := &streak.Streak{}
	err := b.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastClickAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to reset streak: %w", err)
	}
	return st, nil
}
