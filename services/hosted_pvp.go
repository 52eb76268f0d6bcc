package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapEmpireAPI/internal/storage"
	"tapEmpireAPI/internal/types/gameconfig"
	"tapEmpireAPI/internal/types/leaderboard"
	"tapEmpireAPI/internal/types/notification"
	"tapEmpireAPI/internal/types/pvp"
	"tapEmpireAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const matchColumns = "id, player1_id, player2_id, player1_score, player2_score, status, winner_id, reward, match_data, started_at, ended_at, created_at"

func scanMatch(row pgx.Row) (*pvp.Match, error) {
	m := &pvp.Match{}
	err := row.Scan(
		&m.ID,
		&m.Player1ID,
		&m.Player2ID,
		&m.Player1Score,
		&m.Player2Score,
		&m.Status,
		&m.WinnerID,
		&m.Reward,
		&m.MatchData,
		&m.StartedAt,
		&m.EndedAt,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreatePvPMatch opens a match for the creator. With a known opponent
// the match starts pending; without one it waits for matchmaking.
func (b *HostedBackend) CreatePvPMatch(ctx context.Context, creatorID string, req *pvp.CreateMatchRequest) (*pvp.Match, error) {
	status := pvp.StatusWaiting
	if req.OpponentID != nil {
		if *req.OpponentID == creatorID {
			return nil, fmt.Errorf("players cannot match against themselves")
		}
		status = pvp.StatusPending
	}

	query := `
	INSERT INTO pvp_matches (id, player1_id, player2_id, status, reward, match_data, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING ` + matchColumns

	m, err := scanMatch(b.db.QueryRow(ctx, query, uuid.New(), creatorID, req.OpponentID, status, req.Reward, req.MatchData))
	if err != nil {
		return nil, fmt.Errorf("failed to create pvp match: %w", err)
	}
	return m, nil
}

func (b *HostedBackend) GetPvPMatch(ctx context.Context, matchID string) (*pvp.Match, error) {
	id, err := uuid.Parse(matchID)
	if err != nil {
		return nil, fmt.Errorf("invalid match id: %w", err)
	}

	m, err := scanMatch(b.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM pvp_matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pvp match: %w", err)
	}
	return m, nil
}

// UpdatePvPScore records a player's score. The first score moves the
// match to active and stamps started_at; terminal matches reject the
// write.
func (b *HostedBackend) UpdatePvPScore(ctx context.Context, matchID, playerID string, score int) (*pvp.Match, error) {
	m, err := b.GetPvPMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var column string
	switch {
	case m.Player1ID == playerID:
		column = "player1_score"
	case m.Player2ID != nil && *m.Player2ID == playerID:
		column = "player2_score"
	default:
		return nil, fmt.Errorf("user %s is not a player in match %s", playerID, matchID)
	}

	if m.Status == pvp.StatusCompleted || m.Status == pvp.StatusCancelled {
		return nil, fmt.Errorf("match %s is already %s", matchID, m.Status)
	}

	query := `
	UPDATE pvp_matches
	SET ` + column + ` = $2,
	    status = 'active',
	    started_at = COALESCE(started_at, NOW())
	WHERE id = $1
	RETURNING ` + matchColumns

	updated, err := scanMatch(b.db.QueryRow(ctx, query, m.ID, score))
	if err != nil {
		return nil, fmt.Errorf("failed to update pvp score: %w", err)
	}
	return updated, nil
}

// CompletePvPMatch finishes a match with the given winner. Completed
// and cancelled matches are terminal; re-completion is rejected.
func (b *HostedBackend) CompletePvPMatch(ctx context.Context, matchID, winnerID string) (*pvp.Match, error) {
	m, err := b.GetPvPMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if !pvp.CanTransition(m.Status, pvp.StatusCompleted) {
		return nil, fmt.Errorf("match %s cannot complete from status %s", matchID, m.Status)
	}
	if winnerID != m.Player1ID && (m.Player2ID == nil || *m.Player2ID != winnerID) {
		return nil, fmt.Errorf("winner %s is not a player in match %s", winnerID, matchID)
	}

	query := `
	UPDATE pvp_matches
	SET status = 'completed', winner_id = $2, ended_at = NOW()
	WHERE id = $1
	RETURNING ` + matchColumns

	updated, err := scanMatch(b.db.QueryRow(ctx, query, m.ID, winnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to complete pvp match: %w", err)
	}
	return updated, nil
}

func (b *HostedBackend) GetPlayerMatches(ctx context.Context, userID string, limit int) ([]*pvp.Match, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT ` + matchColumns + `
	FROM pvp_matches
	WHERE player1_id = $1 OR player2_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := b.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get player matches: %w", err)
	}
	defer rows.Close()

	var matches []*pvp.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pvp match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read player matches: %w", err)
	}
	return matches, nil
}

// scoreSource returns the per-category scores subquery. $1 is the
// timeframe window start, NULL for all-time.
func scoreSource(category storage.LeaderboardCategory) (string, error) {
	statsFilter := `WHERE ($1::timestamptz IS NULL OR s.updated_at >= $1)`
	statsJoin := `FROM game_statistics s LEFT JOIN user_profiles p ON p.id = s.user_id `

	switch category {
	case storage.CategoryClicks:
		return `SELECT s.user_id, p.username, s.total_clicks::bigint AS score ` + statsJoin + statsFilter, nil
	case storage.CategoryPrestige:
		return `SELECT s.user_id, p.username, s.prestige_level::bigint AS score ` + statsJoin + statsFilter, nil
	case storage.CategoryStreak:
		return `SELECT s.user_id, p.username, s.current_streak::bigint AS score ` + statsJoin + statsFilter, nil
	case storage.CategoryPvP:
		return `
		SELECT m.winner_id AS user_id, p.username, COUNT(*)::bigint AS score
		FROM pvp_matches m
		LEFT JOIN user_profiles p ON p.id = m.winner_id
		WHERE m.status = 'completed'
		  AND m.winner_id IS NOT NULL
		  AND ($1::timestamptz IS NULL OR m.ended_at >= $1)
		GROUP BY m.winner_id, p.username`, nil
	default:
		return "", fmt.Errorf("unknown leaderboard category: %s", category)
	}
}

// GetLeaderboard computes the ordered entries for a category and
// timeframe plus the requesting user's own rank (nil when unranked).
func (b *HostedBackend) GetLeaderboard(ctx context.Context, userID string, category storage.LeaderboardCategory, timeframe storage.LeaderboardTimeframe, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	scores, err := scoreSource(category)
	if err != nil {
		return nil, err
	}
	start := utils.TimeframeStart(time.Now(), string(timeframe))

	query := `
	WITH scores AS (` + scores + `),
	ranked AS (
		SELECT user_id, username, score, RANK() OVER (ORDER BY score DESC, user_id) AS rank
		FROM scores
	)
	SELECT user_id, username, score, rank FROM ranked ORDER BY rank LIMIT $2
	`

	rows, err := b.db.Query(ctx, query, start, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{GeneratedAt: time.Now()}
	for rows.Next() {
		e := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score, &e.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		lb.Entries = append(lb.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	rankQuery := `
	WITH scores AS (` + scores + `),
	ranked AS (
		SELECT user_id, username, score, RANK() OVER (ORDER BY score DESC, user_id) AS rank
		FROM scores
	)
	SELECT user_id, username, score, rank FROM ranked WHERE user_id = $2
	`

	e := &leaderboard.LeaderboardEntry{}
	err = b.db.QueryRow(ctx, rankQuery, start, userID).Scan(&e.UserID, &e.Username, &e.Score, &e.Rank)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// unranked
	case err != nil:
		return nil, fmt.Errorf("failed to get user rank: %w", err)
	default:
		lb.UserRank = e
	}

	return lb, nil
}

// GetPlayerRank returns the player's all-time clicks rank, nil when
// the player has no statistics row yet.
func (b *HostedBackend) GetPlayerRank(ctx context.Context, userID string) (*leaderboard.LeaderboardEntry, error) {
	scores, err := scoreSource(storage.CategoryClicks)
	if err != nil {
		return nil, err
	}

	query := `
	WITH scores AS (` + scores + `),
	ranked AS (
		SELECT user_id, username, score, RANK() OVER (ORDER BY score DESC, user_id) AS rank
		FROM scores
	)
	SELECT user_id, username, score, rank FROM ranked WHERE user_id = $2
	`

	e := &leaderboard.LeaderboardEntry{}
	err = b.db.QueryRow(ctx, query, nil, userID).Scan(&e.UserID, &e.Username, &e.Score, &e.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player rank: %w", err)
	}
	return e, nil
}

// GetGameConfigs returns every stored configuration row ordered by
// key. Only the admin config endpoint consumes this.
func (b *HostedBackend) GetGameConfigs(ctx context.Context) ([]*gameconfig.GameConfig, error) {
	rows, err := b.db.Query(ctx, `SELECT key, value, updated_at FROM game_config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to get game configs: %w", err)
	}
	defer rows.Close()

	var configs []*gameconfig.GameConfig
	for rows.Next() {
		c := &gameconfig.GameConfig{}
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read game configs: %w", err)
	}
	return configs, nil
}

func (b *HostedBackend) RegisterDeviceToken(ctx context.Context, userID, token, platform string) error {
	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`
	if _, err := b.db.Exec(ctx, query, userID, token, platform); err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

func (b *HostedBackend) GetDeviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := b.db.Query(ctx, `SELECT user_id, token, platform, created_at FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device tokens: %w", err)
	}
	return tokens, nil
}
