package storage

import (
	"context"
	"errors"

	"tapEmpireAPI/internal/types/clan"
	"tapEmpireAPI/internal/types/leaderboard"
	"tapEmpireAPI/internal/types/powerup"
	"tapEmpireAPI/internal/types/profile"
	"tapEmpireAPI/internal/types/pvp"
	"tapEmpireAPI/internal/types/referral"
	"tapEmpireAPI/internal/types/settings"
	"tapEmpireAPI/internal/types/statistics"
	"tapEmpireAPI/internal/types/streak"
)

var (
	// ErrNotFound is returned when the named entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrHostedNotActive is returned by the selector when the hosted
	// backend is requested but local storage is the active type.
	ErrHostedNotActive = errors.New("hosted backend not active")
)

type BackendType string

const (
	BackendLocal  BackendType = "local"
	BackendHosted BackendType = "hosted"
)

type LeaderboardCategory string

const (
	CategoryClicks   LeaderboardCategory = "clicks"
	CategoryPrestige LeaderboardCategory = "prestige"
	CategoryStreak   LeaderboardCategory = "streak"
	CategoryPvP      LeaderboardCategory = "pvp"
)

type LeaderboardTimeframe string

const (
	TimeframeAll     LeaderboardTimeframe = "all"
	TimeframeDaily   LeaderboardTimeframe = "daily"
	TimeframeWeekly  LeaderboardTimeframe = "weekly"
	TimeframeMonthly LeaderboardTimeframe = "monthly"
)

// Backend is the full set of persistence operations the game needs.
// Callers never depend on a concrete storage technology; they receive
// a Backend from the Selector. No operation has side effects beyond
// the single entity it names. Absent entities surface as ErrNotFound
// except where the signature documents a nil result.
type Backend interface {
	// Profile
	CreateUserProfile(ctx context.Context, p *profile.UserProfile) (*profile.UserProfile, error)
	GetUserProfile(ctx context.Context, userID string) (*profile.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID string, req *profile.UpdateProfileRequest) (*profile.UserProfile, error)

	// Settings (overwritten wholesale on update)
	GetGameSettings(ctx context.Context, userID string) (*settings.GameSettings, error)
	UpdateGameSettings(ctx context.Context, userID string, s *settings.GameSettings) (*settings.GameSettings, error)

	// Statistics
	GetStatistics(ctx context.Context, userID string) (*statistics.GameStatistics, error)
	UpdateStatistics(ctx context.Context, userID string, s *statistics.GameStatistics) (*statistics.GameStatistics, error)

	// Clicks
	RecordClick(ctx context.Context, userID string) error
	GetClickCount(ctx context.Context, userID string) (int64, error)

	// Power-ups, keyed by (user, type); quantity never drops below zero
	GetPowerUps(ctx context.Context, userID string) ([]*powerup.PowerUp, error)
	AddPowerUp(ctx context.Context, userID, puType string, quantity int) (*powerup.PowerUp, error)
	UsePowerUp(ctx context.Context, userID, puType string) (*powerup.PowerUp, error)

	// Streaks
	GetStreak(ctx context.Context, userID string) (*streak.Streak, error)
	UpdateStreak(ctx context.Context, userID string, count int) (*streak.Streak, error)
	ResetStreak(ctx context.Context, userID string) (*streak.Streak, error)

	// Clans; the owner is always a member
	CreateClan(ctx context.Context, req *clan.CreateClanRequest) (*clan.Clan, error)
	GetClan(ctx context.Context, clanID string) (*clan.Clan, error)
	AddClanMember(ctx context.Context, clanID, userID string) (*clan.Clan, error)
	RemoveClanMember(ctx context.Context, clanID, userID string) (*clan.Clan, error)

	// Referrals; status moves pending -> completed exactly once
	CreateReferral(ctx context.Context, referrerID, referredID string) (*referral.Referral, error)
	CompleteReferral(ctx context.Context, referralID string) (*referral.Referral, error)
	GetReferrals(ctx context.Context, referrerID string) ([]*referral.Referral, error)

	// PvP matches; status transitions are forward-only
	CreatePvPMatch(ctx context.Context, creatorID string, req *pvp.CreateMatchRequest) (*pvp.Match, error)
	GetPvPMatch(ctx context.Context, matchID string) (*pvp.Match, error)
	UpdatePvPScore(ctx context.Context, matchID, playerID string, score int) (*pvp.Match, error)
	CompletePvPMatch(ctx context.Context, matchID, winnerID string) (*pvp.Match, error)
	GetPlayerMatches(ctx context.Context, userID string, limit int) ([]*pvp.Match, error)

	// Leaderboards are derived projections, never persisted.
	// UserRank in the result is nil when the requesting user is
	// unranked, as is GetPlayerRank's entry.
	GetLeaderboard(ctx context.Context, userID string, category LeaderboardCategory, timeframe LeaderboardTimeframe, limit int) (*leaderboard.Leaderboard, error)
	GetPlayerRank(ctx context.Context, userID string) (*leaderboard.LeaderboardEntry, error)
}

// ValidCategory reports whether c is a known leaderboard category.
func ValidCategory(c LeaderboardCategory) bool {
	switch c {
	case CategoryClicks, CategoryPrestige, CategoryStreak, CategoryPvP:
		return true
	}
	return false
}

// ValidTimeframe reports whether t is a known leaderboard timeframe.
func ValidTimeframe(t LeaderboardTimeframe) bool {
	switch t {
	case TimeframeAll, TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}
