package leaderboard

import "time"

type LeaderboardEntry struct {
	UserID   string  `json:"user_id" db:"user_id"`
	Username *string `json:"username" db:"username"`
	Score    int64   `json:"score" db:"score"`
	Rank     int     `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Entries     []*LeaderboardEntry `json:"entries"`
	UserRank    *LeaderboardEntry   `json:"user_rank"`
	GeneratedAt time.Time           `json:"generated_at"`
}
