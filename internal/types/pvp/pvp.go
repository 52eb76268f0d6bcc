package pvp

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

// Match statuses are forward-only: a completed or cancelled match is
// never resurrected.
const (
	StatusWaiting   MatchStatus = "waiting"
	StatusPending   MatchStatus = "pending"
	StatusActive    MatchStatus = "active"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
)

// rank orders statuses for the forward-only transition check.
var rank = map[MatchStatus]int{
	StatusWaiting:   0,
	StatusPending:   1,
	StatusActive:    2,
	StatusCompleted: 3,
	StatusCancelled: 3,
}

// CanTransition reports whether a match may move from one status to
// another. Terminal statuses accept no further transitions.
func CanTransition(from, to MatchStatus) bool {
	if from == StatusCompleted || from == StatusCancelled {
		return false
	}
	return rank[to] > rank[from]
}

type Match struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Player1ID    string         `json:"player1_id" db:"player1_id"`
	Player2ID    *string        `json:"player2_id" db:"player2_id"`
	Player1Score int            `json:"player1_score" db:"player1_score"`
	Player2Score int            `json:"player2_score" db:"player2_score"`
	Status       MatchStatus    `json:"status" db:"status"`
	WinnerID     *string        `json:"winner_id" db:"winner_id"`
	Reward       *int           `json:"reward" db:"reward"`
	MatchData    map[string]any `json:"match_data" db:"match_data"`
	StartedAt    *time.Time     `json:"started_at" db:"started_at"`
	EndedAt      *time.Time     `json:"ended_at" db:"ended_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

type CreateMatchRequest struct {
	OpponentID *string        `json:"opponent_id,omitempty"`
	Reward     *int           `json:"reward,omitempty"`
	MatchData  map[string]any `json:"match_data,omitempty"`
}

type UpdateScoreRequest struct {
	Score int `json:"score"`
}

type CompleteMatchRequest struct {
	WinnerID string `json:"winner_id"`
}
