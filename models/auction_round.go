package models

import "time"

type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "pending"
	RoundStatusActive    RoundStatus = "active"
	RoundStatusCompleted RoundStatus = "completed"
)

// AuctionRound groups a pass over the tournament's available players.
// At most one round per tournament is active at a time; the database
// check-and-set in the round repository enforces this.
type AuctionRound struct {
	ID              int         `json:"id" db:"id"`
	TournamentID    int         `json:"tournament_id" db:"tournament_id"`
	RoundNumber     int         `json:"round_number" db:"round_number"`
	Status          RoundStatus `json:"status" db:"status"`
	CurrentPlayerID *int        `json:"current_player_id,omitempty" db:"current_player_id"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}
