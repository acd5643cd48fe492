package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusSoon         TournamentStatus = "soon"
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusActive       TournamentStatus = "active"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCanceled     TournamentStatus = "canceled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusSoon, TournamentStatusRegistration, TournamentStatusActive,
		TournamentStatusCompleted, TournamentStatusCanceled:
		return true
	}
	return false
}

// Tournament is a single cricket tournament. MinimumBid is the smallest
// increment the auction accepts; OwnerBudget is the budget granted to every
// team owner on approval.
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Venue       *string          `json:"venue,omitempty" db:"venue"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	Status      TournamentStatus `json:"status" db:"status"`
	MinimumBid  int              `json:"minimum_bid" db:"minimum_bid"`
	OwnerBudget int              `json:"owner_budget" db:"owner_budget"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	EndDate     time.Time        `json:"end_date" db:"end_date"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
