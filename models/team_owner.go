package models

import "time"

// TeamOwner is a registered bidder. TotalBudget is the immutable initial
// allocation; RemainingBudget is mutated only by the budget ledger and may
// never go below zero.
type TeamOwner struct {
	ID               int       `json:"id" db:"id"`
	UserID           int       `json:"user_id" db:"user_id"`
	TournamentID     int       `json:"tournament_id" db:"tournament_id"`
	TeamName         string    `json:"team_name" db:"team_name"`
	TotalBudget      int       `json:"total_budget" db:"total_budget"`
	RemainingBudget  int       `json:"remaining_budget" db:"remaining_budget"`
	CurrentPlayers   int       `json:"current_players" db:"current_players"`
	MinPlayersNeeded int       `json:"min_players_needed" db:"min_players_needed"`
	MaxPlayersNeeded int       `json:"max_players_needed" db:"max_players_needed"`
	Approved         bool      `json:"approved" db:"approved"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// PlayersStillNeeded is how many more players the owner must still acquire
// after the acquisition currently being evaluated.
func (o *TeamOwner) PlayersStillNeeded() int {
	n := o.MinPlayersNeeded - o.CurrentPlayers - 1
	if n < 0 {
		return 0
	}
	return n
}

// RosterFull reports whether the owner has reached their roster ceiling.
func (o *TeamOwner) RosterFull() bool {
	return o.MaxPlayersNeeded > 0 && o.CurrentPlayers >= o.MaxPlayersNeeded
}
