package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain fact emitted by the auction engine after the owning
// transaction has committed.
type Event interface {
	EventName() string
	Tournament() int
}

// Envelope wraps an event with delivery metadata for subscribers.
type Envelope struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	TournamentID int         `json:"tournament_id"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Payload      interface{} `json:"payload"`
}

func newEnvelope(evt Event) Envelope {
	return Envelope{
		ID:           uuid.New(),
		Name:         evt.EventName(),
		TournamentID: evt.Tournament(),
		OccurredAt:   time.Now().UTC(),
		Payload:      evt,
	}
}

type BidPlaced struct {
	TournamentID int    `json:"tournament_id"`
	PlayerID     int    `json:"player_id"`
	PlayerName   string `json:"player_name"`
	TeamOwnerID  int    `json:"team_owner_id"`
	TeamName     string `json:"team_name"`
	Amount       int    `json:"amount"`
}

func (e BidPlaced) EventName() string { return "bid_placed" }
func (e BidPlaced) Tournament() int   { return e.TournamentID }

type PlayerSold struct {
	TournamentID int    `json:"tournament_id"`
	PlayerID     int    `json:"player_id"`
	PlayerName   string `json:"player_name"`
	TeamOwnerID  int    `json:"team_owner_id"`
	TeamName     string `json:"team_name"`
	OwnerEmail   string `json:"-"`
	Price        int    `json:"price"`
}

func (e PlayerSold) EventName() string { return "player_sold" }
func (e PlayerSold) Tournament() int   { return e.TournamentID }

type PlayerUnsold struct {
	TournamentID int    `json:"tournament_id"`
	PlayerID     int    `json:"player_id"`
	PlayerName   string `json:"player_name"`
}

func (e PlayerUnsold) EventName() string { return "player_unsold" }
func (e PlayerUnsold) Tournament() int   { return e.TournamentID }

type RoundAdvanced struct {
	TournamentID   int     `json:"tournament_id"`
	RoundID        int     `json:"round_id"`
	RoundNumber    int     `json:"round_number"`
	NextPlayerID   *int    `json:"next_player_id,omitempty"`
	NextPlayerName *string `json:"next_player_name,omitempty"`
	RoundCompleted bool    `json:"round_completed"`
}

func (e RoundAdvanced) EventName() string { return "round_advanced" }
func (e RoundAdvanced) Tournament() int   { return e.TournamentID }

type TeamOwnerApproved struct {
	TournamentID int    `json:"tournament_id"`
	TeamOwnerID  int    `json:"team_owner_id"`
	TeamName     string `json:"team_name"`
	OwnerEmail   string `json:"-"`
	Budget       int    `json:"budget"`
}

func (e TeamOwnerApproved) EventName() string { return "team_owner_approved" }
func (e TeamOwnerApproved) Tournament() int   { return e.TournamentID }
