package models

import "time"

// AuctionStatus mirrors the auction_status ENUM in the database. The status
// only ever moves forward; see CanTransition.
type AuctionStatus string

const (
	AuctionStatusAvailable AuctionStatus = "available"
	AuctionStatusSold      AuctionStatus = "sold"
	AuctionStatusUnsold    AuctionStatus = "unsold"
	AuctionStatusApproved  AuctionStatus = "approved"
	AuctionStatusMoved     AuctionStatus = "moved_to_player_table"
)

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionStatusAvailable, AuctionStatusSold, AuctionStatusUnsold,
		AuctionStatusApproved, AuctionStatusMoved:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal forward
// step of the player state machine:
//
//	available -> sold | unsold
//	sold | unsold -> approved
//	approved -> moved_to_player_table
//
// Terminal statuses never regress; re-opening a player for bidding resets
// bids, not the player status.
func (s AuctionStatus) CanTransition(next AuctionStatus) bool {
	switch s {
	case AuctionStatusAvailable:
		return next == AuctionStatusSold || next == AuctionStatusUnsold
	case AuctionStatusSold, AuctionStatusUnsold:
		return next == AuctionStatusApproved
	case AuctionStatusApproved:
		return next == AuctionStatusMoved
	default:
		return false
	}
}

// AuctionPlayer is a tournament-scoped player registration. SoldPrice and
// AuctionTeamID are set iff the player was sold.
type AuctionPlayer struct {
	ID            int           `json:"id" db:"id"`
	TournamentID  int           `json:"tournament_id" db:"tournament_id"`
	Name          string        `json:"name" db:"name"`
	Phone         *string       `json:"phone,omitempty" db:"phone"`
	Email         *string       `json:"email,omitempty" db:"email"`
	City          *string       `json:"city,omitempty" db:"city"`
	PlayingRole   *string       `json:"playing_role,omitempty" db:"playing_role"`
	BasePrice     int           `json:"base_price" db:"base_price"`
	AuctionStatus AuctionStatus `json:"auction_status" db:"auction_status"`
	SoldPrice     *int          `json:"sold_price,omitempty" db:"sold_price"`
	AuctionTeamID *int          `json:"auction_team_id,omitempty" db:"auction_team_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
