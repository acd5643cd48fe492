package models

import "time"

type BidStatus string

const (
	BidStatusActive  BidStatus = "active"
	BidStatusOutbid  BidStatus = "outbid"
	BidStatusWinning BidStatus = "winning"
	BidStatusClosed  BidStatus = "closed"
	BidStatusReset   BidStatus = "reset"
)

// AuctionBid is append-only: the amount of a recorded bid never changes,
// only its status and the is_winning flag. For any player at most one bid
// is active with IsWinning set.
type AuctionBid struct {
	ID          int       `json:"id" db:"id"`
	PlayerID    int       `json:"player_id" db:"player_id"`
	TeamOwnerID int       `json:"team_owner_id" db:"team_owner_id"`
	RoundID     int       `json:"round_id" db:"round_id"`
	BidAmount   int       `json:"bid_amount" db:"bid_amount"`
	Status      BidStatus `json:"status" db:"status"`
	IsWinning   bool      `json:"is_winning" db:"is_winning"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Populated by list queries for display, not a column.
	TeamName string `json:"team_name,omitempty" db:"-"`
}
