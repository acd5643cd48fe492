package services

import (
	"errors"
	"fmt"
)

// Shared sentinel errors mapped to HTTP statuses by the handler layer.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrEmailTaken         = errors.New("email address is already in use")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Registration
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrTeamNameConflict    = errors.New("team name is already taken in this tournament")
	ErrOwnerNotApproved    = errors.New("team owner is not approved for bidding")
	ErrOwnerAlreadyExists  = errors.New("user already registered a team in this tournament")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")

	// Entity lookups
	ErrUserNotFound          = errors.New("user not found")
	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrTeamOwnerNotFound     = errors.New("team owner not found")
	ErrAuctionPlayerNotFound = errors.New("auction player not found")
	ErrRoundNotFound         = errors.New("auction round not found")

	// Auction flow
	ErrNoActiveRound        = errors.New("no auction round is active")
	ErrRoundAlreadyActive   = errors.New("another round is already active for this tournament")
	ErrRoundNotActive       = errors.New("auction round is not active")
	ErrPlayerNotCurrent     = errors.New("player is not currently up for auction")
	ErrPlayerNotAvailable   = errors.New("player is not available for auction")
	ErrNoCurrentPlayer      = errors.New("no player is currently up for auction")
	ErrNoBidsToSell         = errors.New("no leading bid exists for this player")
	ErrRosterFull           = errors.New("team owner already reached maximum roster size")
	ErrInvalidResolution    = errors.New("unknown resolution action")
	ErrInvalidStatusChange  = errors.New("auction status transition not allowed")
	ErrTournamentNotEndable = errors.New("tournament cannot be completed yet")
)

// RejectionReason is a machine-readable code carried by BidRejection so
// clients can render an actionable message.
type RejectionReason string

const (
	ReasonRoundNotActive     RejectionReason = "round_not_active"
	ReasonPlayerNotCurrent   RejectionReason = "player_not_current"
	ReasonBidBelowMinimum    RejectionReason = "bid_below_minimum"
	ReasonBidBelowFloor      RejectionReason = "bid_below_floor"
	ReasonAlreadyLeading     RejectionReason = "already_leading"
	ReasonBudgetInfeasible   RejectionReason = "budget_infeasible"
	ReasonInsufficientBudget RejectionReason = "insufficient_budget"
	ReasonRosterFull         RejectionReason = "roster_full"
)

// BidRejection is a typed rejection with the numeric boundaries a caller
// needs to correct the bid: the applicable floor, the maximum affordable
// bid, and how many roster slots the owner still has to fill.
type BidRejection struct {
	Reason           RejectionReason `json:"reason"`
	Message          string          `json:"message"`
	MinimumBid       int             `json:"minimum_bid,omitempty"`
	MaxAllowedBid    int             `json:"max_allowed_bid,omitempty"`
	PlayersRemaining int             `json:"players_remaining,omitempty"`
}

func (r *BidRejection) Error() string {
	return fmt.Sprintf("bid rejected (%s): %s", r.Reason, r.Message)
}

// AsBidRejection unwraps a *BidRejection from an error chain.
func AsBidRejection(err error) (*BidRejection, bool) {
	var rej *BidRejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
