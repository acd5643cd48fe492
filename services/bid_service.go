package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crichub/cricket-auction/events"
	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
)

// lowBudgetFactor: warn once the projected budget per remaining required
// player drops below 1.5x the minimum bid.
const lowBudgetFactorNum, lowBudgetFactorDen = 3, 2

type PlaceBidInput struct {
	TournamentID int `json:"tournament_id"`
	PlayerID     int `json:"player_id"`
	TeamOwnerID  int `json:"team_owner_id"`
	Amount       int `json:"amount"`
}

type PlaceBidResult struct {
	Bid     *models.AuctionBid `json:"bid"`
	Warning string             `json:"warning,omitempty"`
}

// CurrentAuction is the poller-facing read model: the active round, the
// player on the block and every bid recorded for them, highest first.
type CurrentAuction struct {
	Round  *models.AuctionRound  `json:"round"`
	Player *models.AuctionPlayer `json:"player,omitempty"`
	Bids   []models.AuctionBid   `json:"bids"`
}

// BudgetConservation compares the owners' total debits against the sum of
// recorded sale prices. Under debit-at-sale both move together inside the
// sale transaction, so an unbalanced report means ledger corruption.
type BudgetConservation struct {
	TournamentID    int  `json:"tournament_id"`
	TotalSpent      int  `json:"total_spent"`
	TotalSoldPrices int  `json:"total_sold_prices"`
	Balanced        bool `json:"balanced"`
}

type BidService interface {
	PlaceBid(ctx context.Context, in PlaceBidInput) (*PlaceBidResult, error)
	GetCurrentAuction(ctx context.Context, tournamentID int) (*CurrentAuction, error)
	GetLeadingBid(ctx context.Context, playerID int) (*models.AuctionBid, error)
	CheckConservation(ctx context.Context, tournamentID int) (*BudgetConservation, error)
}

type bidService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.AuctionRoundRepository
	playerRepo     repositories.AuctionPlayerRepository
	ownerRepo      repositories.TeamOwnerRepository
	bidRepo        repositories.AuctionBidRepository
	publisher      events.Publisher
	logger         *slog.Logger
}

func NewBidService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.AuctionRoundRepository,
	playerRepo repositories.AuctionPlayerRepository,
	ownerRepo repositories.TeamOwnerRepository,
	bidRepo repositories.AuctionBidRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) BidService {
	return &bidService{
		db:             db,
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		playerRepo:     playerRepo,
		ownerRepo:      ownerRepo,
		bidRepo:        bidRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// bidFloor is the smallest acceptable amount: one minimum-bid step above
// the current leader, or the player's base price when bidding opens. Equal
// amounts never tie — a bid must exceed the leader.
func bidFloor(leading *models.AuctionBid, basePrice, minimumBid int) int {
	if leading != nil {
		floor := leading.BidAmount + minimumBid
		if floor < minimumBid {
			floor = minimumBid
		}
		return floor
	}
	if basePrice > minimumBid {
		return basePrice
	}
	return minimumBid
}

// lowBudgetWarning returns an advisory message when the budget left after
// this bid spreads thin over the owner's remaining required roster slots.
func lowBudgetWarning(projectedBudget, playersRemaining, minimumBid int) string {
	if playersRemaining <= 0 {
		return ""
	}
	if projectedBudget*lowBudgetFactorDen < minimumBid*lowBudgetFactorNum*playersRemaining {
		return fmt.Sprintf("after this bid only %d remains for %d more required players (minimum bid %d)",
			projectedBudget, playersRemaining, minimumBid)
	}
	return ""
}

// PlaceBid validates and records a bid inside a single serializable
// transaction. Every precondition read at the optimistic stage is
// re-checked against locked rows, so of two owners racing on the same
// player exactly one wins and the other gets a rejection with the updated
// floor.
func (s *bidService) PlaceBid(ctx context.Context, in PlaceBidInput) (*PlaceBidResult, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, in.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", in.TournamentID, err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin bid transaction: %w", err)
	}
	defer tx.Rollback()

	round, err := s.roundRepo.GetActiveForUpdate(ctx, tx, in.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveRound) {
			return nil, &BidRejection{
				Reason:  ReasonRoundNotActive,
				Message: "no auction round is active for this tournament",
			}
		}
		return nil, err
	}

	if round.CurrentPlayerID == nil || *round.CurrentPlayerID != in.PlayerID {
		return nil, &BidRejection{
			Reason:  ReasonPlayerNotCurrent,
			Message: "this player is not currently up for auction",
		}
	}

	if in.Amount < tournament.MinimumBid {
		return nil, &BidRejection{
			Reason:     ReasonBidBelowMinimum,
			Message:    fmt.Sprintf("bid must be at least the tournament minimum of %d", tournament.MinimumBid),
			MinimumBid: tournament.MinimumBid,
		}
	}

	player, err := s.playerRepo.GetByIDForUpdate(ctx, tx, in.PlayerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerNotFound) {
			return nil, ErrAuctionPlayerNotFound
		}
		return nil, err
	}
	if player.AuctionStatus != models.AuctionStatusAvailable {
		return nil, ErrPlayerNotAvailable
	}

	owner, err := s.ownerRepo.GetByIDForUpdate(ctx, tx, in.TeamOwnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamOwnerNotFound) {
			return nil, ErrTeamOwnerNotFound
		}
		return nil, err
	}
	if owner.TournamentID != in.TournamentID {
		return nil, ErrTeamOwnerNotFound
	}
	if !owner.Approved {
		return nil, ErrOwnerNotApproved
	}
	if owner.RosterFull() {
		return nil, &BidRejection{
			Reason:  ReasonRosterFull,
			Message: fmt.Sprintf("roster already holds the maximum of %d players", owner.MaxPlayersNeeded),
		}
	}

	feas := CheckFeasibility(owner, in.Amount, tournament.MinimumBid)
	if !feas.OK {
		return nil, &BidRejection{
			Reason: ReasonBudgetInfeasible,
			Message: fmt.Sprintf("bid leaves too little budget for %d more required players; maximum allowed bid is %d",
				feas.PlayersRemaining, feas.MaxAllowedBid),
			MaxAllowedBid:    feas.MaxAllowedBid,
			PlayersRemaining: feas.PlayersRemaining,
			MinimumBid:       tournament.MinimumBid,
		}
	}

	var leading *models.AuctionBid
	leading, err = s.bidRepo.GetLeadingForUpdate(ctx, tx, in.PlayerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrBidNotFound) {
			return nil, err
		}
		leading = nil
	}
	// Self-raises are rejected outright rather than priced at the floor;
	// the leader gains nothing by outbidding themselves.
	if leading != nil && leading.TeamOwnerID == in.TeamOwnerID {
		return nil, &BidRejection{
			Reason:  ReasonAlreadyLeading,
			Message: "you already hold the leading bid for this player",
		}
	}

	floor := bidFloor(leading, player.BasePrice, tournament.MinimumBid)
	if in.Amount < floor {
		return nil, &BidRejection{
			Reason:     ReasonBidBelowFloor,
			Message:    fmt.Sprintf("bid must be at least %d", floor),
			MinimumBid: floor,
		}
	}

	if err := s.bidRepo.DemoteLeading(ctx, tx, in.PlayerID); err != nil {
		return nil, fmt.Errorf("failed to demote leading bid for player %d: %w", in.PlayerID, err)
	}

	bid := &models.AuctionBid{
		PlayerID:    in.PlayerID,
		TeamOwnerID: in.TeamOwnerID,
		RoundID:     round.ID,
		BidAmount:   in.Amount,
		Status:      models.BidStatusActive,
		IsWinning:   true,
	}
	if err := s.bidRepo.Create(ctx, tx, bid); err != nil {
		return nil, fmt.Errorf("failed to record bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bid: %w", err)
	}

	s.publisher.Publish(events.BidPlaced{
		TournamentID: in.TournamentID,
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		TeamOwnerID:  owner.ID,
		TeamName:     owner.TeamName,
		Amount:       in.Amount,
	})

	s.logger.Info("bid placed",
		slog.Int("tournament_id", in.TournamentID),
		slog.Int("player_id", player.ID),
		slog.Int("team_owner_id", owner.ID),
		slog.Int("amount", in.Amount),
	)

	bid.TeamName = owner.TeamName
	return &PlaceBidResult{
		Bid:     bid,
		Warning: lowBudgetWarning(owner.RemainingBudget-in.Amount, feas.PlayersRemaining, tournament.MinimumBid),
	}, nil
}

func (s *bidService) GetCurrentAuction(ctx context.Context, tournamentID int) (*CurrentAuction, error) {
	round, err := s.roundRepo.GetActive(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveRound) {
			return nil, ErrNoActiveRound
		}
		return nil, err
	}

	current := &CurrentAuction{Round: round, Bids: []models.AuctionBid{}}
	if round.CurrentPlayerID == nil {
		return current, nil
	}

	player, err := s.playerRepo.GetByID(ctx, nil, *round.CurrentPlayerID)
	if err != nil {
		return nil, err
	}
	current.Player = player

	bids, err := s.bidRepo.ListByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	current.Bids = bids
	return current, nil
}

func (s *bidService) CheckConservation(ctx context.Context, tournamentID int) (*BudgetConservation, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	spent, err := s.ownerRepo.SumSpent(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum owner spend: %w", err)
	}
	sold, err := s.playerRepo.SumSoldPrices(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum sale prices: %w", err)
	}

	return &BudgetConservation{
		TournamentID:    tournamentID,
		TotalSpent:      spent,
		TotalSoldPrices: sold,
		Balanced:        spent == sold,
	}, nil
}

func (s *bidService) GetLeadingBid(ctx context.Context, playerID int) (*models.AuctionBid, error) {
	bid, err := s.bidRepo.GetLeading(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrBidNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return bid, nil
}
