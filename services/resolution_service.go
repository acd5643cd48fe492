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

// ResolutionAction is the terminal action ending bidding on a player.
type ResolutionAction string

const (
	ActionSell       ResolutionAction = "SELL"
	ActionSellToTeam ResolutionAction = "SELL_TO_TEAM"
	ActionUnsold     ResolutionAction = "UNSOLD"
	ActionSetCurrent ResolutionAction = "SET_CURRENT"
)

type ResolvePlayerInput struct {
	TournamentID int              `json:"tournament_id"`
	PlayerID     int              `json:"player_id"`
	Action       ResolutionAction `json:"action"`
	// TeamOwnerID and Price override the leading bid for SELL and are
	// required for SELL_TO_TEAM.
	TeamOwnerID *int `json:"team_owner_id,omitempty"`
	Price       *int `json:"price,omitempty"`
}

type PlayerResolution struct {
	Action     ResolutionAction      `json:"action"`
	Player     *models.AuctionPlayer `json:"player"`
	Round      *models.AuctionRound  `json:"round"`
	WinningBid *models.AuctionBid    `json:"winning_bid,omitempty"`
	NextPlayer *models.AuctionPlayer `json:"next_player,omitempty"`
}

type ResolutionService interface {
	ResolvePlayer(ctx context.Context, in ResolvePlayerInput) (*PlayerResolution, error)
	// ApprovePlayer promotes a sold or unsold player to approved, the
	// precondition for migration to the permanent roster.
	ApprovePlayer(ctx context.Context, tournamentID, playerID int) (*models.AuctionPlayer, error)
}

type resolutionService struct {
	db           *sql.DB
	roundRepo    repositories.AuctionRoundRepository
	playerRepo   repositories.AuctionPlayerRepository
	ownerRepo    repositories.TeamOwnerRepository
	bidRepo      repositories.AuctionBidRepository
	userRepo     repositories.UserRepository
	ledger       *BudgetLedger
	roundService RoundService
	publisher    events.Publisher
	logger       *slog.Logger
}

func NewResolutionService(
	db *sql.DB,
	roundRepo repositories.AuctionRoundRepository,
	playerRepo repositories.AuctionPlayerRepository,
	ownerRepo repositories.TeamOwnerRepository,
	bidRepo repositories.AuctionBidRepository,
	userRepo repositories.UserRepository,
	ledger *BudgetLedger,
	roundService RoundService,
	publisher events.Publisher,
	logger *slog.Logger,
) ResolutionService {
	return &resolutionService{
		db:           db,
		roundRepo:    roundRepo,
		playerRepo:   playerRepo,
		ownerRepo:    ownerRepo,
		bidRepo:      bidRepo,
		userRepo:     userRepo,
		ledger:       ledger,
		roundService: roundService,
		publisher:    publisher,
		logger:       logger,
	}
}

func validateResolveInput(in ResolvePlayerInput) error {
	switch in.Action {
	case ActionSell, ActionUnsold, ActionSetCurrent:
	case ActionSellToTeam:
		if in.TeamOwnerID == nil || in.Price == nil {
			return fmt.Errorf("%w: SELL_TO_TEAM requires team_owner_id and price", ErrValidationFailed)
		}
	default:
		return ErrInvalidResolution
	}
	if in.Price != nil && *in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidationFailed)
	}
	return nil
}

func (s *resolutionService) ResolvePlayer(ctx context.Context, in ResolvePlayerInput) (*PlayerResolution, error) {
	if err := validateResolveInput(in); err != nil {
		return nil, err
	}

	switch in.Action {
	case ActionSell:
		return s.sell(ctx, in)
	case ActionSellToTeam:
		return s.sellToTeam(ctx, in)
	case ActionUnsold:
		return s.unsold(ctx, in)
	case ActionSetCurrent:
		return s.setCurrent(ctx, in)
	}
	return nil, ErrInvalidResolution
}

// sell resolves the player to the leading bidder (or an explicit override)
// in one transaction: debit, roster increment, bid bookkeeping, player
// terminal status, round advance. Losing bidders are only status-flipped —
// no money ever moved for them under the debit-at-sale policy.
func (s *resolutionService) sell(ctx context.Context, in ResolvePlayerInput) (*PlayerResolution, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, player, err := s.lockRoundAndPlayer(ctx, tx, in.TournamentID, in.PlayerID)
	if err != nil {
		return nil, err
	}
	if round.CurrentPlayerID == nil || *round.CurrentPlayerID != player.ID {
		return nil, ErrPlayerNotCurrent
	}

	leading, err := s.bidRepo.GetLeadingForUpdate(ctx, tx, player.ID)
	if err != nil && !errors.Is(err, repositories.ErrBidNotFound) {
		return nil, err
	}

	winnerID, price := 0, 0
	switch {
	case in.TeamOwnerID != nil:
		winnerID = *in.TeamOwnerID
	case leading != nil:
		winnerID = leading.TeamOwnerID
	default:
		return nil, ErrNoBidsToSell
	}
	switch {
	case in.Price != nil:
		price = *in.Price
	case leading != nil:
		price = leading.BidAmount
	default:
		return nil, ErrNoBidsToSell
	}

	owner, err := s.lockOwner(ctx, tx, in.TournamentID, winnerID)
	if err != nil {
		return nil, err
	}
	if owner.RosterFull() {
		return nil, ErrRosterFull
	}

	if err := s.ledger.Debit(ctx, tx, owner.ID, price); err != nil {
		return nil, s.mapDebitError(err, owner, price)
	}
	if err := s.ledger.IncrementRoster(ctx, tx, owner.ID); err != nil {
		return nil, err
	}

	if err := s.bidRepo.CloseOpen(ctx, tx, player.ID, models.BidStatusClosed); err != nil {
		return nil, err
	}

	var winningBid *models.AuctionBid
	if leading != nil && leading.TeamOwnerID == winnerID {
		if err := s.bidRepo.MarkWinning(ctx, tx, leading.ID); err != nil {
			return nil, err
		}
		leading.Status = models.BidStatusWinning
		leading.IsWinning = true
		winningBid = leading
	} else {
		winningBid = &models.AuctionBid{
			PlayerID:    player.ID,
			TeamOwnerID: owner.ID,
			RoundID:     round.ID,
			BidAmount:   price,
			Status:      models.BidStatusWinning,
			IsWinning:   true,
		}
		if err := s.bidRepo.Create(ctx, tx, winningBid); err != nil {
			return nil, err
		}
	}

	if err := s.playerRepo.MarkSold(ctx, tx, player.ID, price, owner.ID); err != nil {
		return nil, err
	}

	next, err := s.roundService.Advance(ctx, tx, round)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	player.AuctionStatus = models.AuctionStatusSold
	player.SoldPrice = &price
	player.AuctionTeamID = &owner.ID

	s.publishSold(ctx, in.TournamentID, player, owner, price)
	s.publishAdvanced(in.TournamentID, round, next)

	return &PlayerResolution{
		Action:     ActionSell,
		Player:     player,
		Round:      round,
		WinningBid: winningBid,
		NextPlayer: next,
	}, nil
}

// sellToTeam bypasses the bid ledger: open bids are marked outbid (their
// owners were never debited), a synthetic winning bid records the sale and
// the target owner is debited the admin-supplied price.
func (s *resolutionService) sellToTeam(ctx context.Context, in ResolvePlayerInput) (*PlayerResolution, error) {
	price := *in.Price

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, player, err := s.lockRoundAndPlayer(ctx, tx, in.TournamentID, in.PlayerID)
	if err != nil {
		return nil, err
	}

	owner, err := s.lockOwner(ctx, tx, in.TournamentID, *in.TeamOwnerID)
	if err != nil {
		return nil, err
	}
	if owner.RosterFull() {
		return nil, ErrRosterFull
	}

	if err := s.bidRepo.CloseOpen(ctx, tx, player.ID, models.BidStatusOutbid); err != nil {
		return nil, err
	}

	if err := s.ledger.Debit(ctx, tx, owner.ID, price); err != nil {
		return nil, s.mapDebitError(err, owner, price)
	}
	if err := s.ledger.IncrementRoster(ctx, tx, owner.ID); err != nil {
		return nil, err
	}

	winningBid := &models.AuctionBid{
		PlayerID:    player.ID,
		TeamOwnerID: owner.ID,
		RoundID:     round.ID,
		BidAmount:   price,
		Status:      models.BidStatusWinning,
		IsWinning:   true,
	}
	if err := s.bidRepo.Create(ctx, tx, winningBid); err != nil {
		return nil, err
	}

	if err := s.playerRepo.MarkSold(ctx, tx, player.ID, price, owner.ID); err != nil {
		return nil, err
	}

	// Only move the pointer when the sold player was actually on the block.
	var next *models.AuctionPlayer
	wasCurrent := round.CurrentPlayerID != nil && *round.CurrentPlayerID == player.ID
	if wasCurrent {
		if next, err = s.roundService.Advance(ctx, tx, round); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	player.AuctionStatus = models.AuctionStatusSold
	player.SoldPrice = &price
	player.AuctionTeamID = &owner.ID

	s.publishSold(ctx, in.TournamentID, player, owner, price)
	if wasCurrent {
		s.publishAdvanced(in.TournamentID, round, next)
	}

	return &PlayerResolution{
		Action:     ActionSellToTeam,
		Player:     player,
		Round:      round,
		WinningBid: winningBid,
		NextPlayer: next,
	}, nil
}

// unsold closes every open bid without touching any budget (nothing was
// ever debited for an open bid) and advances the round past the player.
func (s *resolutionService) unsold(ctx context.Context, in ResolvePlayerInput) (*PlayerResolution, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, player, err := s.lockRoundAndPlayer(ctx, tx, in.TournamentID, in.PlayerID)
	if err != nil {
		return nil, err
	}
	if round.CurrentPlayerID == nil || *round.CurrentPlayerID != player.ID {
		return nil, ErrPlayerNotCurrent
	}

	if err := s.bidRepo.CloseOpen(ctx, tx, player.ID, models.BidStatusClosed); err != nil {
		return nil, err
	}
	if err := s.playerRepo.MarkUnsold(ctx, tx, player.ID); err != nil {
		return nil, err
	}

	next, err := s.roundService.Advance(ctx, tx, round)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	player.AuctionStatus = models.AuctionStatusUnsold

	s.publisher.Publish(events.PlayerUnsold{
		TournamentID: in.TournamentID,
		PlayerID:     player.ID,
		PlayerName:   player.Name,
	})
	s.publishAdvanced(in.TournamentID, round, next)

	return &PlayerResolution{
		Action:     ActionUnsold,
		Player:     player,
		Round:      round,
		NextPlayer: next,
	}, nil
}

func (s *resolutionService) setCurrent(ctx context.Context, in ResolvePlayerInput) (*PlayerResolution, error) {
	round, err := s.roundRepo.GetActive(ctx, in.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveRound) {
			return nil, ErrNoActiveRound
		}
		return nil, err
	}

	// SetCurrentPlayer re-validates the round inside its own transaction,
	// so the lookup above racing an endRound is still safe.
	updated, err := s.roundService.SetCurrentPlayer(ctx, in.TournamentID, round.ID, in.PlayerID)
	if err != nil {
		return nil, err
	}

	player, err := s.playerRepo.GetByID(ctx, nil, in.PlayerID)
	if err != nil {
		return nil, err
	}

	return &PlayerResolution{
		Action: ActionSetCurrent,
		Player: player,
		Round:  updated,
	}, nil
}

func (s *resolutionService) ApprovePlayer(ctx context.Context, tournamentID, playerID int) (*models.AuctionPlayer, error) {
	player, err := s.playerRepo.GetByID(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerNotFound) {
			return nil, ErrAuctionPlayerNotFound
		}
		return nil, err
	}
	if player.TournamentID != tournamentID {
		return nil, ErrAuctionPlayerNotFound
	}
	if !player.AuctionStatus.CanTransition(models.AuctionStatusApproved) {
		return nil, ErrInvalidStatusChange
	}

	if err := s.playerRepo.UpdateAuctionStatus(ctx, nil, playerID, models.AuctionStatusApproved); err != nil {
		return nil, err
	}
	player.AuctionStatus = models.AuctionStatusApproved
	return player, nil
}

func (s *resolutionService) lockRoundAndPlayer(ctx context.Context, tx *sql.Tx, tournamentID, playerID int) (*models.AuctionRound, *models.AuctionPlayer, error) {
	round, err := s.roundRepo.GetActiveForUpdate(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveRound) {
			return nil, nil, ErrNoActiveRound
		}
		return nil, nil, err
	}

	player, err := s.playerRepo.GetByIDForUpdate(ctx, tx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerNotFound) {
			return nil, nil, ErrAuctionPlayerNotFound
		}
		return nil, nil, err
	}
	if player.TournamentID != tournamentID {
		return nil, nil, ErrAuctionPlayerNotFound
	}
	if player.AuctionStatus != models.AuctionStatusAvailable {
		return nil, nil, ErrPlayerNotAvailable
	}
	return round, player, nil
}

func (s *resolutionService) lockOwner(ctx context.Context, tx *sql.Tx, tournamentID, ownerID int) (*models.TeamOwner, error) {
	owner, err := s.ownerRepo.GetByIDForUpdate(ctx, tx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamOwnerNotFound) {
			return nil, ErrTeamOwnerNotFound
		}
		return nil, err
	}
	if owner.TournamentID != tournamentID {
		return nil, ErrTeamOwnerNotFound
	}
	if !owner.Approved {
		return nil, ErrOwnerNotApproved
	}
	return owner, nil
}

func (s *resolutionService) mapDebitError(err error, owner *models.TeamOwner, price int) error {
	if errors.Is(err, repositories.ErrInsufficientBudget) {
		return &BidRejection{
			Reason: ReasonInsufficientBudget,
			Message: fmt.Sprintf("team %q has %d remaining, cannot pay %d",
				owner.TeamName, owner.RemainingBudget, price),
			MaxAllowedBid: owner.RemainingBudget,
		}
	}
	return err
}

func (s *resolutionService) publishSold(ctx context.Context, tournamentID int, player *models.AuctionPlayer, owner *models.TeamOwner, price int) {
	evt := events.PlayerSold{
		TournamentID: tournamentID,
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		TeamOwnerID:  owner.ID,
		TeamName:     owner.TeamName,
		Price:        price,
	}
	// Owner email is display-only for the notifier; a failed lookup must
	// not fail the sale, which has already committed.
	if user, err := s.userRepo.GetByID(ctx, owner.UserID); err == nil {
		evt.OwnerEmail = user.Email
	} else {
		s.logger.Warn("could not resolve owner email for sale notification",
			slog.Int("team_owner_id", owner.ID), slog.Any("error", err))
	}
	s.publisher.Publish(evt)

	s.logger.Info("player sold",
		slog.Int("tournament_id", tournamentID),
		slog.Int("player_id", player.ID),
		slog.Int("team_owner_id", owner.ID),
		slog.Int("price", price),
	)
}

func (s *resolutionService) publishAdvanced(tournamentID int, round *models.AuctionRound, next *models.AuctionPlayer) {
	evt := events.RoundAdvanced{
		TournamentID:   tournamentID,
		RoundID:        round.ID,
		RoundNumber:    round.RoundNumber,
		RoundCompleted: next == nil,
	}
	if next != nil {
		evt.NextPlayerID = &next.ID
		evt.NextPlayerName = &next.Name
	}
	s.publisher.Publish(evt)
}
