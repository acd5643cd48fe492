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

type RoundService interface {
	CreateRound(ctx context.Context, tournamentID, roundNumber int) (*models.AuctionRound, error)
	StartRound(ctx context.Context, tournamentID, roundID int) (*models.AuctionRound, error)
	EndRound(ctx context.Context, tournamentID, roundID int) (*models.AuctionRound, error)
	SetCurrentPlayer(ctx context.Context, tournamentID, roundID, playerID int) (*models.AuctionRound, error)
	ListRounds(ctx context.Context, tournamentID int) ([]models.AuctionRound, error)

	// Advance runs inside the caller's transaction: it points the round at
	// the next available player (resetting that player's lingering bids) or
	// completes the round when the pool is exhausted. Returns the next
	// player, or nil when the round completed.
	Advance(ctx context.Context, exec repositories.SQLExecutor, round *models.AuctionRound) (*models.AuctionPlayer, error)
}

type roundService struct {
	db         *sql.DB
	roundRepo  repositories.AuctionRoundRepository
	playerRepo repositories.AuctionPlayerRepository
	bidRepo    repositories.AuctionBidRepository
	publisher  events.Publisher
	logger     *slog.Logger
}

func NewRoundService(
	db *sql.DB,
	roundRepo repositories.AuctionRoundRepository,
	playerRepo repositories.AuctionPlayerRepository,
	bidRepo repositories.AuctionBidRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		db:         db,
		roundRepo:  roundRepo,
		playerRepo: playerRepo,
		bidRepo:    bidRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *roundService) CreateRound(ctx context.Context, tournamentID, roundNumber int) (*models.AuctionRound, error) {
	if roundNumber <= 0 {
		return nil, fmt.Errorf("%w: round number must be positive", ErrValidationFailed)
	}

	round := &models.AuctionRound{
		TournamentID: tournamentID,
		RoundNumber:  roundNumber,
		Status:       models.RoundStatusPending,
	}
	err := s.roundRepo.Create(ctx, round)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundInvalidRef) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return round, nil
}

// StartRound activates a pending round. The repository's check-and-set
// guarantees at most one active round per tournament without a separate
// read-then-write window.
func (s *roundService) StartRound(ctx context.Context, tournamentID, roundID int) (*models.AuctionRound, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, err := s.roundRepo.GetByIDForUpdate(ctx, tx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.TournamentID != tournamentID {
		return nil, ErrRoundNotFound
	}

	if err := s.roundRepo.Activate(ctx, tx, roundID); err != nil {
		if errors.Is(err, repositories.ErrRoundNotActivatable) {
			return nil, ErrRoundAlreadyActive
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	round.Status = models.RoundStatusActive
	round.CurrentPlayerID = nil
	s.logger.Info("auction round started",
		slog.Int("tournament_id", tournamentID), slog.Int("round_id", roundID))
	return round, nil
}

// EndRound is the administrative abort: it completes the round regardless
// of remaining players. In-flight bids racing this call fail their
// round-active precondition at commit time.
func (s *roundService) EndRound(ctx context.Context, tournamentID, roundID int) (*models.AuctionRound, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, err := s.roundRepo.GetByIDForUpdate(ctx, tx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.TournamentID != tournamentID {
		return nil, ErrRoundNotFound
	}

	if err := s.roundRepo.Complete(ctx, tx, roundID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	round.Status = models.RoundStatusCompleted
	round.CurrentPlayerID = nil
	s.logger.Info("auction round ended",
		slog.Int("tournament_id", tournamentID), slog.Int("round_id", roundID))
	return round, nil
}

// SetCurrentPlayer puts an available player on the block, including
// re-opening one after a dispute. Lingering open bids for the player are
// reset; under the debit-at-sale policy no budget was ever held for them,
// so resetting the bids is the entire restoration.
func (s *roundService) SetCurrentPlayer(ctx context.Context, tournamentID, roundID, playerID int) (*models.AuctionRound, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round, err := s.roundRepo.GetByIDForUpdate(ctx, tx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.TournamentID != tournamentID {
		return nil, ErrRoundNotFound
	}
	if round.Status != models.RoundStatusActive {
		return nil, ErrRoundNotActive
	}

	player, err := s.playerRepo.GetByIDForUpdate(ctx, tx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerNotFound) {
			return nil, ErrAuctionPlayerNotFound
		}
		return nil, err
	}
	if player.TournamentID != tournamentID {
		return nil, ErrAuctionPlayerNotFound
	}
	if player.AuctionStatus != models.AuctionStatusAvailable {
		return nil, ErrPlayerNotAvailable
	}

	if err := s.bidRepo.CloseOpen(ctx, tx, playerID, models.BidStatusReset); err != nil {
		return nil, fmt.Errorf("failed to reset open bids for player %d: %w", playerID, err)
	}
	if err := s.roundRepo.SetCurrentPlayer(ctx, tx, roundID, &playerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	round.CurrentPlayerID = &playerID
	s.publisher.Publish(events.RoundAdvanced{
		TournamentID:   tournamentID,
		RoundID:        round.ID,
		RoundNumber:    round.RoundNumber,
		NextPlayerID:   &player.ID,
		NextPlayerName: &player.Name,
	})
	return round, nil
}

func (s *roundService) ListRounds(ctx context.Context, tournamentID int) ([]models.AuctionRound, error) {
	return s.roundRepo.ListByTournament(ctx, tournamentID)
}

func (s *roundService) Advance(ctx context.Context, exec repositories.SQLExecutor, round *models.AuctionRound) (*models.AuctionPlayer, error) {
	next, err := s.playerRepo.NextAvailable(ctx, exec, round.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerNotFound) {
			if err := s.roundRepo.Complete(ctx, exec, round.ID); err != nil {
				return nil, err
			}
			round.Status = models.RoundStatusCompleted
			round.CurrentPlayerID = nil
			return nil, nil
		}
		return nil, err
	}

	// A fresh pass over a re-entered player must not inherit stale bids.
	if err := s.bidRepo.CloseOpen(ctx, exec, next.ID, models.BidStatusReset); err != nil {
		return nil, err
	}
	if err := s.roundRepo.SetCurrentPlayer(ctx, exec, round.ID, &next.ID); err != nil {
		return nil, err
	}
	round.CurrentPlayerID = &next.ID
	return next, nil
}
