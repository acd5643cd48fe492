package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
	"golang.org/x/sync/errgroup"
)

const migrationParallelism = 4

// MigrationError records a single player that could not be migrated;
// the rest of the batch still goes through.
type MigrationError struct {
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name"`
	Error      string `json:"error"`
}

type MigrationReport struct {
	Moved   int              `json:"moved"`
	Updated int              `json:"updated"`
	Errors  []MigrationError `json:"errors"`
}

type MigrationService interface {
	// MigrateApprovedPlayers promotes every approved auction player of the
	// tournament into the permanent roster, de-duplicating by identity.
	// Idempotent: migrated players leave the approved set, so a re-run only
	// processes what previously failed.
	MigrateApprovedPlayers(ctx context.Context, tournamentID int, completeTournament bool) (*MigrationReport, error)
}

type migrationService struct {
	auctionPlayerRepo repositories.AuctionPlayerRepository
	playerRepo        repositories.PlayerRepository
	tournamentRepo    repositories.TournamentRepository
	logger            *slog.Logger
}

func NewMigrationService(
	auctionPlayerRepo repositories.AuctionPlayerRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) MigrationService {
	return &migrationService{
		auctionPlayerRepo: auctionPlayerRepo,
		playerRepo:        playerRepo,
		tournamentRepo:    tournamentRepo,
		logger:            logger,
	}
}

func (s *migrationService) MigrateApprovedPlayers(ctx context.Context, tournamentID int, completeTournament bool) (*MigrationReport, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	approved := models.AuctionStatusApproved
	pending, err := s.auctionPlayerRepo.ListByTournament(ctx, tournamentID, &approved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved players: %w", err)
	}

	report := &MigrationReport{Errors: []MigrationError{}}
	var mu sync.Mutex

	// FindByIdentity matches on name, so two approved players sharing a name
	// can resolve to the same permanent record. Each name group runs
	// sequentially on one goroutine; only distinct names migrate in parallel,
	// which keeps the find-then-insert pair free of duplicate inserts.
	groups := make(map[string][]models.AuctionPlayer)
	for _, ap := range pending {
		groups[ap.Name] = append(groups[ap.Name], ap)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(migrationParallelism)

	for _, group := range groups {
		group := group
		g.Go(func() error {
			for i := range group {
				ap := group[i]
				updated, err := s.migrateOne(gctx, &ap)

				mu.Lock()
				if err != nil {
					report.Errors = append(report.Errors, MigrationError{
						PlayerID:   ap.ID,
						PlayerName: ap.Name,
						Error:      err.Error(),
					})
					s.logger.Error("player migration failed",
						slog.Int("auction_player_id", ap.ID), slog.Any("error", err))
				} else if updated {
					report.Updated++
				} else {
					report.Moved++
				}
				mu.Unlock()
			}
			// per-player failures never abort the batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if completeTournament && len(report.Errors) == 0 {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.TournamentStatusCompleted); err != nil {
			return report, fmt.Errorf("players migrated but tournament completion failed: %w", err)
		}
	}

	s.logger.Info("approved players migrated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("moved", report.Moved),
		slog.Int("updated", report.Updated),
		slog.Int("failed", len(report.Errors)),
	)
	return report, nil
}

// migrateOne reports whether an existing permanent player was updated
// (true) or a new one created (false).
func (s *migrationService) migrateOne(ctx context.Context, ap *models.AuctionPlayer) (bool, error) {
	existing, err := s.playerRepo.FindByIdentity(ctx, ap.Name, ap.Phone, ap.Email, ap.City)
	if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
		return false, err
	}

	updated := existing != nil
	if updated {
		applyAuctionPlayer(existing, ap)
		if err := s.playerRepo.Update(ctx, existing); err != nil {
			return false, err
		}
	} else {
		p := &models.Player{}
		applyAuctionPlayer(p, ap)
		if err := s.playerRepo.Create(ctx, p); err != nil {
			return false, err
		}
	}

	// The status flip lands after the roster write: if it fails the player
	// stays approved and the re-run repeats a harmless update.
	if err := s.auctionPlayerRepo.UpdateAuctionStatus(ctx, nil, ap.ID, models.AuctionStatusMoved); err != nil {
		return updated, err
	}
	return updated, nil
}

// applyAuctionPlayer copies registration fields without clobbering
// existing contact data with blanks.
func applyAuctionPlayer(dst *models.Player, src *models.AuctionPlayer) {
	dst.Name = src.Name
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
	if src.City != nil {
		dst.City = src.City
	}
	if src.PlayingRole != nil {
		dst.PlayingRole = src.PlayingRole
	}
}
