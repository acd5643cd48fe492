package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crichub/cricket-auction/events"
	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
)

type RegisterTeamOwnerInput struct {
	TournamentID     int    `json:"tournament_id"`
	TeamName         string `json:"team_name"`
	MinPlayersNeeded int    `json:"min_players_needed"`
	MaxPlayersNeeded int    `json:"max_players_needed"`
}

type TeamOwnerService interface {
	Register(ctx context.Context, userID int, in RegisterTeamOwnerInput) (*models.TeamOwner, error)
	// Approve grants the tournament's owner budget and unlocks bidding.
	Approve(ctx context.Context, tournamentID, ownerID int) (*models.TeamOwner, error)
	GetByID(ctx context.Context, id int) (*models.TeamOwner, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.TeamOwner, error)
}

type teamOwnerService struct {
	ownerRepo      repositories.TeamOwnerRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	publisher      events.Publisher
	logger         *slog.Logger
}

func NewTeamOwnerService(
	ownerRepo repositories.TeamOwnerRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) TeamOwnerService {
	return &teamOwnerService{
		ownerRepo:      ownerRepo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *teamOwnerService) Register(ctx context.Context, userID int, in RegisterTeamOwnerInput) (*models.TeamOwner, error) {
	if in.TeamName == "" {
		return nil, ErrTeamNameRequired
	}
	if in.MinPlayersNeeded <= 0 || in.MaxPlayersNeeded < in.MinPlayersNeeded {
		return nil, fmt.Errorf("%w: roster bounds must satisfy 0 < min <= max", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, in.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status != models.TournamentStatusRegistration {
		return nil, ErrRegistrationNotOpen
	}

	owner := &models.TeamOwner{
		UserID:           userID,
		TournamentID:     in.TournamentID,
		TeamName:         in.TeamName,
		MinPlayersNeeded: in.MinPlayersNeeded,
		MaxPlayersNeeded: in.MaxPlayersNeeded,
	}
	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		if errors.Is(err, repositories.ErrTeamOwnerInvalidRef) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return owner, nil
}

func (s *teamOwnerService) Approve(ctx context.Context, tournamentID, ownerID int) (*models.TeamOwner, error) {
	owner, err := s.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.TournamentID != tournamentID {
		return nil, ErrTeamOwnerNotFound
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if err := s.ownerRepo.Approve(ctx, nil, ownerID, tournament.OwnerBudget); err != nil {
		if errors.Is(err, repositories.ErrTeamOwnerAlreadyApproved) {
			return nil, fmt.Errorf("%w: team owner already approved", ErrValidationFailed)
		}
		return nil, err
	}

	owner.Approved = true
	owner.TotalBudget = tournament.OwnerBudget
	owner.RemainingBudget = tournament.OwnerBudget

	evt := events.TeamOwnerApproved{
		TournamentID: tournamentID,
		TeamOwnerID:  owner.ID,
		TeamName:     owner.TeamName,
		Budget:       tournament.OwnerBudget,
	}
	if user, err := s.userRepo.GetByID(ctx, owner.UserID); err == nil {
		evt.OwnerEmail = user.Email
	}
	s.publisher.Publish(evt)

	s.logger.Info("team owner approved",
		slog.Int("tournament_id", tournamentID),
		slog.Int("team_owner_id", owner.ID),
		slog.Int("budget", tournament.OwnerBudget),
	)
	return owner, nil
}

func (s *teamOwnerService) GetByID(ctx context.Context, id int) (*models.TeamOwner, error) {
	owner, err := s.ownerRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamOwnerNotFound) {
			return nil, ErrTeamOwnerNotFound
		}
		return nil, err
	}
	return owner, nil
}

func (s *teamOwnerService) ListByTournament(ctx context.Context, tournamentID int) ([]models.TeamOwner, error) {
	return s.ownerRepo.ListByTournament(ctx, tournamentID)
}
