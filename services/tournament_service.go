package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
)

type CreateTournamentInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Venue       *string `json:"venue"`
	MinimumBid  int     `json:"minimum_bid"`
	OwnerBudget int     `json:"owner_budget"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID int, in CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
}

type tournamentService struct {
	repo repositories.TournamentRepository
}

func NewTournamentService(repo repositories.TournamentRepository) TournamentService {
	return &tournamentService{repo: repo}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID int, in CreateTournamentInput) (*models.Tournament, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if in.MinimumBid <= 0 {
		return nil, fmt.Errorf("%w: minimum_bid must be positive", ErrValidationFailed)
	}
	if in.OwnerBudget < in.MinimumBid {
		return nil, fmt.Errorf("%w: owner_budget must cover at least one minimum bid", ErrValidationFailed)
	}

	start, end, err := parseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	t := &models.Tournament{
		Name:        in.Name,
		Description: in.Description,
		Venue:       in.Venue,
		OrganizerID: organizerID,
		Status:      models.TournamentStatusRegistration,
		MinimumBid:  in.MinimumBid,
		OwnerBudget: in.OwnerBudget,
		StartDate:   start,
		EndDate:     end,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, fmt.Errorf("%w: tournament name already exists", ErrValidationFailed)
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

var tournamentStatusOrder = map[models.TournamentStatus]int{
	models.TournamentStatusSoon:         0,
	models.TournamentStatusRegistration: 1,
	models.TournamentStatusActive:       2,
	models.TournamentStatusCompleted:    3,
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	t, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == models.TournamentStatusCanceled {
		if t.Status == models.TournamentStatusCompleted {
			return nil, fmt.Errorf("%w: completed tournament cannot be canceled", ErrValidationFailed)
		}
	} else {
		from, okFrom := tournamentStatusOrder[t.Status]
		to, okTo := tournamentStatusOrder[status]
		if !okFrom || !okTo || to < from {
			return nil, fmt.Errorf("%w: cannot move tournament from %s to %s", ErrValidationFailed, t.Status, status)
		}
	}

	if err := s.repo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, err
	}
	t.Status = status
	return t, nil
}
