package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
)

type RegisterAuctionPlayerInput struct {
	TournamentID int     `json:"tournament_id"`
	Name         string  `json:"name"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	City         *string `json:"city"`
	PlayingRole  *string `json:"playing_role"`
	BasePrice    int     `json:"base_price"`
}

type PlayerService interface {
	RegisterAuctionPlayer(ctx context.Context, in RegisterAuctionPlayerInput) (*models.AuctionPlayer, error)
	GetAuctionPlayer(ctx context.Context, tournamentID, playerID int) (*models.AuctionPlayer, error)
	ListAuctionPlayers(ctx context.Context, tournamentID int, status *models.AuctionStatus) ([]models.AuctionPlayer, error)
	ListPermanentPlayers(ctx context.Context, limit, offset int) ([]models.Player, error)
}

type playerService struct {
	auctionPlayerRepo repositories.AuctionPlayerRepository
	playerRepo        repositories.PlayerRepository
	tournamentRepo    repositories.TournamentRepository
}

func NewPlayerService(
	auctionPlayerRepo repositories.AuctionPlayerRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
) PlayerService {
	return &playerService{
		auctionPlayerRepo: auctionPlayerRepo,
		playerRepo:        playerRepo,
		tournamentRepo:    tournamentRepo,
	}
}

func (s *playerService) RegisterAuctionPlayer(ctx context.Context, in RegisterAuctionPlayerInput) (*models.AuctionPlayer, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	if in.BasePrice < 0 {
		return nil, fmt.Errorf("%w: base_price must not be negative", ErrValidationFailed)
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

	player := &models.AuctionPlayer{
		TournamentID:  in.TournamentID,
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		City:          in.City,
		PlayingRole:   in.PlayingRole,
		BasePrice:     in.BasePrice,
		AuctionStatus: models.AuctionStatusAvailable,
	}
	if err := s.auctionPlayerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerInvalidRef) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *playerService) GetAuctionPlayer(ctx context.Context, tournamentID, playerID int) (*models.AuctionPlayer, error) {
	player, err := s.auctionPlayerRepo.GetByID(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrAuctionPlayerNotFound) {
			return nil, ErrAuctionPlayerNotFound
		}
		return nil, err
	}
	if player.TournamentID != tournamentID {
		return nil, ErrAuctionPlayerNotFound
	}
	return player, nil
}

func (s *playerService) ListAuctionPlayers(ctx context.Context, tournamentID int, status *models.AuctionStatus) ([]models.AuctionPlayer, error) {
	return s.auctionPlayerRepo.ListByTournament(ctx, tournamentID, status)
}

func (s *playerService) ListPermanentPlayers(ctx context.Context, limit, offset int) ([]models.Player, error) {
	return s.playerRepo.List(ctx, limit, offset)
}
