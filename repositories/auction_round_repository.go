package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crichub/cricket-auction/models"
	"github.com/lib/pq"
)

var (
	ErrRoundNotFound       = errors.New("auction round not found")
	ErrRoundNumberConflict = errors.New("round number already exists for this tournament")
	ErrRoundInvalidRef     = errors.New("invalid tournament reference")
	ErrRoundNotActivatable = errors.New("round is not pending or another round is already active")
	ErrNoActiveRound       = errors.New("no active auction round for this tournament")
)

type AuctionRoundRepository interface {
	Create(ctx context.Context, round *models.AuctionRound) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionRound, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionRound, error)
	// GetActiveForUpdate locks the single active round of a tournament, or
	// returns ErrNoActiveRound.
	GetActiveForUpdate(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.AuctionRound, error)
	GetActive(ctx context.Context, tournamentID int) (*models.AuctionRound, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.AuctionRound, error)
	// Activate flips a pending round to active iff no other round of the
	// same tournament is active. The single-statement check-and-set is what
	// enforces the one-active-round invariant.
	Activate(ctx context.Context, exec SQLExecutor, id int) error
	SetCurrentPlayer(ctx context.Context, exec SQLExecutor, id int, playerID *int) error
	Complete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresAuctionRoundRepository struct {
	db *sql.DB
}

func NewPostgresAuctionRoundRepository(db *sql.DB) AuctionRoundRepository {
	return &postgresAuctionRoundRepository{db: db}
}

func (r *postgresAuctionRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const auctionRoundColumns = `id, tournament_id, round_number, status, current_player_id, created_at`

func (r *postgresAuctionRoundRepository) Create(ctx context.Context, round *models.AuctionRound) error {
	query := `
		INSERT INTO auction_rounds (tournament_id, round_number, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		round.TournamentID, round.RoundNumber, models.RoundStatusPending,
	).Scan(&round.ID, &round.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrRoundNumberConflict
		case "23503":
			return ErrRoundInvalidRef
		}
	}
	if err == nil {
		round.Status = models.RoundStatusPending
	}
	return err
}

func (r *postgresAuctionRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionRound, error) {
	query := `SELECT ` + auctionRoundColumns + ` FROM auction_rounds WHERE id = $1`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id), ErrRoundNotFound)
}

func (r *postgresAuctionRoundRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionRound, error) {
	query := `SELECT ` + auctionRoundColumns + ` FROM auction_rounds WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id), ErrRoundNotFound)
}

func (r *postgresAuctionRoundRepository) GetActiveForUpdate(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.AuctionRound, error) {
	query := `
		SELECT ` + auctionRoundColumns + `
		FROM auction_rounds
		WHERE tournament_id = $1 AND status = $2
		FOR UPDATE`
	return r.scanOne(
		r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, models.RoundStatusActive),
		ErrNoActiveRound,
	)
}

func (r *postgresAuctionRoundRepository) GetActive(ctx context.Context, tournamentID int) (*models.AuctionRound, error) {
	query := `SELECT ` + auctionRoundColumns + ` FROM auction_rounds WHERE tournament_id = $1 AND status = $2`
	return r.scanOne(
		r.db.QueryRowContext(ctx, query, tournamentID, models.RoundStatusActive),
		ErrNoActiveRound,
	)
}

func (r *postgresAuctionRoundRepository) scanOne(row *sql.Row, notFound error) (*models.AuctionRound, error) {
	round := &models.AuctionRound{}
	err := row.Scan(
		&round.ID, &round.TournamentID, &round.RoundNumber,
		&round.Status, &round.CurrentPlayerID, &round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return round, nil
}

func (r *postgresAuctionRoundRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.AuctionRound, error) {
	query := `SELECT ` + auctionRoundColumns + ` FROM auction_rounds WHERE tournament_id = $1 ORDER BY round_number`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]models.AuctionRound, 0)
	for rows.Next() {
		var round models.AuctionRound
		if scanErr := rows.Scan(
			&round.ID, &round.TournamentID, &round.RoundNumber,
			&round.Status, &round.CurrentPlayerID, &round.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *postgresAuctionRoundRepository) Activate(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE auction_rounds
		SET status = $1, current_player_id = NULL
		WHERE id = $2
		  AND status = $3
		  AND NOT EXISTS (
			SELECT 1 FROM auction_rounds other
			WHERE other.tournament_id = auction_rounds.tournament_id
			  AND other.status = $1
		  )`

	result, err := executor.ExecContext(ctx, query, models.RoundStatusActive, id, models.RoundStatusPending)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotActivatable)
}

func (r *postgresAuctionRoundRepository) SetCurrentPlayer(ctx context.Context, exec SQLExecutor, id int, playerID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE auction_rounds SET current_player_id = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, playerID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresAuctionRoundRepository) Complete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE auction_rounds SET status = $1, current_player_id = NULL WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, models.RoundStatusCompleted, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
