package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crichub/cricket-auction/models"
	"github.com/lib/pq"
)

var (
	ErrAuctionPlayerNotFound   = errors.New("auction player not found")
	ErrAuctionPlayerInvalidRef = errors.New("invalid tournament or team reference")
)

type AuctionPlayerRepository interface {
	Create(ctx context.Context, player *models.AuctionPlayer) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionPlayer, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionPlayer, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.AuctionStatus) ([]models.AuctionPlayer, error)
	// NextAvailable returns the next available player of the tournament in
	// deterministic (name, id) order, or ErrAuctionPlayerNotFound when the
	// pool is exhausted.
	NextAvailable(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.AuctionPlayer, error)
	MarkSold(ctx context.Context, exec SQLExecutor, id int, soldPrice int, teamOwnerID int) error
	MarkUnsold(ctx context.Context, exec SQLExecutor, id int) error
	UpdateAuctionStatus(ctx context.Context, exec SQLExecutor, id int, status models.AuctionStatus) error
	SumSoldPrices(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresAuctionPlayerRepository struct {
	db *sql.DB
}

func NewPostgresAuctionPlayerRepository(db *sql.DB) AuctionPlayerRepository {
	return &postgresAuctionPlayerRepository{db: db}
}

func (r *postgresAuctionPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const auctionPlayerColumns = `id, tournament_id, name, phone, email, city, playing_role,
	base_price, auction_status, sold_price, auction_team_id, created_at`

func (r *postgresAuctionPlayerRepository) Create(ctx context.Context, p *models.AuctionPlayer) error {
	query := `
		INSERT INTO auction_players (tournament_id, name, phone, email, city, playing_role, base_price, auction_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.TournamentID, p.Name, p.Phone, p.Email, p.City, p.PlayingRole, p.BasePrice, p.AuctionStatus,
	).Scan(&p.ID, &p.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return ErrAuctionPlayerInvalidRef
	}
	return err
}

func (r *postgresAuctionPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionPlayer, error) {
	query := `SELECT ` + auctionPlayerColumns + ` FROM auction_players WHERE id = $1`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresAuctionPlayerRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.AuctionPlayer, error) {
	query := `SELECT ` + auctionPlayerColumns + ` FROM auction_players WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresAuctionPlayerRepository) NextAvailable(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.AuctionPlayer, error) {
	query := `
		SELECT ` + auctionPlayerColumns + `
		FROM auction_players
		WHERE tournament_id = $1 AND auction_status = $2
		ORDER BY name, id
		LIMIT 1
		FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, models.AuctionStatusAvailable))
}

func (r *postgresAuctionPlayerRepository) scanOne(row *sql.Row) (*models.AuctionPlayer, error) {
	p := &models.AuctionPlayer{}
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.Name, &p.Phone, &p.Email, &p.City, &p.PlayingRole,
		&p.BasePrice, &p.AuctionStatus, &p.SoldPrice, &p.AuctionTeamID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuctionPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresAuctionPlayerRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.AuctionStatus) ([]models.AuctionPlayer, error) {
	query := `SELECT ` + auctionPlayerColumns + ` FROM auction_players WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND auction_status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.AuctionPlayer, 0)
	for rows.Next() {
		var p models.AuctionPlayer
		if scanErr := rows.Scan(
			&p.ID, &p.TournamentID, &p.Name, &p.Phone, &p.Email, &p.City, &p.PlayingRole,
			&p.BasePrice, &p.AuctionStatus, &p.SoldPrice, &p.AuctionTeamID, &p.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresAuctionPlayerRepository) MarkSold(ctx context.Context, exec SQLExecutor, id int, soldPrice int, teamOwnerID int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE auction_players
		SET auction_status = $1, sold_price = $2, auction_team_id = $3
		WHERE id = $4 AND auction_status = $5`

	result, err := executor.ExecContext(ctx, query,
		models.AuctionStatusSold, soldPrice, teamOwnerID, id, models.AuctionStatusAvailable)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAuctionPlayerNotFound)
}

func (r *postgresAuctionPlayerRepository) MarkUnsold(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE auction_players
		SET auction_status = $1, sold_price = NULL, auction_team_id = NULL
		WHERE id = $2 AND auction_status = $3`

	result, err := executor.ExecContext(ctx, query,
		models.AuctionStatusUnsold, id, models.AuctionStatusAvailable)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAuctionPlayerNotFound)
}

func (r *postgresAuctionPlayerRepository) UpdateAuctionStatus(ctx context.Context, exec SQLExecutor, id int, status models.AuctionStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE auction_players SET auction_status = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update auction status for player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAuctionPlayerNotFound)
}

func (r *postgresAuctionPlayerRepository) SumSoldPrices(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COALESCE(SUM(sold_price), 0)
		FROM auction_players
		WHERE tournament_id = $1 AND sold_price IS NOT NULL`

	var sum int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}
