package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crichub/cricket-auction/models"
	"github.com/lib/pq"
)

var (
	ErrBidNotFound   = errors.New("bid not found")
	ErrBidInvalidRef = errors.New("invalid player, owner or round reference")
)

type AuctionBidRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bid *models.AuctionBid) error
	// GetLeadingForUpdate returns the single active winning bid for a
	// player locked for the caller's transaction, or ErrBidNotFound.
	GetLeadingForUpdate(ctx context.Context, exec SQLExecutor, playerID int) (*models.AuctionBid, error)
	GetLeading(ctx context.Context, playerID int) (*models.AuctionBid, error)
	ListByPlayer(ctx context.Context, playerID int) ([]models.AuctionBid, error)
	// DemoteLeading flips the current active winning bid (if any) to outbid.
	DemoteLeading(ctx context.Context, exec SQLExecutor, playerID int) error
	// CloseOpen moves every active/outbid bid of the player to the given
	// terminal status and clears is_winning. Used for closed and reset.
	CloseOpen(ctx context.Context, exec SQLExecutor, playerID int, status models.BidStatus) error
	MarkWinning(ctx context.Context, exec SQLExecutor, bidID int) error
}

type postgresAuctionBidRepository struct {
	db *sql.DB
}

func NewPostgresAuctionBidRepository(db *sql.DB) AuctionBidRepository {
	return &postgresAuctionBidRepository{db: db}
}

func (r *postgresAuctionBidRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const auctionBidColumns = `id, player_id, team_owner_id, round_id, bid_amount, status, is_winning, created_at`

func (r *postgresAuctionBidRepository) Create(ctx context.Context, exec SQLExecutor, b *models.AuctionBid) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO auction_bids (player_id, team_owner_id, round_id, bid_amount, status, is_winning)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		b.PlayerID, b.TeamOwnerID, b.RoundID, b.BidAmount, b.Status, b.IsWinning,
	).Scan(&b.ID, &b.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return ErrBidInvalidRef
	}
	return err
}

func (r *postgresAuctionBidRepository) GetLeadingForUpdate(ctx context.Context, exec SQLExecutor, playerID int) (*models.AuctionBid, error) {
	query := `
		SELECT ` + auctionBidColumns + `
		FROM auction_bids
		WHERE player_id = $1 AND status = $2 AND is_winning = true
		FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, playerID, models.BidStatusActive))
}

func (r *postgresAuctionBidRepository) GetLeading(ctx context.Context, playerID int) (*models.AuctionBid, error) {
	query := `
		SELECT ` + auctionBidColumns + `
		FROM auction_bids
		WHERE player_id = $1 AND status = $2 AND is_winning = true`
	return r.scanOne(r.db.QueryRowContext(ctx, query, playerID, models.BidStatusActive))
}

func (r *postgresAuctionBidRepository) scanOne(row *sql.Row) (*models.AuctionBid, error) {
	b := &models.AuctionBid{}
	err := row.Scan(
		&b.ID, &b.PlayerID, &b.TeamOwnerID, &b.RoundID,
		&b.BidAmount, &b.Status, &b.IsWinning, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresAuctionBidRepository) ListByPlayer(ctx context.Context, playerID int) ([]models.AuctionBid, error) {
	query := `
		SELECT b.id, b.player_id, b.team_owner_id, b.round_id, b.bid_amount, b.status, b.is_winning, b.created_at,
		       o.team_name
		FROM auction_bids b
		JOIN team_owners o ON o.id = b.team_owner_id
		WHERE b.player_id = $1
		ORDER BY b.bid_amount DESC, b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]models.AuctionBid, 0)
	for rows.Next() {
		var b models.AuctionBid
		if scanErr := rows.Scan(
			&b.ID, &b.PlayerID, &b.TeamOwnerID, &b.RoundID,
			&b.BidAmount, &b.Status, &b.IsWinning, &b.CreatedAt,
			&b.TeamName,
		); scanErr != nil {
			return nil, scanErr
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (r *postgresAuctionBidRepository) DemoteLeading(ctx context.Context, exec SQLExecutor, playerID int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE auction_bids
		SET status = $1, is_winning = false
		WHERE player_id = $2 AND status = $3 AND is_winning = true`

	// Zero rows is fine: the player may have no bids yet.
	_, err := executor.ExecContext(ctx, query, models.BidStatusOutbid, playerID, models.BidStatusActive)
	return err
}

func (r *postgresAuctionBidRepository) CloseOpen(ctx context.Context, exec SQLExecutor, playerID int, status models.BidStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE auction_bids
		SET status = $1, is_winning = false
		WHERE player_id = $2 AND status IN ($3, $4)`

	_, err := executor.ExecContext(ctx, query, status, playerID, models.BidStatusActive, models.BidStatusOutbid)
	return err
}

func (r *postgresAuctionBidRepository) MarkWinning(ctx context.Context, exec SQLExecutor, bidID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE auction_bids SET status = $1, is_winning = true WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, models.BidStatusWinning, bidID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBidNotFound)
}
