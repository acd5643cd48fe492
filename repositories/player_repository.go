package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crichub/cricket-auction/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	// FindByIdentity locates an existing permanent player matching the
	// auction player by (name, phone), (name, email) or (name, city).
	FindByIdentity(ctx context.Context, name string, phone, email, city *string) (*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	List(ctx context.Context, limit, offset int) ([]models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, name, phone, email, city, playing_role, created_at, updated_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (name, phone, email, city, playing_role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		p.Name, p.Phone, p.Email, p.City, p.PlayingRole,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) FindByIdentity(ctx context.Context, name string, phone, email, city *string) (*models.Player, error) {
	// NULL identity fields never match: a missing phone on either side must
	// not pair two unrelated players.
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE name = $1 AND (
			(phone IS NOT NULL AND phone = $2) OR
			(email IS NOT NULL AND email = $3) OR
			(city  IS NOT NULL AND city  = $4)
		)
		ORDER BY id
		LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name, phone, email, city))
}

func (r *postgresPlayerRepository) scanOne(row *sql.Row) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.Email, &p.City, &p.PlayingRole, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, phone = $2, email = $3, city = $4, playing_role = $5, updated_at = NOW()
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query, p.Name, p.Phone, p.Email, p.City, p.PlayingRole, p.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) List(ctx context.Context, limit, offset int) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY name, id LIMIT $1 OFFSET $2`
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(
			&p.ID, &p.Name, &p.Phone, &p.Email, &p.City, &p.PlayingRole, &p.CreatedAt, &p.UpdatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
