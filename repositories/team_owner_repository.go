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
	ErrTeamOwnerNotFound        = errors.New("team owner not found")
	ErrTeamNameConflict         = errors.New("team name already taken in this tournament")
	ErrTeamOwnerInvalidRef      = errors.New("invalid user or tournament reference")
	ErrInsufficientBudget       = errors.New("insufficient remaining budget")
	ErrTeamOwnerAlreadyApproved = errors.New("team owner already approved")
)

type TeamOwnerRepository interface {
	Create(ctx context.Context, owner *models.TeamOwner) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamOwner, error)
	// GetByIDForUpdate locks the owner row inside the caller's transaction.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TeamOwner, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.TeamOwner, error)
	Approve(ctx context.Context, exec SQLExecutor, id int, budget int) error
	// Debit subtracts amount from remaining_budget. The WHERE guard makes a
	// debit that would go negative affect zero rows, which is reported as
	// ErrInsufficientBudget.
	Debit(ctx context.Context, exec SQLExecutor, id int, amount int) error
	Credit(ctx context.Context, exec SQLExecutor, id int, amount int) error
	IncrementRoster(ctx context.Context, exec SQLExecutor, id int) error
	SumSpent(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresTeamOwnerRepository struct {
	db *sql.DB
}

func NewPostgresTeamOwnerRepository(db *sql.DB) TeamOwnerRepository {
	return &postgresTeamOwnerRepository{db: db}
}

func (r *postgresTeamOwnerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamOwnerColumns = `id, user_id, tournament_id, team_name, total_budget, remaining_budget,
	current_players, min_players_needed, max_players_needed, approved, created_at`

func (r *postgresTeamOwnerRepository) Create(ctx context.Context, o *models.TeamOwner) error {
	query := `
		INSERT INTO team_owners (user_id, tournament_id, team_name, total_budget, remaining_budget,
			current_players, min_players_needed, max_players_needed, approved)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, false)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		o.UserID, o.TournamentID, o.TeamName, o.TotalBudget, o.RemainingBudget,
		o.MinPlayersNeeded, o.MaxPlayersNeeded,
	).Scan(&o.ID, &o.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrTeamNameConflict
		case "23503":
			return ErrTeamOwnerInvalidRef
		}
	}
	return err
}

func (r *postgresTeamOwnerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamOwner, error) {
	return r.scanOne(ctx, r.getExecutor(exec), `SELECT `+teamOwnerColumns+` FROM team_owners WHERE id = $1`, id)
}

func (r *postgresTeamOwnerRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TeamOwner, error) {
	return r.scanOne(ctx, r.getExecutor(exec), `SELECT `+teamOwnerColumns+` FROM team_owners WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresTeamOwnerRepository) scanOne(ctx context.Context, exec SQLExecutor, query string, id int) (*models.TeamOwner, error) {
	o := &models.TeamOwner{}
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.TournamentID, &o.TeamName, &o.TotalBudget, &o.RemainingBudget,
		&o.CurrentPlayers, &o.MinPlayersNeeded, &o.MaxPlayersNeeded, &o.Approved, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamOwnerNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresTeamOwnerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.TeamOwner, error) {
	query := `SELECT ` + teamOwnerColumns + ` FROM team_owners WHERE tournament_id = $1 ORDER BY team_name`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make([]models.TeamOwner, 0)
	for rows.Next() {
		var o models.TeamOwner
		if scanErr := rows.Scan(
			&o.ID, &o.UserID, &o.TournamentID, &o.TeamName, &o.TotalBudget, &o.RemainingBudget,
			&o.CurrentPlayers, &o.MinPlayersNeeded, &o.MaxPlayersNeeded, &o.Approved, &o.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func (r *postgresTeamOwnerRepository) Approve(ctx context.Context, exec SQLExecutor, id int, budget int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE team_owners
		SET approved = true, total_budget = $1, remaining_budget = $1
		WHERE id = $2 AND approved = false`

	result, err := executor.ExecContext(ctx, query, budget, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamOwnerAlreadyApproved)
}

func (r *postgresTeamOwnerRepository) Debit(ctx context.Context, exec SQLExecutor, id int, amount int) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	executor := r.getExecutor(exec)
	query := `
		UPDATE team_owners
		SET remaining_budget = remaining_budget - $1
		WHERE id = $2 AND remaining_budget >= $1`

	result, err := executor.ExecContext(ctx, query, amount, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInsufficientBudget)
}

func (r *postgresTeamOwnerRepository) Credit(ctx context.Context, exec SQLExecutor, id int, amount int) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}
	executor := r.getExecutor(exec)
	query := `UPDATE team_owners SET remaining_budget = remaining_budget + $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, amount, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamOwnerNotFound)
}

func (r *postgresTeamOwnerRepository) IncrementRoster(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE team_owners SET current_players = current_players + 1 WHERE id = $1`

	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamOwnerNotFound)
}

// SumSpent returns the total amount debited across a tournament's owners,
// the ledger side of the budget conservation report.
func (r *postgresTeamOwnerRepository) SumSpent(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COALESCE(SUM(total_budget - remaining_budget), 0) FROM team_owners WHERE tournament_id = $1`

	var sum int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}
