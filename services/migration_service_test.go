package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

type fakeTournamentRepo struct {
	tournament    *models.Tournament
	statusUpdates []models.TournamentStatus
	mu            sync.Mutex
}

func (f *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error { return nil }

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	if f.tournament == nil || f.tournament.ID != id {
		return nil, repositories.ErrTournamentNotFound
	}
	return f.tournament, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return nil, nil
}

func (f *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error { return nil }

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type fakeAuctionPlayerRepo struct {
	players       []models.AuctionPlayer
	statusChanges map[int]models.AuctionStatus
	failStatusFor int
	mu            sync.Mutex
}

func (f *fakeAuctionPlayerRepo) Create(ctx context.Context, p *models.AuctionPlayer) error {
	return nil
}

func (f *fakeAuctionPlayerRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.AuctionPlayer, error) {
	for i := range f.players {
		if f.players[i].ID == id {
			return &f.players[i], nil
		}
	}
	return nil, repositories.ErrAuctionPlayerNotFound
}

func (f *fakeAuctionPlayerRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.AuctionPlayer, error) {
	return f.GetByID(ctx, exec, id)
}

func (f *fakeAuctionPlayerRepo) ListByTournament(ctx context.Context, tournamentID int, status *models.AuctionStatus) ([]models.AuctionPlayer, error) {
	var out []models.AuctionPlayer
	for _, p := range f.players {
		if p.TournamentID != tournamentID {
			continue
		}
		if status != nil && p.AuctionStatus != *status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAuctionPlayerRepo) NextAvailable(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.AuctionPlayer, error) {
	var best *models.AuctionPlayer
	for i := range f.players {
		p := &f.players[i]
		if p.TournamentID != tournamentID || p.AuctionStatus != models.AuctionStatusAvailable {
			continue
		}
		if best == nil || p.Name < best.Name || (p.Name == best.Name && p.ID < best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, repositories.ErrAuctionPlayerNotFound
	}
	copied := *best
	return &copied, nil
}

func (f *fakeAuctionPlayerRepo) MarkSold(ctx context.Context, exec repositories.SQLExecutor, id int, soldPrice int, teamOwnerID int) error {
	return nil
}

func (f *fakeAuctionPlayerRepo) MarkUnsold(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return nil
}

func (f *fakeAuctionPlayerRepo) UpdateAuctionStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.AuctionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failStatusFor {
		return errors.New("status update failed")
	}
	if f.statusChanges == nil {
		f.statusChanges = map[int]models.AuctionStatus{}
	}
	f.statusChanges[id] = status
	return nil
}

func (f *fakeAuctionPlayerRepo) SumSoldPrices(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	total := 0
	for _, p := range f.players {
		if p.TournamentID == tournamentID && p.SoldPrice != nil {
			total += *p.SoldPrice
		}
	}
	return total, nil
}

type fakePlayerRepo struct {
	existing   []*models.Player
	created    []*models.Player
	updated    []*models.Player
	failCreate bool
	mu         sync.Mutex
}

func (f *fakePlayerRepo) Create(ctx context.Context, p *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("insert failed")
	}
	p.ID = 1000 + len(f.created)
	f.created = append(f.created, p)
	return nil
}

func (f *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) FindByIdentity(ctx context.Context, name string, phone, email, city *string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match := func(a, b *string) bool {
		return a != nil && b != nil && *a == *b
	}
	// Created rows are immediately visible to later lookups, same as the
	// real table.
	for _, p := range append(append([]*models.Player{}, f.existing...), f.created...) {
		if p.Name != name {
			continue
		}
		if match(p.Phone, phone) || match(p.Email, email) || match(p.City, city) {
			return p, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) Update(ctx context.Context, p *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakePlayerRepo) List(ctx context.Context, limit, offset int) ([]models.Player, error) {
	return nil, nil
}

func TestMigrateApprovedPlayers(t *testing.T) {
	approvedPlayer := func(id int, name string, phone string) models.AuctionPlayer {
		return models.AuctionPlayer{
			ID:            id,
			TournamentID:  1,
			Name:          name,
			Phone:         strPtr(phone),
			AuctionStatus: models.AuctionStatusApproved,
		}
	}

	t.Run("creates new players and updates matches", func(t *testing.T) {
		tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 1}}
		playerRepo := &fakePlayerRepo{
			existing: []*models.Player{{ID: 7, Name: "Rohit Verma", Phone: strPtr("111")}},
		}
		apRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{
			approvedPlayer(1, "Rohit Verma", "111"),
			approvedPlayer(2, "Sanjay Iyer", "222"),
		}}

		svc := NewMigrationService(apRepo, playerRepo, tournamentRepo, discardLogger())
		report, err := svc.MigrateApprovedPlayers(context.Background(), 1, false)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Updated)
		assert.Equal(t, 1, report.Moved)
		assert.Empty(t, report.Errors)
		assert.Len(t, playerRepo.created, 1)
		assert.Len(t, playerRepo.updated, 1)
		assert.Equal(t, models.AuctionStatusMoved, apRepo.statusChanges[1])
		assert.Equal(t, models.AuctionStatusMoved, apRepo.statusChanges[2])
	})

	t.Run("duplicate identities in one batch collapse to one permanent player", func(t *testing.T) {
		tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 1}}
		playerRepo := &fakePlayerRepo{}
		apRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{
			approvedPlayer(1, "Rohit Verma", "111"),
			approvedPlayer(2, "Rohit Verma", "111"),
		}}

		svc := NewMigrationService(apRepo, playerRepo, tournamentRepo, discardLogger())
		report, err := svc.MigrateApprovedPlayers(context.Background(), 1, false)
		require.NoError(t, err)

		assert.Empty(t, report.Errors)
		assert.Equal(t, 1, report.Moved)
		assert.Equal(t, 1, report.Updated)
		require.Len(t, playerRepo.created, 1)
		assert.Equal(t, models.AuctionStatusMoved, apRepo.statusChanges[1])
		assert.Equal(t, models.AuctionStatusMoved, apRepo.statusChanges[2])
	})

	t.Run("per-player failure is reported without aborting the batch", func(t *testing.T) {
		tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 1}}
		playerRepo := &fakePlayerRepo{failCreate: true}
		apRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{
			approvedPlayer(1, "Rohit Verma", "111"),
		}}

		svc := NewMigrationService(apRepo, playerRepo, tournamentRepo, discardLogger())
		report, err := svc.MigrateApprovedPlayers(context.Background(), 1, true)
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Equal(t, 1, report.Errors[0].PlayerID)
		assert.Equal(t, 0, report.Moved)
		// A failed batch must not complete the tournament.
		assert.Empty(t, tournamentRepo.statusUpdates)
	})

	t.Run("clean run completes the tournament when asked", func(t *testing.T) {
		tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 1}}
		playerRepo := &fakePlayerRepo{}
		apRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{
			approvedPlayer(1, "Rohit Verma", "111"),
		}}

		svc := NewMigrationService(apRepo, playerRepo, tournamentRepo, discardLogger())
		report, err := svc.MigrateApprovedPlayers(context.Background(), 1, true)
		require.NoError(t, err)

		assert.Empty(t, report.Errors)
		require.Len(t, tournamentRepo.statusUpdates, 1)
		assert.Equal(t, models.TournamentStatusCompleted, tournamentRepo.statusUpdates[0])
	})

	t.Run("migrated players leave the approved set on re-run", func(t *testing.T) {
		tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 1}}
		playerRepo := &fakePlayerRepo{}
		player := approvedPlayer(1, "Rohit Verma", "111")
		player.AuctionStatus = models.AuctionStatusMoved
		apRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{player}}

		svc := NewMigrationService(apRepo, playerRepo, tournamentRepo, discardLogger())
		report, err := svc.MigrateApprovedPlayers(context.Background(), 1, false)
		require.NoError(t, err)

		assert.Equal(t, 0, report.Moved)
		assert.Equal(t, 0, report.Updated)
		assert.Empty(t, playerRepo.created)
	})

	t.Run("unknown tournament fails fast", func(t *testing.T) {
		svc := NewMigrationService(&fakeAuctionPlayerRepo{}, &fakePlayerRepo{}, &fakeTournamentRepo{}, discardLogger())
		_, err := svc.MigrateApprovedPlayers(context.Background(), 99, false)
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})
}

func TestApplyAuctionPlayer(t *testing.T) {
	t.Run("nil fields never clobber existing contact data", func(t *testing.T) {
		dst := &models.Player{Name: "Old Name", Phone: strPtr("111"), City: strPtr("Pune")}
		src := &models.AuctionPlayer{Name: "New Name", Email: strPtr("new@example.com")}

		applyAuctionPlayer(dst, src)

		assert.Equal(t, "New Name", dst.Name)
		assert.Equal(t, "111", *dst.Phone)
		assert.Equal(t, "Pune", *dst.City)
		assert.Equal(t, "new@example.com", *dst.Email)
	})
}
