package services

import (
	"context"
	"sync"
	"testing"

	"github.com/crichub/cricket-auction/events"
	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

type fakeOwnerRepo struct {
	owners       map[int]*models.TeamOwner
	nextID       int
	nameConflict bool
	approvals    []int
}

func (f *fakeOwnerRepo) Create(ctx context.Context, o *models.TeamOwner) error {
	if f.nameConflict {
		return repositories.ErrTeamNameConflict
	}
	f.nextID++
	o.ID = f.nextID
	if f.owners == nil {
		f.owners = map[int]*models.TeamOwner{}
	}
	f.owners[o.ID] = o
	return nil
}

func (f *fakeOwnerRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamOwner, error) {
	o, ok := f.owners[id]
	if !ok {
		return nil, repositories.ErrTeamOwnerNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOwnerRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamOwner, error) {
	return f.GetByID(ctx, exec, id)
}

func (f *fakeOwnerRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.TeamOwner, error) {
	var out []models.TeamOwner
	for _, o := range f.owners {
		if o.TournamentID == tournamentID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOwnerRepo) Approve(ctx context.Context, exec repositories.SQLExecutor, id int, budget int) error {
	o, ok := f.owners[id]
	if !ok {
		return repositories.ErrTeamOwnerNotFound
	}
	if o.Approved {
		return repositories.ErrTeamOwnerAlreadyApproved
	}
	o.Approved = true
	o.TotalBudget = budget
	o.RemainingBudget = budget
	f.approvals = append(f.approvals, id)
	return nil
}

func (f *fakeOwnerRepo) Debit(ctx context.Context, exec repositories.SQLExecutor, id int, amount int) error {
	o, ok := f.owners[id]
	if !ok {
		return repositories.ErrTeamOwnerNotFound
	}
	if o.RemainingBudget < amount {
		return repositories.ErrInsufficientBudget
	}
	o.RemainingBudget -= amount
	return nil
}

func (f *fakeOwnerRepo) Credit(ctx context.Context, exec repositories.SQLExecutor, id int, amount int) error {
	o, ok := f.owners[id]
	if !ok {
		return repositories.ErrTeamOwnerNotFound
	}
	o.RemainingBudget += amount
	return nil
}

func (f *fakeOwnerRepo) IncrementRoster(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	o, ok := f.owners[id]
	if !ok {
		return repositories.ErrTeamOwnerNotFound
	}
	o.CurrentPlayers++
	return nil
}

func (f *fakeOwnerRepo) SumSpent(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	total := 0
	for _, o := range f.owners {
		if o.TournamentID == tournamentID {
			total += o.TotalBudget - o.RemainingBudget
		}
	}
	return total, nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func registrationTournament(id int) *models.Tournament {
	return &models.Tournament{
		ID:          id,
		Status:      models.TournamentStatusRegistration,
		MinimumBid:  100,
		OwnerBudget: 1000,
	}
}

func TestTeamOwnerRegister(t *testing.T) {
	input := RegisterTeamOwnerInput{
		TournamentID:     1,
		TeamName:         "Chennai Chargers",
		MinPlayersNeeded: 2,
		MaxPlayersNeeded: 4,
	}

	t.Run("registers during the registration window", func(t *testing.T) {
		svc := NewTeamOwnerService(
			&fakeOwnerRepo{},
			&fakeTournamentRepo{tournament: registrationTournament(1)},
			&fakeUserRepo{},
			&recordingPublisher{},
			discardLogger(),
		)

		owner, err := svc.Register(context.Background(), 10, input)
		require.NoError(t, err)
		assert.Equal(t, 10, owner.UserID)
		assert.False(t, owner.Approved)
		assert.Zero(t, owner.RemainingBudget)
	})

	t.Run("rejects a blank team name", func(t *testing.T) {
		svc := NewTeamOwnerService(
			&fakeOwnerRepo{},
			&fakeTournamentRepo{tournament: registrationTournament(1)},
			&fakeUserRepo{},
			&recordingPublisher{},
			discardLogger(),
		)

		in := input
		in.TeamName = ""
		_, err := svc.Register(context.Background(), 10, in)
		assert.ErrorIs(t, err, ErrTeamNameRequired)
	})

	t.Run("rejects registration outside the window", func(t *testing.T) {
		active := registrationTournament(1)
		active.Status = models.TournamentStatusActive
		svc := NewTeamOwnerService(
			&fakeOwnerRepo{},
			&fakeTournamentRepo{tournament: active},
			&fakeUserRepo{},
			&recordingPublisher{},
			discardLogger(),
		)

		_, err := svc.Register(context.Background(), 10, input)
		assert.ErrorIs(t, err, ErrRegistrationNotOpen)
	})

	t.Run("surfaces a duplicate team name as a conflict", func(t *testing.T) {
		svc := NewTeamOwnerService(
			&fakeOwnerRepo{nameConflict: true},
			&fakeTournamentRepo{tournament: registrationTournament(1)},
			&fakeUserRepo{},
			&recordingPublisher{},
			discardLogger(),
		)

		_, err := svc.Register(context.Background(), 10, input)
		assert.ErrorIs(t, err, ErrTeamNameConflict)
	})
}

func TestTeamOwnerApprove(t *testing.T) {
	setup := func() (*fakeOwnerRepo, *recordingPublisher, TeamOwnerService) {
		ownerRepo := &fakeOwnerRepo{}
		publisher := &recordingPublisher{}
		svc := NewTeamOwnerService(
			ownerRepo,
			&fakeTournamentRepo{tournament: registrationTournament(1)},
			&fakeUserRepo{users: map[int]*models.User{10: {ID: 10, Email: "owner@example.com"}}},
			publisher,
			discardLogger(),
		)
		_, err := svc.Register(context.Background(), 10, RegisterTeamOwnerInput{
			TournamentID:     1,
			TeamName:         "Chennai Chargers",
			MinPlayersNeeded: 2,
			MaxPlayersNeeded: 4,
		})
		if err != nil {
			panic(err)
		}
		return ownerRepo, publisher, svc
	}

	t.Run("approval grants the tournament budget and publishes", func(t *testing.T) {
		ownerRepo, publisher, svc := setup()

		owner, err := svc.Approve(context.Background(), 1, 1)
		require.NoError(t, err)

		assert.True(t, owner.Approved)
		assert.Equal(t, 1000, owner.TotalBudget)
		assert.Equal(t, 1000, owner.RemainingBudget)
		assert.Equal(t, []int{1}, ownerRepo.approvals)

		require.Len(t, publisher.events, 1)
		evt, ok := publisher.events[0].(events.TeamOwnerApproved)
		require.True(t, ok)
		assert.Equal(t, "owner@example.com", evt.OwnerEmail)
		assert.Equal(t, 1000, evt.Budget)
	})

	t.Run("double approval is rejected", func(t *testing.T) {
		_, _, svc := setup()

		_, err := svc.Approve(context.Background(), 1, 1)
		require.NoError(t, err)
		_, err = svc.Approve(context.Background(), 1, 1)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("owner from another tournament is not visible", func(t *testing.T) {
		_, _, svc := setup()

		_, err := svc.Approve(context.Background(), 2, 1)
		assert.ErrorIs(t, err, ErrTeamOwnerNotFound)
	})
}
