package services

import (
	"context"
	"testing"

	"github.com/crichub/cricket-auction/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBidFloor(t *testing.T) {
	leading := func(amount int) *models.AuctionBid {
		return &models.AuctionBid{BidAmount: amount, Status: models.BidStatusActive, IsWinning: true}
	}

	tests := []struct {
		name       string
		leading    *models.AuctionBid
		basePrice  int
		minimumBid int
		want       int
	}{
		{
			name:       "no bids yet, base price above minimum",
			basePrice:  500,
			minimumBid: 100,
			want:       500,
		},
		{
			name:       "no bids yet, minimum above base price",
			basePrice:  50,
			minimumBid: 100,
			want:       100,
		},
		{
			name:       "leading bid pushes floor one increment up",
			leading:    leading(600),
			basePrice:  500,
			minimumBid: 100,
			want:       700,
		},
		{
			name:       "equal amount never ties the leader",
			leading:    leading(600),
			basePrice:  500,
			minimumBid: 1,
			want:       601,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bidFloor(tt.leading, tt.basePrice, tt.minimumBid))
		})
	}
}

func TestLowBudgetWarning(t *testing.T) {
	t.Run("no required players left means no warning", func(t *testing.T) {
		assert.Empty(t, lowBudgetWarning(10, 0, 100))
	})

	t.Run("comfortable budget stays silent", func(t *testing.T) {
		// 600 per remaining player vs threshold of 150.
		assert.Empty(t, lowBudgetWarning(1200, 2, 100))
	})

	t.Run("thin budget warns", func(t *testing.T) {
		// 100 per remaining player, below 1.5x minimum bid.
		msg := lowBudgetWarning(200, 2, 100)
		assert.NotEmpty(t, msg)
		assert.Contains(t, msg, "2 more required players")
	})

	t.Run("threshold boundary stays silent", func(t *testing.T) {
		// Exactly 1.5x minimum bid per player.
		assert.Empty(t, lowBudgetWarning(300, 2, 100))
	})
}

func TestCheckConservation(t *testing.T) {
	soldPrice := func(v int) *int { return &v }

	newService := func(ownerRepo *fakeOwnerRepo, playerRepo *fakeAuctionPlayerRepo) BidService {
		tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 1}}
		return NewBidService(nil, tournamentRepo, nil, playerRepo, ownerRepo, nil, nil, discardLogger())
	}

	t.Run("matching sums balance", func(t *testing.T) {
		ownerRepo := &fakeOwnerRepo{owners: map[int]*models.TeamOwner{
			1: {ID: 1, TournamentID: 1, TotalBudget: 1000, RemainingBudget: 400},
			2: {ID: 2, TournamentID: 1, TotalBudget: 1000, RemainingBudget: 100},
		}}
		playerRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{
			{ID: 1, TournamentID: 1, SoldPrice: soldPrice(600)},
			{ID: 2, TournamentID: 1, SoldPrice: soldPrice(900)},
			{ID: 3, TournamentID: 1},
		}}

		report, err := newService(ownerRepo, playerRepo).CheckConservation(context.Background(), 1)
		require.NoError(t, err)

		assert.Equal(t, 1500, report.TotalSpent)
		assert.Equal(t, 1500, report.TotalSoldPrices)
		assert.True(t, report.Balanced)
	})

	t.Run("mismatched sums are reported unbalanced", func(t *testing.T) {
		ownerRepo := &fakeOwnerRepo{owners: map[int]*models.TeamOwner{
			1: {ID: 1, TournamentID: 1, TotalBudget: 1000, RemainingBudget: 500},
		}}
		playerRepo := &fakeAuctionPlayerRepo{players: []models.AuctionPlayer{
			{ID: 1, TournamentID: 1, SoldPrice: soldPrice(600)},
		}}

		report, err := newService(ownerRepo, playerRepo).CheckConservation(context.Background(), 1)
		require.NoError(t, err)

		assert.Equal(t, 500, report.TotalSpent)
		assert.Equal(t, 600, report.TotalSoldPrices)
		assert.False(t, report.Balanced)
	})

	t.Run("unknown tournament fails fast", func(t *testing.T) {
		_, err := newService(&fakeOwnerRepo{}, &fakeAuctionPlayerRepo{}).CheckConservation(context.Background(), 99)
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})
}
