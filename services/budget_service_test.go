package services

import (
	"testing"

	"github.com/crichub/cricket-auction/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckFeasibility(t *testing.T) {
	owner := func(remaining, current, min, max int) *models.TeamOwner {
		return &models.TeamOwner{
			RemainingBudget:  remaining,
			CurrentPlayers:   current,
			MinPlayersNeeded: min,
			MaxPlayersNeeded: max,
		}
	}

	tests := []struct {
		name           string
		owner          *models.TeamOwner
		bid            int
		minimumBid     int
		wantOK         bool
		wantMaxAllowed int
		wantRemaining  int
	}{
		{
			name:           "bid eating the reserve is rejected",
			owner:          owner(1000, 0, 2, 4),
			bid:            950,
			minimumBid:     100,
			wantOK:         false,
			wantMaxAllowed: 900,
			wantRemaining:  1,
		},
		{
			name:           "bid leaving the reserve intact is accepted",
			owner:          owner(1000, 0, 2, 4),
			bid:            850,
			minimumBid:     100,
			wantOK:         true,
			wantMaxAllowed: 900,
			wantRemaining:  1,
		},
		{
			name:           "exact boundary is accepted",
			owner:          owner(1000, 0, 2, 4),
			bid:            900,
			minimumBid:     100,
			wantOK:         true,
			wantMaxAllowed: 900,
			wantRemaining:  1,
		},
		{
			name:           "last required player frees the whole budget",
			owner:          owner(500, 1, 2, 4),
			bid:            500,
			minimumBid:     100,
			wantOK:         true,
			wantMaxAllowed: 500,
			wantRemaining:  0,
		},
		{
			name:           "minimum already met leaves no reserve",
			owner:          owner(300, 3, 2, 4),
			bid:            300,
			minimumBid:     100,
			wantOK:         true,
			wantMaxAllowed: 300,
			wantRemaining:  0,
		},
		{
			name:           "reserve above budget clamps max allowed to zero",
			owner:          owner(150, 0, 5, 5),
			bid:            100,
			minimumBid:     100,
			wantOK:         false,
			wantMaxAllowed: 0,
			wantRemaining:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckFeasibility(tt.owner, tt.bid, tt.minimumBid)
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantMaxAllowed, got.MaxAllowedBid)
			assert.Equal(t, tt.wantRemaining, got.PlayersRemaining)
		})
	}
}
