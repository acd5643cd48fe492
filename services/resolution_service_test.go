package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestValidateResolveInput(t *testing.T) {
	tests := []struct {
		name    string
		in      ResolvePlayerInput
		wantErr error
	}{
		{
			name: "sell needs no extras",
			in:   ResolvePlayerInput{Action: ActionSell},
		},
		{
			name: "sell accepts an override winner and price",
			in:   ResolvePlayerInput{Action: ActionSell, TeamOwnerID: intPtr(2), Price: intPtr(500)},
		},
		{
			name: "unsold needs no extras",
			in:   ResolvePlayerInput{Action: ActionUnsold},
		},
		{
			name:    "sell to team requires owner and price",
			in:      ResolvePlayerInput{Action: ActionSellToTeam},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "sell to team with only an owner still fails",
			in:      ResolvePlayerInput{Action: ActionSellToTeam, TeamOwnerID: intPtr(2)},
			wantErr: ErrValidationFailed,
		},
		{
			name: "sell to team with owner and price passes",
			in:   ResolvePlayerInput{Action: ActionSellToTeam, TeamOwnerID: intPtr(2), Price: intPtr(500)},
		},
		{
			name:    "non-positive price is rejected",
			in:      ResolvePlayerInput{Action: ActionSell, Price: intPtr(0)},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "unknown action",
			in:      ResolvePlayerInput{Action: "GIVE_AWAY"},
			wantErr: ErrInvalidResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResolveInput(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
