package services

import (
	"context"

	"github.com/crichub/cricket-auction/models"
	"github.com/crichub/cricket-auction/repositories"
)

// FeasibilityResult reports whether an owner can afford a candidate bid
// while still being able to fill the rest of their minimum roster at the
// tournament's minimum bid.
type FeasibilityResult struct {
	OK               bool
	MaxAllowedBid    int
	PlayersRemaining int
}

// CheckFeasibility is the pure reservation rule of the budget ledger.
// playersStillNeeded excludes the acquisition being evaluated; the bid is
// feasible when the budget left after it covers playersStillNeeded more
// players at minimumBid each.
func CheckFeasibility(owner *models.TeamOwner, candidateBid, minimumBid int) FeasibilityResult {
	stillNeeded := owner.PlayersStillNeeded()
	reserve := stillNeeded * minimumBid
	maxAllowed := owner.RemainingBudget - reserve
	if maxAllowed < 0 {
		maxAllowed = 0
	}

	return FeasibilityResult{
		OK:               owner.RemainingBudget-candidateBid >= reserve,
		MaxAllowedBid:    maxAllowed,
		PlayersRemaining: stillNeeded,
	}
}

// BudgetLedger owns every mutation of team-owner budgets and roster
// counters. All mutating methods take the caller's executor so the change
// commits or rolls back with the bid/resolution that triggered it.
type BudgetLedger struct {
	ownerRepo repositories.TeamOwnerRepository
}

func NewBudgetLedger(ownerRepo repositories.TeamOwnerRepository) *BudgetLedger {
	return &BudgetLedger{ownerRepo: ownerRepo}
}

// Debit fails without mutation when the owner cannot cover the amount.
func (l *BudgetLedger) Debit(ctx context.Context, exec repositories.SQLExecutor, ownerID, amount int) error {
	return l.ownerRepo.Debit(ctx, exec, ownerID, amount)
}

func (l *BudgetLedger) Credit(ctx context.Context, exec repositories.SQLExecutor, ownerID, amount int) error {
	return l.ownerRepo.Credit(ctx, exec, ownerID, amount)
}

// IncrementRoster is invoked exactly once per completed sale.
func (l *BudgetLedger) IncrementRoster(ctx context.Context, exec repositories.SQLExecutor, ownerID int) error {
	return l.ownerRepo.IncrementRoster(ctx, exec, ownerID)
}
