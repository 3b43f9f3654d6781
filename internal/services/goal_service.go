package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// GoalStore is the storage surface for savings goals. UpdateGoalProgress
// writes current amount and completion flag in one statement.
type GoalStore interface {
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal, completed bool) error
}

// GoalService applies contributions to savings goals.
type GoalService struct {
	store GoalStore
}

func NewGoalService(store GoalStore) *GoalService {
	return &GoalService{store: store}
}

// contributed computes the post-contribution state. The amount may be any
// sign so a mistaken contribution can be corrected; completion is recomputed
// on every call, and overshoot above the target is preserved, not clamped.
func contributed(g core.Goal, amount decimal.Decimal) core.Goal {
	out := g
	out.CurrentAmount = g.CurrentAmount.Add(amount)
	out.IsCompleted = out.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	return out
}

// Contribute adds amount to the goal's progress and persists the result.
func (s *GoalService) Contribute(ctx context.Context, userID, id string, amount decimal.Decimal) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}

	updated := contributed(g, amount)
	if err := s.store.UpdateGoalProgress(ctx, g.ID, updated.CurrentAmount, updated.IsCompleted); err != nil {
		return core.Goal{}, fmt.Errorf("persist goal progress: %w", err)
	}
	return updated, nil
}
