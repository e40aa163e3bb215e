package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/storage"
)

// Repository holds the single current plan.
type Repository interface {
	Get(ctx context.Context) (*WeeklyPlan, error)
	Save(ctx context.Context, plan *WeeklyPlan) error
}

// KVRepository stores the plan under the current-plan key.
type KVRepository struct {
	store  storage.Store
	lookup RecipeLookup
	now    func() time.Time
	logger *zap.Logger
}

// NewKVRepository creates a plan repository. lookup resolves recipe ids found in older records.
func NewKVRepository(store storage.Store, lookup RecipeLookup, logger *zap.Logger) *KVRepository {
	return &KVRepository{store: store, lookup: lookup, now: time.Now, logger: logger}
}

// Get returns the current plan, or an empty draft dated today when none exists.
func (r *KVRepository) Get(ctx context.Context) (*WeeklyPlan, error) {
	var stored storedPlan
	found, err := r.store.Get(ctx, storage.KeyCurrentPlan, &stored)
	if err != nil {
		return nil, fmt.Errorf("failed to load current plan: %w", err)
	}
	if !found {
		return &WeeklyPlan{
			WeekStart: r.now().Format(DateLayout),
			Status:    StatusDraft,
			Meals:     []Meal{},
		}, nil
	}

	plan := &WeeklyPlan{WeekStart: stored.WeekStart, Status: stored.Status, Meals: make([]Meal, 0, len(stored.Meals))}
	for _, sm := range stored.Meals {
		meal, err := Normalize(ctx, classify(sm), r.lookup)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize meal for %s: %w", sm.Day, err)
		}
		plan.Meals = append(plan.Meals, meal)
	}

	before := plan.Status
	plan.RecomputeStatus()
	if before != plan.Status {
		r.logger.Warn("stored plan status disagreed with its meals",
			zap.String("weekStart", plan.WeekStart),
			zap.String("stored", string(before)),
			zap.String("recomputed", string(plan.Status)))
	}
	return plan, nil
}

// Save replaces the current plan.
func (r *KVRepository) Save(ctx context.Context, plan *WeeklyPlan) error {
	if err := r.store.Set(ctx, storage.KeyCurrentPlan, plan); err != nil {
		return fmt.Errorf("failed to save current plan: %w", err)
	}
	return nil
}
