package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/generator"
	"meal-planner/internal/recipe"
)

// MealGenerator produces one meal per requested day.
type MealGenerator interface {
	GenerateMeals(ctx context.Context, weekStart string, days []generator.DaySlot) ([]Meal, error)
}

// Planner owns the current plan and its transitions. Every transition loads
// the plan, mutates a copy and saves it; a failed transition writes nothing.
type Planner struct {
	repo      Repository
	generator MealGenerator
	now       func() time.Time
	logger    *zap.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(repo Repository, gen MealGenerator, logger *zap.Logger) *Planner {
	return &Planner{repo: repo, generator: gen, now: time.Now, logger: logger}
}

// WithClock replaces the clock used for the lock predicate and default week.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// Now is the planner's current instant.
func (p *Planner) Now() time.Time {
	return p.now()
}

// Current returns the current plan.
func (p *Planner) Current(ctx context.Context) (*WeeklyPlan, error) {
	return p.repo.Get(ctx)
}

// IsLocked evaluates the lock predicate at the planner's current instant.
func (p *Planner) IsLocked(plan *WeeklyPlan) bool {
	return IsLocked(plan, p.now())
}

// Generate replaces the current plan with a fresh one for weekStart
// (next Monday when empty). The previous plan survives any failure.
func (p *Planner) Generate(ctx context.Context, weekStart string) (*WeeklyPlan, error) {
	var monday time.Time
	if weekStart == "" {
		monday = NextMonday(p.now())
	} else {
		var err error
		if monday, err = ParseWeekStart(weekStart); err != nil {
			return nil, err
		}
	}
	weekStart = monday.Format(DateLayout)
	days := WeekDays(monday)

	meals, err := p.generator.GenerateMeals(ctx, weekStart, days)
	if err != nil {
		return nil, err
	}
	if len(meals) != len(days) {
		return nil, apperr.Generation(fmt.Errorf("got %d meals for %d days", len(meals), len(days)), "could not plan every day of the week")
	}
	for i := range meals {
		meals[i].Day = days[i].Day
		meals[i].Date = days[i].Date
		meals[i].Approved = false
		if meals[i].SharedMeal {
			meals[i].KidsRecipe = meals[i].AdultRecipe.Clone()
		}
	}

	plan := &WeeklyPlan{WeekStart: weekStart, Status: StatusDraft, Meals: meals}
	if err := p.repo.Save(ctx, plan); err != nil {
		return nil, err
	}
	p.logger.Info("generated weekly plan", zap.String("weekStart", weekStart), zap.Int("meals", len(meals)))
	return plan, nil
}

func (p *Planner) mutate(ctx context.Context, fn func(plan *WeeklyPlan) error) (*WeeklyPlan, error) {
	current, err := p.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := p.repo.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ApproveMeal sets the approval of one day. Approving is refused once the plan is locked;
// withdrawing an approval is always allowed.
func (p *Planner) ApproveMeal(ctx context.Context, day string, approved bool) (*WeeklyPlan, error) {
	return p.mutate(ctx, func(plan *WeeklyPlan) error {
		if approved && p.IsLocked(plan) {
			return apperr.Locked("approvals for the week of %s closed at the deadline", plan.WeekStart)
		}
		return plan.SetApproval(day, approved)
	})
}

// ApproveAll approves every day at once.
func (p *Planner) ApproveAll(ctx context.Context) (*WeeklyPlan, error) {
	return p.mutate(ctx, func(plan *WeeklyPlan) error {
		if p.IsLocked(plan) {
			return apperr.Locked("approvals for the week of %s closed at the deadline", plan.WeekStart)
		}
		return plan.ApproveAll()
	})
}

// ReplaceMealRecipe swaps an audience's recipe and sends the day back for approval.
func (p *Planner) ReplaceMealRecipe(ctx context.Context, day string, audience recipe.Audience, r recipe.Recipe) (*WeeklyPlan, error) {
	return p.mutate(ctx, func(plan *WeeklyPlan) error {
		return plan.ReplaceRecipe(day, audience, r)
	})
}

// SetSharedStatus marks a day as one shared dish or separate dishes.
func (p *Planner) SetSharedStatus(ctx context.Context, day string, shared bool, kids *recipe.Recipe) (*WeeklyPlan, error) {
	return p.mutate(ctx, func(plan *WeeklyPlan) error {
		return plan.SetShared(day, shared, kids)
	})
}

// ToggleFavorite flips the favorite flag of an audience's recipe. Copying a new
// favorite into the library is the caller's job.
func (p *Planner) ToggleFavorite(ctx context.Context, day string, audience recipe.Audience) (*WeeklyPlan, recipe.Recipe, error) {
	var toggled recipe.Recipe
	plan, err := p.mutate(ctx, func(plan *WeeklyPlan) error {
		var err error
		toggled, err = plan.ToggleFavorite(day, audience)
		return err
	})
	if err != nil {
		return nil, recipe.Recipe{}, err
	}
	return plan, toggled, nil
}
