package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/generator"
	"meal-planner/internal/recipe"
	"meal-planner/internal/storage"
)

type fakeMealGen struct {
	err   error
	calls []string
}

func (f *fakeMealGen) GenerateMeals(ctx context.Context, weekStart string, days []generator.DaySlot) ([]Meal, error) {
	f.calls = append(f.calls, weekStart)
	if f.err != nil {
		return nil, f.err
	}
	meals := make([]Meal, len(days))
	for i, d := range days {
		r := recipe.Recipe{ID: d.Day, Name: "Dish " + d.Day, Servings: 4}
		meals[i] = Meal{AdultRecipe: r, KidsRecipe: r, SharedMeal: true, Approved: true}
	}
	return meals, nil
}

func fixedClock(s string) func() time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

func newTestPlanner(gen MealGenerator, now string) (*Planner, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	repo := NewKVRepository(store, nil, zap.NewNop())
	return NewPlanner(repo, gen, zap.NewNop()).WithClock(fixedClock(now)), store
}

func TestPlannerGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultsToNextMonday", func(t *testing.T) {
		gen := &fakeMealGen{}
		p, _ := newTestPlanner(gen, "2024-01-10T18:00:00Z")

		plan, err := p.Generate(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", plan.WeekStart)
		assert.Equal(t, StatusDraft, plan.Status)
		require.Len(t, plan.Meals, 5)
		for i, m := range plan.Meals {
			assert.Equal(t, Weekdays[i], m.Day)
			assert.False(t, m.Approved)
		}
		assert.Equal(t, "2024-01-19", plan.Meals[4].Date)

		current, err := p.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, plan, current)
	})

	t.Run("RejectsNonMonday", func(t *testing.T) {
		gen := &fakeMealGen{}
		p, _ := newTestPlanner(gen, "2024-01-10T18:00:00Z")

		_, err := p.Generate(ctx, "2024-01-17")
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
		assert.Empty(t, gen.calls)
	})

	t.Run("FailureKeepsPreviousPlan", func(t *testing.T) {
		gen := &fakeMealGen{}
		p, _ := newTestPlanner(gen, "2024-01-10T18:00:00Z")
		previous, err := p.Generate(ctx, "2024-01-15")
		require.NoError(t, err)

		gen.err = apperr.Generation(errors.New("model down"), "no recipes")
		_, err = p.Generate(ctx, "2024-01-22")
		require.Error(t, err)

		current, err := p.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, previous, current)
	})
}

func TestPlannerApprovals(t *testing.T) {
	ctx := context.Background()

	t.Run("ApproveEveryDay", func(t *testing.T) {
		p, _ := newTestPlanner(&fakeMealGen{}, "2024-01-10T18:00:00Z")
		_, err := p.Generate(ctx, "")
		require.NoError(t, err)

		var plan *WeeklyPlan
		for _, day := range Weekdays {
			plan, err = p.ApproveMeal(ctx, day, true)
			require.NoError(t, err)
		}
		assert.Equal(t, StatusApproved, plan.Status)

		plan, err = p.ApproveMeal(ctx, "Friday", false)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, plan.Status)
	})

	t.Run("ApproveAllOnEmptyPlan", func(t *testing.T) {
		p, _ := newTestPlanner(&fakeMealGen{}, "2024-01-10T18:00:00Z")
		_, err := p.ApproveAll(ctx)
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})

	t.Run("UnknownDay", func(t *testing.T) {
		p, _ := newTestPlanner(&fakeMealGen{}, "2024-01-10T18:00:00Z")
		_, err := p.Generate(ctx, "")
		require.NoError(t, err)

		_, err = p.ApproveMeal(ctx, "Sunday", true)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})

	t.Run("LockedAfterDeadline", func(t *testing.T) {
		p, store := newTestPlanner(&fakeMealGen{}, "2024-01-10T18:00:00Z")
		_, err := p.Generate(ctx, "")
		require.NoError(t, err)
		_, err = p.ApproveMeal(ctx, "Monday", true)
		require.NoError(t, err)
		before, _ := store.Raw(storage.KeyCurrentPlan)

		p.WithClock(fixedClock("2024-01-15T03:00:00Z"))
		current, err := p.Current(ctx)
		require.NoError(t, err)
		assert.True(t, p.IsLocked(current))

		_, err = p.ApproveMeal(ctx, "Tuesday", true)
		assert.True(t, apperr.Is(err, apperr.CodeLocked))
		_, err = p.ApproveAll(ctx)
		assert.True(t, apperr.Is(err, apperr.CodeLocked))

		after, _ := store.Raw(storage.KeyCurrentPlan)
		assert.Equal(t, before, after)

		plan, err := p.ApproveMeal(ctx, "Monday", false)
		require.NoError(t, err)
		assert.False(t, plan.Meals[0].Approved)
	})
}

func TestPlannerEdits(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlanner(&fakeMealGen{}, "2024-01-10T18:00:00Z")
	_, err := p.Generate(ctx, "")
	require.NoError(t, err)
	_, err = p.ApproveAll(ctx)
	require.NoError(t, err)

	pasta := recipe.Recipe{ID: "p", Name: "Pasta", Servings: 4, KidFriendly: true}
	plan, err := p.ReplaceMealRecipe(ctx, "Wednesday", recipe.AudienceKids, pasta)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, plan.Status)
	assert.Equal(t, "Pasta", plan.Meals[2].KidsRecipe.Name)
	assert.False(t, plan.Meals[2].SharedMeal)

	plan, err = p.SetSharedStatus(ctx, "Wednesday", true, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.Meals[2].AdultRecipe, plan.Meals[2].KidsRecipe)

	plan, toggled, err := p.ToggleFavorite(ctx, "Wednesday", recipe.AudienceAdults)
	require.NoError(t, err)
	assert.True(t, toggled.IsFavorite)
	assert.True(t, plan.Meals[2].KidsRecipe.IsFavorite)

	_, _, err = p.ToggleFavorite(ctx, "Saturday", recipe.AudienceAdults)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
