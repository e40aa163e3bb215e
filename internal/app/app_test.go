package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/clipper"
	"meal-planner/internal/generator"
	"meal-planner/internal/llm"
	"meal-planner/internal/metrics"
	"meal-planner/internal/notify"
	"meal-planner/internal/planner"
	"meal-planner/internal/prep"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
	"meal-planner/internal/shared"
	"meal-planner/internal/shopping"
	"meal-planner/internal/storage"
)

// stubLLM answers every prompt with one payload that decodes as a recipe,
// a search result and a prep plan.
type stubLLM struct {
	calls   int
	prompts []string
}

func (s *stubLLM) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	dish := func(n string) string {
		return fmt.Sprintf(`{"name": "AI Dish %s", "cuisine": "thai", "prepTime": 20, "servings": 4, "kidFriendly": true,
			"ingredients": [{"name": "rice", "amount": "2", "unit": "cups", "category": "pantry"}],
			"instructions": ["Cook"]}`, n)
	}
	payload := fmt.Sprintf(`{"name": "AI Dish %d", "cuisine": "thai", "prepTime": 20, "servings": 4, "kidFriendly": true,
		"ingredients": [{"name": "rice", "amount": "2", "unit": "cups", "category": "pantry"}],
		"instructions": ["Cook"],
		"recipes": [%s, %s, %s],
		"tasks": [
			{"category": "grains", "prepDay": "Saturday", "title": "Cook rice", "estimatedMinutes": 30},
			{"category": "sauces", "prepDay": "Sunday", "title": "Make sauce", "estimatedMinutes": "15"}
		]}`, s.calls, dish("A"), dish("B"), dish("C"))
	return llm.ContentResponse{Content: payload, Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "stub"}}, nil
}

type recordingNotifier struct {
	messages []notify.Message
	err      error
}

func (r *recordingNotifier) Notify(ctx context.Context, msg notify.Message) error {
	r.messages = append(r.messages, msg)
	return r.err
}

type recordingSender struct {
	plans []*planner.WeeklyPlan
	lists []shopping.List
}

func (r *recordingSender) SendWeeklyPlan(ctx context.Context, plan *planner.WeeklyPlan, list shopping.List) error {
	r.plans = append(r.plans, plan)
	r.lists = append(r.lists, list)
	return nil
}

type testEnv struct {
	app      *App
	kv       *storage.MemoryStore
	llm      *stubLLM
	notifier *recordingNotifier
	sender   *recordingSender
	registry *prometheus.Registry
}

// sundayMorning is the day before the 2024-01-15 week starts.
var sundayMorning = time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	kv := storage.NewMemoryStore()
	stub := &stubLLM{}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	gen := generator.New(stub, logger).WithRecorder(metrics.NewRecorder(nil, collector, logger))
	library := recipe.NewLibrary(kv, logger)
	st := settings.NewStore(kv, logger)
	mealGen := planner.NewLibraryGenerator(library, st, gen, rand.New(rand.NewPCG(7, 7)), logger)
	clock := func() time.Time { return now }

	env := &testEnv{
		kv:       kv,
		llm:      stub,
		notifier: &recordingNotifier{},
		sender:   &recordingSender{},
		registry: reg,
	}
	env.app = New(Components{
		Recipes:    library,
		Settings:   st,
		Planner:    planner.NewPlanner(planner.NewKVRepository(kv, library, logger), mealGen, logger).WithClock(clock),
		Prep:       prep.NewPlanner(kv, gen, logger).WithClock(clock),
		Generator:  gen,
		Clipper:    clipper.NewClipper(gen, library, st, logger),
		Notifier:   env.notifier,
		PlanSender: env.sender,
		Collector:  collector,
	}, logger)

	_, err := env.app.Seed(context.Background())
	require.NoError(t, err)
	return env
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	a := New(Components{
		Recipes:  recipe.NewLibrary(storage.NewMemoryStore(), zap.NewNop()),
		Settings: settings.NewStore(storage.NewMemoryStore(), zap.NewNop()),
	}, zap.NewNop())

	res, err := a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Initialized successfully", res.Message)
	assert.Equal(t, 6, res.RecipesCount)

	res, err = a.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Already initialized", res.Message)
	assert.Equal(t, 6, res.RecipesCount)

	t.Run("StoresDefaultSettings", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)
		_, found := env.kv.Raw(storage.KeySettings)
		assert.True(t, found)
	})
}

func TestGenerateWeek(t *testing.T) {
	ctx := context.Background()

	t.Run("NotifiesAndSendsPlan", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)

		plan, err := env.app.GenerateWeek(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", plan.WeekStart)
		assert.Len(t, plan.Meals, 5)
		assert.Equal(t, planner.StatusDraft, plan.Status)

		require.Len(t, env.notifier.messages, 1)
		assert.Equal(t, "Meal Planner for week 2024-01-15", env.notifier.messages[0].Title)
		assert.Equal(t, "Your weekly meal plan is ready! 5 meals to review.", env.notifier.messages[0].Body)

		require.Len(t, env.sender.plans, 1)
		assert.Equal(t, "2024-01-15", env.sender.plans[0].WeekStart)
		assert.Empty(t, env.sender.lists[0].Items, "nothing is approved yet")

		expected := `
# HELP meal_planner_plans_generated_total Weekly plan generations by outcome
# TYPE meal_planner_plans_generated_total counter
meal_planner_plans_generated_total{status="success"} 1
`
		require.NoError(t, testutil.GatherAndCompare(env.registry, strings.NewReader(expected), "meal_planner_plans_generated_total"))
	})

	t.Run("NotificationFailureIsNotFatal", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)
		env.notifier.err = errors.New("ntfy down")

		_, err := env.app.GenerateWeek(ctx, "2024-01-22")
		require.NoError(t, err)
	})

	t.Run("InvalidWeekStart", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)

		_, err := env.app.GenerateWeek(ctx, "2024-01-16")
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
		assert.Empty(t, env.notifier.messages)
		assert.Empty(t, env.sender.plans)
	})
}

func TestGeneratePlan(t *testing.T) {
	env := newTestEnv(t, sundayMorning)

	plan, err := env.app.GeneratePlan(context.Background(), "2024-01-22")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-22", plan.WeekStart)
	assert.Empty(t, env.notifier.messages)
	assert.Empty(t, env.sender.plans)

	expected := `
# HELP meal_planner_plans_generated_total Weekly plan generations by outcome
# TYPE meal_planner_plans_generated_total counter
meal_planner_plans_generated_total{status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(env.registry, strings.NewReader(expected), "meal_planner_plans_generated_total"))
}

func TestCurrentPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sundayMorning)
	_, err := env.app.GenerateWeek(ctx, "")
	require.NoError(t, err)

	view, err := env.app.CurrentPlan(ctx)
	require.NoError(t, err)
	assert.False(t, view.Locked)
	require.NotNil(t, view.Deadline)
	assert.Equal(t, time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC), *view.Deadline)
}

func TestSendReminder(t *testing.T) {
	ctx := context.Background()

	t.Run("NoPlan", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)
		res, err := env.app.SendReminder(ctx)
		require.NoError(t, err)
		assert.False(t, res.Sent)
		assert.Equal(t, "No plan to remind about", res.Message)
		assert.Empty(t, env.notifier.messages)
	})

	t.Run("Unapproved", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)
		_, err := env.app.GenerateWeek(ctx, "")
		require.NoError(t, err)
		_, err = env.app.Planner.ApproveMeal(ctx, "Monday", true)
		require.NoError(t, err)

		res, err := env.app.SendReminder(ctx)
		require.NoError(t, err)
		assert.True(t, res.Sent)
		assert.Equal(t, 4, res.Unapproved)
		assert.Equal(t, "Reminder sent for 4 unapproved meals", res.Message)

		last := env.notifier.messages[len(env.notifier.messages)-1]
		assert.Equal(t, "Meal Planner Reminder", last.Title)
		assert.Equal(t, "You have 4 unapproved meals for week of 2024-01-15. Deadline: Sunday 6 PM PT.", last.Body)
	})

	t.Run("Approved", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)
		_, err := env.app.GenerateWeek(ctx, "")
		require.NoError(t, err)
		_, err = env.app.Planner.ApproveAll(ctx)
		require.NoError(t, err)

		res, err := env.app.SendReminder(ctx)
		require.NoError(t, err)
		assert.False(t, res.Sent)
		assert.Equal(t, "Plan already approved", res.Message)
	})

	t.Run("Locked", func(t *testing.T) {
		env := newTestEnv(t, sundayMorning)
		_, err := env.app.GenerateWeek(ctx, "2024-01-08")
		require.NoError(t, err)
		sent := len(env.notifier.messages)

		res, err := env.app.SendReminder(ctx)
		require.NoError(t, err)
		assert.False(t, res.Sent)
		assert.Equal(t, "Plan is locked, skipping reminder", res.Message)
		assert.Len(t, env.notifier.messages, sent)
	})
}

func TestRegenerateMeal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sundayMorning)
	before, err := env.app.GenerateWeek(ctx, "")
	require.NoError(t, err)

	plan, fresh, err := env.app.RegenerateMeal(ctx, "Monday", recipe.AudienceAdults)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fresh.Name, "AI Dish"))

	monday, err := plan.Meal("Monday")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, monday.AdultRecipe.ID)
	assert.False(t, monday.SharedMeal)
	assert.False(t, monday.Approved)

	stored, err := env.app.Recipes.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.Name, stored.Name)

	lastPrompt := env.llm.prompts[len(env.llm.prompts)-1]
	for _, name := range before.RecipeNames() {
		assert.Contains(t, lastPrompt, name)
	}

	t.Run("Both", func(t *testing.T) {
		plan, fresh, err := env.app.RegenerateMeal(ctx, "Tuesday", recipe.AudienceBoth)
		require.NoError(t, err)
		tuesday, err := plan.Meal("Tuesday")
		require.NoError(t, err)
		assert.True(t, tuesday.SharedMeal)
		assert.Equal(t, fresh.ID, tuesday.KidsRecipe.ID)
		assert.Equal(t, recipe.AudienceBoth, fresh.TargetAudience)
	})

	t.Run("UnknownDay", func(t *testing.T) {
		calls := env.llm.calls
		_, _, err := env.app.RegenerateMeal(ctx, "Saturday", recipe.AudienceAdults)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
		assert.Equal(t, calls, env.llm.calls)
	})
}

func TestToggleFavoritePromotes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sundayMorning)
	_, err := env.app.GenerateWeek(ctx, "")
	require.NoError(t, err)

	corn := recipe.Recipe{ID: "street-corn", Name: "Street Corn", Servings: 2}
	_, err = env.app.Planner.ReplaceMealRecipe(ctx, "Monday", recipe.AudienceAdults, corn)
	require.NoError(t, err)

	plan, toggled, err := env.app.ToggleFavorite(ctx, "Monday", recipe.AudienceAdults)
	require.NoError(t, err)
	assert.True(t, toggled.IsFavorite)
	monday, err := plan.Meal("Monday")
	require.NoError(t, err)
	assert.True(t, monday.AdultRecipe.IsFavorite)

	stored, err := env.app.Recipes.Get(ctx, "street-corn")
	require.NoError(t, err)
	assert.True(t, stored.IsFavorite)

	_, toggled, err = env.app.ToggleFavorite(ctx, "Monday", recipe.AudienceAdults)
	require.NoError(t, err)
	assert.False(t, toggled.IsFavorite)
}

func TestMarkNotRecommended(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sundayMorning)
	_, err := env.app.GenerateWeek(ctx, "")
	require.NoError(t, err)

	res, err := env.app.MarkNotRecommended(ctx, "Tacos", recipe.AudienceKids, "")
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, "Tacos", res.List[0].RecipeName)
	assert.Nil(t, res.Plan)

	res, err = env.app.MarkNotRecommended(ctx, "Mac and Cheese", recipe.AudienceKids, "Wednesday")
	require.NoError(t, err)
	assert.Len(t, res.List, 2)
	require.NotNil(t, res.Plan)
	wednesday, err := res.Plan.Meal("Wednesday")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(wednesday.KidsRecipe.Name, "AI Dish"))
	assert.False(t, wednesday.SharedMeal)

	_, err = env.app.MarkNotRecommended(ctx, "  ", recipe.AudienceKids, "")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestSearchRecipes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sundayMorning)

	results, err := env.app.SearchRecipes(ctx, "quick thai")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	_, err = env.app.SearchRecipes(ctx, "")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestShoppingAndPrep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, sundayMorning)
	_, err := env.app.GenerateWeek(ctx, "")
	require.NoError(t, err)

	_, err = env.app.GeneratePrep(ctx)
	assert.True(t, apperr.Is(err, apperr.CodeValidation), "prep needs an approved plan")

	_, err = env.app.Planner.ApproveAll(ctx)
	require.NoError(t, err)

	list, err := env.app.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", list.WeekStart)
	assert.NotEmpty(t, list.Items)

	generated, err := env.app.GeneratePrep(ctx)
	require.NoError(t, err)
	assert.Len(t, generated.SaturdayTasks, 1)
	assert.Len(t, generated.SundayTasks, 1)
	assert.Equal(t, 45, generated.TotalPrepTimeMinutes)

	current, err := env.app.CurrentPrep(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, generated.SaturdayTasks[0].ID, current.SaturdayTasks[0].ID)
}

func TestCleanupMetricsWithoutStore(t *testing.T) {
	env := newTestEnv(t, sundayMorning)
	_, err := env.app.CleanupMetrics(context.Background(), 30)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	usage, err := env.app.Usage(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, usage)
}
