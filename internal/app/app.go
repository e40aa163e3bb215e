// Package app orchestrates the meal planner's components for the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/clipper"
	"meal-planner/internal/generator"
	"meal-planner/internal/metrics"
	"meal-planner/internal/notify"
	"meal-planner/internal/planner"
	"meal-planner/internal/prep"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
	"meal-planner/internal/shopping"
)

// PlanSender delivers a full plan and its shopping list, in addition to the short notification.
type PlanSender interface {
	SendWeeklyPlan(ctx context.Context, plan *planner.WeeklyPlan, list shopping.List) error
}

// Components are the collaborators of the App. Notifier, PlanSender, Metrics and Collector are optional.
type Components struct {
	Recipes    *recipe.Library
	Settings   *settings.Store
	Planner    *planner.Planner
	Prep       *prep.Planner
	Generator  *generator.Generator
	Clipper    *clipper.Clipper
	Notifier   notify.Notifier
	PlanSender PlanSender
	Metrics    *metrics.Store
	Collector  *metrics.Collector
}

// App holds the application's dependencies.
type App struct {
	Components
	logger *zap.Logger
}

// New creates a new App instance.
func New(c Components, logger *zap.Logger) *App {
	if c.Notifier == nil {
		c.Notifier = notify.Nop{}
	}
	return &App{Components: c, logger: logger}
}

// PlanView is the current plan with its approval deadline.
type PlanView struct {
	Plan     *planner.WeeklyPlan `json:"plan"`
	Locked   bool                `json:"locked"`
	Deadline *time.Time          `json:"deadline,omitempty"`
}

// CurrentPlan returns the current plan and whether approvals are closed.
func (a *App) CurrentPlan(ctx context.Context) (PlanView, error) {
	plan, err := a.Planner.Current(ctx)
	if err != nil {
		return PlanView{}, err
	}
	view := PlanView{Plan: plan, Locked: a.Planner.IsLocked(plan)}
	if deadline, err := planner.LockdownInstant(plan.WeekStart); err == nil {
		view.Deadline = &deadline
	}
	return view, nil
}

// GeneratePlan plans a week (next Monday when weekStart is empty) without telling anyone.
func (a *App) GeneratePlan(ctx context.Context, weekStart string) (*planner.WeeklyPlan, error) {
	plan, err := a.Planner.Generate(ctx, weekStart)
	if a.Collector != nil {
		a.Collector.ObservePlanGeneration(err)
	}
	return plan, err
}

// GenerateWeek plans a week like GeneratePlan and tells the household.
// Notification failures are logged and never fail the generation.
func (a *App) GenerateWeek(ctx context.Context, weekStart string) (*planner.WeeklyPlan, error) {
	plan, err := a.GeneratePlan(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	a.notify(ctx, "plan-ready", notify.PlanReady(plan.WeekStart, len(plan.Meals)))
	if a.PlanSender != nil {
		if err := a.PlanSender.SendWeeklyPlan(ctx, plan, shopping.BuildList(plan)); err != nil {
			a.logger.Warn("failed to send weekly plan", zap.Error(err))
		}
	}
	return plan, nil
}

func (a *App) notify(ctx context.Context, kind string, msg notify.Message) {
	err := a.Notifier.Notify(ctx, msg)
	if a.Collector != nil {
		a.Collector.ObserveNotification(kind, err)
	}
	if err != nil {
		a.logger.Warn("failed to send notification", zap.String("kind", kind), zap.Error(err))
	}
}

// ReminderResult reports what the reminder job did.
type ReminderResult struct {
	Sent       bool   `json:"sent"`
	Message    string `json:"message"`
	Unapproved int    `json:"unapprovedCount,omitempty"`
}

// SendReminder nags about unapproved meals while approvals are still open.
func (a *App) SendReminder(ctx context.Context) (ReminderResult, error) {
	plan, err := a.Planner.Current(ctx)
	if err != nil {
		return ReminderResult{}, err
	}
	switch {
	case len(plan.Meals) == 0:
		return ReminderResult{Message: "No plan to remind about"}, nil
	case plan.Status == planner.StatusApproved:
		return ReminderResult{Message: "Plan already approved"}, nil
	case a.Planner.IsLocked(plan):
		return ReminderResult{Message: "Plan is locked, skipping reminder"}, nil
	}

	n := plan.UnapprovedCount()
	if n == 0 {
		return ReminderResult{Message: "All meals already approved"}, nil
	}
	a.notify(ctx, "reminder", notify.ApprovalReminder(plan.WeekStart, n))
	return ReminderResult{
		Sent:       true,
		Message:    fmt.Sprintf("Reminder sent for %d unapproved meals", n),
		Unapproved: n,
	}, nil
}

// RegenerateMeal asks the AI for a new recipe for one day and audience, avoiding every
// recipe already in the week, saves it to the library and puts it in the plan.
// Regenerating both audiences produces one shared recipe.
func (a *App) RegenerateMeal(ctx context.Context, day string, audience recipe.Audience) (*planner.WeeklyPlan, recipe.Recipe, error) {
	plan, err := a.Planner.Current(ctx)
	if err != nil {
		return nil, recipe.Recipe{}, err
	}
	if _, err := plan.Meal(day); err != nil {
		return nil, recipe.Recipe{}, err
	}
	st, err := a.Settings.Get(ctx)
	if err != nil {
		return nil, recipe.Recipe{}, err
	}

	ask := audience
	if audience == recipe.AudienceBoth {
		ask = recipe.AudienceAdults
	}
	suggested, err := a.Generator.SuggestRecipe(ctx, generator.RecipeRequest{
		Audience:     ask,
		Day:          day,
		ExcludeNames: plan.RecipeNames(),
		Context:      generator.ContextFromSettings(st),
	})
	if err != nil {
		return nil, recipe.Recipe{}, err
	}
	if audience == recipe.AudienceBoth {
		suggested.KidFriendly = true
		suggested.TargetAudience = recipe.AudienceBoth
	}

	saved, err := a.Recipes.Add(ctx, suggested)
	if err != nil {
		return nil, recipe.Recipe{}, fmt.Errorf("failed to save regenerated recipe: %w", err)
	}
	updated, err := a.Planner.ReplaceMealRecipe(ctx, day, audience, saved)
	if err != nil {
		return nil, recipe.Recipe{}, err
	}
	a.logger.Info("regenerated meal",
		zap.String("day", day),
		zap.String("audience", string(audience)),
		zap.String("recipe", saved.Name))
	return updated, saved, nil
}

// ToggleFavorite flips a planned recipe's favorite flag. A recipe that becomes a favorite
// is copied into the library when it is not there yet.
func (a *App) ToggleFavorite(ctx context.Context, day string, audience recipe.Audience) (*planner.WeeklyPlan, recipe.Recipe, error) {
	plan, toggled, err := a.Planner.ToggleFavorite(ctx, day, audience)
	if err != nil {
		return nil, recipe.Recipe{}, err
	}
	if !toggled.IsFavorite {
		return plan, toggled, nil
	}
	promoted, err := a.Recipes.Promote(ctx, toggled)
	if err != nil {
		return nil, recipe.Recipe{}, fmt.Errorf("failed to promote favorite: %w", err)
	}
	return plan, promoted, nil
}

// NotRecommendedResult is the block list after a change and, when a day was regenerated, the plan.
type NotRecommendedResult struct {
	List []settings.NotRecommendedEntry `json:"list"`
	Plan *planner.WeeklyPlan            `json:"plan,omitempty"`
}

// MarkNotRecommended blocks a recipe name for an audience. When day is set, that day's
// meal for the audience is regenerated right away.
func (a *App) MarkNotRecommended(ctx context.Context, name string, audience recipe.Audience, day string) (NotRecommendedResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return NotRecommendedResult{}, apperr.Validation("recipe name is required")
	}
	st, err := a.Settings.AddNotRecommended(ctx, name, audience)
	if err != nil {
		return NotRecommendedResult{}, err
	}
	res := NotRecommendedResult{List: st.NotRecommended}
	if day == "" {
		return res, nil
	}
	plan, _, err := a.RegenerateMeal(ctx, day, audience)
	if err != nil {
		return NotRecommendedResult{}, err
	}
	res.Plan = plan
	return res, nil
}

// SearchRecipes returns AI suggestions for a free-text query.
func (a *App) SearchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query is required")
	}
	st, err := a.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return a.Generator.Search(ctx, query, generator.ContextFromSettings(st))
}

// ShoppingList aggregates the approved meals of the current plan.
func (a *App) ShoppingList(ctx context.Context) (shopping.List, error) {
	plan, err := a.Planner.Current(ctx)
	if err != nil {
		return shopping.List{}, err
	}
	return shopping.BuildList(plan), nil
}

// GeneratePrep builds the weekend prep plan of the current week.
func (a *App) GeneratePrep(ctx context.Context) (*prep.WeeklyPlan, error) {
	plan, err := a.Planner.Current(ctx)
	if err != nil {
		return nil, err
	}
	return a.Prep.Generate(ctx, plan)
}

// CurrentPrep returns the prep plan of the current week, or nil when there is none.
func (a *App) CurrentPrep(ctx context.Context) (*prep.WeeklyPlan, error) {
	plan, err := a.Planner.Current(ctx)
	if err != nil {
		return nil, err
	}
	return a.Prep.Get(ctx, plan.WeekStart)
}

// SeedResult reports the outcome of Seed.
type SeedResult struct {
	Message      string `json:"message"`
	RecipesCount int    `json:"recipesCount"`
}

// Seed fills an empty library with the default catalogue and stores default settings.
// A library that already has recipes is left alone.
func (a *App) Seed(ctx context.Context) (SeedResult, error) {
	existing, err := a.Recipes.List(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	if len(existing) > 0 {
		return SeedResult{Message: "Already initialized", RecipesCount: len(existing)}, nil
	}

	defaults, err := recipe.DefaultRecipes()
	if err != nil {
		return SeedResult{}, err
	}
	added, err := a.Recipes.Seed(ctx, defaults)
	if err != nil {
		return SeedResult{}, err
	}

	st, err := a.Settings.Get(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	if _, err := a.Settings.Save(ctx, st); err != nil {
		return SeedResult{}, err
	}
	a.logger.Info("seeded recipe library", zap.Int("recipes", added))
	return SeedResult{Message: "Initialized successfully", RecipesCount: added}, nil
}

// CleanupMetrics deletes execution metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if a.Metrics == nil {
		return 0, apperr.Validation("metrics store is not configured")
	}
	if days < 0 {
		return 0, apperr.Validation("days must not be negative")
	}
	return a.Metrics.Cleanup(ctx, days)
}

// Usage reports AI token usage per day.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	if a.Metrics == nil {
		return nil, nil
	}
	return a.Metrics.GetDailyUsage(ctx, days)
}
