// Package prep plans weekend batch preparation for an approved week.
package prep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/generator"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/storage"
)

// Day is the weekend day a task is done on.
type Day string

const (
	Saturday Day = "Saturday"
	Sunday   Day = "Sunday"
)

// Task is one batch-prep step.
type Task struct {
	ID                  string   `json:"id"`
	Category            string   `json:"category"`
	PrepDay             Day      `json:"prepDay"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	EstimatedMinutes    int      `json:"estimatedMinutes"`
	StorageInstructions string   `json:"storageInstructions"`
	Ingredients         []string `json:"ingredients"`
	LinkedRecipeNames   []string `json:"linkedRecipeNames"`
	LinkedMealDays      []string `json:"linkedMealDays"`
	Completed           bool     `json:"completed"`
}

// WeeklyPlan is the prep plan of one week.
type WeeklyPlan struct {
	WeekStart            string    `json:"weekStart"`
	TotalPrepTimeMinutes int       `json:"totalPrepTimeMinutes"`
	SaturdayTasks        []Task    `json:"saturdayTasks"`
	SundayTasks          []Task    `json:"sundayTasks"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

// TaskSuggester decomposes dinners into prep tasks.
type TaskSuggester interface {
	SuggestPrepTasks(ctx context.Context, weekStart string, meals []generator.PrepMeal) ([]generator.PrepTaskDraft, error)
}

// Planner generates and stores prep plans. Plans live under the prep-plans key,
// one entry per weekStart, so earlier weeks remain readable.
type Planner struct {
	store     storage.Store
	suggester TaskSuggester
	now       func() time.Time
	logger    *zap.Logger
}

// NewPlanner creates a prep Planner.
func NewPlanner(store storage.Store, suggester TaskSuggester, logger *zap.Logger) *Planner {
	return &Planner{store: store, suggester: suggester, now: time.Now, logger: logger}
}

// WithClock replaces the clock stamping generatedAt.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

func (p *Planner) load(ctx context.Context) (map[string]*WeeklyPlan, error) {
	plans, err := storage.GetOr(ctx, p.store, storage.KeyPrepPlans, map[string]*WeeklyPlan{})
	if err != nil {
		return nil, fmt.Errorf("failed to load prep plans: %w", err)
	}
	if plans == nil {
		plans = map[string]*WeeklyPlan{}
	}
	return plans, nil
}

func (p *Planner) save(ctx context.Context, plans map[string]*WeeklyPlan) error {
	if err := p.store.Set(ctx, storage.KeyPrepPlans, plans); err != nil {
		return fmt.Errorf("failed to save prep plans: %w", err)
	}
	return nil
}

// Meals lists the dinners of an approved plan as prep input. A kids' dinner is
// listed separately, as "<Day> (Kids)", only when it differs from the adults'.
func Meals(plan *planner.WeeklyPlan) []generator.PrepMeal {
	var out []generator.PrepMeal
	for _, m := range plan.Meals {
		out = append(out, prepMeal(m.Day, m.AdultRecipe))
		if !m.SharedMeal {
			out = append(out, prepMeal(m.Day+" (Kids)", m.KidsRecipe))
		}
	}
	return out
}

func prepMeal(day string, r recipe.Recipe) generator.PrepMeal {
	ingredients := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, fmt.Sprintf("%s %s %s", ing.Amount, ing.Unit, ing.Name))
	}
	return generator.PrepMeal{Day: day, RecipeName: r.Name, Ingredients: ingredients}
}

// Generate builds and stores the prep plan of an approved week, replacing any earlier one for that week.
func (p *Planner) Generate(ctx context.Context, plan *planner.WeeklyPlan) (*WeeklyPlan, error) {
	if plan.Status != planner.StatusApproved {
		return nil, apperr.Validation("plan must be approved before generating prep tasks")
	}
	if len(plan.Meals) == 0 {
		return nil, apperr.Validation("no meals in the plan")
	}

	drafts, err := p.suggester.SuggestPrepTasks(ctx, plan.WeekStart, Meals(plan))
	if err != nil {
		return nil, err
	}

	out := &WeeklyPlan{
		WeekStart:     plan.WeekStart,
		SaturdayTasks: []Task{},
		SundayTasks:   []Task{},
		GeneratedAt:   p.now().UTC(),
	}
	for _, d := range drafts {
		task := Task{
			ID:                  uuid.NewString(),
			Category:            d.Category,
			PrepDay:             Day(d.PrepDay),
			Title:               d.Title,
			Description:         d.Description,
			EstimatedMinutes:    d.Minutes(),
			StorageInstructions: d.StorageInstructions,
			Ingredients:         nonNil(d.Ingredients),
			LinkedRecipeNames:   nonNil(d.LinkedRecipeNames),
			LinkedMealDays:      nonNil(d.LinkedMealDays),
		}
		out.TotalPrepTimeMinutes += task.EstimatedMinutes
		if task.PrepDay == Saturday {
			out.SaturdayTasks = append(out.SaturdayTasks, task)
		} else {
			task.PrepDay = Sunday
			out.SundayTasks = append(out.SundayTasks, task)
		}
	}

	plans, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	plans[out.WeekStart] = out
	if err := p.save(ctx, plans); err != nil {
		return nil, err
	}
	p.logger.Info("generated prep plan",
		zap.String("weekStart", out.WeekStart),
		zap.Int("saturday", len(out.SaturdayTasks)),
		zap.Int("sunday", len(out.SundayTasks)),
		zap.Int("minutes", out.TotalPrepTimeMinutes))
	return out, nil
}

// Get returns the prep plan of a week, or nil when there is none.
func (p *Planner) Get(ctx context.Context, weekStart string) (*WeeklyPlan, error) {
	plans, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return plans[weekStart], nil
}

// SetTaskCompletion marks one task done or not done.
func (p *Planner) SetTaskCompletion(ctx context.Context, weekStart, taskID string, completed bool) (*WeeklyPlan, error) {
	plans, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	plan, ok := plans[weekStart]
	if !ok || plan == nil {
		return nil, apperr.NotFound("no prep plan found for week %s", weekStart)
	}

	task := findTask(plan, taskID)
	if task == nil {
		return nil, apperr.NotFound("task %s not found in prep plan", taskID)
	}
	task.Completed = completed

	if err := p.save(ctx, plans); err != nil {
		return nil, err
	}
	return plan, nil
}

func findTask(plan *WeeklyPlan, id string) *Task {
	for i := range plan.SaturdayTasks {
		if plan.SaturdayTasks[i].ID == id {
			return &plan.SaturdayTasks[i]
		}
	}
	for i := range plan.SundayTasks {
		if plan.SundayTasks[i].ID == id {
			return &plan.SundayTasks[i]
		}
	}
	return nil
}

// Delete removes the prep plan of a week. Deleting a missing plan is not an error.
func (p *Planner) Delete(ctx context.Context, weekStart string) error {
	plans, err := p.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := plans[weekStart]; !ok {
		return nil
	}
	delete(plans, weekStart)
	return p.save(ctx, plans)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
