package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
)

// PrepCategories are the task categories the model may use.
var PrepCategories = []string{"vegetable-prep", "protein-prep", "grain-cooking", "sauce-dressing", "spice-blend", "other"}

// PrepMeal is one dinner handed to the prep planner.
type PrepMeal struct {
	Day         string
	RecipeName  string
	Ingredients []string
}

// PrepTaskDraft is a prep task as proposed by the model.
type PrepTaskDraft struct {
	Category            string   `json:"category"`
	PrepDay             string   `json:"prepDay"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	EstimatedMinutes    flexInt  `json:"estimatedMinutes"`
	StorageInstructions string   `json:"storageInstructions"`
	Ingredients         []string `json:"ingredients"`
	LinkedRecipeNames   []string `json:"linkedRecipeNames"`
	LinkedMealDays      []string `json:"linkedMealDays"`
}

// Minutes is the estimate as an integer.
func (d PrepTaskDraft) Minutes() int {
	if d.EstimatedMinutes < 0 {
		return 0
	}
	return int(d.EstimatedMinutes)
}

type prepPromptData struct {
	WeekStart  string
	Meals      []PrepMeal
	Categories []string
}

// SuggestPrepTasks decomposes the week's dinners into weekend prep tasks.
// Categories and days outside the known sets are normalized; tasks without a title are dropped.
func (g *Generator) SuggestPrepTasks(ctx context.Context, weekStart string, meals []PrepMeal) ([]PrepTaskDraft, error) {
	if len(meals) == 0 {
		return nil, apperr.Validation("no meals to prepare")
	}
	prompt, err := render(prepTmpl, prepPromptData{WeekStart: weekStart, Meals: meals, Categories: PrepCategories})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Tasks []PrepTaskDraft `json:"tasks"`
	}
	if err := g.complete(ctx, "PrepPlanner", prompt, &raw); err != nil {
		return nil, err
	}

	tasks := make([]PrepTaskDraft, 0, len(raw.Tasks))
	for _, t := range raw.Tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		t.Category = normalizePrepCategory(t.Category)
		if strings.EqualFold(strings.TrimSpace(t.PrepDay), "saturday") {
			t.PrepDay = "Saturday"
		} else {
			t.PrepDay = "Sunday"
		}
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return nil, apperr.Generation(fmt.Errorf("%d tasks without a title", len(raw.Tasks)), "PrepPlanner returned no usable tasks")
	}
	g.logger.Info("prep tasks suggested", zap.String("weekStart", weekStart), zap.Int("tasks", len(tasks)))
	return tasks, nil
}

func normalizePrepCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range PrepCategories {
		if c == known {
			return c
		}
	}
	return "other"
}
