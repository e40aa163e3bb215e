package planner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/generator"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
)

// MinLibraryRecipes is the library size below which the heuristic mode hands the week to the AI.
const MinLibraryRecipes = 5

// RecipeSource is the recipe library as seen by the meal generators.
type RecipeSource interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
	AddMany(ctx context.Context, recipes []recipe.Recipe) ([]recipe.Recipe, error)
}

// SettingsSource provides the household settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// RecipeSuggester is the AI recipe generator.
type RecipeSuggester interface {
	SuggestRecipe(ctx context.Context, req generator.RecipeRequest) (recipe.Recipe, error)
	SuggestWeek(ctx context.Context, req generator.WeekRequest) ([]generator.DayRecipes, error)
}

// AIGenerator plans the whole week with a single model request.
// Its recipes are embedded in the plan without being added to the library.
type AIGenerator struct {
	settings  SettingsSource
	suggester RecipeSuggester
	logger    *zap.Logger
}

// NewAIGenerator creates the AI-first meal generator.
func NewAIGenerator(st SettingsSource, suggester RecipeSuggester, logger *zap.Logger) *AIGenerator {
	return &AIGenerator{settings: st, suggester: suggester, logger: logger}
}

func (g *AIGenerator) GenerateMeals(ctx context.Context, weekStart string, days []generator.DaySlot) ([]Meal, error) {
	st, err := g.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	out, err := g.suggester.SuggestWeek(ctx, generator.WeekRequest{
		WeekStart: weekStart,
		Days:      days,
		Context:   generator.ContextFromSettings(st),
	})
	if err != nil {
		return nil, err
	}
	if len(out) != len(days) {
		return nil, apperr.Generation(fmt.Errorf("got %d days, want %d", len(out), len(days)), "WeekPlanner returned an incomplete week")
	}

	meals := make([]Meal, len(days))
	for i, d := range out {
		meals[i] = Meal{
			Day:         days[i].Day,
			Date:        days[i].Date,
			AdultRecipe: d.Adult,
			KidsRecipe:  d.Kids,
		}
	}
	return meals, nil
}

// LibraryGenerator draws the week from the recipe library and asks the AI only
// for days the library cannot fill.
type LibraryGenerator struct {
	recipes   RecipeSource
	settings  SettingsSource
	suggester RecipeSuggester
	fallback  MealGenerator
	mu        sync.Mutex
	rng       *rand.Rand
	logger    *zap.Logger
}

// NewLibraryGenerator creates the heuristic meal generator. rng drives every
// random choice, so a fixed seed gives a reproducible week. suggester may be nil,
// in which case a library that cannot fill the week is a GenerationError.
func NewLibraryGenerator(recipes RecipeSource, st SettingsSource, suggester RecipeSuggester, rng *rand.Rand, logger *zap.Logger) *LibraryGenerator {
	g := &LibraryGenerator{
		recipes:   recipes,
		settings:  st,
		suggester: suggester,
		rng:       rng,
		logger:    logger,
	}
	if suggester != nil {
		g.fallback = NewAIGenerator(st, suggester, logger)
	}
	return g
}

func (g *LibraryGenerator) GenerateMeals(ctx context.Context, weekStart string, days []generator.DaySlot) ([]Meal, error) {
	library, err := g.recipes.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(library) < MinLibraryRecipes {
		if g.fallback == nil {
			return nil, apperr.Generation(nil, "the recipe library has %d recipes, at least %d are needed", len(library), MinLibraryRecipes)
		}
		g.logger.Info("recipe library too small, planning the week with AI", zap.Int("recipes", len(library)))
		return g.fallback.GenerateMeals(ctx, weekStart, days)
	}

	st, err := g.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var adultPool, kidPool []recipe.Recipe
	kidEligible := make(map[string]bool)
	for _, r := range library {
		if st.Excludes(r) {
			continue
		}
		if r.AdultEligible() && !st.IsNotRecommended(r.Name, recipe.AudienceAdults) {
			adultPool = append(adultPool, r)
		}
		if r.KidEligible() && !st.IsNotRecommended(r.Name, recipe.AudienceKids) {
			kidPool = append(kidPool, r)
			kidEligible[r.ID] = true
		}
	}

	g.mu.Lock()
	adultPicks := g.pick(adultPool, len(days))
	kidPicks := g.pick(kidPool, len(days))
	g.mu.Unlock()

	meals := make([]Meal, len(days))
	type gap struct {
		day      int
		audience recipe.Audience
	}
	var gaps []gap

	for i, d := range days {
		meals[i] = Meal{Day: d.Day, Date: d.Date}
		var adult, kids *recipe.Recipe
		if i < len(adultPicks) {
			adult = &adultPicks[i]
		}
		if i < len(kidPicks) {
			kids = &kidPicks[i]
		}

		if adult != nil {
			meals[i].AdultRecipe = adult.Clone()
			if (kids != nil && kids.ID == adult.ID) || kidEligible[adult.ID] {
				meals[i].SharedMeal = true
				meals[i].KidsRecipe = adult.Clone()
				continue
			}
		} else {
			gaps = append(gaps, gap{day: i, audience: recipe.AudienceAdults})
		}

		if kids != nil {
			meals[i].KidsRecipe = kids.Clone()
		} else {
			gaps = append(gaps, gap{day: i, audience: recipe.AudienceKids})
		}
	}

	if len(gaps) == 0 {
		return meals, nil
	}
	if g.suggester == nil {
		return nil, apperr.Generation(nil, "the recipe library cannot fill %d meal slots", len(gaps))
	}

	used := make([]string, 0, 2*len(days))
	seen := make(map[string]bool)
	addUsed := func(name string) {
		key := strings.ToLower(name)
		if name != "" && !seen[key] {
			seen[key] = true
			used = append(used, name)
		}
	}
	for _, m := range meals {
		addUsed(m.AdultRecipe.Name)
		addUsed(m.KidsRecipe.Name)
	}

	genCtx := generator.ContextFromSettings(st)
	generated := make([]recipe.Recipe, 0, len(gaps))
	for _, gp := range gaps {
		r, err := g.suggester.SuggestRecipe(ctx, generator.RecipeRequest{
			Audience:     gp.audience,
			Day:          days[gp.day].Day,
			ExcludeNames: append([]string(nil), used...),
			Context:      genCtx,
		})
		if err != nil {
			return nil, err
		}
		addUsed(r.Name)
		generated = append(generated, r)
	}

	if _, err := g.recipes.AddMany(ctx, generated); err != nil {
		return nil, fmt.Errorf("failed to save generated recipes: %w", err)
	}

	for i, gp := range gaps {
		if gp.audience == recipe.AudienceAdults {
			meals[gp.day].AdultRecipe = generated[i].Clone()
		} else {
			meals[gp.day].KidsRecipe = generated[i].Clone()
		}
	}
	g.logger.Info("filled library gaps with AI recipes", zap.Int("generated", len(generated)))
	return meals, nil
}

// pick guarantees one favorite when the pool has any, fills up to n by sampling
// without replacement and shuffles the result. Callers hold g.mu.
func (g *LibraryGenerator) pick(pool []recipe.Recipe, n int) []recipe.Recipe {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	remaining := append([]recipe.Recipe(nil), pool...)
	selected := make([]recipe.Recipe, 0, n)

	take := func(i int) {
		selected = append(selected, remaining[i].Clone())
		remaining = append(remaining[:i], remaining[i+1:]...)
	}

	var favorites []int
	for i, r := range remaining {
		if r.IsFavorite {
			favorites = append(favorites, i)
		}
	}
	if len(favorites) > 0 {
		take(favorites[g.rng.IntN(len(favorites))])
	}
	for len(selected) < n && len(remaining) > 0 {
		take(g.rng.IntN(len(remaining)))
	}

	g.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected
}
