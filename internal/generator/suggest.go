package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/recipe"
)

// SearchResultCount is how many recipes a search asks for.
const SearchResultCount = 3

// RecipeRequest asks for one recipe for one audience.
type RecipeRequest struct {
	Audience     recipe.Audience
	Day          string
	ExcludeNames []string
	Context      Context
}

type recipePromptData struct {
	Audience       string
	AudienceLabel  string
	Day            string
	Exclusions     []string
	Cuisines       []string
	Websites       []string
	NotRecommended []string
	ExcludeNames   []string
	VegetarianDays int
	Preferences    string
	GeneralNotes   string
}

func buildRecipePrompt(req RecipeRequest) (string, error) {
	data := recipePromptData{
		Audience:       string(req.Audience),
		AudienceLabel:  "adults",
		Day:            req.Day,
		Exclusions:     req.Context.Exclusions,
		ExcludeNames:   req.ExcludeNames,
		VegetarianDays: req.Context.VegetarianDaysPerWeek,
		GeneralNotes:   req.Context.GeneralNotes,
		Cuisines:       req.Context.AdultCuisines,
		Websites:       req.Context.AdultWebsites,
		NotRecommended: req.Context.AdultNotRecommended,
		Preferences:    req.Context.AdultPreferences,
	}
	if req.Audience == recipe.AudienceKids {
		data.AudienceLabel = "kids"
		data.Cuisines = req.Context.KidsCuisines
		data.Websites = req.Context.KidsWebsites
		data.NotRecommended = req.Context.KidsNotRecommended
		data.Preferences = req.Context.KidsPreferences
	}
	return render(recipeTmpl, data)
}

// SuggestRecipe asks the model for a single recipe.
func (g *Generator) SuggestRecipe(ctx context.Context, req RecipeRequest) (recipe.Recipe, error) {
	if req.Audience != recipe.AudienceAdults && req.Audience != recipe.AudienceKids {
		return recipe.Recipe{}, apperr.Validation("audience must be adults or kids")
	}
	prompt, err := buildRecipePrompt(req)
	if err != nil {
		return recipe.Recipe{}, err
	}

	var raw rawRecipe
	if err := g.complete(ctx, "RecipeSuggester", prompt, &raw); err != nil {
		return recipe.Recipe{}, err
	}
	r, err := raw.toRecipe(req.Audience)
	if err != nil {
		return recipe.Recipe{}, apperr.Generation(err, "RecipeSuggester returned an invalid recipe")
	}

	g.logger.Info("suggested recipe",
		zap.String("audience", string(req.Audience)),
		zap.String("day", req.Day),
		zap.String("name", r.Name))
	return r, nil
}

// DaySlot is one weekday to plan.
type DaySlot struct {
	Day  string
	Date string
}

// WeekRequest asks for every day of a week in one call.
type WeekRequest struct {
	WeekStart string
	Days      []DaySlot
	Context   Context
}

// DayRecipes is the model's answer for one day.
type DayRecipes struct {
	Day   string
	Adult recipe.Recipe
	Kids  recipe.Recipe
}

type weekPromptData struct {
	WeekStart string
	Days      []DaySlot
	Context
	VegetarianDays int
}

type rawWeek struct {
	Meals []struct {
		Day         string     `json:"day"`
		AdultRecipe *rawRecipe `json:"adultRecipe"`
		KidsRecipe  *rawRecipe `json:"kidsRecipe"`
	} `json:"meals"`
}

// SuggestWeek asks for a distinct adult and kids recipe for every requested day.
// The answer is returned in request order; a missing or invalid day fails the whole call.
func (g *Generator) SuggestWeek(ctx context.Context, req WeekRequest) ([]DayRecipes, error) {
	if len(req.Days) == 0 {
		return nil, apperr.Validation("no days to plan")
	}
	prompt, err := render(weekTmpl, weekPromptData{
		WeekStart:      req.WeekStart,
		Days:           req.Days,
		Context:        req.Context,
		VegetarianDays: req.Context.VegetarianDaysPerWeek,
	})
	if err != nil {
		return nil, err
	}

	var raw rawWeek
	if err := g.complete(ctx, "WeekPlanner", prompt, &raw); err != nil {
		return nil, err
	}

	byDay := make(map[string]int, len(raw.Meals))
	for i, m := range raw.Meals {
		byDay[strings.ToLower(strings.TrimSpace(m.Day))] = i
	}

	out := make([]DayRecipes, 0, len(req.Days))
	for _, slot := range req.Days {
		i, ok := byDay[strings.ToLower(slot.Day)]
		if !ok {
			return nil, apperr.Generation(fmt.Errorf("no meal for %s", slot.Day), "WeekPlanner returned an incomplete week")
		}
		m := raw.Meals[i]
		if m.AdultRecipe == nil || m.KidsRecipe == nil {
			return nil, apperr.Generation(fmt.Errorf("%s is missing a recipe", slot.Day), "WeekPlanner returned an incomplete week")
		}
		adult, err := m.AdultRecipe.toRecipe(recipe.AudienceAdults)
		if err != nil {
			return nil, apperr.Generation(err, "WeekPlanner returned an invalid recipe for %s", slot.Day)
		}
		kids, err := m.KidsRecipe.toRecipe(recipe.AudienceKids)
		if err != nil {
			return nil, apperr.Generation(err, "WeekPlanner returned an invalid recipe for %s", slot.Day)
		}
		out = append(out, DayRecipes{Day: slot.Day, Adult: adult, Kids: kids})
	}
	return out, nil
}

type searchPromptData struct {
	Query      string
	Count      int
	Exclusions []string
	Websites   []string
}

// Search asks for recipes matching a free-text query.
func (g *Generator) Search(ctx context.Context, query string, c Context) ([]recipe.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query is required")
	}
	prompt, err := render(searchTmpl, searchPromptData{
		Query:      query,
		Count:      SearchResultCount,
		Exclusions: c.Exclusions,
		Websites:   union(c.AdultWebsites, c.KidsWebsites),
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Recipes []rawRecipe `json:"recipes"`
	}
	if err := g.complete(ctx, "RecipeSearch", prompt, &raw); err != nil {
		return nil, err
	}

	results := make([]recipe.Recipe, 0, len(raw.Recipes))
	for _, rr := range raw.Recipes {
		r, err := rr.toRecipe(recipe.AudienceBoth)
		if err != nil {
			g.logger.Warn("skipping invalid search result", zap.Error(err))
			continue
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return nil, apperr.Generation(nil, "RecipeSearch returned no usable recipes")
	}
	return results, nil
}

func union(a, b []string) []string {
	out := append([]string{}, a...)
	for _, v := range b {
		found := false
		for _, o := range out {
			if o == v {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	return out
}
