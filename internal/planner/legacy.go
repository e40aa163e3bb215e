package planner

import (
	"context"

	"meal-planner/internal/apperr"
	"meal-planner/internal/recipe"
)

// RecipeLookup resolves recipe ids referenced by older plan records.
type RecipeLookup interface {
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
}

// storedMeal accepts every meal shape ever persisted.
type storedMeal struct {
	Day           string         `json:"day"`
	Date          string         `json:"date"`
	RecipeID      string         `json:"recipeId,omitempty"`
	AdultRecipeID string         `json:"adultRecipeId,omitempty"`
	KidsRecipeID  string         `json:"kidsRecipeId,omitempty"`
	AdultRecipe   *recipe.Recipe `json:"adultRecipe,omitempty"`
	KidsRecipe    *recipe.Recipe `json:"kidsRecipe,omitempty"`
	SharedMeal    *bool          `json:"sharedMeal,omitempty"`
	Approved      bool           `json:"approved"`
}

type storedPlan struct {
	WeekStart string       `json:"weekStart"`
	Status    Status       `json:"status"`
	Meals     []storedMeal `json:"meals"`
}

// MealRecord is a persisted meal in one of its historical shapes.
type MealRecord interface {
	normalize(ctx context.Context, lookup RecipeLookup) (Meal, error)
}

// LegacySingleMeal is the oldest shape: one recipe id serving the whole family.
type LegacySingleMeal struct {
	Day      string
	Date     string
	RecipeID string
	Approved bool
}

// RecipeRef is either an embedded snapshot or a library id.
type RecipeRef struct {
	Snapshot *recipe.Recipe
	ID       string
}

func (r RecipeRef) empty() bool {
	return r.Snapshot == nil && r.ID == ""
}

// DualAudienceMeal has separate adult and kids recipes, embedded or referenced by id.
type DualAudienceMeal struct {
	Day        string
	Date       string
	Adult      RecipeRef
	Kids       RecipeRef
	SharedMeal *bool
	Approved   bool
}

// classify picks the variant a stored meal belongs to.
func classify(s storedMeal) MealRecord {
	dual := s.AdultRecipe != nil || s.KidsRecipe != nil || s.AdultRecipeID != "" || s.KidsRecipeID != ""
	if !dual {
		return LegacySingleMeal{Day: s.Day, Date: s.Date, RecipeID: s.RecipeID, Approved: s.Approved}
	}
	adultID := s.AdultRecipeID
	if adultID == "" {
		adultID = s.RecipeID
	}
	return DualAudienceMeal{
		Day:        s.Day,
		Date:       s.Date,
		Adult:      RecipeRef{Snapshot: s.AdultRecipe, ID: adultID},
		Kids:       RecipeRef{Snapshot: s.KidsRecipe, ID: s.KidsRecipeID},
		SharedMeal: s.SharedMeal,
		Approved:   s.Approved,
	}
}

// resolve returns the snapshot, looking ids up in the library. A recipe that
// no longer exists becomes a placeholder carrying the id.
func resolve(ctx context.Context, lookup RecipeLookup, ref RecipeRef) (recipe.Recipe, error) {
	if ref.Snapshot != nil {
		return ref.Snapshot.Clone(), nil
	}
	if lookup != nil {
		r, err := lookup.Get(ctx, ref.ID)
		if err == nil && r != nil {
			return r.Clone(), nil
		}
		if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
			return recipe.Recipe{}, err
		}
	}
	return recipe.Recipe{ID: ref.ID, Name: "Unknown recipe", Servings: 1}, nil
}

func (m LegacySingleMeal) normalize(ctx context.Context, lookup RecipeLookup) (Meal, error) {
	r, err := resolve(ctx, lookup, RecipeRef{ID: m.RecipeID})
	if err != nil {
		return Meal{}, err
	}
	return Meal{
		Day:         m.Day,
		Date:        m.Date,
		AdultRecipe: r,
		KidsRecipe:  r.Clone(),
		SharedMeal:  true,
		Approved:    m.Approved,
	}, nil
}

func (m DualAudienceMeal) normalize(ctx context.Context, lookup RecipeLookup) (Meal, error) {
	out := Meal{Day: m.Day, Date: m.Date, Approved: m.Approved}

	switch {
	case m.Adult.empty() && m.Kids.empty():
		placeholder := recipe.Recipe{Name: "Unknown recipe", Servings: 1}
		out.AdultRecipe, out.KidsRecipe, out.SharedMeal = placeholder, placeholder.Clone(), true
		return out, nil
	case m.Kids.empty():
		adult, err := resolve(ctx, lookup, m.Adult)
		if err != nil {
			return Meal{}, err
		}
		out.AdultRecipe, out.KidsRecipe, out.SharedMeal = adult, adult.Clone(), true
		return out, nil
	case m.Adult.empty():
		kids, err := resolve(ctx, lookup, m.Kids)
		if err != nil {
			return Meal{}, err
		}
		out.AdultRecipe, out.KidsRecipe, out.SharedMeal = kids.Clone(), kids, true
		return out, nil
	}

	adult, err := resolve(ctx, lookup, m.Adult)
	if err != nil {
		return Meal{}, err
	}
	kids, err := resolve(ctx, lookup, m.Kids)
	if err != nil {
		return Meal{}, err
	}
	out.AdultRecipe, out.KidsRecipe = adult, kids

	if m.SharedMeal != nil {
		out.SharedMeal = *m.SharedMeal
	} else {
		out.SharedMeal = adult.ID != "" && adult.ID == kids.ID
	}
	if out.SharedMeal {
		out.KidsRecipe = adult.Clone()
	}
	return out, nil
}

// Normalize converts any stored meal shape into the canonical Meal.
func Normalize(ctx context.Context, rec MealRecord, lookup RecipeLookup) (Meal, error) {
	return rec.normalize(ctx, lookup)
}
