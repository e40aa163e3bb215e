package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"meal-planner/internal/recipe"
)

// flexInt accepts 30, 30.0 and "30".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		// Free text such as "30 minutes": take the leading number.
		fields := strings.Fields(string(data))
		if len(fields) == 0 {
			return nil
		}
		if v, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil
		}
	}
	*f = flexInt(math.Round(v))
	return nil
}

// flexString accepts "0.5" and 0.5.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(data)))
	return nil
}

type rawIngredient struct {
	Name     string     `json:"name"`
	Amount   flexString `json:"amount"`
	Unit     string     `json:"unit"`
	Category string     `json:"category"`
}

type rawRecipe struct {
	Name           string          `json:"name"`
	Cuisine        string          `json:"cuisine"`
	PrepTime       flexInt         `json:"prepTime"`
	Servings       flexInt         `json:"servings"`
	KidFriendly    bool            `json:"kidFriendly"`
	TargetAudience string          `json:"targetAudience"`
	SourceWebsite  string          `json:"sourceWebsite"`
	Ingredients    []rawIngredient `json:"ingredients"`
	Instructions   []string        `json:"instructions"`
}

// toRecipe validates a model answer and assigns a fresh id.
func (r rawRecipe) toRecipe(audience recipe.Audience) (recipe.Recipe, error) {
	if strings.TrimSpace(r.Name) == "" {
		return recipe.Recipe{}, fmt.Errorf("recipe has no name")
	}
	if len(r.Ingredients) == 0 {
		return recipe.Recipe{}, fmt.Errorf("recipe %q has no ingredients", r.Name)
	}

	out := recipe.Recipe{
		ID:             uuid.NewString(),
		Name:           r.Name,
		Cuisine:        strings.ToLower(strings.TrimSpace(r.Cuisine)),
		PrepTime:       int(r.PrepTime),
		Servings:       int(r.Servings),
		KidFriendly:    r.KidFriendly,
		TargetAudience: recipe.Audience(r.TargetAudience),
		SourceWebsite:  strings.TrimSpace(r.SourceWebsite),
		Instructions:   make([]string, 0, len(r.Instructions)),
		Ingredients:    make([]recipe.Ingredient, 0, len(r.Ingredients)),
	}
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		out.Ingredients = append(out.Ingredients, recipe.Ingredient{
			Name:     strings.TrimSpace(ing.Name),
			Amount:   strings.TrimSpace(string(ing.Amount)),
			Unit:     strings.TrimSpace(ing.Unit),
			Category: recipe.Category(ing.Category),
		})
	}
	for _, step := range r.Instructions {
		if s := strings.TrimSpace(step); s != "" {
			out.Instructions = append(out.Instructions, s)
		}
	}

	out.Sanitize()
	if out.TargetAudience == "" {
		out.TargetAudience = audience
	}
	if audience == recipe.AudienceKids {
		out.KidFriendly = true
	}
	return out, nil
}
