package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Audience selects which meal track a recipe serves.
type Audience string

const (
	AudienceAdults Audience = "adults"
	AudienceKids   Audience = "kids"
	AudienceBoth   Audience = "both"
)

// ParseAudience accepts adults, kids or both in any case.
func ParseAudience(s string) (Audience, error) {
	switch a := Audience(strings.ToLower(strings.TrimSpace(s))); a {
	case AudienceAdults, AudienceKids, AudienceBoth:
		return a, nil
	default:
		return "", fmt.Errorf("unknown audience %q", s)
	}
}

// Category groups ingredients for shopping.
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryProtein Category = "protein"
	CategoryDairy   Category = "dairy"
	CategoryPantry  Category = "pantry"
	CategoryFrozen  Category = "frozen"
	CategoryOther   Category = "other"
)

// Categories lists every category in shopping order.
var Categories = []Category{
	CategoryProduce,
	CategoryProtein,
	CategoryDairy,
	CategoryPantry,
	CategoryFrozen,
	CategoryOther,
}

// Rank is the category's position in shopping order. Unknown categories rank after all known ones.
func (c Category) Rank() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return len(Categories)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c.Rank() < len(Categories)
}

// Ingredient is one line of a recipe's ingredient list. Amount is a decimal kept as text.
type Ingredient struct {
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Amount   string   `json:"amount" yaml:"amount"`
	Unit     string   `json:"unit" yaml:"unit"`
	Category Category `json:"category" yaml:"category" validate:"omitempty,oneof=produce protein dairy pantry frozen other"`
}

// Recipe is a library entry. Meals embed copies of recipes, never references.
type Recipe struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name" validate:"required"`
	Cuisine        string       `json:"cuisine" yaml:"cuisine"`
	PrepTime       int          `json:"prepTime" yaml:"prepTime" validate:"gte=0"`
	Servings       int          `json:"servings" yaml:"servings" validate:"gte=1"`
	Ingredients    []Ingredient `json:"ingredients" yaml:"ingredients" validate:"dive"`
	Instructions   []string     `json:"instructions" yaml:"instructions"`
	IsFavorite     bool         `json:"isFavorite" yaml:"isFavorite"`
	KidFriendly    bool         `json:"kidFriendly" yaml:"kidFriendly"`
	TargetAudience Audience     `json:"targetAudience,omitempty" yaml:"targetAudience" validate:"omitempty,oneof=adults kids both"`
	SourceWebsite  string       `json:"sourceWebsite,omitempty" yaml:"sourceWebsite"`
}

// Clone returns a deep copy so a meal snapshot never shares slices with the library.
func (r Recipe) Clone() Recipe {
	c := r
	if r.Ingredients != nil {
		c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	}
	if r.Instructions != nil {
		c.Instructions = append([]string(nil), r.Instructions...)
	}
	return c
}

// AdultEligible reports whether the recipe can be served on the adult track.
func (r Recipe) AdultEligible() bool {
	switch r.TargetAudience {
	case AudienceAdults, AudienceBoth, "":
		return true
	default:
		return false
	}
}

// KidEligible reports whether the recipe can be served on the kids track.
func (r Recipe) KidEligible() bool {
	return r.KidFriendly || r.TargetAudience == AudienceKids || r.TargetAudience == AudienceBoth
}

// ContainsIngredient reports whether any ingredient name contains term, ignoring case.
func (r Recipe) ContainsIngredient(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), term) {
			return true
		}
	}
	return false
}

// Sanitize clamps numeric fields and maps unknown ingredient categories to other.
// Applied to recipes produced by the AI generator.
func (r *Recipe) Sanitize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.PrepTime < 0 {
		r.PrepTime = 0
	}
	if r.Servings < 1 {
		r.Servings = 4
	}
	for i := range r.Ingredients {
		cat := Category(strings.ToLower(strings.TrimSpace(string(r.Ingredients[i].Category))))
		if !cat.Valid() {
			cat = CategoryOther
		}
		r.Ingredients[i].Category = cat
	}
	if r.TargetAudience != "" {
		if a, err := ParseAudience(string(r.TargetAudience)); err == nil {
			r.TargetAudience = a
		} else {
			r.TargetAudience = ""
		}
	}
}

var validate = validator.New()

// Validate checks a recipe submitted by a user.
func Validate(r Recipe) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}
