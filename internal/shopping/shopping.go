// Package shopping derives the weekly shopping list from the approved meals of a plan.
package shopping

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
)

// Item is one aggregated shopping line. Checked is client-side state and always false here.
type Item struct {
	Name        string          `json:"name"`
	Amount      string          `json:"amount"`
	Unit        string          `json:"unit"`
	Category    recipe.Category `json:"category"`
	Checked     bool            `json:"checked"`
	RecipeNames []string        `json:"recipeNames"`
}

// List is the shopping list of one week.
type List struct {
	WeekStart string `json:"weekStart"`
	Items     []Item `json:"items"`
}

// BuildList aggregates the ingredients of every approved meal. A shared meal
// contributes its recipe once. Lines with the same name and unit are merged and
// their amounts summed; an amount with no leading number counts as 0.
func BuildList(plan *planner.WeeklyPlan) List {
	out := List{Items: []Item{}}
	if plan == nil {
		return out
	}
	out.WeekStart = plan.WeekStart

	index := make(map[string]int)
	add := func(r recipe.Recipe) {
		for _, ing := range r.Ingredients {
			key := strings.ToLower(ing.Name) + "-" + strings.ToLower(ing.Unit)
			i, ok := index[key]
			if !ok {
				index[key] = len(out.Items)
				out.Items = append(out.Items, Item{
					Name:        ing.Name,
					Amount:      ing.Amount,
					Unit:        ing.Unit,
					Category:    ing.Category,
					RecipeNames: []string{r.Name},
				})
				continue
			}
			item := &out.Items[i]
			item.Amount = formatAmount(parseAmount(item.Amount) + parseAmount(ing.Amount))
			if !contains(item.RecipeNames, r.Name) {
				item.RecipeNames = append(item.RecipeNames, r.Name)
			}
		}
	}

	for _, m := range plan.Meals {
		if !m.Approved {
			continue
		}
		add(m.AdultRecipe)
		if !m.SharedMeal {
			add(m.KidsRecipe)
		}
	}

	sortItems(out.Items)
	return out
}

func sortItems(items []Item) {
	c := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Category.Rank(), items[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return c.CompareString(items[i].Name, items[j].Name) < 0
	})
}

// parseAmount reads the longest leading decimal number of s, or 0 when there is none.
// Hex and underscore forms are not numbers here.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		if strings.ContainsAny(s[:end], "xX_") {
			continue
		}
		v, err := strconv.ParseFloat(s[:end], 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
