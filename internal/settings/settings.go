// Package settings holds the household's planning preferences.
//
// Stored records may come from any earlier schema, so every read merges the
// persisted fields over the defaults and back-fills the split adult/kids lists
// from the legacy single lists.
package settings

import (
	"strings"
	"time"

	"meal-planner/internal/recipe"
)

// MaxVegetarianDays is the upper bound of the weekly vegetarian quota.
const MaxVegetarianDays = 5

// AIContext is free text handed to the AI generator.
type AIContext struct {
	AdultPreferences string `json:"adultPreferences"`
	KidsPreferences  string `json:"kidsPreferences"`
	GeneralNotes     string `json:"generalNotes"`
}

// NotRecommendedEntry blocks a recipe name for one audience.
type NotRecommendedEntry struct {
	RecipeName string          `json:"recipeName"`
	Audience   recipe.Audience `json:"audience"`
	AddedAt    time.Time       `json:"addedAt"`
}

// Settings is the canonical in-memory view.
// PreferredCuisines and RecipeWebsites are derived unions kept for older clients.
type Settings struct {
	Exclusions            []string              `json:"exclusions"`
	AdultCuisines         []string              `json:"adultCuisines"`
	KidsCuisines          []string              `json:"kidsCuisines"`
	PreferredCuisines     []string              `json:"preferredCuisines,omitempty"`
	VegetarianDaysPerWeek int                   `json:"vegetarianDaysPerWeek"`
	AIContext             AIContext             `json:"aiContext"`
	AdultRecipeWebsites   []string              `json:"adultRecipeWebsites"`
	KidsRecipeWebsites    []string              `json:"kidsRecipeWebsites"`
	RecipeWebsites        []string              `json:"recipeWebsites,omitempty"`
	NotRecommended        []NotRecommendedEntry `json:"notRecommended"`
}

// Defaults returns a fresh copy of the default settings.
func Defaults() Settings {
	return Settings{
		Exclusions:          []string{"beef", "pork", "shellfish"},
		AdultCuisines:       []string{},
		KidsCuisines:        []string{},
		AdultRecipeWebsites: []string{},
		KidsRecipeWebsites:  []string{},
		NotRecommended:      []NotRecommendedEntry{},
	}
}

// Record is the persisted shape. Absent fields decode as nil so they can be told apart from empty ones.
type Record struct {
	Exclusions            *[]string              `json:"exclusions,omitempty"`
	AdultCuisines         *[]string              `json:"adultCuisines,omitempty"`
	KidsCuisines          *[]string              `json:"kidsCuisines,omitempty"`
	PreferredCuisines     *[]string              `json:"preferredCuisines,omitempty"`
	VegetarianDaysPerWeek *int                   `json:"vegetarianDaysPerWeek,omitempty"`
	AIContext             *AIContextRecord       `json:"aiContext,omitempty"`
	AdultRecipeWebsites   *[]string              `json:"adultRecipeWebsites,omitempty"`
	KidsRecipeWebsites    *[]string              `json:"kidsRecipeWebsites,omitempty"`
	RecipeWebsites        *[]string              `json:"recipeWebsites,omitempty"`
	NotRecommended        *[]NotRecommendedEntry `json:"notRecommended,omitempty"`
}

// AIContextRecord is the persisted shape of AIContext.
type AIContextRecord struct {
	AdultPreferences *string `json:"adultPreferences,omitempty"`
	KidsPreferences  *string `json:"kidsPreferences,omitempty"`
	GeneralNotes     *string `json:"generalNotes,omitempty"`
}

// Migrate back-fills missing split lists from the legacy single lists.
// It reports whether anything changed; persisting the result is left to the caller.
func Migrate(r Record) (Record, bool) {
	migrated := false
	if r.PreferredCuisines != nil {
		if r.AdultCuisines == nil {
			r.AdultCuisines = copyList(r.PreferredCuisines)
			migrated = true
		}
		if r.KidsCuisines == nil {
			r.KidsCuisines = copyList(r.PreferredCuisines)
			migrated = true
		}
	}
	if r.RecipeWebsites != nil {
		if r.AdultRecipeWebsites == nil {
			r.AdultRecipeWebsites = copyList(r.RecipeWebsites)
			migrated = true
		}
		if r.KidsRecipeWebsites == nil {
			r.KidsRecipeWebsites = copyList(r.RecipeWebsites)
			migrated = true
		}
	}
	return r, migrated
}

func copyList(p *[]string) *[]string {
	c := append([]string{}, (*p)...)
	return &c
}

// MergeDefaults overlays the persisted fields on the defaults, field by field.
func MergeDefaults(r Record) Settings {
	s := Defaults()
	if r.Exclusions != nil {
		s.Exclusions = append([]string{}, (*r.Exclusions)...)
	}
	if r.AdultCuisines != nil {
		s.AdultCuisines = append([]string{}, (*r.AdultCuisines)...)
	}
	if r.KidsCuisines != nil {
		s.KidsCuisines = append([]string{}, (*r.KidsCuisines)...)
	}
	if r.VegetarianDaysPerWeek != nil {
		s.VegetarianDaysPerWeek = clampVegetarianDays(*r.VegetarianDaysPerWeek)
	}
	if r.AIContext != nil {
		if r.AIContext.AdultPreferences != nil {
			s.AIContext.AdultPreferences = *r.AIContext.AdultPreferences
		}
		if r.AIContext.KidsPreferences != nil {
			s.AIContext.KidsPreferences = *r.AIContext.KidsPreferences
		}
		if r.AIContext.GeneralNotes != nil {
			s.AIContext.GeneralNotes = *r.AIContext.GeneralNotes
		}
	}
	if r.AdultRecipeWebsites != nil {
		s.AdultRecipeWebsites = append([]string{}, (*r.AdultRecipeWebsites)...)
	}
	if r.KidsRecipeWebsites != nil {
		s.KidsRecipeWebsites = append([]string{}, (*r.KidsRecipeWebsites)...)
	}
	if r.NotRecommended != nil {
		s.NotRecommended = append([]NotRecommendedEntry{}, (*r.NotRecommended)...)
	}
	s.deriveLegacyViews()
	return s
}

// ToRecord converts canonical settings into the persisted shape. Derived legacy views are not stored.
func (s Settings) ToRecord() Record {
	veg := s.VegetarianDaysPerWeek
	adultPrefs, kidsPrefs, notes := s.AIContext.AdultPreferences, s.AIContext.KidsPreferences, s.AIContext.GeneralNotes
	return Record{
		Exclusions:            listPtr(s.Exclusions),
		AdultCuisines:         listPtr(s.AdultCuisines),
		KidsCuisines:          listPtr(s.KidsCuisines),
		VegetarianDaysPerWeek: &veg,
		AIContext: &AIContextRecord{
			AdultPreferences: &adultPrefs,
			KidsPreferences:  &kidsPrefs,
			GeneralNotes:     &notes,
		},
		AdultRecipeWebsites: listPtr(s.AdultRecipeWebsites),
		KidsRecipeWebsites:  listPtr(s.KidsRecipeWebsites),
		NotRecommended:      entriesPtr(s.NotRecommended),
	}
}

func listPtr(l []string) *[]string {
	c := append([]string{}, l...)
	return &c
}

func entriesPtr(l []NotRecommendedEntry) *[]NotRecommendedEntry {
	c := append([]NotRecommendedEntry{}, l...)
	return &c
}

func (s *Settings) deriveLegacyViews() {
	s.PreferredCuisines = union(s.AdultCuisines, s.KidsCuisines)
	s.RecipeWebsites = union(s.AdultRecipeWebsites, s.KidsRecipeWebsites)
}

// union keeps first-seen order.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func clampVegetarianDays(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxVegetarianDays {
		return MaxVegetarianDays
	}
	return n
}

// CuisinesFor returns the ordered cuisine list of an audience.
func (s Settings) CuisinesFor(a recipe.Audience) []string {
	if a == recipe.AudienceKids {
		return s.KidsCuisines
	}
	return s.AdultCuisines
}

// WebsitesFor returns the website allow-list of an audience.
func (s Settings) WebsitesFor(a recipe.Audience) []string {
	if a == recipe.AudienceKids {
		return s.KidsRecipeWebsites
	}
	return s.AdultRecipeWebsites
}

// NotRecommendedNames lists the blocked recipe names of an audience.
func (s Settings) NotRecommendedNames(a recipe.Audience) []string {
	names := make([]string, 0, len(s.NotRecommended))
	for _, e := range s.NotRecommended {
		if e.Audience == a {
			names = append(names, e.RecipeName)
		}
	}
	return names
}

// IsNotRecommended reports whether name is blocked for the audience, ignoring case.
func (s Settings) IsNotRecommended(name string, a recipe.Audience) bool {
	for _, e := range s.NotRecommended {
		if e.Audience == a && strings.EqualFold(e.RecipeName, name) {
			return true
		}
	}
	return false
}

// Excludes reports whether the recipe uses any excluded ingredient.
func (s Settings) Excludes(r recipe.Recipe) bool {
	for _, ex := range s.Exclusions {
		if r.ContainsIngredient(ex) {
			return true
		}
	}
	return false
}

// NormalizeExclusion lowercases and trims an ingredient name.
func NormalizeExclusion(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

// NormalizeWebsite reduces a URL or host to a bare lowercase domain.
func NormalizeWebsite(site string) string {
	s := strings.ToLower(strings.TrimSpace(site))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
