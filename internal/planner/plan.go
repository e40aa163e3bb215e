package planner

import (
	"strings"

	"meal-planner/internal/apperr"
	"meal-planner/internal/recipe"
)

// Status of a weekly plan.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// Weekdays are the planned days, in order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Meal is one weekday dinner. Recipes are embedded snapshots; when SharedMeal
// is set both snapshots are identical.
type Meal struct {
	Day         string        `json:"day"`
	Date        string        `json:"date"`
	AdultRecipe recipe.Recipe `json:"adultRecipe"`
	KidsRecipe  recipe.Recipe `json:"kidsRecipe"`
	SharedMeal  bool          `json:"sharedMeal"`
	Approved    bool          `json:"approved"`
}

// WeeklyPlan is the single current plan.
type WeeklyPlan struct {
	WeekStart string `json:"weekStart"`
	Status    Status `json:"status"`
	Meals     []Meal `json:"meals"`
}

// Clone deep-copies the plan so a failed mutation never leaks into the caller's copy.
func (p *WeeklyPlan) Clone() *WeeklyPlan {
	c := &WeeklyPlan{WeekStart: p.WeekStart, Status: p.Status, Meals: make([]Meal, len(p.Meals))}
	for i, m := range p.Meals {
		m.AdultRecipe = m.AdultRecipe.Clone()
		m.KidsRecipe = m.KidsRecipe.Clone()
		c.Meals[i] = m
	}
	return c
}

// RecomputeStatus enforces: approved iff there are meals and every one is approved.
func (p *WeeklyPlan) RecomputeStatus() {
	if len(p.Meals) == 0 {
		p.Status = StatusDraft
		return
	}
	for _, m := range p.Meals {
		if !m.Approved {
			p.Status = StatusDraft
			return
		}
	}
	p.Status = StatusApproved
}

// UnapprovedCount is the number of meals still waiting for approval.
func (p *WeeklyPlan) UnapprovedCount() int {
	n := 0
	for _, m := range p.Meals {
		if !m.Approved {
			n++
		}
	}
	return n
}

// RecipeNames lists every recipe name used in the week, without duplicates.
func (p *WeeklyPlan) RecipeNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range p.Meals {
		for _, n := range []string{m.AdultRecipe.Name, m.KidsRecipe.Name} {
			if n != "" && !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

func (p *WeeklyPlan) meal(day string) (*Meal, error) {
	for i := range p.Meals {
		if strings.EqualFold(p.Meals[i].Day, day) {
			return &p.Meals[i], nil
		}
	}
	return nil, apperr.NotFound("no meal planned for %s", day)
}

// Meal returns a copy of the meal planned for day.
func (p *WeeklyPlan) Meal(day string) (Meal, error) {
	m, err := p.meal(day)
	if err != nil {
		return Meal{}, err
	}
	return *m, nil
}

// SetApproval sets one meal's approval and recomputes the plan status.
func (p *WeeklyPlan) SetApproval(day string, approved bool) error {
	m, err := p.meal(day)
	if err != nil {
		return err
	}
	m.Approved = approved
	p.RecomputeStatus()
	return nil
}

// ApproveAll approves every meal.
func (p *WeeklyPlan) ApproveAll() error {
	if len(p.Meals) == 0 {
		return apperr.Validation("there are no meals to approve")
	}
	for i := range p.Meals {
		p.Meals[i].Approved = true
	}
	p.Status = StatusApproved
	return nil
}

// ReplaceRecipe swaps the recipe of one audience and sends the meal back for approval.
// Replacing one side of a shared meal ends the sharing; AudienceBoth replaces both and shares.
func (p *WeeklyPlan) ReplaceRecipe(day string, audience recipe.Audience, r recipe.Recipe) error {
	m, err := p.meal(day)
	if err != nil {
		return err
	}
	switch audience {
	case recipe.AudienceAdults:
		m.AdultRecipe = r.Clone()
		m.SharedMeal = false
	case recipe.AudienceKids:
		m.KidsRecipe = r.Clone()
		m.SharedMeal = false
	case recipe.AudienceBoth:
		m.AdultRecipe = r.Clone()
		m.KidsRecipe = r.Clone()
		m.SharedMeal = true
	default:
		return apperr.Validation("unknown audience %q", audience)
	}
	m.Approved = false
	p.RecomputeStatus()
	return nil
}

// SetShared marks a meal as shared (kids get a copy of the adult recipe) or separate.
// When unsharing, kids is used as the kids recipe if given; otherwise the kids recipe is kept.
func (p *WeeklyPlan) SetShared(day string, shared bool, kids *recipe.Recipe) error {
	m, err := p.meal(day)
	if err != nil {
		return err
	}
	if shared {
		m.KidsRecipe = m.AdultRecipe.Clone()
	} else if kids != nil {
		m.KidsRecipe = kids.Clone()
	}
	m.SharedMeal = shared
	return nil
}

// ToggleFavorite flips the favorite flag of one audience's recipe and returns the updated snapshot.
// On a shared meal both snapshots flip together.
func (p *WeeklyPlan) ToggleFavorite(day string, audience recipe.Audience) (recipe.Recipe, error) {
	m, err := p.meal(day)
	if err != nil {
		return recipe.Recipe{}, err
	}
	switch audience {
	case recipe.AudienceAdults:
		m.AdultRecipe.IsFavorite = !m.AdultRecipe.IsFavorite
		if m.SharedMeal {
			m.KidsRecipe.IsFavorite = m.AdultRecipe.IsFavorite
		}
		return m.AdultRecipe.Clone(), nil
	case recipe.AudienceKids:
		m.KidsRecipe.IsFavorite = !m.KidsRecipe.IsFavorite
		if m.SharedMeal {
			m.AdultRecipe.IsFavorite = m.KidsRecipe.IsFavorite
		}
		return m.KidsRecipe.Clone(), nil
	default:
		return recipe.Recipe{}, apperr.Validation("audience must be adults or kids")
	}
}
