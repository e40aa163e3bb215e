package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/storage"
)

// Library is the household's long-term recipe collection.
type Library struct {
	store  storage.Store
	logger *zap.Logger
}

// NewLibrary creates a Library over the given store.
func NewLibrary(store storage.Store, logger *zap.Logger) *Library {
	return &Library{store: store, logger: logger}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name           *string       `json:"name"`
	Cuisine        *string       `json:"cuisine"`
	PrepTime       *int          `json:"prepTime"`
	Servings       *int          `json:"servings"`
	Ingredients    *[]Ingredient `json:"ingredients"`
	Instructions   *[]string     `json:"instructions"`
	IsFavorite     *bool         `json:"isFavorite"`
	KidFriendly    *bool         `json:"kidFriendly"`
	TargetAudience *Audience     `json:"targetAudience"`
	SourceWebsite  *string       `json:"sourceWebsite"`
}

func (p Patch) apply(r Recipe) Recipe {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Cuisine != nil {
		r.Cuisine = *p.Cuisine
	}
	if p.PrepTime != nil {
		r.PrepTime = *p.PrepTime
	}
	if p.Servings != nil {
		r.Servings = *p.Servings
	}
	if p.Ingredients != nil {
		r.Ingredients = append([]Ingredient(nil), (*p.Ingredients)...)
	}
	if p.Instructions != nil {
		r.Instructions = append([]string(nil), (*p.Instructions)...)
	}
	if p.IsFavorite != nil {
		r.IsFavorite = *p.IsFavorite
	}
	if p.KidFriendly != nil {
		r.KidFriendly = *p.KidFriendly
	}
	if p.TargetAudience != nil {
		r.TargetAudience = *p.TargetAudience
	}
	if p.SourceWebsite != nil {
		r.SourceWebsite = *p.SourceWebsite
	}
	return r
}

// load reads the collection, moving a legacy favorites list into place on first use.
func (l *Library) load(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	found, err := l.store.Get(ctx, storage.KeyRecipes, &recipes)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	if found {
		return recipes, nil
	}

	var legacy []Recipe
	found, err = l.store.Get(ctx, storage.KeyFavorites, &legacy)
	if err != nil {
		return nil, fmt.Errorf("failed to load legacy favorites: %w", err)
	}
	if !found || len(legacy) == 0 {
		return []Recipe{}, nil
	}

	l.logger.Info("moving legacy favorites into recipe library", zap.Int("count", len(legacy)))
	if err := l.save(ctx, legacy); err != nil {
		return nil, err
	}
	return legacy, nil
}

func (l *Library) save(ctx context.Context, recipes []Recipe) error {
	if err := l.store.Set(ctx, storage.KeyRecipes, recipes); err != nil {
		return fmt.Errorf("failed to save recipes: %w", err)
	}
	return nil
}

// List returns every recipe in insertion order.
func (l *Library) List(ctx context.Context) ([]Recipe, error) {
	return l.load(ctx)
}

// Favorites returns the recipes flagged as favorite.
func (l *Library) Favorites(ctx context.Context) ([]Recipe, error) {
	recipes, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	favorites := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.IsFavorite {
			favorites = append(favorites, r)
		}
	}
	return favorites, nil
}

// Get returns the recipe with the given id.
func (l *Library) Get(ctx context.Context, id string) (*Recipe, error) {
	recipes, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recipes {
		if r.ID == id {
			found := r.Clone()
			return &found, nil
		}
	}
	return nil, apperr.NotFound("recipe %s not found", id)
}

// Add stores a recipe, assigning an id when it has none.
// Adding a recipe whose id already exists returns the stored copy unchanged.
func (l *Library) Add(ctx context.Context, r Recipe) (Recipe, error) {
	recipes, err := l.load(ctx)
	if err != nil {
		return Recipe{}, err
	}
	if r.ID != "" {
		for _, existing := range recipes {
			if existing.ID == r.ID {
				return existing, nil
			}
		}
	} else {
		r.ID = uuid.NewString()
	}

	r = r.Clone()
	recipes = append(recipes, r)
	if err := l.save(ctx, recipes); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// AddMany stores several recipes with a single write.
func (l *Library) AddMany(ctx context.Context, batch []Recipe) ([]Recipe, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	recipes, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		known[r.ID] = true
	}

	added := make([]Recipe, 0, len(batch))
	for _, r := range batch {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if known[r.ID] {
			continue
		}
		known[r.ID] = true
		r = r.Clone()
		recipes = append(recipes, r)
		added = append(added, r)
	}
	if err := l.save(ctx, recipes); err != nil {
		return nil, err
	}
	return added, nil
}

// Promote marks a recipe as favorite, inserting a copy when the library does not hold it yet.
func (l *Library) Promote(ctx context.Context, r Recipe) (Recipe, error) {
	recipes, err := l.load(ctx)
	if err != nil {
		return Recipe{}, err
	}
	for i := range recipes {
		if recipes[i].ID == r.ID && r.ID != "" {
			if recipes[i].IsFavorite {
				return recipes[i], nil
			}
			recipes[i].IsFavorite = true
			if err := l.save(ctx, recipes); err != nil {
				return Recipe{}, err
			}
			return recipes[i], nil
		}
	}

	r = r.Clone()
	r.IsFavorite = true
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	recipes = append(recipes, r)
	if err := l.save(ctx, recipes); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Update applies a partial update to the recipe with the given id.
func (l *Library) Update(ctx context.Context, id string, patch Patch) (Recipe, error) {
	recipes, err := l.load(ctx)
	if err != nil {
		return Recipe{}, err
	}
	for i := range recipes {
		if recipes[i].ID != id {
			continue
		}
		updated := patch.apply(recipes[i])
		updated.ID = id
		if err := Validate(updated); err != nil {
			return Recipe{}, apperr.Validation("%v", err)
		}
		recipes[i] = updated
		if err := l.save(ctx, recipes); err != nil {
			return Recipe{}, err
		}
		return updated, nil
	}
	return Recipe{}, apperr.NotFound("recipe %s not found", id)
}

// Delete removes the recipe with the given id.
func (l *Library) Delete(ctx context.Context, id string) error {
	recipes, err := l.load(ctx)
	if err != nil {
		return err
	}
	for i := range recipes {
		if recipes[i].ID == id {
			recipes = append(recipes[:i], recipes[i+1:]...)
			return l.save(ctx, recipes)
		}
	}
	return apperr.NotFound("recipe %s not found", id)
}

// FindByName returns the first recipe whose name matches, ignoring case.
func (l *Library) FindByName(ctx context.Context, name string) (*Recipe, error) {
	recipes, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recipes {
		if strings.EqualFold(r.Name, name) {
			found := r.Clone()
			return &found, nil
		}
	}
	return nil, nil
}

// Seed inserts recipes when the library is empty and reports how many were added.
func (l *Library) Seed(ctx context.Context, recipes []Recipe) (int, error) {
	existing, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	added, err := l.AddMany(ctx, recipes)
	if err != nil {
		return 0, err
	}
	return len(added), nil
}
