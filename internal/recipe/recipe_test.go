package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/storage"
)

func TestEligibility(t *testing.T) {
	tests := []struct {
		name      string
		recipe    Recipe
		wantAdult bool
		wantKid   bool
	}{
		{"Unset", Recipe{}, true, false},
		{"UnsetKidFriendly", Recipe{KidFriendly: true}, true, true},
		{"Adults", Recipe{TargetAudience: AudienceAdults}, true, false},
		{"Kids", Recipe{TargetAudience: AudienceKids}, false, true},
		{"Both", Recipe{TargetAudience: AudienceBoth}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAdult, tt.recipe.AdultEligible())
			assert.Equal(t, tt.wantKid, tt.recipe.KidEligible())
		})
	}
}

func TestCategoryRank(t *testing.T) {
	assert.Equal(t, 0, CategoryProduce.Rank())
	assert.Equal(t, 5, CategoryOther.Rank())
	assert.Equal(t, len(Categories), Category("spices").Rank())
	assert.False(t, Category("spices").Valid())
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	orig := Recipe{
		Name:         "Soup",
		Ingredients:  []Ingredient{{Name: "carrot", Amount: "2"}},
		Instructions: []string{"boil"},
	}
	c := orig.Clone()
	c.Ingredients[0].Amount = "5"
	c.Instructions[0] = "simmer"

	assert.Equal(t, "2", orig.Ingredients[0].Amount)
	assert.Equal(t, "boil", orig.Instructions[0])
}

func TestSanitize(t *testing.T) {
	r := Recipe{
		Name:           "  Curry ",
		PrepTime:       -5,
		Servings:       0,
		TargetAudience: "Kids",
		Ingredients:    []Ingredient{{Name: "lentils", Category: "Pantry"}, {Name: "cumin", Category: "spices"}},
	}
	r.Sanitize()

	assert.Equal(t, "Curry", r.Name)
	assert.Equal(t, 0, r.PrepTime)
	assert.Equal(t, 4, r.Servings)
	assert.Equal(t, AudienceKids, r.TargetAudience)
	assert.Equal(t, CategoryPantry, r.Ingredients[0].Category)
	assert.Equal(t, CategoryOther, r.Ingredients[1].Category)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Recipe{Name: "Soup", Servings: 2}))
	assert.Error(t, Validate(Recipe{Servings: 2}))
	assert.Error(t, Validate(Recipe{Name: "Soup", Servings: 0}))
	assert.Error(t, Validate(Recipe{Name: "Soup", Servings: 1, Ingredients: []Ingredient{{Name: "x", Category: "spices"}}}))
	assert.Error(t, Validate(Recipe{Name: "Soup", Servings: 1, TargetAudience: "teens"}))
}

func TestDefaultRecipes(t *testing.T) {
	recipes, err := DefaultRecipes()
	require.NoError(t, err)
	require.Len(t, recipes, 6)

	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.Name)
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Ingredients)
	}
	assert.Equal(t, []string{
		"Butter Chicken",
		"Spaghetti and Meatballs",
		"Chicken Stir Fry",
		"Tacos",
		"Salmon with Roasted Vegetables",
		"Mac and Cheese",
	}, names)
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("CRUD", func(t *testing.T) {
		lib := NewLibrary(storage.NewMemoryStore(), zap.NewNop())

		list, err := lib.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		added, err := lib.Add(ctx, Recipe{Name: "Pho", Servings: 2})
		require.NoError(t, err)
		require.NotEmpty(t, added.ID)

		again, err := lib.Add(ctx, Recipe{ID: added.ID, Name: "Different"})
		require.NoError(t, err)
		assert.Equal(t, "Pho", again.Name)

		got, err := lib.Get(ctx, added.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pho", got.Name)

		name := "Beef Pho"
		updated, err := lib.Update(ctx, added.ID, Patch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Beef Pho", updated.Name)
		assert.Equal(t, 2, updated.Servings)

		zero := 0
		_, err = lib.Update(ctx, added.ID, Patch{Servings: &zero})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))

		require.NoError(t, lib.Delete(ctx, added.ID))
		_, err = lib.Get(ctx, added.ID)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
		assert.True(t, apperr.Is(lib.Delete(ctx, added.ID), apperr.CodeNotFound))
	})

	t.Run("LegacyFavoritesMoveIntoLibrary", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyFavorites, []Recipe{{ID: "fav-1", Name: "Lasagna", IsFavorite: true}}))
		lib := NewLibrary(store, zap.NewNop())

		list, err := lib.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		_, ok := store.Raw(storage.KeyRecipes)
		assert.True(t, ok)
	})

	t.Run("PromoteExistingAndNew", func(t *testing.T) {
		lib := NewLibrary(storage.NewMemoryStore(), zap.NewNop())
		existing, err := lib.Add(ctx, Recipe{Name: "Chili", Servings: 4})
		require.NoError(t, err)

		promoted, err := lib.Promote(ctx, existing)
		require.NoError(t, err)
		assert.True(t, promoted.IsFavorite)

		fresh, err := lib.Promote(ctx, Recipe{ID: "ai-7", Name: "Ramen", Servings: 2})
		require.NoError(t, err)
		assert.Equal(t, "ai-7", fresh.ID)

		favorites, err := lib.Favorites(ctx)
		require.NoError(t, err)
		assert.Len(t, favorites, 2)
	})

	t.Run("SeedOnlyWhenEmpty", func(t *testing.T) {
		lib := NewLibrary(storage.NewMemoryStore(), zap.NewNop())
		defaults, err := DefaultRecipes()
		require.NoError(t, err)

		n, err := lib.Seed(ctx, defaults)
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		n, err = lib.Seed(ctx, defaults)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		found, err := lib.FindByName(ctx, "tacos")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "default-4", found.ID)
	})
}
