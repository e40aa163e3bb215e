package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
	"meal-planner/internal/shared"
)

type mockTextGen struct {
	responses []string
	err       error
	prompts   []string
}

func (m *mockTextGen) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return llm.ContentResponse{
		Content: resp,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "mock"},
	}, nil
}

type recordedCall struct {
	meta shared.AgentMeta
	err  error
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) RecordAgent(meta shared.AgentMeta, err error) {
	f.calls = append(f.calls, recordedCall{meta: meta, err: err})
}

const tacoJSON = `{
	"name": "Fish Tacos",
	"cuisine": "Mexican",
	"prepTime": "25",
	"servings": 4,
	"kidFriendly": false,
	"targetAudience": "adults",
	"sourceWebsite": "seriouseats.com",
	"ingredients": [
		{"name": "cod", "amount": 1.5, "unit": "lb", "category": "protein"},
		{"name": "cabbage", "amount": "2", "unit": "cups", "category": "Produce"},
		{"name": "chipotle", "amount": "1", "unit": "tbsp", "category": "spices"}
	],
	"instructions": ["Season fish", "Grill", "Assemble"]
}`

func testContext() Context {
	st := settings.Defaults()
	st.AdultCuisines = []string{"mexican", "thai"}
	st.KidsCuisines = []string{"italian"}
	st.AdultRecipeWebsites = []string{"seriouseats.com"}
	st.VegetarianDaysPerWeek = 2
	st.AIContext.KidsPreferences = "loves pasta"
	st.NotRecommended = []settings.NotRecommendedEntry{
		{RecipeName: "Liver and Onions", Audience: recipe.AudienceKids},
	}
	return ContextFromSettings(st)
}

func TestSuggestRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gen := &mockTextGen{responses: []string{"```json\n" + tacoJSON + "\n```"}}
		rec := &fakeRecorder{}
		g := New(gen, zap.NewNop()).WithRecorder(rec)

		r, err := g.SuggestRecipe(ctx, RecipeRequest{
			Audience:     recipe.AudienceAdults,
			Day:          "Tuesday",
			ExcludeNames: []string{"Chicken Stir Fry"},
			Context:      testContext(),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, "Fish Tacos", r.Name)
		assert.Equal(t, "mexican", r.Cuisine)
		assert.Equal(t, 25, r.PrepTime)
		assert.Equal(t, recipe.AudienceAdults, r.TargetAudience)
		require.Len(t, r.Ingredients, 3)
		assert.Equal(t, "1.5", r.Ingredients[0].Amount)
		assert.Equal(t, recipe.CategoryProduce, r.Ingredients[1].Category)
		assert.Equal(t, recipe.CategoryOther, r.Ingredients[2].Category)

		prompt := gen.prompts[0]
		assert.Contains(t, prompt, "beef, pork, shellfish")
		assert.Contains(t, prompt, "mexican, thai")
		assert.Contains(t, prompt, "Chicken Stir Fry")
		assert.Contains(t, prompt, "seriouseats.com")
		assert.Contains(t, prompt, "2 vegetarian dinners")
		assert.NotContains(t, prompt, "Liver and Onions")

		require.Len(t, rec.calls, 1)
		assert.Equal(t, "RecipeSuggester", rec.calls[0].meta.AgentName)
		assert.Equal(t, 100, rec.calls[0].meta.Usage.PromptTokens)
		assert.NoError(t, rec.calls[0].err)
	})

	t.Run("KidsPromptUsesKidsContext", func(t *testing.T) {
		gen := &mockTextGen{responses: []string{tacoJSON}}
		g := New(gen, zap.NewNop())

		r, err := g.SuggestRecipe(ctx, RecipeRequest{Audience: recipe.AudienceKids, Context: testContext()})
		require.NoError(t, err)
		assert.True(t, r.KidFriendly)

		prompt := gen.prompts[0]
		assert.Contains(t, prompt, "Liver and Onions")
		assert.Contains(t, prompt, "loves pasta")
		assert.Contains(t, prompt, "Kid friendly")
		assert.NotContains(t, prompt, "mexican, thai")
	})

	t.Run("UnparsableIsGenerationError", func(t *testing.T) {
		rec := &fakeRecorder{}
		g := New(&mockTextGen{responses: []string{"Sorry, I can't do that."}}, zap.NewNop()).WithRecorder(rec)

		_, err := g.SuggestRecipe(ctx, RecipeRequest{Audience: recipe.AudienceAdults})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.CodeGeneration))
		require.Len(t, rec.calls, 1)
		assert.Error(t, rec.calls[0].err)
	})

	t.Run("MissingNameIsGenerationError", func(t *testing.T) {
		g := New(&mockTextGen{responses: []string{`{"ingredients": [{"name": "rice"}]}`}}, zap.NewNop())
		_, err := g.SuggestRecipe(ctx, RecipeRequest{Audience: recipe.AudienceAdults})
		assert.True(t, apperr.Is(err, apperr.CodeGeneration))
	})

	t.Run("ModelFailure", func(t *testing.T) {
		g := New(&mockTextGen{err: errors.New("quota exceeded")}, zap.NewNop())
		_, err := g.SuggestRecipe(ctx, RecipeRequest{Audience: recipe.AudienceKids})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.CodeGeneration))
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("BadAudience", func(t *testing.T) {
		g := New(&mockTextGen{}, zap.NewNop())
		_, err := g.SuggestRecipe(ctx, RecipeRequest{Audience: recipe.AudienceBoth})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})
}

func weekResponse(days ...string) string {
	meals := make([]string, 0, len(days))
	for _, d := range days {
		meals = append(meals, `{"day": "`+d+`",
			"adultRecipe": {"name": "`+d+` Curry", "ingredients": [{"name": "rice", "amount": "1", "unit": "cup", "category": "pantry"}]},
			"kidsRecipe": {"name": "`+d+` Noodles", "ingredients": [{"name": "noodles", "amount": "1", "unit": "lb", "category": "pantry"}]}}`)
	}
	return `{"meals": [` + strings.Join(meals, ",") + `]}`
}

func TestSuggestWeek(t *testing.T) {
	ctx := context.Background()
	days := []DaySlot{
		{Day: "Monday", Date: "2025-03-03"},
		{Day: "Tuesday", Date: "2025-03-04"},
		{Day: "Wednesday", Date: "2025-03-05"},
	}

	t.Run("RequestOrder", func(t *testing.T) {
		gen := &mockTextGen{responses: []string{weekResponse("wednesday", "Monday", "Tuesday")}}
		g := New(gen, zap.NewNop())

		out, err := g.SuggestWeek(ctx, WeekRequest{WeekStart: "2025-03-03", Days: days, Context: testContext()})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "Monday", out[0].Day)
		assert.Equal(t, "Monday Curry", out[0].Adult.Name)
		assert.Equal(t, "Monday Noodles", out[0].Kids.Name)
		assert.Equal(t, "Wednesday", out[2].Day)
		assert.NotEqual(t, out[0].Adult.ID, out[0].Kids.ID)
		assert.Equal(t, recipe.AudienceKids, out[0].Kids.TargetAudience)

		prompt := gen.prompts[0]
		assert.Contains(t, prompt, "Tuesday (2025-03-04)")
		assert.Contains(t, prompt, "Exactly 2 of the days")
		assert.Contains(t, prompt, "Spread adult recipes across ALL of these websites")
	})

	t.Run("MissingDayFails", func(t *testing.T) {
		g := New(&mockTextGen{responses: []string{weekResponse("Monday", "Tuesday")}}, zap.NewNop())
		_, err := g.SuggestWeek(ctx, WeekRequest{Days: days})
		assert.True(t, apperr.Is(err, apperr.CodeGeneration))
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	resp := `{"recipes": [` + tacoJSON + `, {"name": ""}, ` + strings.Replace(tacoJSON, "Fish Tacos", "Shrimp Tacos", 1) + `]}`
	gen := &mockTextGen{responses: []string{resp}}
	g := New(gen, zap.NewNop())

	results, err := g.Search(ctx, "tacos", testContext())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Shrimp Tacos", results[1].Name)
	assert.Contains(t, gen.prompts[0], `"tacos"`)

	_, err = g.Search(ctx, "  ", testContext())
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestSuggestPrepTasks(t *testing.T) {
	ctx := context.Background()
	meals := []PrepMeal{
		{Day: "Monday", RecipeName: "Butter Chicken", Ingredients: []string{"1.5 lb chicken thighs", "1 large onion"}},
		{Day: "Monday (Kids)", RecipeName: "Mac and Cheese", Ingredients: []string{"1 lb elbow macaroni"}},
	}

	t.Run("Success", func(t *testing.T) {
		resp := `{"tasks": [
			{"category": "Protein-Prep", "prepDay": "saturday", "title": "Marinate chicken", "estimatedMinutes": "15", "linkedMealDays": ["Monday"]},
			{"category": "knife-work", "prepDay": "Sunday", "title": "Dice onion", "estimatedMinutes": 5.4},
			{"category": "other", "prepDay": "Sunday", "title": "  "}
		]}`
		gen := &mockTextGen{responses: []string{resp}}
		rec := &fakeRecorder{}
		g := New(gen, zap.NewNop()).WithRecorder(rec)

		tasks, err := g.SuggestPrepTasks(ctx, "2025-03-03", meals)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "protein-prep", tasks[0].Category)
		assert.Equal(t, "Saturday", tasks[0].PrepDay)
		assert.Equal(t, 15, tasks[0].Minutes())
		assert.Equal(t, "other", tasks[1].Category)
		assert.Equal(t, 5, tasks[1].Minutes())

		assert.Contains(t, gen.prompts[0], "Monday (Kids): Mac and Cheese")
		assert.Contains(t, gen.prompts[0], "1.5 lb chicken thighs")
		require.Len(t, rec.calls, 1)
		assert.Equal(t, "PrepPlanner", rec.calls[0].meta.AgentName)
	})

	t.Run("NoMeals", func(t *testing.T) {
		g := New(&mockTextGen{}, zap.NewNop())
		_, err := g.SuggestPrepTasks(ctx, "2025-03-03", nil)
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})

	t.Run("ModelFailure", func(t *testing.T) {
		rec := &fakeRecorder{}
		g := New(&mockTextGen{err: errors.New("rate limited")}, zap.NewNop()).WithRecorder(rec)
		_, err := g.SuggestPrepTasks(ctx, "2025-03-03", meals)
		assert.True(t, apperr.Is(err, apperr.CodeGeneration))
		require.Len(t, rec.calls, 1)
		assert.Error(t, rec.calls[0].err)
	})
}

func TestExtractRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gen := &mockTextGen{responses: []string{"Here you go:\n" + tacoJSON}}
		g := New(gen, zap.NewNop())

		r, err := g.ExtractRecipe(ctx, ClipRequest{URL: "https://www.seriouseats.com/fish-tacos", Content: "Fish tacos. Ingredients: cod..."})
		require.NoError(t, err)
		assert.Equal(t, "Fish Tacos", r.Name)
		assert.NotEmpty(t, r.ID)
		assert.Contains(t, gen.prompts[0], "https://www.seriouseats.com/fish-tacos")
		assert.Contains(t, gen.prompts[0], "Ingredients: cod")
	})

	t.Run("NoRecipeOnPage", func(t *testing.T) {
		g := New(&mockTextGen{responses: []string{`{"name": ""}`}}, zap.NewNop())
		_, err := g.ExtractRecipe(ctx, ClipRequest{URL: "https://example.com", Content: "About us"})
		assert.True(t, apperr.Is(err, apperr.CodeGeneration))
	})

	t.Run("EmptyPage", func(t *testing.T) {
		g := New(&mockTextGen{}, zap.NewNop())
		_, err := g.ExtractRecipe(ctx, ClipRequest{URL: "https://example.com", Content: " \n "})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})
}
