package generator

import (
	"context"
	"strings"

	"meal-planner/internal/apperr"
	"meal-planner/internal/recipe"
)

// maxClipContent bounds the page text sent to the model.
const maxClipContent = 20000

// ClipRequest carries the cleaned text of a recipe page.
type ClipRequest struct {
	URL      string
	Content  string
	Audience recipe.Audience
}

type clipPromptData struct {
	URL     string
	Content string
}

// ExtractRecipe turns the text of a recipe web page into a recipe.
func (g *Generator) ExtractRecipe(ctx context.Context, req ClipRequest) (recipe.Recipe, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return recipe.Recipe{}, apperr.Validation("page has no text")
	}
	if len(content) > maxClipContent {
		content = content[:maxClipContent]
	}
	prompt, err := render(clipTmpl, clipPromptData{URL: req.URL, Content: content})
	if err != nil {
		return recipe.Recipe{}, err
	}

	var raw rawRecipe
	if err := g.complete(ctx, "RecipeClipper", prompt, &raw); err != nil {
		return recipe.Recipe{}, err
	}
	audience := req.Audience
	if audience == "" {
		audience = recipe.AudienceBoth
	}
	r, err := raw.toRecipe(audience)
	if err != nil {
		return recipe.Recipe{}, apperr.Generation(err, "no recipe found at %s", req.URL)
	}
	return r, nil
}
