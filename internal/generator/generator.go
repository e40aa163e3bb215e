// Package generator turns household settings into prompts for the language model
// and parses its answers into recipes.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	_ "embed"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
	"meal-planner/internal/shared"
)

//go:embed recipe_prompt.md
var recipePrompt string

//go:embed week_prompt.md
var weekPrompt string

//go:embed search_prompt.md
var searchPrompt string

//go:embed prep_prompt.md
var prepPrompt string

//go:embed clip_prompt.md
var clipPrompt string

var templateFuncs = template.FuncMap{"join": strings.Join}

var (
	recipeTmpl = template.Must(template.New("recipe").Funcs(templateFuncs).Parse(recipePrompt))
	weekTmpl   = template.Must(template.New("week").Funcs(templateFuncs).Parse(weekPrompt))
	searchTmpl = template.Must(template.New("search").Funcs(templateFuncs).Parse(searchPrompt))
	prepTmpl   = template.Must(template.New("prep").Funcs(templateFuncs).Parse(prepPrompt))
	clipTmpl   = template.Must(template.New("clip").Funcs(templateFuncs).Parse(clipPrompt))
)

// Context is the slice of household settings every prompt is built from.
type Context struct {
	Exclusions            []string
	AdultCuisines         []string
	KidsCuisines          []string
	AdultWebsites         []string
	KidsWebsites          []string
	AdultPreferences      string
	KidsPreferences       string
	GeneralNotes          string
	AdultNotRecommended   []string
	KidsNotRecommended    []string
	VegetarianDaysPerWeek int
}

// ContextFromSettings extracts the generation context from settings.
func ContextFromSettings(s settings.Settings) Context {
	return Context{
		Exclusions:            s.Exclusions,
		AdultCuisines:         s.CuisinesFor(recipe.AudienceAdults),
		KidsCuisines:          s.CuisinesFor(recipe.AudienceKids),
		AdultWebsites:         s.WebsitesFor(recipe.AudienceAdults),
		KidsWebsites:          s.WebsitesFor(recipe.AudienceKids),
		AdultPreferences:      s.AIContext.AdultPreferences,
		KidsPreferences:       s.AIContext.KidsPreferences,
		GeneralNotes:          s.AIContext.GeneralNotes,
		AdultNotRecommended:   s.NotRecommendedNames(recipe.AudienceAdults),
		KidsNotRecommended:    s.NotRecommendedNames(recipe.AudienceKids),
		VegetarianDaysPerWeek: s.VegetarianDaysPerWeek,
	}
}

// Generator is the AI recipe generator.
type Generator struct {
	textGen  llm.TextGenerator
	recorder shared.AgentRecorder
	logger   *zap.Logger
}

// New creates a Generator.
func New(textGen llm.TextGenerator, logger *zap.Logger) *Generator {
	return &Generator{textGen: textGen, logger: logger}
}

// WithRecorder records the metadata of every model call.
func (g *Generator) WithRecorder(r shared.AgentRecorder) *Generator {
	g.recorder = r
	return g
}

// complete sends the prompt and decodes the JSON answer into v.
// Every failure is a GenerationError; nothing is retried.
func (g *Generator) complete(ctx context.Context, agent, prompt string, v any) error {
	start := time.Now()
	resp, err := g.textGen.GenerateContent(ctx, prompt)
	if err == nil {
		err = llm.DecodeJSON(resp.Content, v)
		if err != nil {
			g.logger.Warn("unparsable model response",
				zap.String("agent", agent),
				zap.Int("length", len(resp.Content)),
				zap.Error(err))
		}
	}

	if g.recorder != nil {
		g.recorder.RecordAgent(shared.NewAgentMeta(agent, resp.Usage, start), err)
	}
	if err != nil {
		return apperr.Generation(err, "%s failed", agent)
	}
	return nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
