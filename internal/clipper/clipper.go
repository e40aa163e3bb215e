// Package clipper imports recipes from allow-listed recipe websites.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/generator"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
)

// Extractor turns page text into a recipe.
type Extractor interface {
	ExtractRecipe(ctx context.Context, req generator.ClipRequest) (recipe.Recipe, error)
}

// RecipeSaver stores imported recipes.
type RecipeSaver interface {
	Add(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error)
}

// SettingsSource provides the website allow-lists.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	extractor  Extractor
	library    RecipeSaver
	settings   SettingsSource
	logger     *zap.Logger
}

// NewClipper creates a new Clipper instance.
func NewClipper(extractor Extractor, library RecipeSaver, st SettingsSource, logger *zap.Logger) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		extractor:  extractor,
		library:    library,
		settings:   st,
		logger:     logger,
	}
}

// ClipURL fetches the page, extracts the recipe with the model and saves it to the library.
// The page's host must be on the audience's website allow-list when that list is not empty.
func (c *Clipper) ClipURL(ctx context.Context, rawURL string, audience recipe.Audience) (recipe.Recipe, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return recipe.Recipe{}, apperr.Validation("%q is not an http(s) URL", rawURL)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	st, err := c.settings.Get(ctx)
	if err != nil {
		return recipe.Recipe{}, err
	}
	allowed := allowList(st, audience)
	if len(allowed) > 0 && !hostAllowed(host, allowed) {
		return recipe.Recipe{}, apperr.Validation("%s is not one of the allowed recipe websites", host)
	}

	content, err := c.fetchAndCleanHTML(ctx, u.String())
	if err != nil {
		return recipe.Recipe{}, apperr.Generation(err, "failed to fetch %s", u.String())
	}

	r, err := c.extractor.ExtractRecipe(ctx, generator.ClipRequest{URL: u.String(), Content: content, Audience: audience})
	if err != nil {
		return recipe.Recipe{}, err
	}
	r.SourceWebsite = host

	saved, err := c.library.Add(ctx, r)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to save clipped recipe: %w", err)
	}
	c.logger.Info("clipped recipe", zap.String("name", saved.Name), zap.String("source", host))
	return saved, nil
}

func allowList(st settings.Settings, audience recipe.Audience) []string {
	switch audience {
	case recipe.AudienceAdults, recipe.AudienceKids:
		return st.WebsitesFor(audience)
	default:
		return append(append([]string{}, st.AdultRecipeWebsites...), st.KidsRecipeWebsites...)
	}
}

func hostAllowed(host string, allowed []string) bool {
	for _, site := range allowed {
		site = settings.NormalizeWebsite(site)
		if host == site || strings.HasSuffix(host, "."+site) {
			return true
		}
	}
	return false
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "meal-planner/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, header, footer, iframe, noscript, form, aside, .ads, #ads, .comments").Remove()

	var sb strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
