package settings

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/apperr"
	"meal-planner/internal/recipe"
	"meal-planner/internal/storage"
)

// Store reads and mutates the single settings record.
// Every mutator is a whole-record read-modify-write; the last writer wins.
type Store struct {
	kv     storage.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewStore creates a settings Store.
func NewStore(kv storage.Store, logger *zap.Logger) *Store {
	return &Store{kv: kv, now: time.Now, logger: logger}
}

// WithClock replaces the clock used to stamp not-recommended entries.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Get returns the settings with defaults applied, persisting a legacy migration once.
func (s *Store) Get(ctx context.Context) (Settings, error) {
	var rec Record
	found, err := s.kv.Get(ctx, storage.KeySettings, &rec)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !found {
		return Defaults().withViews(), nil
	}

	rec, migrated := Migrate(rec)
	settings := MergeDefaults(rec)
	if migrated {
		s.logger.Info("migrated legacy settings to split adult/kids lists")
		if err := s.put(ctx, settings); err != nil {
			return Settings{}, err
		}
	}
	return settings, nil
}

func (s Settings) withViews() Settings {
	s.deriveLegacyViews()
	return s
}

func (s *Store) put(ctx context.Context, settings Settings) error {
	if err := s.kv.Set(ctx, storage.KeySettings, settings.ToRecord()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, mutate func(*Settings) error) (Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if err := mutate(&settings); err != nil {
		return Settings{}, err
	}
	settings.deriveLegacyViews()
	if err := s.put(ctx, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Save replaces the whole record. A client that only sends the legacy
// preferredCuisines/recipeWebsites lists has them applied to both audiences.
func (s *Store) Save(ctx context.Context, in Settings) (Settings, error) {
	if in.AdultCuisines == nil && in.KidsCuisines == nil && in.PreferredCuisines != nil {
		in.AdultCuisines = append([]string{}, in.PreferredCuisines...)
		in.KidsCuisines = append([]string{}, in.PreferredCuisines...)
	}
	if in.AdultRecipeWebsites == nil && in.KidsRecipeWebsites == nil && in.RecipeWebsites != nil {
		in.AdultRecipeWebsites = append([]string{}, in.RecipeWebsites...)
		in.KidsRecipeWebsites = append([]string{}, in.RecipeWebsites...)
	}

	out := MergeDefaults(in.ToRecord())
	out.Exclusions = normalizeAll(out.Exclusions, NormalizeExclusion)
	out.AdultRecipeWebsites = normalizeAll(out.AdultRecipeWebsites, NormalizeWebsite)
	out.KidsRecipeWebsites = normalizeAll(out.KidsRecipeWebsites, NormalizeWebsite)
	out.deriveLegacyViews()

	if err := s.put(ctx, out); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// Reset restores the defaults.
func (s *Store) Reset(ctx context.Context) (Settings, error) {
	return s.Save(ctx, Defaults())
}

func normalizeAll(items []string, norm func(string) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		n := norm(item)
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// AddExclusion adds an ingredient to the exclusion set.
func (s *Store) AddExclusion(ctx context.Context, item string) (Settings, error) {
	normalized := NormalizeExclusion(item)
	if normalized == "" {
		return Settings{}, apperr.Validation("exclusion must not be empty")
	}
	return s.update(ctx, func(st *Settings) error {
		if !slices.Contains(st.Exclusions, normalized) {
			st.Exclusions = append(st.Exclusions, normalized)
		}
		return nil
	})
}

// RemoveExclusion removes an ingredient from the exclusion set.
func (s *Store) RemoveExclusion(ctx context.Context, item string) (Settings, error) {
	normalized := NormalizeExclusion(item)
	return s.update(ctx, func(st *Settings) error {
		st.Exclusions = slices.DeleteFunc(st.Exclusions, func(e string) bool { return e == normalized })
		return nil
	})
}

// SetCuisines replaces the ordered cuisine list of an audience. Both sets the two lists.
func (s *Store) SetCuisines(ctx context.Context, audience recipe.Audience, cuisines []string) (Settings, error) {
	cleaned := make([]string, 0, len(cuisines))
	for _, c := range cuisines {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && !slices.Contains(cleaned, c) {
			cleaned = append(cleaned, c)
		}
	}
	return s.update(ctx, func(st *Settings) error {
		switch audience {
		case recipe.AudienceAdults:
			st.AdultCuisines = cleaned
		case recipe.AudienceKids:
			st.KidsCuisines = append([]string{}, cleaned...)
		case recipe.AudienceBoth:
			st.AdultCuisines = cleaned
			st.KidsCuisines = append([]string{}, cleaned...)
		default:
			return apperr.Validation("unknown audience %q", audience)
		}
		return nil
	})
}

// SetAdultCuisines replaces the adult cuisine list.
func (s *Store) SetAdultCuisines(ctx context.Context, cuisines []string) (Settings, error) {
	return s.SetCuisines(ctx, recipe.AudienceAdults, cuisines)
}

// SetKidsCuisines replaces the kids cuisine list.
func (s *Store) SetKidsCuisines(ctx context.Context, cuisines []string) (Settings, error) {
	return s.SetCuisines(ctx, recipe.AudienceKids, cuisines)
}

// SetPreferredCuisines is the legacy single-list setter; it writes both audiences.
func (s *Store) SetPreferredCuisines(ctx context.Context, cuisines []string) (Settings, error) {
	return s.SetCuisines(ctx, recipe.AudienceBoth, cuisines)
}

// SetRecipeWebsites replaces an audience's allow-list.
func (s *Store) SetRecipeWebsites(ctx context.Context, audience recipe.Audience, sites []string) (Settings, error) {
	cleaned := make([]string, 0, len(sites))
	for _, site := range sites {
		if n := NormalizeWebsite(site); n != "" && !slices.Contains(cleaned, n) {
			cleaned = append(cleaned, n)
		}
	}
	return s.update(ctx, func(st *Settings) error {
		switch audience {
		case recipe.AudienceAdults:
			st.AdultRecipeWebsites = cleaned
		case recipe.AudienceKids:
			st.KidsRecipeWebsites = append([]string{}, cleaned...)
		case recipe.AudienceBoth:
			st.AdultRecipeWebsites = cleaned
			st.KidsRecipeWebsites = append([]string{}, cleaned...)
		default:
			return apperr.Validation("unknown audience %q", audience)
		}
		return nil
	})
}

// AddRecipeWebsite adds a site to an audience's allow-list.
func (s *Store) AddRecipeWebsite(ctx context.Context, audience recipe.Audience, site string) (Settings, error) {
	normalized := NormalizeWebsite(site)
	if normalized == "" {
		return Settings{}, apperr.Validation("website must not be empty")
	}
	add := func(list []string) []string {
		if slices.Contains(list, normalized) {
			return list
		}
		return append(list, normalized)
	}
	return s.update(ctx, func(st *Settings) error {
		switch audience {
		case recipe.AudienceAdults:
			st.AdultRecipeWebsites = add(st.AdultRecipeWebsites)
		case recipe.AudienceKids:
			st.KidsRecipeWebsites = add(st.KidsRecipeWebsites)
		case recipe.AudienceBoth:
			st.AdultRecipeWebsites = add(st.AdultRecipeWebsites)
			st.KidsRecipeWebsites = add(st.KidsRecipeWebsites)
		default:
			return apperr.Validation("unknown audience %q", audience)
		}
		return nil
	})
}

// RemoveRecipeWebsite removes a site from an audience's allow-list.
func (s *Store) RemoveRecipeWebsite(ctx context.Context, audience recipe.Audience, site string) (Settings, error) {
	normalized := NormalizeWebsite(site)
	remove := func(list []string) []string {
		return slices.DeleteFunc(list, func(w string) bool { return w == normalized })
	}
	return s.update(ctx, func(st *Settings) error {
		switch audience {
		case recipe.AudienceAdults:
			st.AdultRecipeWebsites = remove(st.AdultRecipeWebsites)
		case recipe.AudienceKids:
			st.KidsRecipeWebsites = remove(st.KidsRecipeWebsites)
		case recipe.AudienceBoth:
			st.AdultRecipeWebsites = remove(st.AdultRecipeWebsites)
			st.KidsRecipeWebsites = remove(st.KidsRecipeWebsites)
		default:
			return apperr.Validation("unknown audience %q", audience)
		}
		return nil
	})
}

// AIContextPatch updates only the non-nil fields.
type AIContextPatch struct {
	AdultPreferences *string `json:"adultPreferences"`
	KidsPreferences  *string `json:"kidsPreferences"`
	GeneralNotes     *string `json:"generalNotes"`
}

// UpdateAIContext applies a partial update to the free-text AI context.
func (s *Store) UpdateAIContext(ctx context.Context, patch AIContextPatch) (Settings, error) {
	return s.update(ctx, func(st *Settings) error {
		if patch.AdultPreferences != nil {
			st.AIContext.AdultPreferences = strings.TrimSpace(*patch.AdultPreferences)
		}
		if patch.KidsPreferences != nil {
			st.AIContext.KidsPreferences = strings.TrimSpace(*patch.KidsPreferences)
		}
		if patch.GeneralNotes != nil {
			st.AIContext.GeneralNotes = strings.TrimSpace(*patch.GeneralNotes)
		}
		return nil
	})
}

// SetVegetarianDays sets the weekly vegetarian quota, clamped to [0, 5].
func (s *Store) SetVegetarianDays(ctx context.Context, days int) (Settings, error) {
	return s.update(ctx, func(st *Settings) error {
		st.VegetarianDaysPerWeek = clampVegetarianDays(days)
		return nil
	})
}

// AddNotRecommended blocks a recipe name for an audience. Adding the same
// name (ignoring case) for the same audience twice keeps a single entry.
func (s *Store) AddNotRecommended(ctx context.Context, name string, audience recipe.Audience) (Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Settings{}, apperr.Validation("recipeName is required")
	}
	if audience != recipe.AudienceAdults && audience != recipe.AudienceKids {
		return Settings{}, apperr.Validation("audience must be adults or kids")
	}
	return s.update(ctx, func(st *Settings) error {
		if st.IsNotRecommended(name, audience) {
			return nil
		}
		st.NotRecommended = append(st.NotRecommended, NotRecommendedEntry{
			RecipeName: name,
			Audience:   audience,
			AddedAt:    s.now().UTC(),
		})
		return nil
	})
}

// RemoveNotRecommended unblocks a recipe name for an audience.
func (s *Store) RemoveNotRecommended(ctx context.Context, name string, audience recipe.Audience) (Settings, error) {
	if audience != recipe.AudienceAdults && audience != recipe.AudienceKids {
		return Settings{}, apperr.Validation("audience must be adults or kids")
	}
	return s.update(ctx, func(st *Settings) error {
		st.NotRecommended = slices.DeleteFunc(st.NotRecommended, func(e NotRecommendedEntry) bool {
			return e.Audience == audience && strings.EqualFold(e.RecipeName, name)
		})
		return nil
	})
}
