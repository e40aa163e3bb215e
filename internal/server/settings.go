package server

import (
	"net/http"

	"meal-planner/internal/apperr"
	"meal-planner/internal/recipe"
	"meal-planner/internal/settings"
)

func audienceOrBoth(s string) (recipe.Audience, error) {
	if s == "" {
		return recipe.AudienceBoth, nil
	}
	a, err := recipe.ParseAudience(s)
	if err != nil {
		return "", apperr.Validation("%v", err)
	}
	return a, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.app.Settings.Save(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type addSettingRequest struct {
	Exclusion     string `json:"exclusion"`
	RecipeWebsite string `json:"recipeWebsite"`
	Audience      string `json:"audience" validate:"omitempty,oneof=adults kids both"`
}

func (s *Server) handleAddSetting(w http.ResponseWriter, r *http.Request) {
	var req addSettingRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		st  settings.Settings
		err error
	)
	switch {
	case req.Exclusion != "":
		st, err = s.app.Settings.AddExclusion(r.Context(), req.Exclusion)
	case req.RecipeWebsite != "":
		audience, _ := audienceOrBoth(req.Audience)
		st, err = s.app.Settings.AddRecipeWebsite(r.Context(), audience, req.RecipeWebsite)
	default:
		err = apperr.Validation("exclusion or recipeWebsite is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		st  settings.Settings
		err error
	)
	switch {
	case q.Get("exclusion") != "":
		st, err = s.app.Settings.RemoveExclusion(r.Context(), q.Get("exclusion"))
	case q.Get("recipeWebsite") != "":
		var audience recipe.Audience
		if audience, err = audienceOrBoth(q.Get("audience")); err == nil {
			st, err = s.app.Settings.RemoveRecipeWebsite(r.Context(), audience, q.Get("recipeWebsite"))
		}
	case q.Get("reset") == "true":
		st, err = s.app.Settings.Reset(r.Context())
	default:
		err = apperr.Validation("exclusion or recipeWebsite is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type patchSettingsRequest struct {
	AIContext             *settings.AIContextPatch `json:"aiContext"`
	PreferredCuisines     *[]string                `json:"preferredCuisines"`
	AdultCuisines         *[]string                `json:"adultCuisines"`
	KidsCuisines          *[]string                `json:"kidsCuisines"`
	VegetarianDaysPerWeek *int                     `json:"vegetarianDaysPerWeek"`
	AdultRecipeWebsites   *[]string                `json:"adultRecipeWebsites"`
	KidsRecipeWebsites    *[]string                `json:"kidsRecipeWebsites"`
}

// handlePatchSettings applies the first field present in the body.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var req patchSettingsRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	var (
		st  settings.Settings
		err error
	)
	switch {
	case req.AIContext != nil:
		st, err = s.app.Settings.UpdateAIContext(ctx, *req.AIContext)
	case req.PreferredCuisines != nil:
		st, err = s.app.Settings.SetPreferredCuisines(ctx, *req.PreferredCuisines)
	case req.AdultCuisines != nil:
		st, err = s.app.Settings.SetAdultCuisines(ctx, *req.AdultCuisines)
	case req.KidsCuisines != nil:
		st, err = s.app.Settings.SetKidsCuisines(ctx, *req.KidsCuisines)
	case req.VegetarianDaysPerWeek != nil:
		st, err = s.app.Settings.SetVegetarianDays(ctx, *req.VegetarianDaysPerWeek)
	case req.AdultRecipeWebsites != nil:
		st, err = s.app.Settings.SetRecipeWebsites(ctx, recipe.AudienceAdults, *req.AdultRecipeWebsites)
	case req.KidsRecipeWebsites != nil:
		st, err = s.app.Settings.SetRecipeWebsites(ctx, recipe.AudienceKids, *req.KidsRecipeWebsites)
	default:
		err = apperr.Validation("invalid request body")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListNotRecommended(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st.NotRecommended)
}

type notRecommendedRequest struct {
	RecipeName string `json:"recipeName" validate:"required"`
	Audience   string `json:"audience" validate:"required,oneof=adults kids"`
	Day        string `json:"day"`
}

func (s *Server) handleAddNotRecommended(w http.ResponseWriter, r *http.Request) {
	var req notRecommendedRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.MarkNotRecommended(r.Context(), req.RecipeName, recipe.Audience(req.Audience), req.Day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Plan == nil {
		writeJSON(w, http.StatusOK, map[string]any{"list": res.List})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"list": res.List, "plan": s.viewPlan(res.Plan)})
}

func (s *Server) handleRemoveNotRecommended(w http.ResponseWriter, r *http.Request) {
	var req notRecommendedRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.app.Settings.RemoveNotRecommended(r.Context(), req.RecipeName, recipe.Audience(req.Audience))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"list": st.NotRecommended})
}
