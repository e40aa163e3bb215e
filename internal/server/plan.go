package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"meal-planner/internal/apperr"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
)

type planResponse struct {
	*planner.WeeklyPlan
	Locked   bool       `json:"locked"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

func (s *Server) viewPlan(plan *planner.WeeklyPlan) planResponse {
	res := planResponse{WeeklyPlan: plan, Locked: s.app.Planner.IsLocked(plan)}
	if deadline, err := planner.LockdownInstant(plan.WeekStart); err == nil {
		res.Deadline = &deadline
	}
	return res
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.CurrentPlan(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{WeeklyPlan: view.Plan, Locked: view.Locked, Deadline: view.Deadline})
}

type patchPlanRequest struct {
	ApproveAll     bool   `json:"approveAll"`
	Day            string `json:"day" validate:"required_without=ApproveAll"`
	Approved       *bool  `json:"approved"`
	ToggleFavorite bool   `json:"toggleFavorite"`
	TargetAudience string `json:"targetAudience" validate:"omitempty,oneof=adults kids"`
}

func (s *Server) handlePatchPlan(w http.ResponseWriter, r *http.Request) {
	var req patchPlanRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		plan *planner.WeeklyPlan
		err  error
	)
	switch {
	case req.ApproveAll:
		plan, err = s.app.Planner.ApproveAll(r.Context())
	case req.ToggleFavorite:
		if req.TargetAudience == "" {
			err = apperr.Validation("targetAudience is required")
			break
		}
		plan, _, err = s.app.ToggleFavorite(r.Context(), req.Day, recipe.Audience(req.TargetAudience))
	case req.Approved != nil:
		plan, err = s.app.Planner.ApproveMeal(r.Context(), req.Day, *req.Approved)
	default:
		err = apperr.Validation("no valid action specified")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPlan(plan))
}

type generatePlanRequest struct {
	WeekStart string `json:"weekStart" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if r.ContentLength != 0 {
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	plan, err := s.app.GeneratePlan(r.Context(), req.WeekStart)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPlan(plan))
}

type regenerateRequest struct {
	Day            string `json:"day" validate:"required"`
	TargetAudience string `json:"targetAudience" validate:"omitempty,oneof=adults kids both"`
}

func (s *Server) handleRegenerateMeal(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	audience := recipe.Audience(req.TargetAudience)
	if audience == "" {
		audience = recipe.AudienceAdults
	}
	plan, fresh, err := s.app.RegenerateMeal(r.Context(), req.Day, audience)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": s.viewPlan(plan), "newRecipe": fresh})
}

type replaceRecipeRequest struct {
	TargetAudience string        `json:"targetAudience" validate:"required,oneof=adults kids both"`
	Recipe         recipe.Recipe `json:"recipe"`
}

func (s *Server) handleReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	var req replaceRecipeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.app.Planner.ReplaceMealRecipe(r.Context(), chi.URLParam(r, "day"), recipe.Audience(req.TargetAudience), req.Recipe)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPlan(plan))
}

type setSharedRequest struct {
	Shared     *bool          `json:"shared" validate:"required"`
	KidsRecipe *recipe.Recipe `json:"kidsRecipe"`
}

func (s *Server) handleSetShared(w http.ResponseWriter, r *http.Request) {
	var req setSharedRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.app.Planner.SetSharedStatus(r.Context(), chi.URLParam(r, "day"), *req.Shared, req.KidsRecipe)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPlan(plan))
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.ShoppingList(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetPrep(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.CurrentPrep(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGeneratePrep(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.GeneratePrep(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type taskCompletionRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

func (s *Server) handleSetTaskCompletion(w http.ResponseWriter, r *http.Request) {
	var req taskCompletionRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.app.Planner.Current(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.app.Prep.SetTaskCompletion(r.Context(), plan.WeekStart, chi.URLParam(r, "taskID"), *req.Completed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePrep(w http.ResponseWriter, r *http.Request) {
	plan, err := s.app.Planner.Current(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.Prep.Delete(r.Context(), plan.WeekStart); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
