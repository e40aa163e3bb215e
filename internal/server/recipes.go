package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"meal-planner/internal/recipe"
)

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	var (
		recipes []recipe.Recipe
		err     error
	)
	if fav, _ := strconv.ParseBool(r.URL.Query().Get("favorites")); fav {
		recipes, err = s.app.Recipes.Favorites(r.Context())
	} else {
		recipes, err = s.app.Recipes.List(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *Server) handleAddRecipe(w http.ResponseWriter, r *http.Request) {
	var in recipe.Recipe
	if err := s.decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.app.Recipes.Add(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	found, err := s.app.Recipes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var patch recipe.Patch
	if err := s.decode(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.app.Recipes.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Recipes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type searchRequest struct {
	Query string `json:"query" validate:"required"`
}

func (s *Server) handleSearchRecipes(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.app.SearchRecipes(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": results})
}

type importRequest struct {
	URL            string `json:"url" validate:"required,url"`
	TargetAudience string `json:"targetAudience" validate:"omitempty,oneof=adults kids both"`
}

func (s *Server) handleImportRecipe(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	audience := recipe.Audience(req.TargetAudience)
	if audience == "" {
		audience = recipe.AudienceBoth
	}
	saved, err := s.app.Clipper.ClipURL(r.Context(), req.URL, audience)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
