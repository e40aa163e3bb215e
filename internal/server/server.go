// Package server exposes the meal planner over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meal-planner/internal/app"
	"meal-planner/internal/apperr"
	"meal-planner/internal/auth"
	"meal-planner/internal/metrics"
)

// Server routes HTTP requests to the application.
type Server struct {
	app      *app.App
	auth     *auth.Authenticator
	gatherer prometheus.Gatherer
	dataPath string
	validate *validator.Validate
	logger   *zap.Logger
}

// Options configures a Server. Gatherer serves /metrics when set.
type Options struct {
	Auth     *auth.Authenticator
	Gatherer prometheus.Gatherer
	DataPath string
}

// New creates a Server.
func New(a *app.App, opts Options, logger *zap.Logger) *Server {
	return &Server{
		app:      a,
		auth:     opts.Auth,
		gatherer: opts.Gatherer,
		dataPath: opts.DataPath,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.app.Collector != nil {
		r.Use(s.app.Collector.Middleware)
	}

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(2 * time.Minute))

		r.Route("/plan", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Patch("/", s.handlePatchPlan)
			r.Post("/generate", s.handleGeneratePlan)
			r.Post("/regenerate", s.handleRegenerateMeal)
			r.Put("/meals/{day}/recipe", s.handleReplaceRecipe)
			r.Put("/meals/{day}/shared", s.handleSetShared)
			r.Post("/prep-suggestions", s.handleGeneratePrep)
		})

		r.Get("/shopping-list", s.handleShoppingList)

		r.Route("/prep", func(r chi.Router) {
			r.Get("/", s.handleGetPrep)
			r.Post("/generate", s.handleGeneratePrep)
			r.Patch("/tasks/{taskID}", s.handleSetTaskCompletion)
			r.Delete("/", s.handleDeletePrep)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handleListRecipes)
			r.Post("/", s.handleAddRecipe)
			r.Post("/search", s.handleSearchRecipes)
			r.Post("/import", s.handleImportRecipe)
			r.Get("/{id}", s.handleGetRecipe)
			r.Patch("/{id}", s.handleUpdateRecipe)
			r.Delete("/{id}", s.handleDeleteRecipe)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Post("/", s.handleAddSetting)
			r.Put("/", s.handleSaveSettings)
			r.Patch("/", s.handlePatchSettings)
			r.Delete("/", s.handleDeleteSetting)
		})

		r.Route("/not-recommended", func(r chi.Router) {
			r.Get("/", s.handleListNotRecommended)
			r.Post("/", s.handleAddNotRecommended)
			r.Delete("/", s.handleRemoveNotRecommended)
		})

		r.Group(func(r chi.Router) {
			if s.auth != nil {
				r.Use(s.auth.Middleware)
			}
			r.Get("/cron/weekly", s.handleCronWeekly)
			r.Get("/cron/reminder", s.handleCronReminder)
			r.Post("/init", s.handleInit)
			r.Get("/usage", s.handleUsage)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"system": metrics.GetSysHealth(s.dataPath),
	})
}

// decode reads a JSON body into v and runs struct validation.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body: %v", err)
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation("%s", validationMessage(verrs[0]))
		}
		return apperr.Validation("%v", err)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}
	switch fe.Tag() {
	case "required", "required_without", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps application errors to their HTTP status. Anything unclassified is a 500
// whose details only reach the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.As(err); ok {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("requestId", chimiddleware.GetReqID(r.Context())),
				zap.Error(err))
		}
		writeJSON(w, status, errorResponse{Error: appErr.Message, Code: string(appErr.Code)})
		return
	}
	s.logger.Error("unexpected error",
		zap.String("path", r.URL.Path),
		zap.String("requestId", chimiddleware.GetReqID(r.Context())),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
}
