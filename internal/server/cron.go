package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleCronWeekly(w http.ResponseWriter, r *http.Request) {
	plan, err := s.app.GenerateWeek(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Weekly meal plan generated",
		"weekStart":  plan.WeekStart,
		"mealsCount": len(plan.Meals),
	})
}

func (s *Server) handleCronReminder(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.SendReminder(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"sent":            res.Sent,
		"message":         res.Message,
		"unapprovedCount": res.Unapproved,
	})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Seed(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	usage, err := s.app.Usage(r.Context(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "usage": usage})
}
