package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkondratev/eventprog/internal/domain"
)

// GetPlan handles GET /api/plans/{userID}?gid=.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.Get(r.Context(), chi.URLParam(r, "userID"), s.gidParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// PutPlan handles PUT /api/plans/{userID}?gid= with body
// {"sessionIds": [...]}. The whole plan is replaced; session ids must
// resolve against the current program snapshot.
func (s *Server) PutPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionIDs []string `json:"sessionIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, "request body must be JSON with a sessionIds array")
		return
	}
	if req.SessionIDs == nil {
		req.SessionIDs = []string{}
	}

	plan, err := s.plans.Save(r.Context(), domain.Plan{
		UserID:     chi.URLParam(r, "userID"),
		SheetGID:   s.gidParam(r),
		SessionIDs: req.SessionIDs,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// GetPlanConflicts handles GET /api/plans/{userID}/conflicts?gid=,
// annotating every planned session with overlaps and hall-transition hints.
func (s *Server) GetPlanConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := s.plans.Conflicts(r.Context(), chi.URLParam(r, "userID"), s.gidParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conflicts)
}

// GetPlanCalendar handles GET /api/plans/{userID}/calendar.ics?gid=&date=.
func (s *Server) GetPlanCalendar(w http.ResponseWriter, r *http.Request) {
	ics, err := s.plans.Calendar(r.Context(), chi.URLParam(r, "userID"), s.gidParam(r), r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="plan.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}

// PostPlanShare handles POST /api/plans/{userID}/share?gid=, freezing the
// current plan under a new short code.
func (s *Server) PostPlanShare(w http.ResponseWriter, r *http.Request) {
	shared, err := s.plans.Share(r.Context(), chi.URLParam(r, "userID"), s.gidParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, shared)
}

// GetSharedPlan handles GET /api/shared/{code}.
func (s *Server) GetSharedPlan(w http.ResponseWriter, r *http.Request) {
	shared, err := s.plans.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, shared)
}

// GetStats handles GET /api/stats?gid=, reporting per-session plan counts
// for organizers, most popular first.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.plans.Stats(r.Context(), s.gidParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
