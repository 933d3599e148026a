package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pkondratev/eventprog/internal/render"
)

// GetProgram handles GET /api/program?gid=&refresh=.
// Serves the cached snapshot for the tab, re-syncing when stale or when
// refresh is set.
func (s *Server) GetProgram(w http.ResponseWriter, r *http.Request) {
	data, err := s.programs.Get(r.Context(), s.gidParam(r), refreshParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// GetProgramMatrix handles GET /api/program/matrix?gid=&tag=&refresh=.
// Returns the time-by-hall rowspan layout, optionally filtered to sessions
// carrying one canonical tag.
func (s *Server) GetProgramMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := s.programs.Matrix(r.Context(), s.gidParam(r), r.URL.Query().Get("tag"), refreshParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matrix)
}

// PostSync handles POST /api/sync with an optional body {"gids": [...]}.
// An empty or absent body re-syncs every configured tab.
func (s *Server) PostSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GIDs []string `json:"gids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		requestError(w, "request body must be JSON")
		return
	}

	if err := s.programs.Sync(r.Context(), req.GIDs); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTags handles GET /api/tags?gid=, returning the canonical tags present
// in the tab's program as an id → label map.
func (s *Server) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.programs.TagsFor(r.Context(), s.gidParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

// GetProgramPDF handles GET /api/program/pdf, printing the hosted program
// page to PDF via headless Chromium. Returns 503 when no program page is
// configured.
func (s *Server) GetProgramPDF(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ProgramPageURL == "" {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "pdf export is not configured")
		return
	}

	pdf, err := s.cfg.RenderPDF(r.Context(), render.Options{
		URL:       s.cfg.ProgramPageURL,
		Landscape: true,
	})
	if err != nil {
		respondError(w, http.StatusBadGateway, "render_failed", "program page could not be rendered")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="program.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
