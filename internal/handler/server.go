// Package handler implements the HTTP handlers for the event program API.
// All handlers are methods on Server; methods are split into domain-specific
// files (health.go, program.go, plan.go, export.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkondratev/eventprog/internal/domain"
	"github.com/pkondratev/eventprog/internal/render"
	"github.com/pkondratev/eventprog/internal/schedule"
	"github.com/pkondratev/eventprog/internal/service"
)

// ProgramServicer defines the program operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or the upstream sheet.
type ProgramServicer interface {
	Get(ctx context.Context, gid string, forceRefresh bool) (domain.ProgramData, error)
	Matrix(ctx context.Context, gid, tag string, forceRefresh bool) (schedule.Matrix, error)
	Sync(ctx context.Context, gids []string) error
	TagsFor(ctx context.Context, gid string) (map[string]string, error)
}

// PlanServicer defines the plan operations the handlers depend on.
type PlanServicer interface {
	Save(ctx context.Context, plan domain.Plan) (domain.Plan, error)
	Get(ctx context.Context, userID, sheetGID string) (domain.Plan, error)
	Conflicts(ctx context.Context, userID, sheetGID string) ([]service.SessionConflict, error)
	Share(ctx context.Context, userID, sheetGID string) (domain.SharedPlan, error)
	Resolve(ctx context.Context, code string) (domain.SharedPlan, error)
	Stats(ctx context.Context, sheetGID string) ([]domain.SessionStat, error)
	Calendar(ctx context.Context, userID, sheetGID, date string) (string, error)
}

// ExportServicer defines the export operations the handlers depend on.
type ExportServicer interface {
	Rows(ctx context.Context, sheetGID string) ([]domain.ExportRow, error)
	WriteCSV(w io.Writer, rows []domain.ExportRow) error
}

// PDFRenderer prints a page to PDF. In production this is render.PDF; tests
// substitute a stub to avoid launching a browser.
type PDFRenderer func(ctx context.Context, opts render.Options) ([]byte, error)

// ServerConfig carries the request-independent settings of the HTTP surface.
type ServerConfig struct {
	// DefaultGID is the sheet tab served when a request carries no ?gid.
	DefaultGID string

	// ProgramPageURL is the rendered program page printed by the PDF
	// endpoint. Empty disables PDF export.
	ProgramPageURL string

	// RenderPDF overrides the PDF renderer; nil uses render.PDF.
	RenderPDF PDFRenderer
}

// Server holds the handler dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	programs ProgramServicer
	plans    PlanServicer
	exports  ExportServicer
	cfg      ServerConfig
}

// NewServer constructs the Server with all its dependencies.
func NewServer(programs ProgramServicer, plans PlanServicer, exports ExportServicer, cfg ServerConfig) *Server {
	if cfg.DefaultGID == "" {
		cfg.DefaultGID = "0"
	}
	if cfg.RenderPDF == nil {
		cfg.RenderPDF = render.PDF
	}
	return &Server{programs: programs, plans: plans, exports: exports, cfg: cfg}
}

// Routes returns the chi router for the full API surface.
// Wire it in main.go via r.Mount("/", server.Routes()).
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api", func(r chi.Router) {
		r.Get("/program", s.GetProgram)
		r.Get("/program/matrix", s.GetProgramMatrix)
		r.Get("/program/pdf", s.GetProgramPDF)
		r.Post("/sync", s.PostSync)
		r.Get("/tags", s.GetTags)
		r.Get("/stats", s.GetStats)
		r.Get("/export", s.GetExport)

		r.Route("/plans/{userID}", func(r chi.Router) {
			r.Get("/", s.GetPlan)
			r.Put("/", s.PutPlan)
			r.Get("/conflicts", s.GetPlanConflicts)
			r.Get("/calendar.ics", s.GetPlanCalendar)
			r.Post("/share", s.PostPlanShare)
		})
		r.Get("/shared/{code}", s.GetSharedPlan)
	})

	return r
}

// gidParam resolves the sheet tab a request targets.
func (s *Server) gidParam(r *http.Request) string {
	if gid := r.URL.Query().Get("gid"); gid != "" {
		return gid
	}
	return s.cfg.DefaultGID
}

// refreshParam reports whether the request asked for a forced re-fetch.
func refreshParam(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	return v == "true" || v == "1"
}
