package handler

import "net/http"

// GetExport handles GET /api/export?gid=&format=json|csv, the flat
// one-row-per-session export. The default format is json.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.exports.Rows(r.Context(), s.gidParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		respondJSON(w, http.StatusOK, rows)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="program.csv"`)
		w.WriteHeader(http.StatusOK)
		_ = s.exports.WriteCSV(w, rows)
	default:
		requestError(w, "format must be json or csv")
	}
}
