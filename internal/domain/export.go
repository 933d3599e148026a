package domain

// ExportRow is a single row in the flat program export: one row per session,
// with hall and document fields repeated on every row.
//
// Tags carries canonical tag ids. Callers that need a joined string (e.g.
// CSV) should join with "|".
type ExportRow struct {
	// Document fields — repeated for every session.
	EventTitle string `json:"eventTitle"`
	EventDate  string `json:"eventDate"`
	Venue      string `json:"venue"`

	// Session fields.
	Hall    string   `json:"hall"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Title   string   `json:"title"`
	Speaker string   `json:"speaker,omitempty"`
	Role    string   `json:"role,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}
