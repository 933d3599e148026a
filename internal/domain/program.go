// Package domain contains the core data types for the event program service.
// This package has zero external dependencies and is imported by every other
// internal package (schedule, repo, service, handler).
package domain

// Hall is a venue/track that hosts a sequence of sessions.
// ID is the originating grid column index rendered as a string; it is unique
// within one parsed document but carries no stability promise across
// re-fetches if the source column layout changes.
type Hall struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Bullets []string `json:"bullets,omitempty"` // intro text for the venue
}

// Session is a single time-boxed agenda item within one hall.
// Start and End are canonical "H:MM" clock times; End is strictly later than
// Start (sessions violating this are dropped at parse time, never stored).
// Hall is denormalized from the owning Hall's Name because display code joins
// on it.
type Session struct {
	ID        string   `json:"id"`
	HallID    string   `json:"hallId"`
	Hall      string   `json:"hall"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Title     string   `json:"title"`
	Speaker   string   `json:"speaker,omitempty"`
	Role      string   `json:"role,omitempty"`
	Desc      string   `json:"desc,omitempty"`
	Tags      []string `json:"tags,omitempty"`      // display labels
	TagsCanon []string `json:"tagsCanon,omitempty"` // canonical tag ids
}

// Meta holds document-level metadata lifted from fixed header cells of the
// source grid (optionally overridden by a dedicated meta sheet).
type Meta struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Venue string `json:"venue"`
}

// ProgramData is the result of one parse pass: halls in source-column order
// and sessions sorted by start time ascending, hall name ascending.
// Callers treat it as a read-only snapshot; the whole value is replaced on
// re-fetch, never mutated in place.
type ProgramData struct {
	Meta     Meta      `json:"meta"`
	Halls    []Hall    `json:"halls"`
	Sessions []Session `json:"sessions"`
	// Now is the wall-clock time captured at parse, canonical "H:MM",
	// used by renderers for current-slot highlighting.
	Now string `json:"now"`
}

// SessionByID returns the session with the given id, or nil.
func (p *ProgramData) SessionByID(id string) *Session {
	for i := range p.Sessions {
		if p.Sessions[i].ID == id {
			return &p.Sessions[i]
		}
	}
	return nil
}
