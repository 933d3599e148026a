package domain

import "time"

// Plan is a user-curated subset of a program's sessions.
// Identity is (UserID, SheetGID): one plan per user per program tab.
// SessionIDs reference sessions of the snapshot for that tab; they are
// validated against the current snapshot on save, but a later re-sync may
// orphan them — consumers must tolerate ids that no longer resolve.
type Plan struct {
	UserID     string    `json:"userId"`
	SheetGID   string    `json:"sheetGid"`
	SessionIDs []string  `json:"sessionIds"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SharedPlan is a frozen copy of a plan published under a short code.
// Unlike Plan it embeds the full session payload, so the share keeps working
// even after the source program is re-synced.
type SharedPlan struct {
	Code      string    `json:"code"`
	Sessions  []Session `json:"sessions"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStat reports how many saved plans include a given session.
// Produced for organizers by aggregating over all plans of one program tab.
type SessionStat struct {
	SessionID string `json:"sessionId"`
	PlanCount int    `json:"planCount"`
}

// Conflict annotates one planned session against the rest of a plan.
// Overlapping is set when another planned session overlaps in time (a hard
// conflict); TransitionTo is set when the immediately preceding planned
// session is in a different hall (an informational hint, not a conflict).
type Conflict struct {
	Overlapping  *Session `json:"overlapping,omitempty"`
	TransitionTo *Session `json:"transitionTo,omitempty"`
}
