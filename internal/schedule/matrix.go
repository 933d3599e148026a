package schedule

import (
	"sort"

	"github.com/pkondratev/eventprog/internal/domain"
)

// Cell is one slot×hall position in the layout matrix. Exactly one of three
// states holds: it anchors a session (Session set, Span ≥ 1), it is empty
// (Span 1, no session), or it is covered by the span of an anchor above it.
// Renderers must skip covered cells — the matrix is sparse, not dense.
type Cell struct {
	Session *domain.Session `json:"session,omitempty"`
	Span    int             `json:"span"`
	Covered bool            `json:"covered,omitempty"`
}

// Matrix is the time-by-hall layout for grid views. Rows index Slots (the
// ordered distinct start times of the input sessions), columns index Halls.
type Matrix struct {
	Slots []string      `json:"slots"`
	Halls []domain.Hall `json:"halls"`
	Cells [][]Cell      `json:"cells"`
}

// BuildMatrix computes the row-span layout for the given halls and sessions.
// Sessions may be a filtered subset of a program; the slot rows are derived
// from whatever is passed in. A session anchored at its start slot spans
// every following slot strictly before the earlier of its own end time and
// the next session's start in the same hall.
func BuildMatrix(halls []domain.Hall, sessions []domain.Session) Matrix {
	m := Matrix{
		Slots: distinctStarts(sessions),
		Halls: halls,
	}

	// Sessions grouped per hall by display name (the join key used by
	// renderers), ordered by start.
	byHall := make(map[string][]*domain.Session, len(halls))
	for i := range sessions {
		s := &sessions[i]
		byHall[s.Hall] = append(byHall[s.Hall], s)
	}
	for _, list := range byHall {
		sort.SliceStable(list, func(i, j int) bool {
			return Minutes(list[i].Start) < Minutes(list[j].Start)
		})
	}

	m.Cells = make([][]Cell, len(m.Slots))
	for row := range m.Cells {
		m.Cells[row] = make([]Cell, len(halls))
	}

	for row, slot := range m.Slots {
		for col, hall := range halls {
			if m.Cells[row][col].Covered {
				continue
			}

			list := byHall[hall.Name]
			idx := -1
			for i, s := range list {
				if s.Start == slot {
					idx = i
					break
				}
			}
			if idx < 0 {
				m.Cells[row][col] = Cell{Span: 1}
				continue
			}
			session := list[idx]

			// The span boundary is the session's own end, pulled in when
			// the hall's next session starts earlier.
			boundary := Minutes(session.End)
			if idx+1 < len(list) {
				if next := Minutes(list[idx+1].Start); next < boundary {
					boundary = next
				}
			}

			span := 1
			for t := row + 1; t < len(m.Slots) && Minutes(m.Slots[t]) < boundary; t++ {
				span++
			}
			for t := 1; t < span; t++ {
				m.Cells[row+t][col] = Cell{Covered: true}
			}

			m.Cells[row][col] = Cell{Session: session, Span: span}
		}
	}

	return m
}

// distinctStarts returns the unique session start times, ascending.
func distinctStarts(sessions []domain.Session) []string {
	seen := make(map[string]bool, len(sessions))
	var slots []string
	for _, s := range sessions {
		if !seen[s.Start] {
			seen[s.Start] = true
			slots = append(slots, s.Start)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return Minutes(slots[i]) < Minutes(slots[j])
	})
	return slots
}
