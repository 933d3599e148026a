package schedule

import "github.com/pkondratev/eventprog/internal/domain"

// Check evaluates a candidate session against a reference set of planned
// sessions. A time overlap (half-open interval test) is reported through
// Conflict.Overlapping; failing that, a hall change relative to the
// immediately preceding planned session is reported through
// Conflict.TransitionTo. A session already in the planned set is never
// conflicting with itself.
//
// The computation is pure and re-run on every query: plan sets are small and
// bounded by manual selection, so no conflict graph is cached.
func Check(candidate domain.Session, planned []domain.Session) domain.Conflict {
	var out domain.Conflict
	cs, ce := Minutes(candidate.Start), Minutes(candidate.End)

	for i := range planned {
		other := &planned[i]
		if other.ID == candidate.ID {
			continue
		}
		if cs < Minutes(other.End) && Minutes(other.Start) < ce {
			out.Overlapping = other
			return out
		}
	}

	// No overlap: look for the planned session that immediately precedes the
	// candidate. A different hall there means the attendee has to walk.
	var prev *domain.Session
	for i := range planned {
		other := &planned[i]
		if other.ID == candidate.ID {
			continue
		}
		if Minutes(other.Start) > cs {
			continue
		}
		if prev == nil || Minutes(other.Start) > Minutes(prev.Start) {
			prev = other
		}
	}
	if prev != nil && prev.Hall != candidate.Hall {
		out.TransitionTo = prev
	}

	return out
}

// AnnotatePlan runs Check for every member of a plan against the whole plan,
// returning one Conflict per session in input order.
func AnnotatePlan(planned []domain.Session) []domain.Conflict {
	out := make([]domain.Conflict, len(planned))
	for i := range planned {
		out[i] = Check(planned[i], planned)
	}
	return out
}
