package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkondratev/eventprog/internal/domain"
)

// Skip reasons recorded in Diagnostics. Matching is exact; renderers and
// debug tooling key on these strings.
const (
	SkipMissingTime     = "missing time"
	SkipEmptyContent    = "empty content"
	SkipNonPositiveSpan = "non-positive duration"
)

// Diagnostics tallies rows the scanner dropped, by reason. Skipping stays
// silent by default — hand-edited sheets are expected to contain stray and
// incomplete rows — but a caller may pass a Diagnostics sink via
// WithDiagnostics to observe the skips without changing that behavior.
type Diagnostics struct {
	Skipped map[string]int
}

func (d *Diagnostics) count(reason string) {
	if d == nil {
		return
	}
	if d.Skipped == nil {
		d.Skipped = make(map[string]int)
	}
	d.Skipped[reason]++
}

// Total returns the number of skipped rows across all reasons.
func (d *Diagnostics) Total() int {
	n := 0
	for _, v := range d.Skipped {
		n += v
	}
	return n
}

// ParseOption configures a single Parse call.
type ParseOption func(*parseOptions)

type parseOptions struct {
	diag *Diagnostics
}

// WithDiagnostics directs skip counts for one Parse call into d.
func WithDiagnostics(d *Diagnostics) ParseOption {
	return func(o *parseOptions) { o.diag = d }
}

// Parser turns raw 2-D grids into ProgramData snapshots. The zero value is
// not usable; construct with NewParser. A Parser is safe for concurrent use:
// it holds only the immutable tag set and a clock.
type Parser struct {
	tags *TagSet
	now  func() time.Time
}

// NewParser returns a Parser using the given tag vocabulary.
// A nil now falls back to time.Now.
func NewParser(tags *TagSet, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{tags: tags, now: now}
}

// Parse runs the full extraction pass: layout detection, session extraction,
// and the deterministic final sort. The returned snapshot is independent of
// the input grid and of any other snapshot; callers treat it as read-only.
//
// The only error is a structurally unusable grid (ErrTruncatedGrid).
// Per-cell and per-row problems are skipped silently.
func (p *Parser) Parse(grid [][]string, opts ...ParseOption) (domain.ProgramData, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	layout, err := DetectLayout(grid)
	if err != nil {
		return domain.ProgramData{}, err
	}

	halls := make([]domain.Hall, 0, len(layout.Halls))
	for _, h := range layout.Halls {
		halls = append(halls, domain.Hall{ID: h.ID(), Name: h.Name, Bullets: h.Bullets})
	}

	sessions := p.extractSessions(grid, layout, o.diag)
	sortSessions(sessions)

	return domain.ProgramData{
		Meta:     layout.Meta,
		Halls:    halls,
		Sessions: sessions,
		Now:      Clock(p.now()),
	}, nil
}

// extractSessions materializes sessions from every accepted hall block and
// every data row. A candidate row is dropped when either time fails to
// normalize, the content cell is empty, or the duration is not positive.
// Fully blank rows are ignored without being counted as skips.
func (p *Parser) extractSessions(grid [][]string, layout Layout, diag *Diagnostics) []domain.Session {
	var sessions []domain.Session

	for _, hall := range layout.Halls {
		c := hall.Col
		for r := dataRowOffset; r < len(grid); r++ {
			start := NormalizeTime(cellAt(grid, r, c))
			end := NormalizeTime(cellAt(grid, r, c+1))
			raw := cellAt(grid, r, c+2)

			if start == "" && end == "" && raw == "" {
				continue
			}
			if start == "" || end == "" {
				diag.count(SkipMissingTime)
				continue
			}
			if raw == "" {
				diag.count(SkipEmptyContent)
				continue
			}
			if Minutes(end) <= Minutes(start) {
				diag.count(SkipNonPositiveSpan)
				continue
			}

			clean, rawTags := ExtractTags(raw)
			talk := DecomposeCell(clean)
			canon, labels := p.canonicalizeAll(rawTags)

			sessions = append(sessions, domain.Session{
				ID:        sessionID(hall.Name, start, end, talk.Title, clean, raw),
				HallID:    hall.ID(),
				Hall:      hall.Name,
				Start:     start,
				End:       end,
				Title:     talk.Title,
				Speaker:   talk.Speaker,
				Role:      talk.Role,
				Desc:      talk.Description,
				Tags:      labels,
				TagsCanon: canon,
			})
		}
	}

	return sessions
}

// canonicalizeAll maps raw tag tokens through the vocabulary, deduplicating
// by canonical id while preserving source order.
func (p *Parser) canonicalizeAll(raw []string) (canon, labels []string) {
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		id := p.tags.Canonicalize(t)
		if seen[id] {
			continue
		}
		seen[id] = true
		canon = append(canon, id)
		labels = append(labels, p.tags.Label(id))
	}
	return canon, labels
}

// sessionID derives the composite session identifier. The last component
// falls back through title → cleaned text → raw cell so that untitled cells
// still get a distinct, deterministic id.
func sessionID(hall, start, end, title, clean, raw string) string {
	tail := title
	if tail == "" {
		tail = strings.TrimSpace(clean)
	}
	if tail == "" {
		tail = raw
	}
	return hall + "|" + start + "|" + end + "|" + tail
}

// sortSessions orders sessions by start time ascending, hall name ascending,
// giving deterministic output regardless of source row order.
func sortSessions(sessions []domain.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		si, sj := Minutes(sessions[i].Start), Minutes(sessions[j].Start)
		if si != sj {
			return si < sj
		}
		return sessions[i].Hall < sessions[j].Hall
	})
}

// Clock formats a wall-clock instant in the canonical "H:MM" form used for
// session times, for the snapshot's current-time marker.
func Clock(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
