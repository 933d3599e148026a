package schedule

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pkondratev/eventprog/internal/domain"
)

// Grid geometry of the hand-maintained source sheets.
// Rows 0–2 are the header block (hall names, hall intro bullets, venue);
// the first column of those rows doubles as document metadata.
const (
	dataRowOffset = 3  // first row that can hold session data
	sampleWindow  = 40 // data rows sampled per candidate column
	minTripleHits = 2  // sampled rows that must look like a column-triple
)

// ErrTruncatedGrid is returned when the grid is too short to contain the
// fixed header block. This is the only structural failure of the scanner;
// everything below the header degrades to silent per-row skips.
var ErrTruncatedGrid = errors.New("schedule: grid shorter than header block")

// HallSpan is one detected column-triple: the start-time column, followed by
// the end-time column and the content column.
type HallSpan struct {
	Col     int // index of the start-time column
	Name    string
	Bullets []string
}

// ID returns the hall's stable-within-one-parse identifier, the originating
// column index as a string.
func (h HallSpan) ID() string {
	return strconv.Itoa(h.Col)
}

// Layout is the detected column structure of a raw grid: document metadata
// from the fixed header cells plus the hall column-triples, in source order.
// Detection is separate from row extraction so each phase can be tested on
// its own.
type Layout struct {
	Meta  domain.Meta
	Halls []HallSpan
}

// DetectLayout scans the raw grid for hall column-triples.
//
// A candidate start column c is accepted when, within a bounded sample of
// data rows, at least minTripleHits rows carry a normalizable time in c,
// a normalizable time in c+1, and non-empty text in c+2. Accepting a triple
// advances the scan past all three columns; rejection advances by one, which
// tolerates the irregular spacing and merged columns of hand-edited sheets.
func DetectLayout(grid [][]string) (Layout, error) {
	if len(grid) < dataRowOffset {
		return Layout{}, ErrTruncatedGrid
	}

	layout := Layout{
		Meta: domain.Meta{
			Title: cellAt(grid, 0, 0),
			Date:  cellAt(grid, 1, 0),
			Venue: cellAt(grid, 2, 0),
		},
	}

	width := gridWidth(grid)
	sampleEnd := len(grid)
	if sampleEnd > dataRowOffset+sampleWindow {
		sampleEnd = dataRowOffset + sampleWindow
	}

	for c := 0; c+2 < width; {
		hits := 0
		for r := dataRowOffset; r < sampleEnd; r++ {
			if NormalizeTime(cellAt(grid, r, c)) != "" &&
				NormalizeTime(cellAt(grid, r, c+1)) != "" &&
				cellAt(grid, r, c+2) != "" {
				hits++
			}
		}
		if hits < minTripleHits {
			c++
			continue
		}

		name := cellAt(grid, 0, c+2)
		if name == "" {
			name = "Hall " + strconv.Itoa(len(layout.Halls)+1)
		}
		layout.Halls = append(layout.Halls, HallSpan{
			Col:     c,
			Name:    name,
			Bullets: splitBullets(cellAt(grid, 1, c+2)),
		})
		c += 3
	}

	return layout, nil
}

// cellAt returns the trimmed cell value at (r, c), or "" when the grid is
// ragged and the coordinate does not exist.
func cellAt(grid [][]string, r, c int) string {
	if r >= len(grid) || c >= len(grid[r]) {
		return ""
	}
	return strings.TrimSpace(grid[r][c])
}

// gridWidth returns the widest row length. CSV decoding of merged-cell
// sheets produces ragged rows, so the header row alone is not authoritative.
func gridWidth(grid [][]string) int {
	w := 0
	for _, row := range grid {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// splitBullets breaks a hall's intro text into bullet strings. The bullet
// glyph is the primary separator; newlines are the fallback for sheets that
// use one line per bullet.
func splitBullets(s string) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
	if s == "" {
		return nil
	}
	var parts []string
	switch {
	case strings.Contains(s, "•"):
		parts = strings.Split(s, "•")
	case strings.Contains(s, "\n"):
		parts = strings.Split(s, "\n")
	default:
		return []string{s}
	}
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
