package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkondratev/eventprog/internal/domain"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"event_title", "event_date", "venue",
	"hall", "start", "end", "title", "speaker", "role", "tags",
}

// ExportService assembles flat exports of one program tab.
type ExportService struct {
	programs ProgramGetter
}

// NewExportService constructs an ExportService backed by the provided
// program source.
func NewExportService(programs ProgramGetter) *ExportService {
	return &ExportService{programs: programs}
}

// Rows returns one ExportRow per session of the tab, in snapshot order
// (start time ascending, hall ascending). Document fields are repeated on
// every row. Always returns a non-nil slice.
func (s *ExportService) Rows(ctx context.Context, sheetGID string) ([]domain.ExportRow, error) {
	program, err := s.programs.Get(ctx, sheetGID, false)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Rows: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(program.Sessions))
	for _, session := range program.Sessions {
		rows = append(rows, domain.ExportRow{
			EventTitle: program.Meta.Title,
			EventDate:  program.Meta.Date,
			Venue:      program.Meta.Venue,
			Hall:       session.Hall,
			Start:      session.Start,
			End:        session.End,
			Title:      session.Title,
			Speaker:    session.Speaker,
			Role:       session.Role,
			Tags:       session.TagsCanon,
		})
	}
	return rows, nil
}

// WriteCSV streams rows as CSV with a header line. Multi-valued tags are
// joined with "|" so the cell stays a single CSV field.
func (s *ExportService) WriteCSV(w io.Writer, rows []domain.ExportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.EventTitle, r.EventDate, r.Venue,
			r.Hall, r.Start, r.End, r.Title, r.Speaker, r.Role,
			strings.Join(r.Tags, "|"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("service.ExportService.WriteCSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	return nil
}
