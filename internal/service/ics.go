package service

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pkondratev/eventprog/internal/domain"
	"github.com/pkondratev/eventprog/internal/schedule"
)

// calendarProdID identifies this service as the ICS producer.
const calendarProdID = "-//eventprog//program//EN"

// metaDateLayouts are the accepted spellings of the program date in document
// metadata, tried in order when no explicit date is supplied.
var metaDateLayouts = []string{"2006-01-02", "02.01.2006", "2 January 2006"}

// Calendar renders a user's plan as an iCalendar document. Session times are
// clock-only, so they are anchored to a calendar date: the explicit date
// argument ("2006-01-02") when given, the program's metadata date otherwise.
// Returns domain.ErrValidation when no usable date is available.
func (s *PlanService) Calendar(ctx context.Context, userID, sheetGID, date string) (string, error) {
	sessions, err := s.resolvePlan(ctx, userID, sheetGID)
	if err != nil {
		return "", fmt.Errorf("service.PlanService.Calendar: %w", err)
	}

	program, err := s.programs.Get(ctx, sheetGID, false)
	if err != nil {
		return "", fmt.Errorf("service.PlanService.Calendar: %w", err)
	}

	day, err := calendarDay(date, program.Meta)
	if err != nil {
		return "", err
	}

	return buildCalendar(program.Meta, sessions, day), nil
}

// calendarDay resolves the date the plan's clock times are anchored to.
func calendarDay(date string, meta domain.Meta) (time.Time, error) {
	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			return time.Time{}, domain.Validationf("invalid date %q, want YYYY-MM-DD", date)
		}
		return day, nil
	}
	for _, layout := range metaDateLayouts {
		if day, err := time.ParseInLocation(layout, meta.Date, time.UTC); err == nil {
			return day, nil
		}
	}
	return time.Time{}, domain.Validationf("program date %q is not parseable, pass ?date=YYYY-MM-DD", meta.Date)
}

// buildCalendar emits one VEVENT per planned session. Sheet times carry no
// timezone, so they are exported as wall-clock times on the anchor day.
func buildCalendar(meta domain.Meta, sessions []domain.Session, day time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProdID)
	if meta.Title != "" {
		cal.SetName(meta.Title)
	}

	stamp := time.Now().UTC()
	for _, session := range sessions {
		event := cal.AddEvent(session.ID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(clockOn(day, session.Start))
		event.SetEndAt(clockOn(day, session.End))
		event.SetSummary(session.Title)
		event.SetLocation(session.Hall)
		if desc := eventDescription(session); desc != "" {
			event.SetDescription(desc)
		}
	}

	return cal.Serialize()
}

// clockOn places a canonical "H:MM" clock time on the given day.
func clockOn(day time.Time, clock string) time.Time {
	mins := schedule.Minutes(clock)
	return day.Add(time.Duration(mins) * time.Minute)
}

func eventDescription(session domain.Session) string {
	switch {
	case session.Speaker != "" && session.Role != "":
		return session.Speaker + " — " + session.Role
	case session.Speaker != "":
		return session.Speaker
	default:
		return session.Desc
	}
}
