// Package schedule replicates a week's or a month's lessons forward (or
// backward) to repeat a recurring schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"lessonbook-server-go/models"
)

const (
	CopyWeek  = "week"
	CopyMonth = "month"

	dateLayout = "2006-01-02"
)

var ErrUnknownCopyType = errors.New("copy type must be 'week' or 'month'")

// EventStore is the subset of the repository the copier needs.
type EventStore interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	EventExistsAt(ctx context.Context, date, slot string) (bool, error)
	CreateEvent(ctx context.Context, e models.Event) (*models.Event, error)
}

// Copier copies blocks of events by a whole-week or whole-month offset.
type Copier struct {
	events EventStore
	log    *zap.Logger
}

func NewCopier(events EventStore, logger *zap.Logger) *Copier {
	return &Copier{events: events, log: logger}
}

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// WeekWindow returns the Sunday on or before day and the Saturday after it.
func WeekWindow(day time.Time) (time.Time, time.Time) {
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return start, start.AddDate(0, 0, 6)
}

// WeekOffsetDays floors the day distance between from and to to whole weeks.
func WeekOffsetDays(from, to time.Time) int {
	dayDiff := int(math.Round(to.Sub(from).Hours() / 24))
	return int(math.Floor(float64(dayDiff)/7)) * 7
}

// MonthDiff counts calendar months from from to to.
func MonthDiff(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// ShiftMonths adds months to day with normal calendar overflow and reports
// whether the result still falls in the expected month. Overflowed dates
// (the 31st into a 30-day month) are not clamped.
func ShiftMonths(day time.Time, months int) (time.Time, bool) {
	candidate := day.AddDate(0, months, 0)
	expected := time.Date(day.Year(), day.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	return candidate, candidate.Year() == expected.Year() && candidate.Month() == expected.Month()
}

// Plan computes the events a copy would create, before duplicate checks.
// Source events whose date cannot be parsed are left out.
func Plan(copyType string, from, to time.Time, events []models.Event) ([]models.Event, error) {
	var planned []models.Event
	switch copyType {
	case CopyWeek:
		start, end := WeekWindow(from)
		startKey, endKey := start.Format(dateLayout), end.Format(dateLayout)
		offset := WeekOffsetDays(from, to)
		for _, ev := range events {
			if ev.Date < startKey || ev.Date > endKey {
				continue
			}
			day, err := ParseDate(ev.Date)
			if err != nil {
				continue
			}
			planned = append(planned, retarget(ev, day.AddDate(0, 0, offset)))
		}
	case CopyMonth:
		prefix := from.Format("2006-01")
		months := MonthDiff(from, to)
		for _, ev := range events {
			if !strings.HasPrefix(ev.Date, prefix) {
				continue
			}
			day, err := ParseDate(ev.Date)
			if err != nil {
				continue
			}
			target, ok := ShiftMonths(day, months)
			if !ok {
				continue
			}
			planned = append(planned, retarget(ev, target))
		}
	default:
		return nil, ErrUnknownCopyType
	}
	return planned, nil
}

func retarget(ev models.Event, day time.Time) models.Event {
	return models.Event{
		Date:      day.Format(dateLayout),
		Time:      ev.Time,
		StudentID: ev.StudentID,
		Notes:     ev.Notes,
	}
}

// Copy inserts the planned events one at a time, skipping any whose date and
// time slot is already taken. It returns only newly created events. A failure
// part way leaves earlier inserts in place; re-running is safe.
func (c *Copier) Copy(ctx context.Context, copyType string, from, to time.Time) ([]models.Event, error) {
	events, err := c.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	planned, err := Plan(copyType, from, to, events)
	if err != nil {
		return nil, err
	}

	created := make([]models.Event, 0, len(planned))
	for _, ev := range planned {
		taken, err := c.events.EventExistsAt(ctx, ev.Date, ev.Time)
		if err != nil {
			return created, fmt.Errorf("check slot %s %s: %w", ev.Date, ev.Time, err)
		}
		if taken {
			continue
		}
		saved, err := c.events.CreateEvent(ctx, ev)
		if err != nil {
			return created, fmt.Errorf("copy event to %s %s: %w", ev.Date, ev.Time, err)
		}
		created = append(created, *saved)
	}

	c.log.Info("events copied",
		zap.String("copyType", copyType),
		zap.String("fromDate", from.Format(dateLayout)),
		zap.String("toDate", to.Format(dateLayout)),
		zap.Int("planned", len(planned)),
		zap.Int("created", len(created)),
	)
	return created, nil
}
