package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lessonbook-server-go/models"
)

type memoryEvents struct {
	events  []models.Event
	nextID  int
	failAt  int // fail the n-th CreateEvent call when > 0
	creates int
}

func (m *memoryEvents) ListEvents(context.Context) ([]models.Event, error) {
	out := append([]models.Event(nil), m.events...)
	return out, nil
}

func (m *memoryEvents) EventExistsAt(_ context.Context, date, slot string) (bool, error) {
	for _, ev := range m.events {
		if ev.Date == date && ev.Time == slot {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryEvents) CreateEvent(_ context.Context, e models.Event) (*models.Event, error) {
	m.creates++
	if m.failAt > 0 && m.creates == m.failAt {
		return nil, errors.New("write failed")
	}
	m.nextID++
	e.ID = fmt.Sprintf("new-%d", m.nextID)
	m.events = append(m.events, e)
	return &e, nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func dates(events []models.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Date+" "+ev.Time)
	}
	sort.Strings(out)
	return out
}

func TestWeekWindow(t *testing.T) {
	// 2024-05-15 is a Wednesday
	start, end := WeekWindow(mustDate(t, "2024-05-15"))
	require.Equal(t, "2024-05-12", start.Format(dateLayout))
	require.Equal(t, "2024-05-18", end.Format(dateLayout))

	start, end = WeekWindow(mustDate(t, "2024-05-12"))
	require.Equal(t, "2024-05-12", start.Format(dateLayout))
	require.Equal(t, "2024-05-18", end.Format(dateLayout))

	// window spanning a month and year boundary
	start, end = WeekWindow(mustDate(t, "2025-01-01"))
	require.Equal(t, "2024-12-29", start.Format(dateLayout))
	require.Equal(t, "2025-01-04", end.Format(dateLayout))
}

func TestWeekOffsetDays(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"2024-05-15", "2024-05-22", 7},
		{"2024-05-15", "2024-05-25", 7},
		{"2024-05-15", "2024-05-28", 7},
		{"2024-05-15", "2024-05-29", 14},
		{"2024-05-15", "2024-05-15", 0},
		{"2024-05-15", "2024-05-10", -7},
		{"2024-03-05", "2024-04-02", 28}, // crosses a DST change in many zones
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, WeekOffsetDays(mustDate(t, tc.from), mustDate(t, tc.to)), "%s -> %s", tc.from, tc.to)
	}
}

func TestMonthDiffAndShift(t *testing.T) {
	require.Equal(t, 1, MonthDiff(mustDate(t, "2024-01-10"), mustDate(t, "2024-02-01")))
	require.Equal(t, 13, MonthDiff(mustDate(t, "2024-01-10"), mustDate(t, "2025-02-28")))
	require.Equal(t, -2, MonthDiff(mustDate(t, "2024-03-10"), mustDate(t, "2024-01-31")))

	got, ok := ShiftMonths(mustDate(t, "2024-01-15"), 1)
	require.True(t, ok)
	require.Equal(t, "2024-02-15", got.Format(dateLayout))

	got, ok = ShiftMonths(mustDate(t, "2024-01-31"), 1)
	require.False(t, ok)
	require.Equal(t, "2024-03-02", got.Format(dateLayout))

	_, ok = ShiftMonths(mustDate(t, "2024-03-31"), 1)
	require.False(t, ok)

	got, ok = ShiftMonths(mustDate(t, "2024-12-31"), 1)
	require.True(t, ok)
	require.Equal(t, "2025-01-31", got.Format(dateLayout))
}

func TestCopyWeek(t *testing.T) {
	store := &memoryEvents{events: []models.Event{
		{ID: "1", Date: "2024-05-12", Time: "10:00", StudentID: "s1", Notes: "algebra"},
		{ID: "2", Date: "2024-05-15", Time: "15:00", StudentID: "s2"},
		{ID: "3", Date: "2024-05-18", Time: "09:00", StudentID: "s1"},
		{ID: "4", Date: "2024-05-19", Time: "09:00", StudentID: "s1"}, // next week
		{ID: "5", Date: "2024-05-11", Time: "09:00", StudentID: "s1"}, // previous week
	}}
	c := NewCopier(store, zap.NewNop())
	ctx := context.Background()

	created, err := c.Copy(ctx, CopyWeek, mustDate(t, "2024-05-15"), mustDate(t, "2024-05-24"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-05-19 10:00", "2024-05-22 15:00", "2024-05-25 09:00"}, dates(created))
	for _, ev := range created {
		if ev.Date == "2024-05-19" {
			require.Equal(t, "s1", ev.StudentID)
			require.Equal(t, "algebra", ev.Notes)
		}
	}
	total := len(store.events)

	again, err := c.Copy(ctx, CopyWeek, mustDate(t, "2024-05-15"), mustDate(t, "2024-05-24"))
	require.NoError(t, err)
	require.Empty(t, again)
	require.Len(t, store.events, total)
}

func TestCopyWeekSkipsOccupiedSlot(t *testing.T) {
	store := &memoryEvents{events: []models.Event{
		{ID: "1", Date: "2024-05-13", Time: "10:00", StudentID: "s1"},
		{ID: "2", Date: "2024-05-20", Time: "10:00", StudentID: "s9"},
	}}
	created, err := NewCopier(store, zap.NewNop()).Copy(context.Background(), CopyWeek, mustDate(t, "2024-05-13"), mustDate(t, "2024-05-20"))
	require.NoError(t, err)
	require.Empty(t, created)
}

func TestCopyMonthDropsOverflow(t *testing.T) {
	store := &memoryEvents{events: []models.Event{
		{ID: "1", Date: "2024-01-15", Time: "10:00", StudentID: "s1"},
		{ID: "2", Date: "2024-01-31", Time: "10:00", StudentID: "s1"},
		{ID: "3", Date: "2024-01-30", Time: "11:00", StudentID: "s2"},
		{ID: "4", Date: "2024-02-02", Time: "11:00", StudentID: "s2"},
	}}
	created, err := NewCopier(store, zap.NewNop()).Copy(context.Background(), CopyMonth, mustDate(t, "2024-01-01"), mustDate(t, "2024-02-10"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-02-15 10:00"}, dates(created))
}

func TestCopyMonthIntoThirtyDayMonth(t *testing.T) {
	store := &memoryEvents{events: []models.Event{
		{ID: "1", Date: "2024-03-31", Time: "10:00", StudentID: "s1"},
		{ID: "2", Date: "2024-03-30", Time: "10:00", StudentID: "s1"},
	}}
	created, err := NewCopier(store, zap.NewNop()).Copy(context.Background(), CopyMonth, mustDate(t, "2024-03-05"), mustDate(t, "2024-04-05"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-04-30 10:00"}, dates(created))
}

func TestCopyUnknownType(t *testing.T) {
	_, err := NewCopier(&memoryEvents{}, zap.NewNop()).Copy(context.Background(), "year", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrUnknownCopyType)
}

func TestCopyPartialFailureKeepsEarlierInserts(t *testing.T) {
	store := &memoryEvents{
		events: []models.Event{
			{ID: "1", Date: "2024-05-13", Time: "10:00", StudentID: "s1"},
			{ID: "2", Date: "2024-05-14", Time: "10:00", StudentID: "s1"},
		},
		failAt: 2,
	}
	c := NewCopier(store, zap.NewNop())
	created, err := c.Copy(context.Background(), CopyWeek, mustDate(t, "2024-05-13"), mustDate(t, "2024-05-20"))
	require.Error(t, err)
	require.Len(t, created, 1)

	created, err = c.Copy(context.Background(), CopyWeek, mustDate(t, "2024-05-13"), mustDate(t, "2024-05-20"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-05-21 10:00"}, dates(created))
}
