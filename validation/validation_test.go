package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStudentValid(t *testing.T) {
	cases := []map[string]interface{}{
		{"name": "A", "rate": float64(0)},
		{"name": strings.Repeat("x", 100), "rate": float64(100000)},
		{"name": "  Ann  ", "rate": 45.5},
		{"name": "Ünïcødé", "rate": 10},
	}
	for _, body := range cases {
		res := Student(body)
		require.True(t, res.Valid, "%v: %v", body, res.Errors)
		require.Empty(t, res.Errors)
	}
}

func TestStudentInvalidCountsEveryRule(t *testing.T) {
	cases := []struct {
		body map[string]interface{}
		want []string
	}{
		{map[string]interface{}{"name": "", "rate": 10.0}, []string{"Name is required"}},
		{map[string]interface{}{"name": "   ", "rate": 10.0}, []string{"Name is required"}},
		{map[string]interface{}{"name": strings.Repeat("x", 101), "rate": 10.0}, []string{"Name must be 100 characters or less"}},
		{map[string]interface{}{"name": "Ann", "rate": -1.0}, []string{"Rate must be a non-negative number"}},
		{map[string]interface{}{"name": "Ann", "rate": 100000.01}, []string{"Rate must not exceed 100000"}},
		{map[string]interface{}{"name": "Ann", "rate": "fifty"}, []string{"Rate must be a valid number"}},
		{map[string]interface{}{"name": "Ann"}, []string{"Rate is required"}},
		{map[string]interface{}{}, []string{"Name is required", "Rate is required"}},
		{map[string]interface{}{"name": "", "rate": -5.0}, []string{"Name is required", "Rate must be a non-negative number"}},
	}
	for _, tc := range cases {
		res := Student(tc.body)
		require.False(t, res.Valid)
		require.Equal(t, tc.want, res.Errors)
	}
}

func TestStudentUpdateOnlyChecksPresentFields(t *testing.T) {
	require.True(t, StudentUpdate(map[string]interface{}{}).Valid)
	require.True(t, StudentUpdate(map[string]interface{}{"rate": 20.0}).Valid)

	res := StudentUpdate(map[string]interface{}{"name": ""})
	require.Equal(t, []string{"Name is required"}, res.Errors)

	res = StudentUpdate(map[string]interface{}{"rate": -1.0})
	require.Equal(t, []string{"Rate must be a non-negative number"}, res.Errors)
}

func TestEvent(t *testing.T) {
	require.True(t, Event(map[string]interface{}{"date": "2024-05-01", "time": "10:00", "studentId": "s1"}).Valid)

	res := Event(map[string]interface{}{})
	require.Equal(t, []string{"Date is required", "Time is required", "Student ID is required"}, res.Errors)

	res = Event(map[string]interface{}{"date": "2024-13-01", "time": "10:00", "studentId": "s1"})
	require.Equal(t, []string{"Date must be a valid date (YYYY-MM-DD)"}, res.Errors)

	res = Event(map[string]interface{}{"date": "2024-05-01", "time": "10:00", "studentId": "s1", "notes": 4.0})
	require.Equal(t, []string{"Notes must be a string"}, res.Errors)

	require.True(t, EventUpdate(map[string]interface{}{"notes": "bring book"}).Valid)
	require.False(t, EventUpdate(map[string]interface{}{"time": ""}).Valid)
}

func TestCopyRequest(t *testing.T) {
	require.True(t, CopyRequest(map[string]interface{}{"copyType": "week", "fromDate": "2024-05-01", "toDate": "2024-05-08"}).Valid)
	require.True(t, CopyRequest(map[string]interface{}{"copyType": "month", "fromDate": "2024-05-01", "toDate": "2024-06-01"}).Valid)

	res := CopyRequest(map[string]interface{}{"copyType": "year", "fromDate": "2024-05-01", "toDate": "2024-06-01"})
	require.Equal(t, []string{"Copy type must be 'week' or 'month'"}, res.Errors)

	res = CopyRequest(map[string]interface{}{})
	require.Len(t, res.Errors, 3)
}

func TestPaymentsNotesAnnouncementsSettings(t *testing.T) {
	require.True(t, PaidCount(map[string]interface{}{"count": 0.0}).Valid)
	require.False(t, PaidCount(map[string]interface{}{"count": -1.0}).Valid)
	require.False(t, PaidCount(map[string]interface{}{"count": "3"}).Valid)
	require.Equal(t, []string{"Count must be a whole number"}, PaidCount(map[string]interface{}{"count": 2.5}).Errors)
	require.True(t, PaidCount(map[string]interface{}{"count": 12.0}).Valid)
	require.False(t, PaidCount(map[string]interface{}{}).Valid)

	require.True(t, PaidLessonsAdd(map[string]interface{}{"lessons": 4.0}).Valid)
	require.False(t, PaidLessonsAdd(map[string]interface{}{"lessons": 0.0}).Valid)
	require.Equal(t, []string{"Lessons must be a whole number"}, PaidLessonsAdd(map[string]interface{}{"lessons": 0.5}).Errors)

	require.True(t, Notes(map[string]interface{}{"notes": ""}).Valid)
	require.False(t, Notes(map[string]interface{}{}).Valid)

	require.True(t, Announcement(map[string]interface{}{"title": "Hi", "message": "Closed Monday"}).Valid)
	require.Len(t, Announcement(map[string]interface{}{"active": "yes"}).Errors, 3)

	require.True(t, Settings(map[string]interface{}{"isDarkMode": true}).Valid)
	require.False(t, Settings(map[string]interface{}{"isDarkMode": "true"}).Valid)
}
