package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lessonbook-server-go/models"
)

// Repository maps the domain entities onto Store collections
type Repository struct {
	Store Store
	log   *zap.Logger
	now   func() time.Time
}

// NewRepository creates a Repository over any Store backend
func NewRepository(store Store, logger *zap.Logger) *Repository {
	return &Repository{Store: store, log: logger, now: time.Now}
}

// NewID returns a fresh document ID
func NewID() string {
	return uuid.NewString()
}

// withoutID converts v into document fields, dropping the "id" field since
// the document key already carries it.
func withoutID(v interface{}) (map[string]interface{}, error) {
	fields, err := ToFields(v)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

// --- Student Operations ---

func decodeStudent(doc Snapshot) (models.Student, error) {
	var s models.Student
	if err := doc.DataTo(&s); err != nil {
		return s, err
	}
	s.ID = doc.ID
	return s, nil
}

func decodeStudents(docs []Snapshot) ([]models.Student, error) {
	out := make([]models.Student, 0, len(docs))
	for _, doc := range docs {
		s, err := decodeStudent(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ListStudents returns all students ordered by name
func (r *Repository) ListStudents(ctx context.Context) ([]models.Student, error) {
	docs, err := r.Store.All(ctx, StudentsCollection)
	if err != nil {
		return nil, err
	}
	students, err := decodeStudents(docs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(students, func(i, j int) bool {
		return strings.ToLower(students[i].Name) < strings.ToLower(students[j].Name)
	})
	return students, nil
}

// GetStudent retrieves a student; ErrNotFound if absent
func (r *Repository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	doc, err := r.Store.Get(ctx, StudentsCollection, id)
	if err != nil {
		return nil, err
	}
	s, err := decodeStudent(*doc)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// StudentExists checks whether a student document exists
func (r *Repository) StudentExists(ctx context.Context, id string) (bool, error) {
	_, err := r.Store.Get(ctx, StudentsCollection, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateStudent writes the student with a zero paid-lesson counter and empty
// notes as one atomic commit.
func (r *Repository) CreateStudent(ctx context.Context, name string, rate float64) (*models.Student, error) {
	student := models.Student{ID: NewID(), Name: name, Rate: rate}
	fields, err := withoutID(student)
	if err != nil {
		return nil, err
	}
	err = r.Store.Commit(ctx, []Op{
		SetOp(StudentsCollection, student.ID, fields),
		SetOp(PaidLessonsCollection, student.ID, map[string]interface{}{"count": 0}),
		SetOp(StudentNotesCollection, student.ID, map[string]interface{}{"notes": ""}),
	})
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	r.log.Info("student created", zap.String("studentId", student.ID))
	return &student, nil
}

// UpdateStudent merges the given fields and returns the stored result
func (r *Repository) UpdateStudent(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error) {
	if err := r.Store.Update(ctx, StudentsCollection, id, fields); err != nil {
		return nil, err
	}
	return r.GetStudent(ctx, id)
}

// DeleteStudent removes the student, its counter, its notes and every event
// referencing it in one atomic commit. It returns the number of events removed.
func (r *Repository) DeleteStudent(ctx context.Context, id string) (int, error) {
	events, err := r.Store.Where(ctx, EventsCollection, Eq("studentId", id))
	if err != nil {
		return 0, err
	}
	ops := []Op{
		DeleteOp(StudentsCollection, id),
		DeleteOp(PaidLessonsCollection, id),
		DeleteOp(StudentNotesCollection, id),
	}
	for _, ev := range events {
		ops = append(ops, DeleteOp(EventsCollection, ev.ID))
	}
	if err := r.Store.Commit(ctx, ops); err != nil {
		return 0, fmt.Errorf("delete student %s: %w", id, err)
	}
	r.log.Info("student deleted", zap.String("studentId", id), zap.Int("events", len(events)))
	return len(events), nil
}

// SetAccessCode overwrites a student's access code
func (r *Repository) SetAccessCode(ctx context.Context, id, code string) error {
	return r.Store.Update(ctx, StudentsCollection, id, map[string]interface{}{"accessCode": code})
}

// FindStudentsByAccessCode returns every student holding the code, ordered by ID
func (r *Repository) FindStudentsByAccessCode(ctx context.Context, code string) ([]models.Student, error) {
	docs, err := r.Store.Where(ctx, StudentsCollection, Eq("accessCode", code))
	if err != nil {
		return nil, err
	}
	return decodeStudents(docs)
}

// --- Event Operations ---

func decodeEvent(doc Snapshot) (models.Event, error) {
	var e models.Event
	if err := doc.DataTo(&e); err != nil {
		return e, err
	}
	e.ID = doc.ID
	return e, nil
}

func decodeEvents(docs []Snapshot) ([]models.Event, error) {
	out := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeEvent(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// eventFields keeps studentId: events are queried by it.
func eventFields(e models.Event) map[string]interface{} {
	return map[string]interface{}{
		"date":      e.Date,
		"time":      e.Time,
		"studentId": e.StudentID,
		"notes":     e.Notes,
	}
}

// ListEvents returns all events ordered by date and time
func (r *Repository) ListEvents(ctx context.Context) ([]models.Event, error) {
	docs, err := r.Store.All(ctx, EventsCollection)
	if err != nil {
		return nil, err
	}
	return decodeEvents(docs)
}

// ListEventsByStudent returns the events of one student
func (r *Repository) ListEventsByStudent(ctx context.Context, studentID string) ([]models.Event, error) {
	docs, err := r.Store.Where(ctx, EventsCollection, Eq("studentId", studentID))
	if err != nil {
		return nil, err
	}
	return decodeEvents(docs)
}

// GetEvent retrieves an event; ErrNotFound if absent
func (r *Repository) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	doc, err := r.Store.Get(ctx, EventsCollection, id)
	if err != nil {
		return nil, err
	}
	e, err := decodeEvent(*doc)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent stores a new event under a fresh ID
func (r *Repository) CreateEvent(ctx context.Context, e models.Event) (*models.Event, error) {
	e.ID = NewID()
	if err := r.Store.Set(ctx, EventsCollection, e.ID, eventFields(e)); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &e, nil
}

// UpdateEvent merges the given fields and returns the stored result
func (r *Repository) UpdateEvent(ctx context.Context, id string, fields map[string]interface{}) (*models.Event, error) {
	if err := r.Store.Update(ctx, EventsCollection, id, fields); err != nil {
		return nil, err
	}
	return r.GetEvent(ctx, id)
}

func (r *Repository) DeleteEvent(ctx context.Context, id string) error {
	return r.Store.Delete(ctx, EventsCollection, id)
}

// EventExistsAt reports whether any event occupies the date and time slot
func (r *Repository) EventExistsAt(ctx context.Context, date, slot string) (bool, error) {
	docs, err := r.Store.Where(ctx, EventsCollection, Eq("date", date), Eq("time", slot))
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// --- Paid Lesson Operations ---

func decodePayment(doc Snapshot) (models.PaidLessons, error) {
	var p models.PaidLessons
	if err := doc.DataTo(&p); err != nil {
		return p, err
	}
	p.StudentID = doc.ID
	return p, nil
}

// ListPayments returns every paid-lesson counter
func (r *Repository) ListPayments(ctx context.Context) ([]models.PaidLessons, error) {
	docs, err := r.Store.All(ctx, PaidLessonsCollection)
	if err != nil {
		return nil, err
	}
	out := make([]models.PaidLessons, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePayment(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// GetPayment returns a student's counter, zero when none is stored yet
func (r *Repository) GetPayment(ctx context.Context, studentID string) (*models.PaidLessons, error) {
	doc, err := r.Store.Get(ctx, PaidLessonsCollection, studentID)
	if errors.Is(err, ErrNotFound) {
		return &models.PaidLessons{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, err
	}
	p, err := decodePayment(*doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPaidLessons overwrites the counter
func (r *Repository) SetPaidLessons(ctx context.Context, studentID string, count float64) (*models.PaidLessons, error) {
	if err := r.Store.Set(ctx, PaidLessonsCollection, studentID, map[string]interface{}{"count": count}); err != nil {
		return nil, err
	}
	return &models.PaidLessons{StudentID: studentID, Count: count}, nil
}

// AddPaidLessons atomically adds lessons to the counter
func (r *Repository) AddPaidLessons(ctx context.Context, studentID string, lessons float64) (*models.PaidLessons, error) {
	if err := r.Store.Increment(ctx, PaidLessonsCollection, studentID, "count", lessons); err != nil {
		return nil, err
	}
	return r.GetPayment(ctx, studentID)
}

// --- Note Operations ---

// ListNotes returns every student's notes
func (r *Repository) ListNotes(ctx context.Context) ([]models.StudentNotes, error) {
	docs, err := r.Store.All(ctx, StudentNotesCollection)
	if err != nil {
		return nil, err
	}
	out := make([]models.StudentNotes, 0, len(docs))
	for _, doc := range docs {
		var n models.StudentNotes
		if err := doc.DataTo(&n); err != nil {
			return nil, err
		}
		n.StudentID = doc.ID
		out = append(out, n)
	}
	return out, nil
}

// GetNotes returns a student's notes, empty when none are stored yet
func (r *Repository) GetNotes(ctx context.Context, studentID string) (*models.StudentNotes, error) {
	doc, err := r.Store.Get(ctx, StudentNotesCollection, studentID)
	if errors.Is(err, ErrNotFound) {
		return &models.StudentNotes{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, err
	}
	var n models.StudentNotes
	if err := doc.DataTo(&n); err != nil {
		return nil, err
	}
	n.StudentID = studentID
	return &n, nil
}

func (r *Repository) SetNotes(ctx context.Context, studentID, notes string) (*models.StudentNotes, error) {
	if err := r.Store.Set(ctx, StudentNotesCollection, studentID, map[string]interface{}{"notes": notes}); err != nil {
		return nil, err
	}
	return &models.StudentNotes{StudentID: studentID, Notes: notes}, nil
}

// --- Announcement Operations ---

// GetAnnouncement returns the current announcement; ErrNotFound if none
func (r *Repository) GetAnnouncement(ctx context.Context) (*models.Announcement, error) {
	doc, err := r.Store.Get(ctx, AnnouncementsCollection, CurrentAnnouncementID)
	if err != nil {
		return nil, err
	}
	var a models.Announcement
	if err := doc.DataTo(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetAnnouncement replaces the current announcement and stamps updatedAt
func (r *Repository) SetAnnouncement(ctx context.Context, a models.Announcement) (*models.Announcement, error) {
	a.UpdatedAt = r.now().UTC().Format(time.RFC3339)
	fields, err := ToFields(a)
	if err != nil {
		return nil, err
	}
	if err := r.Store.Set(ctx, AnnouncementsCollection, CurrentAnnouncementID, fields); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) DeleteAnnouncement(ctx context.Context) error {
	return r.Store.Delete(ctx, AnnouncementsCollection, CurrentAnnouncementID)
}

// --- Settings Operations ---

// GetSettings returns the app settings, defaults when none are stored
func (r *Repository) GetSettings(ctx context.Context) (*models.Settings, error) {
	doc, err := r.Store.Get(ctx, SettingsCollection, AppSettingsID)
	if errors.Is(err, ErrNotFound) {
		return &models.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s models.Settings
	if err := doc.DataTo(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) SetSettings(ctx context.Context, s models.Settings) (*models.Settings, error) {
	fields, err := ToFields(s)
	if err != nil {
		return nil, err
	}
	if err := r.Store.Set(ctx, SettingsCollection, AppSettingsID, fields); err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureSettings writes default settings when the document does not exist.
// It reports whether it seeded anything.
func (r *Repository) EnsureSettings(ctx context.Context) (bool, error) {
	_, err := r.Store.Get(ctx, SettingsCollection, AppSettingsID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := r.SetSettings(ctx, models.Settings{}); err != nil {
		return false, err
	}
	return true, nil
}
