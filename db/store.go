package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Collection names
const (
	StudentsCollection      = "students"
	EventsCollection        = "events"
	PaidLessonsCollection   = "paidLessons"
	StudentNotesCollection  = "studentNotes"
	AnnouncementsCollection = "announcements"
	SettingsCollection      = "settings"

	CurrentAnnouncementID = "current"
	AppSettingsID         = "appSettings"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Snapshot is one stored document.
type Snapshot struct {
	ID   string
	Data map[string]interface{}
}

// DataTo decodes the document fields into dst using its json tags.
func (s Snapshot) DataTo(dst interface{}) error {
	raw, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document %s: %w", s.ID, err)
	}
	return nil
}

// Filter is a field equality condition.
type Filter struct {
	Field string
	Value interface{}
}

// Eq builds an equality filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

// Op is one write inside an atomic Commit. A nil Data means delete.
type Op struct {
	Collection string
	ID         string
	Data       map[string]interface{}
}

func SetOp(collection, id string, data map[string]interface{}) Op {
	return Op{Collection: collection, ID: id, Data: data}
}

func DeleteOp(collection, id string) Op {
	return Op{Collection: collection, ID: id}
}

// Store is a schemaless document database grouped into named collections.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	All(ctx context.Context, collection string) ([]Snapshot, error)
	Where(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error)
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Update merges fields into an existing document; ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	// Commit applies all ops atomically.
	Commit(ctx context.Context, ops []Op) error
	// Increment adds delta to a numeric field, creating the document if needed.
	Increment(ctx context.Context, collection, id, field string, delta float64) error
	Close() error
}

// ToFields converts a json-tagged struct into a document field map.
func ToFields(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// normalize maps a value onto its JSON-decoded form so that values read back
// from the store compare equal to values supplied by callers.
func normalize(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func matches(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		got, ok := data[f.Field]
		if !ok || !reflect.DeepEqual(normalize(got), normalize(f.Value)) {
			return false
		}
	}
	return true
}
