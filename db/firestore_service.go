package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreService stores documents in Cloud Firestore
type FirestoreService struct {
	Client *firestore.Client
}

func NewFirestoreService(client *firestore.Client) *FirestoreService {
	return &FirestoreService{Client: client}
}

// InitializeFirestoreClient builds a Firestore client through the Firebase
// Admin SDK. An inline JSON credential wins over a credentials file; with
// neither, application default credentials are used.
func InitializeFirestoreClient(ctx context.Context, projectID, credsFile, credsJSON string) (*firestore.Client, error) {
	var opts []option.ClientOption
	switch {
	case credsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	case credsFile != "":
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firestore: %w", err)
	}
	return client, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *FirestoreService) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	doc, err := s.Client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s from Firestore: %w", collection, id, err)
	}
	return &Snapshot{ID: doc.Ref.ID, Data: doc.Data()}, nil
}

func (s *FirestoreService) All(ctx context.Context, collection string) ([]Snapshot, error) {
	return s.collect(s.Client.Collection(collection).Documents(ctx), collection)
}

func (s *FirestoreService) Where(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	q := s.Client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	return s.collect(q.Documents(ctx), collection)
}

func (s *FirestoreService) collect(iter *firestore.DocumentIterator, collection string) ([]Snapshot, error) {
	defer iter.Stop()
	docs := make([]Snapshot, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from Firestore: %w", collection, err)
		}
		docs = append(docs, Snapshot{ID: doc.Ref.ID, Data: doc.Data()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *FirestoreService) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if _, err := s.Client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set %s/%s in Firestore: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreService) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, err := s.Client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update %s/%s in Firestore: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreService) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.Client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s from Firestore: %w", collection, id, err)
	}
	return nil
}

// Commit runs all ops in one transaction. Firestore caps a transaction at
// 500 writes.
func (s *FirestoreService) Commit(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range ops {
			ref := s.Client.Collection(op.Collection).Doc(op.ID)
			if op.Data == nil {
				if err := tx.Delete(ref); err != nil {
					return err
				}
				continue
			}
			if err := tx.Set(ref, op.Data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit %d ops to Firestore: %w", len(ops), err)
	}
	return nil
}

func (s *FirestoreService) Increment(ctx context.Context, collection, id, field string, delta float64) error {
	_, err := s.Client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}{
		field: firestore.Increment(delta),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to increment %s/%s.%s in Firestore: %w", collection, id, field, err)
	}
	return nil
}

func (s *FirestoreService) Close() error {
	return s.Client.Close()
}
