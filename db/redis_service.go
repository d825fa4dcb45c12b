package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Key layout:
//
//	{collection}       Set: all document IDs of the collection
//	{collection}:{id}  String: JSON encoded document fields
const maxWatchRetries = 10

// RedisService stores documents as JSON strings in Redis
type RedisService struct {
	Client *redis.Client
	log    *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, logger *zap.Logger) *RedisService {
	return &RedisService{Client: client, log: logger}
}

// Helper to generate the document key
func docKey(collection, id string) string {
	return collection + ":" + id
}

func decodeDoc(id, raw string) (*Snapshot, error) {
	data := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("corrupt document %s: %w", id, err)
	}
	return &Snapshot{ID: id, Data: data}, nil
}

// Get retrieves one document
func (s *RedisService) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	raw, err := s.Client.Get(ctx, docKey(collection, id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s from Redis: %w", collection, id, err)
	}
	return decodeDoc(id, raw)
}

// All retrieves every document of a collection, ordered by ID
func (s *RedisService) All(ctx context.Context, collection string) ([]Snapshot, error) {
	ids, err := s.Client.SMembers(ctx, collection).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get %s IDs from Redis: %w", collection, err)
	}
	if len(ids) == 0 {
		return []Snapshot{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	values, err := s.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s documents from Redis: %w", collection, err)
	}

	docs := make([]Snapshot, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// ID left in the set without a document; skip it
			continue
		}
		doc, err := decodeDoc(ids[i], raw)
		if err != nil {
			s.log.Warn("skipping unreadable document", zap.String("collection", collection), zap.Error(err))
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Where returns the documents whose fields equal every filter value.
// Redis has no secondary indexes here, so the collection is scanned.
func (s *RedisService) Where(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	docs, err := s.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0)
	for _, doc := range docs {
		if matches(doc.Data, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Set writes a whole document
func (s *RedisService) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	return s.Commit(ctx, []Op{SetOp(collection, id, data)})
}

// Update merges fields into an existing document using optimistic locking
func (s *RedisService) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	key := docKey(collection, id)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := decodeDoc(id, raw)
		if err != nil {
			return err
		}
		for k, v := range fields {
			doc.Data[k] = v
		}
		encoded, err := json.Marshal(doc.Data)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	})
}

// Delete removes a document; deleting a missing document is not an error
func (s *RedisService) Delete(ctx context.Context, collection, id string) error {
	return s.Commit(ctx, []Op{DeleteOp(collection, id)})
}

// Commit applies all ops inside one MULTI/EXEC block
func (s *RedisService) Commit(ctx context.Context, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	encoded := make([][]byte, len(ops))
	for i, op := range ops {
		if op.Data == nil {
			continue
		}
		raw, err := json.Marshal(op.Data)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", op.Collection, op.ID, err)
		}
		encoded[i] = raw
	}

	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, op := range ops {
			key := docKey(op.Collection, op.ID)
			if op.Data == nil {
				pipe.SRem(ctx, op.Collection, op.ID)
				pipe.Del(ctx, key)
				continue
			}
			pipe.SAdd(ctx, op.Collection, op.ID)
			pipe.Set(ctx, key, encoded[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit %d ops to Redis: %w", len(ops), err)
	}
	return nil
}

// Increment adds delta to a numeric field, creating the document when absent
func (s *RedisService) Increment(ctx context.Context, collection, id, field string, delta float64) error {
	key := docKey(collection, id)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		data := map[string]interface{}{}
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			doc, err := decodeDoc(id, raw)
			if err != nil {
				return err
			}
			data = doc.Data
		}
		current, _ := data[field].(float64)
		data[field] = current + delta
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, collection, id)
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	})
}

func (s *RedisService) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := s.Client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("redis transaction on %s: %w", key, err)
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s: too much contention", key)
}

// Close releases the Redis connection pool
func (s *RedisService) Close() error {
	return s.Client.Close()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}
