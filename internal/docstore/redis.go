package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Hash fields of a stored document.
const (
	fieldData    = "data"
	fieldVersion = "version"
	fieldUpdated = "updated"
)

// RedisStore keeps each document in a Redis hash at prefix+path.
// Transactions WATCH every key they read and commit with MULTI/EXEC; EXEC
// aborting (redis.TxFailedErr) is reported as ErrConflict.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   Options
}

// NewRedisStore wraps client. Every document key is prefix+path.
func NewRedisStore(client *redis.Client, prefix string, opts Options) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, opts: opts.withDefaults()}
}

func (s *RedisStore) Backend() string { return "redis" }

func (s *RedisStore) key(path string) string { return s.prefix + path }

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (s *RedisStore) load(ctx context.Context, r hashReader, path string) (*Snapshot, error) {
	vals, err := r.HGetAll(ctx, s.key(path)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return missing(path), nil
	}
	version, _ := strconv.ParseInt(vals[fieldVersion], 10, 64)
	var updated time.Time
	if n, err := strconv.ParseInt(vals[fieldUpdated], 10, 64); err == nil {
		updated = time.Unix(0, n).UTC()
	}
	return newSnapshot(path, []byte(vals[fieldData]), version, updated)
}

func (s *RedisStore) Get(ctx context.Context, path string) (*Snapshot, error) {
	if err := ValidateDocPath(path); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	return s.load(ctx, s.client, path)
}

func (s *RedisStore) Set(ctx context.Context, path string, data any) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}
	b, err := encodeObject(data)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.queueWrite(ctx, pipe, path, b)
		return nil
	})
	return err
}

func (s *RedisStore) queueWrite(ctx context.Context, pipe redis.Pipeliner, path string, data []byte) {
	key := s.key(path)
	pipe.HSet(ctx, key, fieldData, string(data), fieldUpdated, strconv.FormatInt(time.Now().UTC().UnixNano(), 10))
	pipe.HIncrBy(ctx, key, fieldVersion, 1)
}

func (s *RedisStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return updateIn(ctx, s, path, fields)
}

func (s *RedisStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return runAttempts(ctx, s.Backend(), s.opts, func(ctx context.Context) error {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			st := newTxState(func(ctx context.Context, path string) (*Snapshot, error) {
				if err := rtx.Watch(ctx, s.key(path)).Err(); err != nil {
					return nil, err
				}
				return s.load(ctx, rtx, path)
			})
			if err := fn(ctx, st); err != nil {
				return err
			}
			if len(st.writes) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, w := range st.writes {
					s.queueWrite(ctx, pipe, w.path, w.data)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	})
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }
