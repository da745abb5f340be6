package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tbourn/go-climb-backend/internal/docstore"
	"github.com/tbourn/go-climb-backend/internal/repo"
)

// ---------- test helpers ----------

func testStoreOptions() docstore.Options {
	return docstore.Options{
		OpTimeout:   5 * time.Second,
		MaxAttempts: 500,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

func newSQLStore(t *testing.T) docstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	s := docstore.NewSQLStore(db, "sqlite", testStoreOptions())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRedisStore(t *testing.T) docstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s := docstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "svc:", testStoreOptions())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, store docstore.Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLStore(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisStore(t)) })
}

// countingStore records every write that reaches the wrapped store, both
// direct and transactional.
type countingStore struct {
	docstore.Store
	reads  atomic.Int64
	writes atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	c.reads.Add(1)
	return c.Store.Get(ctx, path)
}

func (c *countingStore) Set(ctx context.Context, path string, data any) error {
	c.writes.Add(1)
	return c.Store.Set(ctx, path, data)
}

func (c *countingStore) Update(ctx context.Context, path string, fields map[string]any) error {
	c.writes.Add(1)
	return c.Store.Update(ctx, path, fields)
}

func (c *countingStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	return c.Store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return fn(ctx, &countingTx{Tx: tx, c: c})
	})
}

type countingTx struct {
	docstore.Tx
	c *countingStore
}

func (t *countingTx) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	t.c.reads.Add(1)
	return t.Tx.Get(ctx, path)
}

func (t *countingTx) Set(path string, data any) error {
	t.c.writes.Add(1)
	return t.Tx.Set(path, data)
}

func (t *countingTx) Update(ctx context.Context, path string, fields map[string]any) error {
	t.c.writes.Add(1)
	return t.Tx.Update(ctx, path, fields)
}

// failingStore fails every call with err.
type failingStore struct {
	err   error
	calls atomic.Int64
}

func (f *failingStore) Get(context.Context, string) (*docstore.Snapshot, error) {
	f.calls.Add(1)
	return nil, f.err
}
func (f *failingStore) Set(context.Context, string, any) error {
	f.calls.Add(1)
	return f.err
}
func (f *failingStore) Update(context.Context, string, map[string]any) error {
	f.calls.Add(1)
	return f.err
}
func (f *failingStore) RunTransaction(context.Context, func(context.Context, docstore.Tx) error) error {
	f.calls.Add(1)
	return f.err
}
func (f *failingStore) Ping(context.Context) error { return f.err }
func (f *failingStore) Backend() string            { return "failing" }
func (f *failingStore) Close() error               { return nil }

func ptr[T any](v T) *T { return &v }
