// Package docstore is a small hierarchical document database abstraction:
// JSON documents addressed by "collection/doc[/collection/doc...]" paths,
// single-document reads and writes, and serializable read-modify-write
// transactions.
//
// Transactions are optimistic. The callback reads documents, buffers writes,
// and the backend commits only if nothing it read has changed in the
// meantime. A lost race aborts the attempt and the whole callback is re-run
// with exponential backoff; after Options.MaxAttempts the transaction fails
// with ErrContention. Callbacks must therefore be free of side effects other
// than the Tx calls they make.
//
// Two backends are provided: SQLStore (SQLite or PostgreSQL through GORM,
// compare-and-swap on a per-document version) and RedisStore (WATCH/MULTI).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an operation needs a document that does
	// not exist (Tx.Update, Snapshot.DataTo on a missing document).
	ErrNotFound = errors.New("docstore: document not found")

	// ErrConflict marks a transaction attempt that lost an optimistic race.
	ErrConflict = errors.New("docstore: write conflict")

	// ErrContention is returned once every attempt of a transaction lost its
	// race. It wraps ErrConflict.
	ErrContention = fmt.Errorf("docstore: transaction contention: %w", ErrConflict)

	// ErrInvalidPath is returned for malformed document paths.
	ErrInvalidPath = errors.New("docstore: invalid document path")

	// ErrReadAfterWrite is returned when a transaction reads after it has
	// already buffered a write.
	ErrReadAfterWrite = errors.New("docstore: read after write in transaction")

	// ErrNotObject is returned when a written value does not encode to a
	// JSON object.
	ErrNotObject = errors.New("docstore: document data must be a JSON object")
)

// Store is a document database.
type Store interface {
	// Get reads the document at path. A missing document is not an error:
	// the returned snapshot has Exists == false.
	Get(ctx context.Context, path string) (*Snapshot, error)

	// Set replaces the document at path with data, creating it if needed.
	Set(ctx context.Context, path string, data any) error

	// Update shallow-merges fields into the existing document at path. It
	// returns ErrNotFound when the document does not exist.
	Update(ctx context.Context, path string, fields map[string]any) error

	// RunTransaction runs fn as a serializable transaction, retrying it on
	// conflicts. Errors returned by fn abort the transaction without retry
	// and are returned unchanged.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Backend names the implementation ("sqlite", "postgres", "redis").
	Backend() string

	Close() error
}

// Tx is the handle passed to a transaction callback. All reads must happen
// before the first write.
type Tx interface {
	Get(ctx context.Context, path string) (*Snapshot, error)

	// Set buffers a full replacement of the document at path.
	Set(path string, data any) error

	// Update buffers a shallow merge of fields into the existing document at
	// path. It reads the document first if the transaction has not, and
	// returns ErrNotFound when it does not exist.
	Update(ctx context.Context, path string, fields map[string]any) error
}

// Options tunes store calls and transaction retries.
type Options struct {
	OpTimeout   time.Duration // per Get/Set and per transaction attempt
	MaxAttempts int           // attempts before ErrContention
	BaseBackoff time.Duration // first retry delay
	MaxBackoff  time.Duration // retry delay cap
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		OpTimeout:   5 * time.Second,
		MaxAttempts: 10,
		BaseBackoff: 10 * time.Millisecond,
		MaxBackoff:  500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.OpTimeout <= 0 {
		o.OpTimeout = d.OpTimeout
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = d.BaseBackoff
	}
	if o.MaxBackoff < o.BaseBackoff {
		o.MaxBackoff = o.BaseBackoff
	}
	return o
}
