package docstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-climb-backend/internal/repo"
)

// SQLStore keeps documents in the GORM "documents" table (SQLite or
// PostgreSQL).
//
// Transaction reads run outside any database transaction and record each
// document's version. Commit opens a short database transaction that
// re-checks those versions and applies the buffered writes with conditional
// inserts/updates, so a concurrent writer makes the commit fail with
// ErrConflict instead of blocking.
type SQLStore struct {
	db      *gorm.DB
	backend string
	opts    Options
}

// NewSQLStore wraps an already migrated database handle. backend labels
// metrics and logs ("sqlite" or "postgres").
func NewSQLStore(db *gorm.DB, backend string, opts Options) *SQLStore {
	return &SQLStore{db: db, backend: backend, opts: opts.withDefaults()}
}

func (s *SQLStore) Backend() string { return s.backend }

func (s *SQLStore) Get(ctx context.Context, path string) (*Snapshot, error) {
	if err := ValidateDocPath(path); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	return s.fetch(ctx, path)
}

func (s *SQLStore) fetch(ctx context.Context, path string) (*Snapshot, error) {
	doc, err := repo.GetDocument(ctx, s.db, path)
	if errors.Is(err, repo.ErrNotFound) {
		return missing(path), nil
	}
	if err != nil {
		return nil, sqlErr(err)
	}
	return newSnapshot(path, doc.Data, doc.Version, doc.UpdatedAt)
}

// Set upserts the document, retrying while the database is locked.
func (s *SQLStore) Set(ctx context.Context, path string, data any) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}
	b, err := encodeObject(data)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	return runAttempts(ctx, s.backend, s.opts, func(ctx context.Context) error {
		return sqlErr(repo.UpsertDocument(ctx, s.db, path, b))
	})
}

func (s *SQLStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return updateIn(ctx, s, path, fields)
}

func (s *SQLStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return runAttempts(ctx, s.backend, s.opts, func(ctx context.Context) error {
		st := newTxState(s.fetch)
		if err := fn(ctx, st); err != nil {
			return err
		}
		if len(st.writes) == 0 {
			return nil
		}
		return s.commit(ctx, st)
	})
}

func (s *SQLStore) commit(ctx context.Context, st *txState) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		for path, snap := range st.reads {
			if _, written := st.index[path]; written {
				continue // the conditional write below checks it
			}
			v, err := repo.DocumentVersion(ctx, gtx, path)
			if err != nil {
				return err
			}
			if v != snap.Version {
				return repo.ErrConflict
			}
		}

		for _, w := range st.writes {
			snap, read := st.reads[w.path]
			var err error
			switch {
			case !read:
				err = repo.UpsertDocument(ctx, gtx, w.path, w.data)
			case !snap.Exists:
				_, err = repo.InsertDocument(ctx, gtx, w.path, w.data)
			default:
				_, err = repo.UpdateDocumentVersioned(ctx, gtx, w.path, snap.Version, w.data)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return sqlErr(err)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqlErr converts repository conflicts into ErrConflict.
func sqlErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
