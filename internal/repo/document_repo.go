// Package repo implements the data persistence layer for the document
// table, backed by GORM. This file provides the thin repository functions
// the SQL document store builds its optimistic transactions on.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction (db.Transaction) or on the root connection.
//
// Error semantics:
//   - A missing document yields ErrNotFound.
//   - A lost write race (duplicate insert, stale version, or a locked
//     database) yields ErrConflict. Callers retry the whole transaction.
//   - Anything else is the raw gorm error.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-climb-backend/internal/domain"
)

// ErrNotFound is returned when a requested document does not exist.
// It aliases gorm.ErrRecordNotFound for convenience.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConflict indicates a write lost an optimistic concurrency race.
var ErrConflict = errors.New("document write conflict")

// ParentPath returns the collection path that contains the document at path
// ("gyms/g1/routes/3" -> "gyms/g1/routes"). Top-level paths yield "".
func ParentPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// GetDocument fetches the document stored at path or returns ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, path string) (*domain.Document, error) {
	var doc domain.Document
	res := db.WithContext(ctx).Where("path = ?", path).Limit(1).Find(&doc)
	if res.Error != nil {
		return nil, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// InsertDocument creates the document at path with version 1. It returns
// ErrConflict when a document already exists there.
func InsertDocument(ctx context.Context, db *gorm.DB, path string, data []byte) (*domain.Document, error) {
	now := time.Now().UTC()
	doc := &domain.Document{
		Path:      path,
		Parent:    ParentPath(path),
		Data:      datatypes.JSON(data),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, classify(err)
	}
	return doc, nil
}

// UpdateDocumentVersioned replaces the data of the document at path only if
// its stored version still equals version, bumping the version by one.
// When no row matches (concurrent write or deletion) it returns ErrConflict.
func UpdateDocumentVersioned(ctx context.Context, db *gorm.DB, path string, version int64, data []byte) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("path = ? AND version = ?", path, version).
		Updates(map[string]any{
			"data":       datatypes.JSON(data),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrConflict
	}
	return version + 1, nil
}

// UpsertDocument writes data at path regardless of what is stored there,
// inserting with version 1 or bumping the existing version.
func UpsertDocument(ctx context.Context, db *gorm.DB, path string, data []byte) error {
	now := time.Now().UTC()
	doc := &domain.Document{
		Path:      path,
		Parent:    ParentPath(path),
		Data:      datatypes.JSON(data),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.Assignments(map[string]any{
			"data":       datatypes.JSON(data),
			"version":    gorm.Expr("documents.version + 1"),
			"updated_at": now,
		}),
	}).Create(doc).Error
	return classify(err)
}

// DocumentVersion returns the current version of the document at path, or 0
// when it does not exist.
func DocumentVersion(ctx context.Context, db *gorm.DB, path string) (int64, error) {
	var versions []int64
	err := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("path = ?", path).
		Limit(1).
		Pluck("version", &versions).Error
	if err != nil {
		return 0, classify(err)
	}
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[0], nil
}

// CountDocuments returns how many documents live directly under the
// collection path parent.
func CountDocuments(ctx context.Context, db *gorm.DB, parent string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Document{}).Where("parent = ?", parent).Count(&n).Error
	return n, classify(err)
}

// classify maps driver errors that mean "somebody else won" to ErrConflict.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	switch {
	case strings.Contains(low, "unique constraint failed"),
		strings.Contains(low, "constraint failed: unique"),
		strings.Contains(low, "database is locked"),
		strings.Contains(low, "database table is locked"),
		strings.Contains(low, "sqlite_busy"),
		strings.Contains(low, "could not serialize access"):
		return ErrConflict
	}
	return err
}
