package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one row of the SQL-backed document store. Path is the full
// collection/document path ("gyms/bhub-kualalumpur-my/routes/3"); Parent is
// the collection path it lives in ("gyms/bhub-kualalumpur-my/routes").
//
// Version starts at 1 on insert and is bumped on every write. Conditional
// updates compare it to implement optimistic transactions.
type Document struct {
	Path      string         `gorm:"type:varchar(512);primaryKey"`
	Parent    string         `gorm:"type:varchar(512);not null;index:idx_documents_parent"`
	Data      datatypes.JSON `gorm:"type:json;not null"`
	Version   int64          `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }
