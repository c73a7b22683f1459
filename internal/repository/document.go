package repository

import (
	"context"

	"docportal/internal/access"
	"docportal/internal/model"
)

// DocumentRepository defines data access for document metadata using SQL queries only.
// Methods taking an access.Filter apply it in the WHERE clause; a row the filter excludes
// is reported exactly like a missing row, with sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record and returns it with its owner populated.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a visible document by its ID.
	FindByID(ctx context.Context, id string, f access.Filter) (*model.Document, error)

	// List returns a page of visible documents, newest first, and the total visible count.
	List(ctx context.Context, f access.Filter, pq PageQuery) (*PageResult[model.Document], error)

	// Update changes editable fields of a visible document.
	Update(ctx context.Context, id string, f access.Filter, u DocumentUpdate) (*model.Document, error)

	// UpdateSize records a new byte size after the engine content was replaced.
	UpdateSize(ctx context.Context, id string, size int64) error

	// Delete removes a visible document.
	Delete(ctx context.Context, id string, f access.Filter) error
}

// DocumentUpdate holds the editable metadata. A nil Author keeps the stored value.
type DocumentUpdate struct {
	Title  string
	Author *string
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
