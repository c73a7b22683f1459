package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docportal/internal/access"
	"docportal/internal/model"
	"docportal/internal/repository"
)

// documentColumns selects a document (alias d) and its owner (alias u).
const documentColumns = `
	d.id, d.document_engine_id, d.title, d.filename, d.file_type, d.file_size, d.author,
	d.owner_id, d.created_at, d.updated_at, u.id, COALESCE(u.name, ''), u.email`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*model.Document, error) {
	var (
		d     model.Document
		owner model.Owner
	)
	if err := s.Scan(
		&d.ID,
		&d.EngineID,
		&d.Title,
		&d.Filename,
		&d.FileType,
		&d.Size,
		&d.Author,
		&d.OwnerID,
		&d.CreatedAt,
		&d.UpdatedAt,
		&owner.ID,
		&owner.Name,
		&owner.Email,
	); err != nil {
		return nil, err
	}
	d.Owner = &owner
	return &d, nil
}

// Create inserts a new document row and returns the stored record joined with its owner.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		WITH d AS (
			INSERT INTO documents (id, document_engine_id, title, filename, file_type, file_size, author, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d JOIN users u ON u.id = d.owner_id`
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.EngineID,
		doc.Title,
		doc.Filename,
		doc.FileType,
		doc.Size,
		doc.Author,
		doc.OwnerID,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID if the filter allows it.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string, f access.Filter) (*model.Document, error) {
	where, args := f.Where("d.owner_id", 2)
	q := `
		SELECT ` + documentColumns + `
		FROM documents d JOIN users u ON u.id = d.owner_id
		WHERE d.id = $1 AND ` + where
	row := r.db.QueryRowContext(ctx, q, append([]any{id}, args...)...)
	return scanDocument(row)
}

// List returns visible documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f access.Filter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where, args := f.Where("d.owner_id", 1)

	var total int
	qCount := `SELECT COUNT(*) FROM documents d WHERE ` + where
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	next := len(args) + 1
	qList := fmt.Sprintf(`
		SELECT %s
		FROM documents d JOIN users u ON u.id = d.owner_id
		WHERE %s
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d`, documentColumns, where, next, next+1)
	rows, err := r.db.QueryContext(ctx, qList, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Update sets the title and, when given, the author of a visible document.
func (r *DocumentPostgres) Update(ctx context.Context, id string, f access.Filter, u repository.DocumentUpdate) (*model.Document, error) {
	where, args := f.Where("d.owner_id", 4)
	var author any
	if u.Author != nil {
		author = *u.Author
	}
	q := `
		WITH d AS (
			UPDATE documents d
			SET title = $1, author = COALESCE($2, d.author), updated_at = now()
			WHERE d.id = $3 AND ` + where + `
			RETURNING d.*
		)
		SELECT ` + documentColumns + `
		FROM d JOIN users u ON u.id = d.owner_id`
	row := r.db.QueryRowContext(ctx, q, append([]any{u.Title, author, id}, args...)...)
	return scanDocument(row)
}

// UpdateSize stores the new size of a document. It returns sql.ErrNoRows if the row is gone.
func (r *DocumentPostgres) UpdateSize(ctx context.Context, id string, size int64) error {
	const q = `UPDATE documents SET file_size = $1, updated_at = now() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, size, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a visible document. It returns sql.ErrNoRows when nothing matched.
func (r *DocumentPostgres) Delete(ctx context.Context, id string, f access.Filter) error {
	where, args := f.Where("d.owner_id", 2)
	q := `DELETE FROM documents d WHERE d.id = $1 AND ` + where
	res, err := r.db.ExecContext(ctx, q, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
