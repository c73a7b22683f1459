package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/access"
	"docportal/internal/model"
	"docportal/internal/repository"
)

var documentRowColumns = []string{
	"id", "document_engine_id", "title", "filename", "file_type", "file_size", "author",
	"owner_id", "created_at", "updated_at", "owner_id", "owner_name", "owner_email",
}

func documentRow(rows *sqlmock.Rows, id, ownerID string, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "engine-"+id, "Report", "report.pdf", "application/pdf", int64(100), "Ada",
		ownerID, now, now, ownerID, "Ada Lovelace", "ada@example.com")
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()
	doc := &model.Document{
		ID:        "doc-1",
		EngineID:  "engine-doc-1",
		Title:     "Report",
		Filename:  "report.pdf",
		FileType:  "application/pdf",
		Size:      100,
		Author:    "Ada",
		OwnerID:   "user-1",
		CreatedAt: now,
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.EngineID, doc.Title, doc.Filename, doc.FileType, doc.Size, doc.Author, doc.OwnerID, doc.CreatedAt).
		WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), "doc-1", "user-1", now))

	result, err := repo.Create(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "engine-doc-1", result.EngineID)
	require.NotNil(t, result.Owner)
	assert.Equal(t, "ada@example.com", result.Owner.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("owner filter", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents d JOIN users u ON u.id = d.owner_id WHERE d.id = \$1 AND d.owner_id = \$2`).
			WithArgs("doc-1", "user-1").
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), "doc-1", "user-1", now))

		doc, err := repo.FindByID(ctx, "doc-1", access.OwnerOnly("user-1"))

		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		assert.Equal(t, "user-1", doc.OwnerID)
	})

	t.Run("unrestricted", func(t *testing.T) {
		mock.ExpectQuery(`WHERE d.id = \$1 AND TRUE`).
			WithArgs("doc-1").
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), "doc-1", "user-2", now))

		doc, err := repo.FindByID(ctx, "doc-1", access.Unrestricted())

		require.NoError(t, err)
		assert.Equal(t, "user-2", doc.OwnerID)
	})

	t.Run("excluded by filter", func(t *testing.T) {
		mock.ExpectQuery(`WHERE d.id = \$1 AND d.owner_id = \$2`).
			WithArgs("doc-1", "user-3").
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		doc, err := repo.FindByID(ctx, "doc-1", access.OwnerOnly("user-3"))

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("owner only", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents d WHERE d.owner_id = \$1`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery(`WHERE d.owner_id = \$1 ORDER BY d.created_at DESC, d.id DESC LIMIT \$2 OFFSET \$3`).
			WithArgs("user-1", 10, 0).
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), "doc-1", "user-1", now))

		res, err := repo.List(ctx, access.OwnerOnly("user-1"), repository.PageQuery{Limit: 10, Offset: 0})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("unrestricted", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents d WHERE TRUE`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(documentRowColumns)
		documentRow(rows, "doc-2", "user-2", now)
		documentRow(rows, "doc-1", "user-1", now)
		mock.ExpectQuery(`WHERE TRUE ORDER BY d.created_at DESC, d.id DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(5, 5).
			WillReturnRows(rows)

		res, err := repo.List(ctx, access.Unrestricted(), repository.PageQuery{Limit: 5, Offset: 5})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, "doc-2", res.Items[0].ID)
		assert.Equal(t, "doc-1", res.Items[1].ID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("keeps author when nil", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE documents d SET title = \$1, author = COALESCE\(\$2, d.author\)`).
			WithArgs("New title", nil, "doc-1", "user-1").
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), "doc-1", "user-1", time.Now()))

		_, err := repo.Update(ctx, "doc-1", access.OwnerOnly("user-1"), repository.DocumentUpdate{Title: "New title"})
		assert.NoError(t, err)
	})

	t.Run("sets author", func(t *testing.T) {
		author := "Grace"
		mock.ExpectQuery(`UPDATE documents d`).
			WithArgs("New title", "Grace", "doc-1").
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), "doc-1", "user-1", time.Now()))

		_, err := repo.Update(ctx, "doc-1", access.Unrestricted(), repository.DocumentUpdate{Title: "New title", Author: &author})
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateSize(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectExec(`UPDATE documents SET file_size = \$1`).
		WithArgs(int64(2048), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE documents SET file_size = \$1`).
		WithArgs(int64(2048), "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.UpdateSize(context.Background(), "doc-1", 2048))
	assert.ErrorIs(t, repo.UpdateSize(context.Background(), "gone", 2048), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM documents d WHERE d.id = \$1 AND d.owner_id = \$2`).
		WithArgs("doc-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM documents d WHERE d.id = \$1 AND d.owner_id = \$2`).
		WithArgs("doc-2", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM documents d WHERE d.id = \$1 AND TRUE`).
		WithArgs("doc-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(ctx, "doc-1", access.OwnerOnly("user-1")))
	assert.ErrorIs(t, repo.Delete(ctx, "doc-2", access.OwnerOnly("user-1")), sql.ErrNoRows)
	assert.NoError(t, repo.Delete(ctx, "doc-2", access.Unrestricted()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
