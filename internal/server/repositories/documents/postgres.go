package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/dbx"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
)

// PostgresRepository keeps documents in the documents table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, path string) (*models.Document, error) {
	doc := &models.Document{Path: path}
	var data []byte
	if err := row.Scan(&doc.Parent, &doc.ID, &data, &doc.Seq, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Data = json.RawMessage(data)
	return doc, nil
}

// Get returns the document at path.
func (r *PostgresRepository) Get(ctx context.Context, path string) (*models.Document, error) {
	query := `
		SELECT parent, doc_id, data, seq, created_at, updated_at
		FROM documents
		WHERE path = $1
	`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, path), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// Upsert writes doc.Data over whatever is stored at doc.Path.
func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) (*models.Document, bool, error) {
	query := `
		INSERT INTO documents (path, parent, doc_id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		RETURNING seq, created_at, updated_at, (xmax = 0) AS inserted
	`
	stored := *doc
	var inserted bool
	err := r.db.QueryRowContext(ctx, query, doc.Path, doc.Parent, doc.ID, string(doc.Data)).
		Scan(&stored.Seq, &stored.CreatedAt, &stored.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("error performing sql request: %w", err)
	}
	return &stored, inserted, nil
}

// Insert creates doc unless its path is taken.
func (r *PostgresRepository) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query := `
		INSERT INTO documents (path, parent, doc_id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (path) DO NOTHING
		RETURNING seq, created_at, updated_at
	`
	stored := *doc
	err := r.db.QueryRowContext(ctx, query, doc.Path, doc.Parent, doc.ID, string(doc.Data)).
		Scan(&stored.Seq, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return &stored, nil
}

// Merge applies jsonb concatenation, so top-level keys of fields win.
func (r *PostgresRepository) Merge(ctx context.Context, path string, fields json.RawMessage) (*models.Document, error) {
	query := `
		UPDATE documents
		SET data = data || $2::jsonb, updated_at = now()
		WHERE path = $1
		RETURNING parent, doc_id, data, seq, created_at, updated_at
	`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, path, string(fields)), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return doc, nil
}

// Delete removes the row at path.
func (r *PostgresRepository) Delete(ctx context.Context, path string) (*models.Document, error) {
	query := `
		DELETE FROM documents
		WHERE path = $1
		RETURNING parent, doc_id, data, seq, created_at, updated_at
	`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, path), path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// ListByParent returns the children of a collection, oldest first. Seq
// breaks ties between rows created in the same transaction.
func (r *PostgresRepository) ListByParent(ctx context.Context, parent string) ([]*models.Document, error) {
	query := `
		SELECT path, parent, doc_id, data, seq, created_at, updated_at
		FROM documents
		WHERE parent = $1
		ORDER BY created_at, seq
	`
	rows, err := r.db.QueryContext(ctx, query, parent)
	if err != nil {
		return nil, fmt.Errorf("error selecting documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		var data []byte
		if err := rows.Scan(&doc.Path, &doc.Parent, &doc.ID, &data, &doc.Seq, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		doc.Data = json.RawMessage(data)
		result = append(result, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document rows: %w", err)
	}

	return result, nil
}
