package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/client/models"
	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, f *models.ReceivedFile) error {
	query := `INSERT INTO received_files (entry_id, filename, filetype, local_path, size, received_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(entry_id) DO UPDATE SET
				filename = excluded.filename,
				filetype = excluded.filetype,
				local_path = excluded.local_path,
				size = excluded.size,
				received_at = excluded.received_at
	`
	receivedAt := f.ReceivedAt.UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx, query, f.EntryID, f.Filename, f.Filetype, f.LocalPath, f.Size, receivedAt)
	if err != nil {
		return fmt.Errorf("failed to save received file: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.ReceivedFile, error) {
	f := &models.ReceivedFile{}
	var receivedAt string
	if err := s.Scan(&f.EntryID, &f.Filename, &f.Filetype, &f.LocalPath, &f.Size, &receivedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("bad received_at %q: %w", receivedAt, err)
	}
	f.ReceivedAt = t
	return f, nil
}

func (r *SQLiteRepository) GetByEntryID(ctx context.Context, id string) (*models.ReceivedFile, error) {
	query := `SELECT entry_id, filename, filetype, local_path, size, received_at FROM received_files WHERE entry_id = ?`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get received file: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.ReceivedFile, error) {
	query := `SELECT entry_id, filename, filetype, local_path, size, received_at FROM received_files ORDER BY received_at, entry_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting received files: %w", err)
	}
	defer rows.Close()

	var result []*models.ReceivedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM received_files`); err != nil {
		return fmt.Errorf("failed to clear received files: %w", err)
	}
	return nil
}
