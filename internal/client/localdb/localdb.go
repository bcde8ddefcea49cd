// Package localdb opens the client's SQLite database and wires its
// repositories.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/ttychat/internal/client/migrations"
	"github.com/dmitrijs2005/ttychat/internal/client/models"
	"github.com/dmitrijs2005/ttychat/internal/client/repositories/files"
	"github.com/dmitrijs2005/ttychat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/ttychat/internal/dbx"
)

type DB struct {
	db       *sql.DB
	Metadata metadata.Repository
	Files    files.Repository
}

// RunMigrations applies the embedded migrations. Running it twice is a
// no-op.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens dsn with the pure-Go sqlite driver and migrates it.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &DB{
		db:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Files:    files.NewSQLiteRepository(db),
	}, nil
}

// RecordReceived indexes a saved file.
func (d *DB) RecordReceived(ctx context.Context, f *models.ReceivedFile) error {
	return d.Files.Save(ctx, f)
}

// Wipe erases every local record in one transaction.
func (d *DB) Wipe(ctx context.Context) error {
	return dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return files.NewSQLiteRepository(tx).DeleteAll(ctx)
	})
}

func (d *DB) Close() error {
	return d.db.Close()
}
