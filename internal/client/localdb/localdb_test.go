package localdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ttychat/internal/client/models"
	"github.com/dmitrijs2005/ttychat/internal/client/repositories/metadata"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpen_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer d.Close()

	for _, table := range []string{"goose_db_version", "metadata", "received_files"} {
		assert.True(t, tableExists(t, d.db, table), table)
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	assert.True(t, tableExists(t, db, "received_files"))
}

func TestWipe_ClearsBothTables(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Metadata.Set(ctx, metadata.KeyPairingToken, []byte("tok")))
	require.NoError(t, d.RecordReceived(ctx, &models.ReceivedFile{
		EntryID: "e1", Filename: "a.png", Filetype: "image/png", LocalPath: "/tmp/a.png", ReceivedAt: time.Now(),
	}))

	require.NoError(t, d.Wipe(ctx))

	tok, err := metadata.GetString(ctx, d.Metadata, metadata.KeyPairingToken)
	require.NoError(t, err)
	assert.Empty(t, tok)
	all, err := d.Files.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "app.db"))
	assert.Error(t, err)
}
