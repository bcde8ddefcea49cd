package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ttychat/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func TestPairingTokenSurvivesOverwrite(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, SetString(ctx, r, KeyPairingToken, "old"))
	require.NoError(t, SetString(ctx, r, KeyPairingToken, "new"))

	got, err := GetString(ctx, r, KeyPairingToken)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestAbsentKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.Get(ctx, KeyPushEndpointID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	s, err := GetString(ctx, r, KeyPushEndpointID)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestSetStringEmptyDeletes(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, SetString(ctx, r, KeyPushEndpointID, "ep-1"))
	require.NoError(t, SetString(ctx, r, KeyPushEndpointID, ""))
	require.NoError(t, r.Delete(ctx, KeyPushEndpointID))

	_, err := r.Get(ctx, KeyPushEndpointID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClearForgetsEverything(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyPairingToken, []byte{0xAA}))
	require.NoError(t, r.Set(ctx, KeyPushEndpointID, []byte{0xBB}))
	require.NoError(t, r.Clear(ctx))

	for _, k := range []string{KeyPairingToken, KeyPushEndpointID} {
		_, err := r.Get(ctx, k)
		assert.ErrorIs(t, err, common.ErrorNotFound, k)
	}
}

func TestErrorsNameTheKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT value FROM metadata").WillReturnError(boom)
	mock.ExpectExec("INSERT INTO metadata").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM metadata WHERE key").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM metadata").WillReturnError(boom)
	mock.ExpectQuery("SELECT value FROM metadata").WillReturnError(boom)

	_, err = r.Get(ctx, "k")
	assert.EqualError(t, err, "read k: disk I/O error")
	assert.EqualError(t, r.Set(ctx, "k", []byte("v")), "write k: disk I/O error")
	assert.EqualError(t, r.Delete(ctx, "k"), "delete k: disk I/O error")
	assert.ErrorIs(t, r.Clear(ctx), boom)

	_, err = GetString(ctx, r, "k")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
