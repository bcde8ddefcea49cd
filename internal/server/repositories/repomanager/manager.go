package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ttychat/internal/dbx"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/documents"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/pushendpoints"
)

// RepositoryManager vends repositories bound to a database handle or a
// transaction, plus the schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Documents(db dbx.DBTX) documents.Repository
	PushEndpoints(db dbx.DBTX) pushendpoints.Repository
}
