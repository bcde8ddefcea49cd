// Package documents declares the server-side repository contract for JSON
// documents addressed by path.
package documents

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/ttychat/internal/server/models"
)

// Repository stores documents. Seq and the timestamps are assigned by the
// database, so the returned documents carry the stored values.
type Repository interface {
	// Get returns the document at path or common.ErrorNotFound.
	Get(ctx context.Context, path string) (*models.Document, error)

	// Upsert replaces the document data, creating the row if needed.
	// inserted reports whether the row is new.
	Upsert(ctx context.Context, doc *models.Document) (stored *models.Document, inserted bool, err error)

	// Insert creates the document only when path is free and returns
	// common.ErrAlreadyExists otherwise. The check and insert are one statement.
	Insert(ctx context.Context, doc *models.Document) (*models.Document, error)

	// Merge shallow-merges fields into an existing document, returning
	// common.ErrorNotFound when there is none.
	Merge(ctx context.Context, path string, fields json.RawMessage) (*models.Document, error)

	// Delete removes the document and returns what was stored, or
	// common.ErrorNotFound.
	Delete(ctx context.Context, path string) (*models.Document, error)

	// ListByParent returns the documents of a collection in creation order.
	ListByParent(ctx context.Context, parent string) ([]*models.Document, error)
}
