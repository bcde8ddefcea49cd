package files

import (
	"context"

	"github.com/dmitrijs2005/ttychat/internal/client/models"
)

// Repository stores the received-files index.
type Repository interface {
	// Save inserts or replaces the record for f.EntryID.
	Save(ctx context.Context, f *models.ReceivedFile) error

	// GetByEntryID returns common.ErrorNotFound when nothing was received
	// for the entry.
	GetByEntryID(ctx context.Context, id string) (*models.ReceivedFile, error)

	// List returns all records, oldest first.
	List(ctx context.Context) ([]*models.ReceivedFile, error)

	DeleteAll(ctx context.Context) error
}
