// Package pushendpoints declares the repository contract for webhook
// endpoints that receive new-message notifications.
package pushendpoints

import (
	"context"

	"github.com/dmitrijs2005/ttychat/internal/server/models"
)

// Repository manages registered push endpoints.
type Repository interface {
	// Create registers url for sessionID. A url registered again moves to
	// the new session and keeps its id.
	Create(ctx context.Context, sessionID, url string) (*models.PushEndpoint, error)

	// Delete removes an endpoint. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// ListExcept returns every endpoint not owned by sessionID.
	ListExcept(ctx context.Context, sessionID string) ([]*models.PushEndpoint, error)
}
