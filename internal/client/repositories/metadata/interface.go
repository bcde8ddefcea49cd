// Package metadata is a small key/value table for client state that must
// survive restarts: the saved pairing token and the registered push
// endpoint id.
package metadata

import (
	"context"
)

const (
	KeyPairingToken   = "pairing_token"
	KeyPushEndpointID = "push_endpoint_id"
)

// Repository stores opaque values by key. Get returns common.ErrorNotFound
// for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
