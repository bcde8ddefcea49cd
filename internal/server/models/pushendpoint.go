package models

import "time"

// PushEndpoint is a webhook registered by a client session to receive
// new-message notifications.
type PushEndpoint struct {
	ID        string
	SessionID string
	URL       string
	CreatedAt time.Time
}
