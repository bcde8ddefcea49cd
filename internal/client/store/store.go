// Package store is the client side of the real-time document store.
//
// DocumentStore is the contract the signaling channel and the chat stream
// are written against. GRPCClient talks to the ttychat server; Memory is an
// in-process implementation with the same semantics, used by tests and by
// offline runs.
//
// Paths are slash separated and alternate between collections and
// documents: "webrtc_rooms" is a collection, "webrtc_rooms/r1" a document,
// "webrtc_rooms/r1/callerCandidates" a sub-collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidPath   = errors.New("invalid document path")
)

// Document is a stored JSON object.
type Document struct {
	Path string
	ID   string
	Data json.RawMessage
	// Seq is a server-wide sequence number. Together with CreateTime it
	// gives a total order over documents of a collection.
	Seq        int64
	CreateTime time.Time
	UpdateTime time.Time
}

// Decode unmarshals the document data into v.
func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
	// ChangeSynced follows the initial snapshot. It carries no document.
	ChangeSynced ChangeType = "synced"
	// ChangeReset is sent when a watch had to be re-established. Consumers
	// drop what they built so far; a fresh snapshot follows.
	ChangeReset ChangeType = "reset"
)

type Change struct {
	Type     ChangeType
	Document *Document
}

// DocumentStore is the minimal document store API.
//
// Write methods accept any JSON-marshalable value. serverTimestamps names
// top-level fields the server overwrites with its own current time.
// Watch channels deliver the current state as ChangeAdded events, then
// ChangeSynced, then live changes; they are closed when ctx is done.
type DocumentStore interface {
	Get(ctx context.Context, path string) (*Document, error)
	Set(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error)
	Update(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error)
	// Create fails with ErrAlreadyExists when path is taken.
	Create(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error)
	Add(ctx context.Context, collection string, data any, serverTimestamps ...string) (*Document, error)
	// Delete succeeds when the document is already gone.
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, collection string) ([]*Document, error)
	WatchDocument(ctx context.Context, path string) (<-chan Change, error)
	WatchCollection(ctx context.Context, collection string) (<-chan Change, error)
}

func marshalData(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	}
	return json.Marshal(data)
}
