// Package models defines the server-side records persisted by the
// repositories.
package models

import (
	"encoding/json"
	"time"
)

// Document is one JSON document addressed by its slash-separated path.
// Parent is the collection path, ID the last path segment.
type Document struct {
	Path      string
	Parent    string
	ID        string
	Data      json.RawMessage
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChangeType tells watchers what happened to a document.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Change is published to watchers of the document and of its parent.
type Change struct {
	Type     ChangeType
	Document *Document
}
