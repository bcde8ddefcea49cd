// Package models defines the records kept in the local database.
package models

import "time"

// ReceivedFile indexes a file that arrived over the peer channel. EntryID
// is the chat entry the transfer was announced by.
type ReceivedFile struct {
	EntryID    string
	Filename   string
	Filetype   string
	LocalPath  string
	Size       int64
	ReceivedAt time.Time
}
