package proto

import "encoding/json"

// Watch event types.
const (
	EventAdded    = "added"
	EventModified = "modified"
	EventRemoved  = "removed"
	// EventSynced closes the initial snapshot of a watch.
	EventSynced = "synced"
)

type Document struct {
	Path string          `json:"path"`
	Id   string          `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
	Seq  int64           `json:"seq"`
	// CreateTime and UpdateTime are unix nanoseconds assigned by the server.
	CreateTime int64 `json:"create_time"`
	UpdateTime int64 `json:"update_time"`
}

type AuthenticateRequest struct {
	AccessKey string `json:"access_key"`
	SessionId string `json:"session_id"`
}

type AuthenticateResponse struct {
	AccessToken string `json:"access_token"`
	SessionId   string `json:"session_id"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type GetRequest struct {
	Path string `json:"path"`
}

type GetResponse struct {
	Document *Document `json:"document"`
}

// WriteRequest carries Set, Update and Create. ServerTimestamps names
// top-level fields the server fills with its own RFC 3339 time.
type WriteRequest struct {
	Path             string          `json:"path"`
	Data             json.RawMessage `json:"data"`
	ServerTimestamps []string        `json:"server_timestamps,omitempty"`
}

type WriteResponse struct {
	Document *Document `json:"document"`
}

type DeleteRequest struct {
	Path string `json:"path"`
}

type DeleteResponse struct{}

type AddRequest struct {
	Collection       string          `json:"collection"`
	Data             json.RawMessage `json:"data"`
	ServerTimestamps []string        `json:"server_timestamps,omitempty"`
}

type ListRequest struct {
	Collection string `json:"collection"`
}

type ListResponse struct {
	Documents []*Document `json:"documents"`
}

type WatchRequest struct {
	Path string `json:"path"`
}

type WatchEvent struct {
	Type     string    `json:"type"`
	Document *Document `json:"document,omitempty"`
}

type NotifyRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

type NotifyResponse struct {
	Delivered int32 `json:"delivered"`
}

type RegisterPushEndpointRequest struct {
	Url string `json:"url"`
}

type RegisterPushEndpointResponse struct {
	Id string `json:"id"`
}

type UnregisterPushEndpointRequest struct {
	Id string `json:"id"`
}

type UnregisterPushEndpointResponse struct{}
