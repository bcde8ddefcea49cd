// Package chat is the encrypted message log shared by the two peers.
//
// Text entries are stored encrypted in the tty_chat_stream collection.
// File entries carry a plain placeholder; the bytes travel over the peer
// data channel and are matched back to the entry by id.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/client/store"
	"github.com/dmitrijs2005/ttychat/internal/cryptox"
	"github.com/dmitrijs2005/ttychat/internal/logging"
)

const Collection = "tty_chat_stream"

const (
	UrgentText    = "*** URGENT NOTIFICATION RECEIVED ***"
	EmergencyText = "*** EMERGENCY DISCONNECT INITIATED BY PEER ***"

	urgentPushText = "You have received a new message."
)

type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
)

var ErrEmptyMessage = errors.New("empty message")

// Entry is the persisted shape of a chat entry.
type Entry struct {
	Author      string      `json:"author"`
	Content     string      `json:"content"`
	Timestamp   time.Time   `json:"timestamp"`
	SessionID   string      `json:"sessionId"`
	MessageType MessageType `json:"messageType"`
	Filename    string      `json:"filename,omitempty"`
}

// Message is the decrypted view of an entry. LocalPath is set only on this
// client once a file has been received.
type Message struct {
	ID        string
	Author    string
	Text      string
	Timestamp time.Time
	SessionID string
	Type      MessageType
	Filename  string
	LocalPath string

	seq int64
}

// Notifier delivers push notifications. It never reports failure.
type Notifier interface {
	Notify(ctx context.Context, author, message string)
}

// FileSender pushes file bytes to the connected peer.
type FileSender interface {
	Send(ctx context.Context, id, filename, filetype string, r io.Reader) error
}

type received struct {
	filetype string
	filename string
	path     string
}

type Stream struct {
	store    store.DocumentStore
	codec    *cryptox.Codec
	notifier Notifier
	logger   logging.Logger

	clearing atomic.Bool

	mu       sync.Mutex
	received map[string]received
	// one refresh channel per live subscription
	subs   map[int]chan struct{}
	nextID int
}

func NewStream(s store.DocumentStore, codec *cryptox.Codec, n Notifier, l logging.Logger) *Stream {
	return &Stream{
		store:    s,
		codec:    codec,
		notifier: n,
		logger:   l.With("module", "chat"),
		received: make(map[string]received),
		subs:     make(map[int]chan struct{}),
	}
}

func (s *Stream) append(ctx context.Context, e Entry) (*store.Document, error) {
	doc, err := s.store.Add(ctx, Collection, e, "timestamp")
	if err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}
	return doc, nil
}

func (s *Stream) notify(ctx context.Context, author, body string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, author, body)
	}
}

func (s *Stream) send(ctx context.Context, plaintext, push, author, sessionID string) error {
	if strings.TrimSpace(plaintext) == "" {
		return ErrEmptyMessage
	}
	content, err := s.codec.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	if _, err := s.append(ctx, Entry{
		Author:      author,
		Content:     content,
		SessionID:   sessionID,
		MessageType: TypeText,
	}); err != nil {
		return err
	}
	s.notify(ctx, author, push)
	return nil
}

// Send encrypts and appends a text entry, then notifies the peer.
func (s *Stream) Send(ctx context.Context, plaintext, author, sessionID string) error {
	return s.send(ctx, plaintext, plaintext, author, sessionID)
}

// SendUrgent appends the urgent marker with a generic push text.
func (s *Stream) SendUrgent(ctx context.Context, author, sessionID string) error {
	return s.send(ctx, UrgentText, urgentPushText, author, sessionID)
}

func (s *Stream) SendEmergency(ctx context.Context, author, sessionID string) error {
	return s.send(ctx, EmergencyText, EmergencyText, author, sessionID)
}

// TypeFor classifies a file by its extension.
func TypeFor(filename string) (MessageType, string) {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if strings.HasPrefix(mt, "video/") {
		return TypeVideo, mt
	}
	return TypeImage, mt
}

// SendFile appends a placeholder entry and streams the file to the peer
// under the entry id.
func (s *Stream) SendFile(ctx context.Context, path, author, sessionID string, sender FileSender) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	typ, filetype := TypeFor(name)

	doc, err := s.append(ctx, Entry{
		Author:      author,
		Content:     fmt.Sprintf("[pending file transfer: %s]", name),
		SessionID:   sessionID,
		MessageType: typ,
		Filename:    name,
	})
	if err != nil {
		return err
	}
	s.notify(ctx, author, "Sending a file: "+name)

	if err := sender.Send(ctx, doc.ID, name, filetype, f); err != nil {
		return fmt.Errorf("transfer %s: %w", name, err)
	}
	return nil
}

// MarkReceived attaches a locally saved file to the entry with the given
// id and refreshes subscribers.
func (s *Stream) MarkReceived(id, filetype, filename, localPath string) {
	s.mu.Lock()
	s.received[id] = received{filetype: filetype, filename: filename, path: localPath}
	s.mu.Unlock()
	s.poke()
}

// poke asks every subscription to publish a fresh view.
func (s *Stream) poke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Stream) addSub() (int, chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[s.nextID] = ch
	return s.nextID, ch
}

func (s *Stream) removeSub(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// ClearAll deletes every entry. Updates arriving meanwhile are not
// published; subscribers get one fresh view afterwards.
func (s *Stream) ClearAll(ctx context.Context) error {
	s.clearing.Store(true)
	defer func() {
		s.clearing.Store(false)
		s.poke()
	}()

	docs, err := s.store.List(ctx, Collection)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	var errs []error
	for _, d := range docs {
		if err := s.store.Delete(ctx, d.Path); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Info(ctx, "chat cleared", "entries", len(docs), "failed", len(errs))
	return errors.Join(errs...)
}

// Subscribe delivers the full ordered message list after the initial
// snapshot and after every change. The channel is closed when ctx is done
// or the store watch ends.
func (s *Stream) Subscribe(ctx context.Context) (<-chan []Message, error) {
	changes, err := s.store.WatchCollection(ctx, Collection)
	if err != nil {
		return nil, err
	}

	id, refresh := s.addSub()
	out := make(chan []Message, 1)
	go func() {
		defer close(out)
		defer s.removeSub(id)
		docs := make(map[string]*store.Document)
		synced := false

		for {
			select {
			case <-ctx.Done():
				return
			case <-refresh:
			case ch, ok := <-changes:
				if !ok {
					return
				}
				switch ch.Type {
				case store.ChangeAdded, store.ChangeModified:
					docs[ch.Document.ID] = ch.Document
				case store.ChangeRemoved:
					delete(docs, ch.Document.ID)
				case store.ChangeReset:
					docs = make(map[string]*store.Document)
					synced = false
					continue
				case store.ChangeSynced:
					synced = true
				}
			}

			if !synced || s.clearing.Load() {
				continue
			}
			view := s.render(docs)
			// Keep only the newest view for a slow reader.
			select {
			case <-out:
			default:
			}
			select {
			case out <- view:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Stream) render(docs map[string]*store.Document) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]Message, 0, len(docs))
	for _, d := range docs {
		var e Entry
		if err := d.Decode(&e); err != nil {
			s.logger.Warn(context.Background(), "undecodable entry", "id", d.ID, "error", err)
			continue
		}
		if e.MessageType == "" {
			e.MessageType = TypeText
		}
		m := Message{
			ID:        d.ID,
			Author:    e.Author,
			Timestamp: e.Timestamp,
			SessionID: e.SessionID,
			Type:      e.MessageType,
			Filename:  e.Filename,
			seq:       d.Seq,
		}
		if e.MessageType == TypeText {
			m.Text = s.codec.DecryptOrSentinel(e.Content)
		} else {
			m.Text = e.Content
		}
		if r, ok := s.received[d.ID]; ok {
			m.Text = fmt.Sprintf("Received %s: %s", r.filetype, r.filename)
			m.LocalPath = r.path
		}
		msgs = append(msgs, m)
	}

	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].seq < msgs[j].seq
	})
	return msgs
}
