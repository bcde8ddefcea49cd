package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/docpath"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DocumentService implements the document store on top of the repositories
// and publishes every committed change to the broker.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      *Broker
	now         func() time.Time
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, b *Broker) *DocumentService {
	return &DocumentService{db: db, repomanager: m, broker: b, now: time.Now}
}

// Watch is an open watch: the state at subscription time followed by
// live changes on Changes.
type Watch struct {
	Snapshot []*models.Document
	Changes  <-chan models.Change
	stop     func()
}

func NewWatch(snapshot []*models.Document, changes <-chan models.Change, stop func()) *Watch {
	return &Watch{Snapshot: snapshot, Changes: changes, stop: stop}
}

func (w *Watch) Close() {
	if w.stop != nil {
		w.stop()
	}
}

func (s *DocumentService) Get(ctx context.Context, path string) (*models.Document, error) {
	if !docpath.IsDocument(path) {
		return nil, common.ErrorInvalidPath
	}
	return s.repomanager.Documents(s.db).Get(ctx, path)
}

// Set replaces the document at path, creating it when absent.
func (s *DocumentService) Set(ctx context.Context, path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error) {
	doc, err := s.newDocument(path, data, serverTimestamps)
	if err != nil {
		return nil, err
	}

	stored, inserted, err := s.repomanager.Documents(s.db).Upsert(ctx, doc)
	if err != nil {
		return nil, err
	}

	t := models.ChangeModified
	if inserted {
		t = models.ChangeAdded
	}
	s.broker.Publish(models.Change{Type: t, Document: stored})
	return stored, nil
}

// Update merges the top-level fields of data into an existing document.
func (s *DocumentService) Update(ctx context.Context, path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error) {
	if !docpath.IsDocument(path) {
		return nil, common.ErrorInvalidPath
	}
	fields, err := s.prepareData(data, serverTimestamps)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Documents(s.db).Merge(ctx, path, fields)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(models.Change{Type: models.ChangeModified, Document: stored})
	return stored, nil
}

// Create writes the document only if path is free; otherwise it returns
// common.ErrAlreadyExists. Two concurrent creates have exactly one winner.
func (s *DocumentService) Create(ctx context.Context, path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error) {
	doc, err := s.newDocument(path, data, serverTimestamps)
	if err != nil {
		return nil, err
	}

	stored, err := s.repomanager.Documents(s.db).Insert(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(models.Change{Type: models.ChangeAdded, Document: stored})
	return stored, nil
}

// Add creates a document with a fresh id inside collection.
func (s *DocumentService) Add(ctx context.Context, collection string, data json.RawMessage, serverTimestamps []string) (*models.Document, error) {
	if !docpath.IsCollection(collection) {
		return nil, common.ErrorInvalidPath
	}
	return s.Create(ctx, docpath.Join(collection, uuid.NewString()), data, serverTimestamps)
}

// Delete removes the document. Deleting a missing document succeeds.
func (s *DocumentService) Delete(ctx context.Context, path string) error {
	if !docpath.IsDocument(path) {
		return common.ErrorInvalidPath
	}

	removed, err := s.repomanager.Documents(s.db).Delete(ctx, path)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	s.broker.Publish(models.Change{Type: models.ChangeRemoved, Document: removed})
	return nil
}

// List returns the documents of collection in creation order.
func (s *DocumentService) List(ctx context.Context, collection string) ([]*models.Document, error) {
	if !docpath.IsCollection(collection) {
		return nil, common.ErrorInvalidPath
	}
	return s.repomanager.Documents(s.db).ListByParent(ctx, collection)
}

// Watch subscribes to path before reading the snapshot, so no change
// committed after the read is missed. A change may show up both in the
// snapshot and on Changes.
func (s *DocumentService) Watch(ctx context.Context, path string) (*Watch, error) {
	isDoc := docpath.IsDocument(path)
	if !isDoc && !docpath.IsCollection(path) {
		return nil, common.ErrorInvalidPath
	}

	sub := s.broker.Subscribe(path)
	w := NewWatch(nil, sub.C, sub.Close)

	repo := s.repomanager.Documents(s.db)
	if isDoc {
		doc, err := repo.Get(ctx, path)
		switch {
		case err == nil:
			w.Snapshot = []*models.Document{doc}
		case errors.Is(err, common.ErrorNotFound):
		default:
			sub.Close()
			return nil, err
		}
		return w, nil
	}

	docs, err := repo.ListByParent(ctx, path)
	if err != nil {
		sub.Close()
		return nil, err
	}
	w.Snapshot = docs
	return w, nil
}

func (s *DocumentService) newDocument(path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error) {
	parent, id, err := docpath.Split(path)
	if err != nil {
		return nil, err
	}
	prepared, err := s.prepareData(data, serverTimestamps)
	if err != nil {
		return nil, err
	}
	return &models.Document{Path: path, Parent: parent, ID: id, Data: prepared}, nil
}

// prepareData checks that data is a JSON object and fills the named
// fields with the server's current time in RFC 3339.
func (s *DocumentService) prepareData(data json.RawMessage, serverTimestamps []string) (json.RawMessage, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: document data must be a JSON object", common.ErrorInvalidInput)
	}
	if len(serverTimestamps) == 0 {
		return data, nil
	}

	ts, err := json.Marshal(s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	for _, name := range serverTimestamps {
		if name == "" {
			continue
		}
		fields[name] = ts
	}
	return json.Marshal(fields)
}
