package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/dbx"
	"github.com/dmitrijs2005/ttychat/internal/logging"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/documents"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/pushendpoints"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func newSQLMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeDocsRepo keeps documents in memory with the same contract as the
// Postgres repository.
type fakeDocsRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document
	seq  int64

	err error
}

func newFakeDocsRepo() *fakeDocsRepo {
	return &fakeDocsRepo{docs: map[string]*models.Document{}}
}

func (f *fakeDocsRepo) stamp(d *models.Document) *models.Document {
	f.seq++
	c := *d
	c.Seq = f.seq
	now := time.Unix(0, f.seq)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return &c
}

func (f *fakeDocsRepo) Get(ctx context.Context, path string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.docs[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocsRepo) Upsert(ctx context.Context, doc *models.Document) (*models.Document, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	prev, exists := f.docs[doc.Path]
	d := *doc
	if exists {
		d.CreatedAt = prev.CreatedAt
	}
	stored := f.stamp(&d)
	f.docs[doc.Path] = stored
	return stored, !exists, nil
}

func (f *fakeDocsRepo) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, exists := f.docs[doc.Path]; exists {
		return nil, common.ErrAlreadyExists
	}
	stored := f.stamp(doc)
	f.docs[doc.Path] = stored
	return stored, nil
}

func (f *fakeDocsRepo) Merge(ctx context.Context, path string, fields json.RawMessage) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	prev, ok := f.docs[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	var base, patch map[string]json.RawMessage
	_ = json.Unmarshal(prev.Data, &base)
	_ = json.Unmarshal(fields, &patch)
	for k, v := range patch {
		base[k] = v
	}
	merged, _ := json.Marshal(base)
	d := *prev
	d.Data = merged
	stored := f.stamp(&d)
	f.docs[path] = stored
	return stored, nil
}

func (f *fakeDocsRepo) Delete(ctx context.Context, path string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.docs[path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.docs, path)
	return d, nil
}

func (f *fakeDocsRepo) ListByParent(ctx context.Context, parent string) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Document
	for _, d := range f.docs {
		if d.Parent == parent {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakePushRepo struct {
	mu        sync.Mutex
	endpoints []*models.PushEndpoint
	deleted   []string
	listErr   error
}

func (f *fakePushRepo) Create(ctx context.Context, sessionID, url string) (*models.PushEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &models.PushEndpoint{ID: "id-" + url, SessionID: sessionID, URL: url}
	f.endpoints = append(f.endpoints, e)
	return e, nil
}

func (f *fakePushRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePushRepo) ListExcept(ctx context.Context, sessionID string) ([]*models.PushEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.PushEndpoint
	for _, e := range f.endpoints {
		if e.SessionID != sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRM struct {
	docs *fakeDocsRepo
	push *fakePushRepo
}

func (f *fakeRM) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (f *fakeRM) Documents(dbx.DBTX) documents.Repository         { return f.docs }
func (f *fakeRM) PushEndpoints(dbx.DBTX) pushendpoints.Repository { return f.push }
