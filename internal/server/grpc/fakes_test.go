package grpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/docpath"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"github.com/dmitrijs2005/ttychat/internal/server/services"
)

type fakeAuth struct {
	token string
	sid   string
	err   error
}

func (f *fakeAuth) Authenticate(ctx context.Context, accessKey, sessionID string) (string, string, error) {
	return f.token, f.sid, f.err
}

// fakeDocs is a minimal in-memory document service. Watch hands out the
// changes channel so tests can push live events.
type fakeDocs struct {
	mu      sync.Mutex
	docs    map[string]*models.Document
	err     error
	changes chan models.Change
	closed  bool
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]*models.Document{}, changes: make(chan models.Change, 8)}
}

func (f *fakeDocs) put(path string, data string) *models.Document {
	parent, id, _ := docpath.Split(path)
	d := &models.Document{Path: path, Parent: parent, ID: id, Data: json.RawMessage(data)}
	f.docs[path] = d
	return d
}

func (f *fakeDocs) Get(ctx context.Context, path string) (*models.Document, error) {
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

func (f *fakeDocs) Set(ctx context.Context, path string, data json.RawMessage, ts []string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.put(path, string(data)), nil
}

func (f *fakeDocs) Update(ctx context.Context, path string, data json.RawMessage, ts []string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[path]; !ok {
		return nil, common.ErrorNotFound
	}
	return f.put(path, string(data)), nil
}

func (f *fakeDocs) Create(ctx context.Context, path string, data json.RawMessage, ts []string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[path]; ok {
		return nil, common.ErrAlreadyExists
	}
	return f.put(path, string(data)), nil
}

func (f *fakeDocs) Add(ctx context.Context, collection string, data json.RawMessage, ts []string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(collection+"/generated", string(data)), nil
}

func (f *fakeDocs) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, path)
	return f.err
}

func (f *fakeDocs) List(ctx context.Context, collection string) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Document
	for _, d := range f.docs {
		if d.Parent == collection {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) Watch(ctx context.Context, path string) (*services.Watch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var snap []*models.Document
	if d, ok := f.docs[path]; ok {
		snap = append(snap, d)
	}
	for _, d := range f.docs {
		if d.Parent == path {
			snap = append(snap, d)
		}
	}
	return services.NewWatch(snap, f.changes, func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
	}), nil
}

type fakeNotifications struct {
	mu         sync.Mutex
	lastSender string
	lastAuthor string
	lastBody   string
	registered map[string]string
	delivered  int
	err        error
}

func (f *fakeNotifications) Register(ctx context.Context, sessionID, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registered == nil {
		f.registered = map[string]string{}
	}
	f.registered[url] = sessionID
	return "push-1", f.err
}

func (f *fakeNotifications) Unregister(ctx context.Context, id string) error { return f.err }

func (f *fakeNotifications) Notify(ctx context.Context, sender, author, body string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSender, f.lastAuthor, f.lastBody = sender, author, body
	return f.delivered, f.err
}
