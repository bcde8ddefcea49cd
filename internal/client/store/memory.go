package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/docpath"
	"github.com/google/uuid"
)

// Memory is an in-process DocumentStore. Timestamps are strictly
// increasing across all writes.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]*Document
	seq      int64
	last     time.Time
	now      func() time.Time
	watchers map[string]map[*memWatcher]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]*Document),
		now:      time.Now,
		watchers: make(map[string]map[*memWatcher]struct{}),
	}
}

// memWatcher buffers changes without bound so writers never block on a
// slow reader.
type memWatcher struct {
	mu     sync.Mutex
	queue  []Change
	notify chan struct{}
}

func (w *memWatcher) push(c Change) {
	w.mu.Lock()
	w.queue = append(w.queue, c)
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *memWatcher) drain() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()
	q := w.queue
	w.queue = nil
	return q
}

func (m *Memory) tick() time.Time {
	t := m.now()
	if !t.After(m.last) {
		t = m.last.Add(time.Nanosecond)
	}
	m.last = t
	return t
}

func cloneDoc(d *Document) *Document {
	c := *d
	c.Data = append(json.RawMessage(nil), d.Data...)
	return &c
}

func (m *Memory) prepare(data any, serverTimestamps []string, now time.Time) (json.RawMessage, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, ErrInvalidPath
	}
	if len(serverTimestamps) == 0 {
		return raw, nil
	}
	ts, _ := json.Marshal(now.UTC().Format(time.RFC3339Nano))
	for _, f := range serverTimestamps {
		fields[f] = ts
	}
	return json.Marshal(fields)
}

func (m *Memory) publishLocked(c Change) {
	parent, _, _ := docpath.Split(c.Document.Path)
	for _, p := range []string{c.Document.Path, parent} {
		for w := range m.watchers[p] {
			w.push(Change{Type: c.Type, Document: cloneDoc(c.Document)})
		}
	}
}

func (m *Memory) Get(ctx context.Context, path string) (*Document, error) {
	if !docpath.IsDocument(path) {
		return nil, ErrInvalidPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(d), nil
}

func (m *Memory) put(path string, data any, serverTimestamps []string, mustExist, mustNotExist, merge bool) (*Document, error) {
	_, id, err := docpath.Split(path)
	if err != nil {
		return nil, ErrInvalidPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, exists := m.docs[path]
	if mustExist && !exists {
		return nil, ErrNotFound
	}
	if mustNotExist && exists {
		return nil, ErrAlreadyExists
	}

	now := m.tick()
	raw, err := m.prepare(data, serverTimestamps, now)
	if err != nil {
		return nil, err
	}

	if merge && exists {
		var base, patch map[string]json.RawMessage
		_ = json.Unmarshal(prev.Data, &base)
		_ = json.Unmarshal(raw, &patch)
		if base == nil {
			base = map[string]json.RawMessage{}
		}
		for k, v := range patch {
			base[k] = v
		}
		raw, _ = json.Marshal(base)
	}

	m.seq++
	d := &Document{Path: path, ID: id, Data: raw, Seq: m.seq, CreateTime: now, UpdateTime: now}
	t := ChangeAdded
	if exists {
		d.CreateTime = prev.CreateTime
		t = ChangeModified
	}
	m.docs[path] = d
	m.publishLocked(Change{Type: t, Document: d})
	return cloneDoc(d), nil
}

func (m *Memory) Set(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error) {
	return m.put(path, data, serverTimestamps, false, false, false)
}

func (m *Memory) Update(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error) {
	return m.put(path, data, serverTimestamps, true, false, true)
}

func (m *Memory) Create(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error) {
	return m.put(path, data, serverTimestamps, false, true, false)
}

func (m *Memory) Add(ctx context.Context, collection string, data any, serverTimestamps ...string) (*Document, error) {
	if !docpath.IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	return m.Create(ctx, docpath.Join(collection, uuid.NewString()), data, serverTimestamps...)
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	if !docpath.IsDocument(path) {
		return ErrInvalidPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	if !ok {
		return nil
	}
	delete(m.docs, path)
	m.publishLocked(Change{Type: ChangeRemoved, Document: d})
	return nil
}

func (m *Memory) listLocked(collection string) []*Document {
	var out []*Document
	for _, d := range m.docs {
		if parent, _, err := docpath.Split(d.Path); err == nil && parent == collection {
			out = append(out, cloneDoc(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreateTime.Equal(out[j].CreateTime) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreateTime.Before(out[j].CreateTime)
	})
	return out
}

func (m *Memory) List(ctx context.Context, collection string) ([]*Document, error) {
	if !docpath.IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(collection), nil
}

func (m *Memory) WatchDocument(ctx context.Context, path string) (<-chan Change, error) {
	if !docpath.IsDocument(path) {
		return nil, ErrInvalidPath
	}
	return m.watch(ctx, path, func() []*Document {
		if d, ok := m.docs[path]; ok {
			return []*Document{cloneDoc(d)}
		}
		return nil
	}), nil
}

func (m *Memory) WatchCollection(ctx context.Context, collection string) (<-chan Change, error) {
	if !docpath.IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	return m.watch(ctx, collection, func() []*Document { return m.listLocked(collection) }), nil
}

func (m *Memory) watch(ctx context.Context, path string, snapshot func() []*Document) <-chan Change {
	w := &memWatcher{notify: make(chan struct{}, 1)}

	m.mu.Lock()
	for _, d := range snapshot() {
		w.push(Change{Type: ChangeAdded, Document: d})
	}
	w.push(Change{Type: ChangeSynced})
	set, ok := m.watchers[path]
	if !ok {
		set = make(map[*memWatcher]struct{})
		m.watchers[path] = set
	}
	set[w] = struct{}{}
	m.mu.Unlock()

	out := make(chan Change)
	go func() {
		defer close(out)
		defer func() {
			m.mu.Lock()
			delete(m.watchers[path], w)
			if len(m.watchers[path]) == 0 {
				delete(m.watchers, path)
			}
			m.mu.Unlock()
		}()

		for {
			for _, c := range w.drain() {
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-w.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
