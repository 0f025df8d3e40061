package docstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps documents in process. Used by tests and the
// STORE_DRIVER=memory mode.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
	subs map[string]map[*Subscription]struct{}
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]Document),
		subs: make(map[string]map[*Subscription]struct{}),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	d.Fields = d.Fields.Clone()
	return d, nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]Document)
		m.docs[collection] = coll
	}
	coll[id] = Document{Collection: collection, ID: id, Fields: fields.Clone(), UpdatedAt: m.now()}
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	_, existed := m.docs[collection][id]
	delete(m.docs[collection], id)
	m.mu.Unlock()

	if existed {
		m.notify(collection)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Document, 0, len(m.docs[collection]))
	for _, d := range m.docs[collection] {
		d.Fields = d.Fields.Clone()
		out = append(out, d)
	}
	sortDocs(out)
	return out, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	sub := newSubscription(collection, func(ctx context.Context) ([]Document, error) {
		return m.List(ctx, collection)
	})

	m.mu.Lock()
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[*Subscription]struct{})
	}
	m.subs[collection][sub] = struct{}{}
	m.mu.Unlock()

	sub.start(ctx, func() {
		m.mu.Lock()
		delete(m.subs[collection], sub)
		m.mu.Unlock()
	})
	return sub, nil
}

func (m *MemoryStore) notify(collection string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for s := range m.subs[collection] {
		s.notify()
	}
}
