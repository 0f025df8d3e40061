package docstore

import (
	"context"
	"sync"
)

// Notifier carries "collection changed" signals between writers and
// subscribers. The payload is irrelevant: subscribers always reload.
type Notifier interface {
	Publish(ctx context.Context, channel string) error
	Listen(ctx context.Context, channel string, fn func()) (stop func(), err error)
}

// ChannelFor names the notification channel of a collection.
func ChannelFor(collection string) string {
	return "docstore:" + collection
}

// LocalNotifier fans out signals inside a single process.
type LocalNotifier struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]func()
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[uint64]func())}
}

func (n *LocalNotifier) Publish(_ context.Context, channel string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, fn := range n.listeners[channel] {
		fn()
	}
	return nil
}

func (n *LocalNotifier) Listen(_ context.Context, channel string, fn func()) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.listeners[channel] == nil {
		n.listeners[channel] = make(map[uint64]func())
	}
	n.listeners[channel][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners[channel], id)
		if len(n.listeners[channel]) == 0 {
			delete(n.listeners, channel)
		}
	}, nil
}
