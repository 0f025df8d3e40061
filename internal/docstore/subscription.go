package docstore

import "context"

// Snapshot is the full current content of a collection. Err is set when the
// backend failed to load the collection; the subscription stays open and
// retries on the next change.
type Snapshot struct {
	Collection string
	Docs       []Document
	Err        error
}

// Subscription delivers snapshots of one collection until closed.
//
// Change notifications coalesce: if several writes land while the consumer
// is busy, it receives one snapshot reflecting all of them. Consumers must
// therefore re-derive state from each snapshot rather than apply deltas.
type Subscription struct {
	collection string
	load       func(ctx context.Context) ([]Document, error)
	onClose    func()

	wake   chan struct{}
	out    chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

// newSubscription prepares a subscription; notify may be called before start
// and only schedules a load.
func newSubscription(collection string, load func(ctx context.Context) ([]Document, error)) *Subscription {
	s := &Subscription{
		collection: collection,
		load:       load,
		wake:       make(chan struct{}, 1),
		out:        make(chan Snapshot),
		done:       make(chan struct{}),
	}
	s.wake <- struct{}{} // initial snapshot
	return s
}

// start begins delivery. onClose runs once when delivery ends.
func (s *Subscription) start(parent context.Context, onClose func()) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.onClose = onClose
	go s.run(ctx)
}

// Updates is closed once the subscription ends.
func (s *Subscription) Updates() <-chan Snapshot { return s.out }

// Close stops delivery and waits for the delivery goroutine to exit.
// Writes already issued by the caller are unaffected.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.out)
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		docs, err := s.load(ctx)
		if ctx.Err() != nil {
			return
		}
		snap := Snapshot{Collection: s.collection, Docs: docs, Err: err}

		select {
		case s.out <- snap:
		case <-ctx.Done():
			return
		}
	}
}
