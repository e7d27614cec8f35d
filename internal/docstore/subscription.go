package docstore

import (
	"context"
	"log/slog"
	"sync"
)

// Subscription streams full-document snapshots for one Ref. Only the most
// recent undelivered snapshot is buffered; a slow reader skips intermediate
// states but always ends on the latest one.
type Subscription struct {
	updates <-chan Snapshot
	stop    func()
	once    sync.Once
}

// NewSubscription wraps a snapshot channel and the function that detaches it.
func NewSubscription(updates <-chan Snapshot, stop func()) *Subscription {
	return &Subscription{updates: updates, stop: stop}
}

func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Close detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

type feed struct {
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
}

func (f *feed) deliver(snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- snap
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}

// Subscribe attaches a live listener to ref. The current state is delivered
// first (Exists=false when the document is missing), then one snapshot per
// committed write. The subscription ends on Close, on ctx cancellation or when
// the store closes.
func (s *Store) Subscribe(ctx context.Context, ref Ref) (*Subscription, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	f := &feed{ch: make(chan Snapshot, 1)}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.feeds[ref] == nil {
		s.feeds[ref] = map[*feed]struct{}{}
	}
	s.feeds[ref][f] = struct{}{}
	s.mu.Unlock()

	initial, err := s.read(ctx, s.db, ref)
	if err != nil {
		s.detach(ref, f)
		return nil, err
	}
	f.deliver(initial)

	done := make(chan struct{})
	sub := NewSubscription(f.ch, func() {
		s.detach(ref, f)
		close(done)
	})
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-done:
		}
	}()
	s.log.Debug("subscription_attached", slog.String("ref", ref.String()))
	return sub, nil
}

func (s *Store) detach(ref Ref, f *feed) {
	s.mu.Lock()
	if set, ok := s.feeds[ref]; ok {
		delete(set, f)
		if len(set) == 0 {
			delete(s.feeds, ref)
		}
	}
	s.mu.Unlock()
	f.close()
	s.log.Debug("subscription_detached", slog.String("ref", ref.String()))
}

// notify fans the committed state of ref out to its subscribers. Callers hold
// writeMu.
func (s *Store) notify(ctx context.Context, ref Ref) {
	s.mu.Lock()
	set := s.feeds[ref]
	targets := make([]*feed, 0, len(set))
	for f := range set {
		targets = append(targets, f)
	}
	s.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	snap, err := s.read(context.WithoutCancel(ctx), s.db, ref)
	if err != nil {
		s.log.Warn("subscription_notify_read_failed", slog.String("ref", ref.String()), slog.Any("err", err))
		return
	}
	for _, f := range targets {
		f.deliver(snap)
	}
}
