// Package logstore keeps the aggregate of the currently viewed day in memory,
// fed by a single live document subscription.
package logstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/metrics"
	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
)

// ErrSuperseded is returned by Observe when another Observe for a different
// day replaced it before its first snapshot arrived.
var ErrSuperseded = errors.New("observation superseded")

// Remote is the part of the document store the log store needs.
type Remote interface {
	Subscribe(ctx context.Context, ref docstore.Ref) (*docstore.Subscription, error)
	Create(ctx context.Context, ref docstore.Ref, data []byte) (bool, error)
}

type Options struct {
	Widgets notify.WidgetExporter
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Store struct {
	remote  Remote
	widgets notify.WidgetExporter
	metrics *metrics.Metrics
	log     *slog.Logger

	// mu guards everything below. Promotions and optimistic publishes both
	// write the cache under it.
	mu     sync.Mutex
	active bool
	gen    uint64
	userID string
	day    string
	date   time.Time
	cached *model.DailyLog
	ready  chan struct{}
	sub    *docstore.Subscription
}

func New(remote Remote, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	widgets := opts.Widgets
	if widgets == nil {
		widgets = notify.Nop{}
	}
	return &Store{
		remote:  remote,
		widgets: widgets,
		metrics: opts.Metrics,
		log:     log.With(slog.String("component", "logstore")),
	}
}

// Observe makes (userID, date) the viewed day and returns its aggregate once
// the first snapshot has been promoted. Observing the day already being viewed
// reuses the live subscription.
func (s *Store) Observe(ctx context.Context, userID string, date time.Time) (model.DailyLog, error) {
	date = model.StartOfDay(date)
	day := model.DayKey(date)

	s.mu.Lock()
	if s.active && s.userID == userID && s.day == day {
		ready := s.ready
		s.mu.Unlock()
		return s.await(ctx, ready, userID, day)
	}
	old := s.sub
	s.sub = nil
	release(s.ready)
	s.gen++
	gen := s.gen
	s.active = true
	s.userID, s.day, s.date = userID, day, date
	s.cached = nil
	ready := make(chan struct{})
	s.ready = ready
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}

	ref := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: userID, Day: day}
	// The subscription outlives this call; Close or the next Observe ends it.
	sub, err := s.remote.Subscribe(context.Background(), ref)
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.active = false
		}
		s.mu.Unlock()
		return model.DailyLog{}, fmt.Errorf("observe %s: %w", ref, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		sub.Close()
		return model.DailyLog{}, ErrSuperseded
	}
	s.sub = sub
	s.mu.Unlock()

	s.log.Debug("observe_attached", slog.String("user_id", userID), slog.String("day", day))
	go s.pump(gen, userID, date, sub)
	return s.await(ctx, ready, userID, day)
}

func (s *Store) await(ctx context.Context, ready <-chan struct{}, userID, day string) (model.DailyLog, error) {
	select {
	case <-ready:
	case <-ctx.Done():
		return model.DailyLog{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.userID != userID || s.day != day || s.cached == nil {
		return model.DailyLog{}, ErrSuperseded
	}
	return s.cached.Clone(), nil
}

func (s *Store) pump(gen uint64, userID string, date time.Time, sub *docstore.Subscription) {
	for snap := range sub.Updates() {
		s.handle(gen, userID, date, snap)
	}
}

func (s *Store) handle(gen uint64, userID string, date time.Time, snap docstore.Snapshot) {
	if snap.Ref.UserID != userID || snap.Ref.Day != model.DayKey(date) {
		s.metrics.Snapshot("stale")
		return
	}

	if !snap.Exists {
		empty := model.NewDailyLog(userID, date)
		s.materialize(snap.Ref, empty)
		s.promote(gen, userID, snap.Ref.Day, empty)
		return
	}

	log, err := model.DecodeDailyLog(snap.Data, userID, date)
	if err != nil {
		s.metrics.Snapshot("decode_error")
		s.log.Warn("snapshot_decode_failed", slog.String("ref", snap.Ref.String()), slog.Any("err", err))
		log = model.NewDailyLog(userID, date)
	}
	s.promote(gen, userID, snap.Ref.Day, log)
}

// materialize persists the empty aggregate for a day that has no document
// yet. A document written concurrently by a mutation is never overwritten.
func (s *Store) materialize(ref docstore.Ref, empty model.DailyLog) {
	data, err := empty.Encode()
	if err != nil {
		s.log.Error("materialize_encode_failed", slog.String("ref", ref.String()), slog.Any("err", err))
		return
	}
	created, err := s.remote.Create(context.Background(), ref, data)
	if err != nil {
		s.log.Warn("materialize_failed", slog.String("ref", ref.String()), slog.Any("err", err))
		return
	}
	if created {
		s.metrics.Snapshot("materialized")
	}
}

// promote installs log as the cached aggregate if (userID, day, gen) still
// identify the active observation. It reports whether the cache changed.
func (s *Store) promote(gen uint64, userID, day string, log model.DailyLog) bool {
	s.mu.Lock()
	if !s.active || s.gen != gen || s.userID != userID || s.day != day {
		s.mu.Unlock()
		s.metrics.Snapshot("stale")
		s.log.Debug("snapshot_discarded", slog.String("user_id", userID), slog.String("day", day))
		return false
	}
	cached := log.Clone()
	s.cached = &cached
	release(s.ready)
	s.mu.Unlock()

	s.metrics.Snapshot("promoted")
	s.widgets.Export(context.Background(), userID, log)
	return true
}

// Current returns a copy of the cached aggregate, if any.
func (s *Store) Current() (model.DailyLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		return model.DailyLog{}, false
	}
	return s.cached.Clone(), true
}

// CurrentDate returns the viewed user and day. ok is false while idle.
func (s *Store) CurrentDate() (userID string, date time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return "", time.Time{}, false
	}
	return s.userID, s.date, true
}

// CachedFor returns the cached aggregate when (userID, date) is the viewed
// day and a snapshot has been promoted for it.
func (s *Store) CachedFor(userID string, date time.Time) (model.DailyLog, bool) {
	day := model.DayKey(date)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.cached == nil || s.userID != userID || s.day != day {
		return model.DailyLog{}, false
	}
	return s.cached.Clone(), true
}

// Publish replaces the cached aggregate ahead of the remote write. It is a
// no-op unless log belongs to the viewed day; it reports whether it applied.
func (s *Store) Publish(log model.DailyLog) bool {
	day := model.DayKey(log.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.userID != log.UserID || s.day != day {
		return false
	}
	cached := log.Clone()
	s.cached = &cached
	return true
}

// Close detaches the live subscription and returns the store to idle.
func (s *Store) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.active = false
	s.cached = nil
	release(s.ready)
	s.gen++
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// release wakes everyone waiting on ready. Callers hold mu.
func release(ready chan struct{}) {
	if ready == nil {
		return
	}
	select {
	case <-ready:
	default:
		close(ready)
	}
}
