package logstore

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/saadjs/fitplate/internal/db"
	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/model"
)

type fakeRemote struct {
	mu     sync.Mutex
	events []string
	feeds  map[string]chan docstore.Snapshot
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{feeds: map[string]chan docstore.Snapshot{}}
}

func (f *fakeRemote) Subscribe(_ context.Context, ref docstore.Ref) (*docstore.Subscription, error) {
	ch := make(chan docstore.Snapshot, 4)
	ch <- docstore.Snapshot{Ref: ref}
	f.mu.Lock()
	f.events = append(f.events, "subscribe "+ref.Day)
	f.feeds[ref.Day] = ch
	f.mu.Unlock()
	return docstore.NewSubscription(ch, func() {
		f.mu.Lock()
		f.events = append(f.events, "close "+ref.Day)
		delete(f.feeds, ref.Day)
		f.mu.Unlock()
		close(ch)
	}), nil
}

func (f *fakeRemote) Create(context.Context, docstore.Ref, []byte) (bool, error) {
	return true, nil
}

func (f *fakeRemote) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type recordingWidgets struct {
	mu   sync.Mutex
	days []string
}

func (r *recordingWidgets) Export(_ context.Context, _ string, log model.DailyLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append(r.days, model.DayKey(log.Date))
}

func (r *recordingWidgets) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.days)
}

func newTestDocstore(t *testing.T) *docstore.Store {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "fitplate.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	store := docstore.New(sqldb, nil)
	t.Cleanup(func() {
		_ = store.Close()
		_ = sqldb.Close()
	})
	return store
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := model.ParseDay(value)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestObserveSameDayReusesSubscription(t *testing.T) {
	t.Parallel()
	remote := newFakeRemote()
	s := New(remote, Options{})
	defer s.Close()
	ctx := testContext(t)
	day := mustDay(t, "2026-03-01")

	if _, err := s.Observe(ctx, "u1", day); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if _, err := s.Observe(ctx, "u1", day.Add(15*time.Hour)); err != nil {
		t.Fatalf("observe again: %v", err)
	}
	if got := remote.log(); !reflect.DeepEqual(got, []string{"subscribe 2026-03-01"}) {
		t.Fatalf("events = %v", got)
	}
}

func TestSwitchingDayDetachesBeforeAttaching(t *testing.T) {
	t.Parallel()
	remote := newFakeRemote()
	s := New(remote, Options{})
	defer s.Close()
	ctx := testContext(t)

	if _, err := s.Observe(ctx, "u1", mustDay(t, "2026-03-01")); err != nil {
		t.Fatalf("observe a: %v", err)
	}
	got, err := s.Observe(ctx, "u1", mustDay(t, "2026-03-02"))
	if err != nil {
		t.Fatalf("observe b: %v", err)
	}
	if model.DayKey(got.Date) != "2026-03-02" {
		t.Fatalf("observed %s", model.DayKey(got.Date))
	}
	want := []string{"subscribe 2026-03-01", "close 2026-03-01", "subscribe 2026-03-02"}
	if events := remote.log(); !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestLateSnapshotForPreviousDayIsDiscarded(t *testing.T) {
	t.Parallel()
	s := New(newFakeRemote(), Options{})
	defer s.Close()
	ctx := testContext(t)
	dayA := mustDay(t, "2026-03-01")
	dayB := mustDay(t, "2026-03-02")

	if _, err := s.Observe(ctx, "u1", dayA); err != nil {
		t.Fatalf("observe a: %v", err)
	}
	s.mu.Lock()
	genA := s.gen
	s.mu.Unlock()
	if _, err := s.Observe(ctx, "u1", dayB); err != nil {
		t.Fatalf("observe b: %v", err)
	}

	late := model.NewDailyLog("u1", dayA)
	late.Meals = []model.Meal{{ID: "m", Name: "Lunch", FoodItems: []model.FoodItem{{ID: "f", Name: "Soup", Calories: 300}}}}
	if s.promote(genA, "u1", "2026-03-01", late) {
		t.Fatalf("stale snapshot was promoted")
	}
	s.handle(genA, "u1", dayA, docstore.Snapshot{
		Ref:    docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: "u1", Day: "2026-03-01"},
		Exists: true,
		Data:   []byte(`{"meals":[{"id":"m","name":"Lunch","foodItems":[{"id":"f","name":"Soup","calories":300}]}]}`),
	})

	current, ok := s.Current()
	if !ok {
		t.Fatalf("expected cached aggregate")
	}
	if model.DayKey(current.Date) != "2026-03-02" || !current.IsEmpty() {
		t.Fatalf("cache overwritten by stale snapshot: %+v", current)
	}
}

func TestMissingDayIsMaterializedAndIdempotent(t *testing.T) {
	t.Parallel()
	remote := newTestDocstore(t)
	ctx := testContext(t)
	day := mustDay(t, "2026-03-05")

	s := New(remote, Options{})
	first, err := s.Observe(ctx, "u1", day)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	s.Close()

	snap, err := remote.Get(ctx, docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: "u1", Day: "2026-03-05"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !snap.Exists {
		t.Fatalf("expected empty document to be written back")
	}

	second, err := s.Observe(ctx, "u1", day)
	if err != nil {
		t.Fatalf("observe again: %v", err)
	}
	s.Close()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("empty aggregates differ:\n%+v\n%+v", first, second)
	}
}

func TestUndecodableSnapshotFallsBackToEmpty(t *testing.T) {
	t.Parallel()
	remote := newTestDocstore(t)
	ctx := testContext(t)
	ref := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: "u1", Day: "2026-03-06"}
	if err := remote.Set(ctx, ref, []byte(`{"meals":"not a list"}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := New(remote, Options{})
	defer s.Close()
	got, err := s.Observe(ctx, "u1", mustDay(t, "2026-03-06"))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if !reflect.DeepEqual(got, model.NewDailyLog("u1", mustDay(t, "2026-03-06"))) {
		t.Fatalf("expected empty aggregate, got %+v", got)
	}
}

func TestRemoteWritesArePromotedAndExported(t *testing.T) {
	t.Parallel()
	remote := newTestDocstore(t)
	widgets := &recordingWidgets{}
	ctx := testContext(t)
	day := mustDay(t, "2026-03-07")

	s := New(remote, Options{Widgets: widgets})
	defer s.Close()
	if _, err := s.Observe(ctx, "u1", day); err != nil {
		t.Fatalf("observe: %v", err)
	}

	ref := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: "u1", Day: "2026-03-07"}
	if err := remote.Set(ctx, ref, []byte(`{"exercises":[{"id":"e1","name":"Run","caloriesBurned":250,"source":"manual"}]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		current, _ := s.Current()
		if len(current.Exercises) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("remote write never promoted: %+v", current)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if widgets.count() < 2 {
		t.Fatalf("widget exports = %d, want one per promotion", widgets.count())
	}
}

func TestPublishOnlyAppliesToViewedDay(t *testing.T) {
	t.Parallel()
	s := New(newFakeRemote(), Options{})
	defer s.Close()
	ctx := testContext(t)
	day := mustDay(t, "2026-03-01")

	other := model.NewDailyLog("u1", mustDay(t, "2026-03-02"))
	if s.Publish(other) {
		t.Fatalf("publish applied while idle")
	}
	if _, err := s.Observe(ctx, "u1", day); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if s.Publish(other) {
		t.Fatalf("publish applied to a day that is not viewed")
	}

	viewed := model.NewDailyLog("u1", day)
	viewed.Water = &model.WaterTracker{TotalOunces: 8, GoalOunces: 64, Date: day}
	if !s.Publish(viewed) {
		t.Fatalf("publish for viewed day not applied")
	}
	cached, ok := s.CachedFor("u1", day)
	if !ok || cached.Water == nil || cached.Water.TotalOunces != 8 {
		t.Fatalf("cached = %+v, %v", cached, ok)
	}
}

func TestObserveHonoursContext(t *testing.T) {
	t.Parallel()
	s := New(stallingRemote{}, Options{})
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Observe(ctx, "u1", mustDay(t, "2026-03-01")); err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

// stallingRemote never delivers a snapshot.
type stallingRemote struct{}

func (stallingRemote) Subscribe(context.Context, docstore.Ref) (*docstore.Subscription, error) {
	ch := make(chan docstore.Snapshot)
	return docstore.NewSubscription(ch, func() { close(ch) }), nil
}

func (stallingRemote) Create(context.Context, docstore.Ref, []byte) (bool, error) {
	return false, nil
}
