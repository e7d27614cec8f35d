package service_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/saadjs/fitplate/internal/db"
	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
	"github.com/saadjs/fitplate/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fitplate.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	return sqldb
}

func newTestStore(t *testing.T) (*docstore.Store, *sql.DB) {
	t.Helper()
	sqldb := newTestDB(t)
	store := docstore.New(sqldb, nil)
	t.Cleanup(func() { _ = store.Close() })
	return store, sqldb
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := model.ParseDay(value)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func loadLog(t *testing.T, store *docstore.Store, userID string, day time.Time) model.DailyLog {
	t.Helper()
	snap, err := store.Get(context.Background(), docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: userID, Day: model.DayKey(day)})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !snap.Exists {
		t.Fatalf("no document for %s", model.DayKey(day))
	}
	l, err := model.DecodeDailyLog(snap.Data, userID, day)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return l
}

func allItems(l model.DailyLog) []model.FoodItem {
	out := []model.FoodItem{}
	for _, m := range l.Meals {
		out = append(out, m.FoodItems...)
	}
	return out
}

// recorder implements every notify collaborator and keeps what it was told.
type recorder struct {
	mu        sync.Mutex
	banners   []banner
	kinds     []notify.MutationKind
	foods     []string
	waters    []float64
	exercises []string
	exports   int
}

type banner struct {
	title, message string
	severity       notify.Severity
}

func (r *recorder) Show(title, message string, severity notify.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banners = append(r.banners, banner{title, message, severity})
}

func (r *recorder) Record(_ context.Context, _ string, kind notify.MutationKind, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorder) LogFood(_ context.Context, _ string, item model.FoodItem, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.foods = append(r.foods, item.Name)
}

func (r *recorder) LogWater(_ context.Context, _ string, ounces float64, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waters = append(r.waters, ounces)
}

func (r *recorder) LogExercise(_ context.Context, _ string, ex model.LoggedExercise) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exercises = append(r.exercises, ex.Name)
}

func (r *recorder) Export(context.Context, string, model.DailyLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports++
}

func (r *recorder) lastBanner() banner {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.banners) == 0 {
		return banner{}
	}
	return r.banners[len(r.banners)-1]
}

func (r *recorder) collaborators() service.Collaborators {
	return service.Collaborators{Banner: r, Achievements: r, Health: r, Widgets: r}
}
