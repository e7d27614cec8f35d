package docstore_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/fitplate/internal/db"
	"github.com/saadjs/fitplate/internal/docstore"
)

func newTestStore(t *testing.T) (*docstore.Store, *sql.DB) {
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
	return store, sqldb
}

func ref(day string) docstore.Ref {
	return docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: "u1", Day: day}
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

func next(t *testing.T, sub *docstore.Subscription) docstore.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		if !ok {
			t.Fatalf("subscription closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return docstore.Snapshot{}
}

func TestGetMissingDocumentIsNotAnError(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	snap, err := store.Get(context.Background(), ref("2026-01-01"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Exists {
		t.Fatalf("expected missing document")
	}
}

func TestSetMergesTopLevelFields(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	r := ref("2026-01-01")

	if err := store.Set(ctx, r, []byte(`{"meals":[{"name":"Lunch"}],"note":"keep"}`)); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := store.Set(ctx, r, []byte(`{"meals":[]}`)); err != nil {
		t.Fatalf("second set: %v", err)
	}
	snap, err := store.Get(ctx, r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	doc := decode(t, snap.Data)
	if doc["note"] != "keep" {
		t.Fatalf("expected untouched field to survive merge, got %v", doc)
	}
	if meals, _ := doc["meals"].([]any); len(meals) != 0 {
		t.Fatalf("expected arrays to be replaced wholesale, got %v", doc["meals"])
	}
}

func TestSetRejectsNonObject(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	if err := store.Set(context.Background(), ref("2026-01-01"), []byte(`[1,2]`)); err == nil {
		t.Fatalf("expected array body to be rejected")
	}
}

func TestArrayUnionAndRemove(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	r := ref("2026-01-02")

	a := []byte(`{"id":"a","text":"hello"}`)
	b := []byte(`{"text":"world","id":"b"}`)
	if err := store.ArrayUnion(ctx, r, "journalEntries", a, b); err != nil {
		t.Fatalf("union: %v", err)
	}
	// Same value with different key order must not duplicate.
	if err := store.ArrayUnion(ctx, r, "journalEntries", []byte(`{"text":"hello","id":"a"}`)); err != nil {
		t.Fatalf("union again: %v", err)
	}
	snap, _ := store.Get(ctx, r)
	entries, _ := decode(t, snap.Data)["journalEntries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after idempotent union, got %d", len(entries))
	}

	if err := store.ArrayRemove(ctx, r, "journalEntries", a); err != nil {
		t.Fatalf("remove: %v", err)
	}
	snap, _ = store.Get(ctx, r)
	entries, _ = decode(t, snap.Data)["journalEntries"].([]any)
	if len(entries) != 1 || entries[0].(map[string]any)["id"] != "b" {
		t.Fatalf("expected only b to remain, got %v", entries)
	}
}

func TestArrayUnionKeepsOtherFields(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	r := ref("2026-01-03")
	if err := store.Set(ctx, r, []byte(`{"meals":[{"name":"Dinner"}]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.ArrayUnion(ctx, r, "journalEntries", []byte(`{"id":"j"}`)); err != nil {
		t.Fatalf("union: %v", err)
	}
	// A later whole-document merge without the journal field keeps it.
	if err := store.Set(ctx, r, []byte(`{"meals":[]}`)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	snap, _ := store.Get(ctx, r)
	doc := decode(t, snap.Data)
	if entries, _ := doc["journalEntries"].([]any); len(entries) != 1 {
		t.Fatalf("expected journal entry to survive merge, got %v", doc)
	}
}

func TestRangeIsHalfOpenAndOrdered(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	for _, day := range []string{"2026-02-03", "2026-02-01", "2026-02-05", "2026-02-02"} {
		if err := store.Set(ctx, ref(day), []byte(`{"day":"`+day+`"}`)); err != nil {
			t.Fatalf("set %s: %v", day, err)
		}
	}
	other := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: "u2", Day: "2026-02-02"}
	if err := store.Set(ctx, other, []byte(`{}`)); err != nil {
		t.Fatalf("set other user: %v", err)
	}

	snaps, err := store.Range(ctx, docstore.CollectionDailyLogs, "u1", "2026-02-01", "2026-02-05")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	got := make([]string, 0, len(snaps))
	for _, s := range snaps {
		got = append(got, s.Ref.Day)
	}
	want := []string{"2026-02-01", "2026-02-02", "2026-02-03"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSubscribeDeliversInitialAndUpdates(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	r := ref("2026-03-01")

	sub, err := store.Subscribe(ctx, r)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if first := next(t, sub); first.Exists {
		t.Fatalf("expected initial snapshot of missing document")
	}
	if err := store.Set(ctx, r, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	snap := next(t, sub)
	if !snap.Exists || decode(t, snap.Data)["v"] != float64(1) {
		t.Fatalf("unexpected update %+v", snap)
	}

	// Writes to other days are not delivered.
	if err := store.Set(ctx, ref("2026-03-02"), []byte(`{"v":2}`)); err != nil {
		t.Fatalf("set other day: %v", err)
	}
	select {
	case s := <-sub.Updates():
		t.Fatalf("unexpected snapshot for %s", s.Ref)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionCloseAndContext(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := store.Subscribe(ctx, ref("2026-03-05"))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	next(t, sub)
	cancel()

	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Fatalf("expected channel to close after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription did not end on context cancellation")
	}
	sub.Close()
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	_ = store.Close()
	if err := store.Set(context.Background(), ref("2026-01-01"), []byte(`{}`)); err != docstore.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCreateDoesNotOverwrite(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)
	ctx := context.Background()
	r := ref("2026-01-04")

	if err := store.Set(ctx, r, []byte(`{"meals":[{"id":"m1"}]}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	created, err := store.Create(ctx, r, []byte(`{"meals":[]}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created {
		t.Fatalf("expected existing document to be kept")
	}
	snap, err := store.Get(ctx, r)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if meals := decode(t, snap.Data)["meals"].([]any); len(meals) != 1 {
		t.Fatalf("meals = %v, want the stored meal", meals)
	}

	created, err = store.Create(ctx, ref("2026-01-05"), []byte(`{"meals":[]}`))
	if err != nil || !created {
		t.Fatalf("create missing = %v, %v", created, err)
	}
}
