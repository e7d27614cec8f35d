// Package docstore is a per-day JSON document store on SQLite. Documents are
// keyed by (collection, user, day) and support merge-writes, atomic array
// union/remove on a top-level field, ordered range queries and live
// subscriptions that receive the full document after every committed write.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const (
	CollectionDailyLogs  = "dailyLogs"
	CollectionMealScores = "mealScores"
)

var (
	ErrClosed      = errors.New("document store closed")
	errNotAnObject = errors.New("document body must be a JSON object")
)

// Ref addresses one document.
type Ref struct {
	Collection string
	UserID     string
	Day        string
}

func (r Ref) String() string {
	return r.Collection + "/" + r.UserID + "/" + r.Day
}

func (r Ref) validate() error {
	if strings.TrimSpace(r.Collection) == "" || strings.TrimSpace(r.UserID) == "" || strings.TrimSpace(r.Day) == "" {
		return fmt.Errorf("document ref %q is incomplete", r.String())
	}
	return nil
}

// Snapshot is the full state of a document at some point. A missing document
// is reported with Exists=false and no error.
type Snapshot struct {
	Ref    Ref
	Exists bool
	Data   []byte
}

type Store struct {
	db  *sql.DB
	log *slog.Logger

	// writeMu orders commits with their notifications so subscribers never
	// see an older state after a newer one.
	writeMu sync.Mutex

	mu     sync.Mutex
	feeds  map[Ref]map[*feed]struct{}
	closed bool
}

func New(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		db:    db,
		log:   log.With(slog.String("component", "docstore")),
		feeds: map[Ref]map[*feed]struct{}{},
	}
}

// Get performs a one-shot read.
func (s *Store) Get(ctx context.Context, ref Ref) (Snapshot, error) {
	if err := ref.validate(); err != nil {
		return Snapshot{}, err
	}
	return s.read(ctx, s.db, ref)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) read(ctx context.Context, q queryer, ref Ref) (Snapshot, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND user_id = ? AND day = ?`,
		ref.Collection, ref.UserID, ref.Day).Scan(&body)
	if err == sql.ErrNoRows {
		return Snapshot{Ref: ref}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", ref, err)
	}
	return Snapshot{Ref: ref, Exists: true, Data: []byte(body)}, nil
}

// Set merge-writes data into the document, creating it when absent. Top-level
// fields present in data replace the stored ones (arrays wholesale, objects
// merged recursively); fields absent from data are kept.
func (s *Store) Set(ctx context.Context, ref Ref, data []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}
	if err := requireObject(data); err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents(collection, user_id, day, body)
VALUES(?, ?, ?, ?)
ON CONFLICT(collection, user_id, day) DO UPDATE SET
  body = json_patch(documents.body, excluded.body),
  updated_at = CURRENT_TIMESTAMP
`, ref.Collection, ref.UserID, ref.Day, string(data))
	if err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	s.notify(ctx, ref)
	return nil
}

// Replace overwrites the whole document with data.
func (s *Store) Replace(ctx context.Context, ref Ref, data []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}
	if err := requireObject(data); err != nil {
		return fmt.Errorf("replace %s: %w", ref, err)
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents(collection, user_id, day, body)
VALUES(?, ?, ?, ?)
ON CONFLICT(collection, user_id, day) DO UPDATE SET
  body = excluded.body,
  updated_at = CURRENT_TIMESTAMP
`, ref.Collection, ref.UserID, ref.Day, string(data))
	if err != nil {
		return fmt.Errorf("replace %s: %w", ref, err)
	}
	s.notify(ctx, ref)
	return nil
}

// Create writes data only when the document does not exist yet. It reports
// whether a document was created.
func (s *Store) Create(ctx context.Context, ref Ref, data []byte) (bool, error) {
	if err := ref.validate(); err != nil {
		return false, err
	}
	if err := requireObject(data); err != nil {
		return false, fmt.Errorf("create %s: %w", ref, err)
	}
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
INSERT INTO documents(collection, user_id, day, body)
VALUES(?, ?, ?, ?)
ON CONFLICT(collection, user_id, day) DO NOTHING
`, ref.Collection, ref.UserID, ref.Day, string(data))
	if err != nil {
		return false, fmt.Errorf("create %s: %w", ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create %s: %w", ref, err)
	}
	if n == 0 {
		return false, nil
	}
	s.notify(ctx, ref)
	return true, nil
}

// ArrayUnion appends each value to the array field unless an equal element is
// already present. Equality compares decoded JSON values.
func (s *Store) ArrayUnion(ctx context.Context, ref Ref, field string, values ...[]byte) error {
	return s.updateArray(ctx, ref, field, func(current []json.RawMessage) ([]json.RawMessage, error) {
		for _, v := range values {
			key, err := canonical(v)
			if err != nil {
				return nil, err
			}
			found := false
			for _, existing := range current {
				ek, err := canonical(existing)
				if err == nil && ek == key {
					found = true
					break
				}
			}
			if !found {
				current = append(current, json.RawMessage(v))
			}
		}
		return current, nil
	})
}

// ArrayRemove deletes every element of the array field equal to one of values.
func (s *Store) ArrayRemove(ctx context.Context, ref Ref, field string, values ...[]byte) error {
	return s.updateArray(ctx, ref, field, func(current []json.RawMessage) ([]json.RawMessage, error) {
		drop := map[string]struct{}{}
		for _, v := range values {
			key, err := canonical(v)
			if err != nil {
				return nil, err
			}
			drop[key] = struct{}{}
		}
		kept := make([]json.RawMessage, 0, len(current))
		for _, existing := range current {
			if ek, err := canonical(existing); err == nil {
				if _, ok := drop[ek]; ok {
					continue
				}
			}
			kept = append(kept, existing)
		}
		return kept, nil
	})
}

func (s *Store) updateArray(ctx context.Context, ref Ref, field string, apply func([]json.RawMessage) ([]json.RawMessage, error)) error {
	if err := ref.validate(); err != nil {
		return err
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return fmt.Errorf("array field name is required")
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin array update on %s: %w", ref, err)
	}
	defer func() { _ = tx.Rollback() }()

	snap, err := s.read(ctx, tx, ref)
	if err != nil {
		return err
	}
	doc := map[string]json.RawMessage{}
	if snap.Exists {
		if err := json.Unmarshal(snap.Data, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", ref, err)
		}
	}
	var current []json.RawMessage
	if raw, ok := doc[field]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("field %q of %s is not an array: %w", field, ref, err)
		}
	}
	next, err := apply(current)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", ref, field, err)
	}
	if next == nil {
		next = []json.RawMessage{}
	}
	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s.%s: %w", ref, field, err)
	}
	doc[field] = encoded
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ref, err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO documents(collection, user_id, day, body)
VALUES(?, ?, ?, ?)
ON CONFLICT(collection, user_id, day) DO UPDATE SET
  body = excluded.body,
  updated_at = CURRENT_TIMESTAMP
`, ref.Collection, ref.UserID, ref.Day, string(body)); err != nil {
		return fmt.Errorf("write %s: %w", ref, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit array update on %s: %w", ref, err)
	}
	s.notify(ctx, ref)
	return nil
}

// Range returns the documents of a collection whose day lies in [fromDay,
// toDay), ordered by day ascending.
func (s *Store) Range(ctx context.Context, collection, userID, fromDay, toDay string) ([]Snapshot, error) {
	if fromDay > toDay {
		return nil, fmt.Errorf("range start %s must be <= end %s", fromDay, toDay)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT day, body
FROM documents
WHERE collection = ? AND user_id = ? AND day >= ? AND day < ?
ORDER BY day ASC
`, collection, userID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("query %s range %s..%s: %w", collection, fromDay, toDay, err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		var day, body string
		if err := rows.Scan(&day, &body); err != nil {
			return nil, fmt.Errorf("scan %s range: %w", collection, err)
		}
		out = append(out, Snapshot{
			Ref:    Ref{Collection: collection, UserID: userID, Day: day},
			Exists: true,
			Data:   []byte(body),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s range: %w", collection, err)
	}
	return out, nil
}

// Scan walks every document of a collection across all users.
func (s *Store) Scan(ctx context.Context, collection string, fn func(Snapshot) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, day, body FROM documents WHERE collection = ? ORDER BY user_id, day`, collection)
	if err != nil {
		return fmt.Errorf("scan %s: %w", collection, err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID, day, body string
		if err := rows.Scan(&userID, &day, &body); err != nil {
			return fmt.Errorf("scan %s row: %w", collection, err)
		}
		snap := Snapshot{Ref: Ref{Collection: collection, UserID: userID, Day: day}, Exists: true, Data: []byte(body)}
		if err := fn(snap); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", collection, err)
	}
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close ends every open subscription. The underlying *sql.DB is owned by the
// caller and stays open.
func (s *Store) Close() error {
	s.mu.Lock()
	all := s.feeds
	s.feeds = map[Ref]map[*feed]struct{}{}
	s.closed = true
	s.mu.Unlock()

	for _, set := range all {
		for f := range set {
			f.close()
		}
	}
	return nil
}

func requireObject(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return errNotAnObject
	}
	return nil
}

func canonical(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("decode array element: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode array element: %w", err)
	}
	return string(out), nil
}
