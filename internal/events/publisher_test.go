package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func decode(t *testing.T, msg kafka.Message) Event {
	t.Helper()
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestRecordGoesToAchievementsTopic(t *testing.T) {
	t.Parallel()
	ach, health := &fakeWriter{}, &fakeWriter{}
	p := newPublisher(ach, health, nil)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)

	p.Record(context.Background(), "u1", notify.FoodAdded, day)

	if len(ach.msgs) != 1 || len(health.msgs) != 0 {
		t.Fatalf("achievements = %d health = %d", len(ach.msgs), len(health.msgs))
	}
	ev := decode(t, ach.msgs[0])
	if ev.Type != "achievement" || ev.Kind != "food_added" || ev.Date != "2026-03-01" || ev.ID == "" {
		t.Fatalf("event = %+v", ev)
	}
	if string(ach.msgs[0].Key) != "u1" {
		t.Fatalf("key = %q", ach.msgs[0].Key)
	}
}

func TestHealthRecords(t *testing.T) {
	t.Parallel()
	ach, health := &fakeWriter{}, &fakeWriter{}
	p := newPublisher(ach, health, nil)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)

	p.LogFood(context.Background(), "u1", model.FoodItem{ID: "f1", Name: "Oats", Calories: 300}, day)
	p.LogWater(context.Background(), "u1", 12, day)
	p.LogExercise(context.Background(), "u1", model.LoggedExercise{ID: "e1", Name: "Run", CaloriesBurned: 250, Date: day})

	if len(health.msgs) != 3 || len(ach.msgs) != 0 {
		t.Fatalf("health = %d achievements = %d", len(health.msgs), len(ach.msgs))
	}
	food, water, ex := decode(t, health.msgs[0]), decode(t, health.msgs[1]), decode(t, health.msgs[2])
	if food.Type != "food" || food.Food == nil || food.Food.Name != "Oats" {
		t.Fatalf("food = %+v", food)
	}
	if water.Type != "water" || water.Ounces != 12 {
		t.Fatalf("water = %+v", water)
	}
	if ex.Type != "exercise" || ex.Exercise == nil || ex.Date != "2026-03-01" {
		t.Fatalf("exercise = %+v", ex)
	}
	if food.ID == water.ID {
		t.Fatal("event ids must be unique")
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	health := &fakeWriter{err: errors.New("broker down")}
	p := newPublisher(&fakeWriter{}, health, nil)

	p.LogWater(context.Background(), "u1", 8, time.Now())

	if len(health.msgs) != 0 {
		t.Fatalf("msgs = %d", len(health.msgs))
	}
}

func TestNewPublisherValidates(t *testing.T) {
	t.Parallel()
	if _, err := NewPublisher(Config{}, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}}, nil); err == nil {
		t.Fatal("expected error without topics")
	}
	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, AchievementsTopic: "a", HealthTopic: "h"}, nil)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCloseClosesBothWriters(t *testing.T) {
	t.Parallel()
	ach, health := &fakeWriter{}, &fakeWriter{}
	if err := newPublisher(ach, health, nil).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ach.closed || !health.closed {
		t.Fatal("writers not closed")
	}
}
