package model_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

func TestStartOfDayNormalizes(t *testing.T) {
	t.Parallel()
	got := model.StartOfDay(time.Date(2026, 5, 9, 23, 59, 59, 0, time.Local))
	want := time.Date(2026, 5, 9, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if model.DayKey(got) != "2026-05-09" {
		t.Fatalf("unexpected day key %s", model.DayKey(got))
	}
}

func TestDecodeDailyLogDefaults(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 5, 9, 0, 0, 0, 0, time.Local)
	l, err := model.DecodeDailyLog([]byte(`{"meals":[{"id":"m","name":"Lunch"}]}`), "u1", day)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l.UserID != "u1" || !l.Date.Equal(day) {
		t.Fatalf("identity not forced: %+v", l)
	}
	if l.Meals[0].FoodItems == nil || l.Exercises == nil || l.JournalEntries == nil {
		t.Fatalf("expected non-nil defaults, got %+v", l)
	}
}

func TestDecodeDailyLogFailureReturnsEmpty(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 5, 9, 0, 0, 0, 0, time.Local)
	l, err := model.DecodeDailyLog([]byte(`{"meals":"nope"`), "u1", day)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !reflect.DeepEqual(l, model.NewDailyLog("u1", day)) {
		t.Fatalf("expected empty aggregate on failure, got %+v", l)
	}
}

func TestEncodeForMergeOmitsJournal(t *testing.T) {
	t.Parallel()
	l := model.NewDailyLog("u1", time.Now())
	l.JournalEntries = []model.JournalEntry{{ID: "j1", Text: "slept well"}}
	data, err := l.EncodeForMerge()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(data), "journalEntries") {
		t.Fatalf("expected journal entries to be left out of merge payload: %s", data)
	}
	if !strings.Contains(string(data), `"exercises":[]`) {
		t.Fatalf("expected empty exercises to be written explicitly: %s", data)
	}
	if len(l.JournalEntries) != 1 {
		t.Fatalf("encoding must not mutate the receiver")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	l := model.NewDailyLog("u1", time.Now())
	fiber := 4.0
	item := model.FoodItem{ID: "f", Name: "Apple", Calories: 95}
	item.Fiber = &fiber
	l.Meals = []model.Meal{{ID: "m", Name: "Snack", FoodItems: []model.FoodItem{item}}}
	l.Water = &model.WaterTracker{TotalOunces: 8, GoalOunces: 64}

	c := l.Clone()
	c.Meals[0].FoodItems[0].Name = "Pear"
	*c.Meals[0].FoodItems[0].Fiber = 9
	c.Water.TotalOunces = 30

	if l.Meals[0].FoodItems[0].Name != "Apple" || *l.Meals[0].FoodItems[0].Fiber != 4 || l.Water.TotalOunces != 8 {
		t.Fatalf("clone aliases original: %+v", l)
	}
}

func TestWaterClampsAtZero(t *testing.T) {
	t.Parallel()
	w := model.WaterTracker{TotalOunces: 8, GoalOunces: 64}
	if got := w.Add(-20).TotalOunces; got != 0 {
		t.Fatalf("expected clamp to 0, got %.1f", got)
	}
	if got := w.Add(16).TotalOunces; got != 24 {
		t.Fatalf("expected 24, got %.1f", got)
	}
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()
	l := model.NewDailyLog("u1", time.Now())
	l.Meals = []model.Meal{{ID: "m", Name: "Lunch", FoodItems: []model.FoodItem{}}}
	l.Water = &model.WaterTracker{TotalOunces: 20}
	if !l.IsEmpty() {
		t.Fatalf("meal without items and water only should count as empty")
	}
	l.Exercises = append(l.Exercises, model.LoggedExercise{ID: "e", CaloriesBurned: 100})
	if l.IsEmpty() {
		t.Fatalf("exercise should make the day non-empty")
	}
}
