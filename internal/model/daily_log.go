package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	ExerciseSourceManual    = "manual"
	ExerciseSourceHealthKit = "healthkit"
)

// DefaultWaterGoalOunces applies when no water goal has been configured.
const DefaultWaterGoalOunces = 64.0

// DailyLog is everything one user logged on one calendar day. There is at most
// one per (UserID, day); it is created empty on first access and never deleted.
type DailyLog struct {
	UserID                string           `json:"userID"`
	Date                  time.Time        `json:"date"`
	Meals                 []Meal           `json:"meals"`
	Water                 *WaterTracker    `json:"waterTracker,omitempty"`
	Exercises             []LoggedExercise `json:"exercises"`
	JournalEntries        []JournalEntry   `json:"journalEntries,omitempty"`
	TotalCaloriesOverride *float64         `json:"totalCaloriesOverride,omitempty"`
}

type Meal struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	FoodItems []FoodItem `json:"foodItems"`
}

type FoodItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Calories      float64    `json:"calories"`
	Protein       float64    `json:"protein"`
	Carbs         float64    `json:"carbs"`
	Fats          float64    `json:"fats"`
	ServingSize   string     `json:"servingSize"`
	ServingWeight float64    `json:"servingWeight"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Nutrients
}

// Same reports whether a and b are the same logged item. Items are identified
// by ID only.
func (f FoodItem) Same(other FoodItem) bool {
	return f.ID == other.ID
}

type LoggedExercise struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes *float64  `json:"durationMinutes,omitempty"`
	CaloriesBurned  float64   `json:"caloriesBurned"`
	Date            time.Time `json:"date"`
	Source          string    `json:"source"`
	WorkoutID       *string   `json:"workoutID,omitempty"`
	SessionID       *string   `json:"sessionID,omitempty"`
}

type WaterTracker struct {
	TotalOunces float64   `json:"totalOunces"`
	GoalOunces  float64   `json:"goalOunces"`
	Date        time.Time `json:"date"`
}

// Add applies a signed change, never dropping below zero.
func (w WaterTracker) Add(ounces float64) WaterTracker {
	w.TotalOunces += ounces
	if w.TotalOunces < 0 {
		w.TotalOunces = 0
	}
	return w
}

type JournalEntry struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Text     string    `json:"text"`
	Category string    `json:"category"`
}

// NewDailyLog returns the empty aggregate for userID on the day containing date.
func NewDailyLog(userID string, date time.Time) DailyLog {
	return DailyLog{
		UserID:         userID,
		Date:           StartOfDay(date),
		Meals:          []Meal{},
		Exercises:      []LoggedExercise{},
		JournalEntries: []JournalEntry{},
	}
}

// DecodeDailyLog decodes a stored document. Absent fields take the defaults of
// NewDailyLog, and the identity is always forced to (userID, day).
func DecodeDailyLog(data []byte, userID string, day time.Time) (DailyLog, error) {
	out := NewDailyLog(userID, day)
	if len(strings.TrimSpace(string(data))) == 0 {
		return out, nil
	}
	var decoded DailyLog
	if err := json.Unmarshal(data, &decoded); err != nil {
		return out, fmt.Errorf("decode daily log %s: %w", DayKey(day), err)
	}
	decoded.UserID = out.UserID
	decoded.Date = out.Date
	if decoded.Meals == nil {
		decoded.Meals = []Meal{}
	}
	for i := range decoded.Meals {
		if decoded.Meals[i].FoodItems == nil {
			decoded.Meals[i].FoodItems = []FoodItem{}
		}
	}
	if decoded.Exercises == nil {
		decoded.Exercises = []LoggedExercise{}
	}
	if decoded.JournalEntries == nil {
		decoded.JournalEntries = []JournalEntry{}
	}
	return decoded, nil
}

// Encode serializes the full aggregate.
func (l DailyLog) Encode() ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode daily log %s: %w", DayKey(l.Date), err)
	}
	return data, nil
}

// EncodeForMerge serializes the aggregate for a whole-document merge-write.
// Journal entries are left out: that field is only changed through atomic
// array operations, so a merge keeps whatever the store already holds.
func (l DailyLog) EncodeForMerge() ([]byte, error) {
	l.JournalEntries = nil
	return l.Encode()
}

// IsEmpty reports whether nothing countable was logged: no food items and no
// exercise.
func (l DailyLog) IsEmpty() bool {
	if len(l.Exercises) > 0 {
		return false
	}
	for _, m := range l.Meals {
		if len(m.FoodItems) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so transformations never alias the caller's slices.
func (l DailyLog) Clone() DailyLog {
	out := l
	out.Meals = make([]Meal, len(l.Meals))
	for i, m := range l.Meals {
		out.Meals[i] = m.clone()
	}
	if l.Water != nil {
		w := *l.Water
		out.Water = &w
	}
	out.Exercises = make([]LoggedExercise, len(l.Exercises))
	for i, e := range l.Exercises {
		out.Exercises[i] = e.clone()
	}
	out.JournalEntries = make([]JournalEntry, len(l.JournalEntries))
	copy(out.JournalEntries, l.JournalEntries)
	if l.TotalCaloriesOverride != nil {
		v := *l.TotalCaloriesOverride
		out.TotalCaloriesOverride = &v
	}
	return out
}

func (m Meal) clone() Meal {
	out := m
	out.FoodItems = make([]FoodItem, len(m.FoodItems))
	for i, f := range m.FoodItems {
		out.FoodItems[i] = f.Clone()
	}
	return out
}

func (f FoodItem) Clone() FoodItem {
	out := f
	if f.Timestamp != nil {
		ts := *f.Timestamp
		out.Timestamp = &ts
	}
	out.Nutrients = f.Nutrients.clone()
	return out
}

func (e LoggedExercise) clone() LoggedExercise {
	out := e
	if e.DurationMinutes != nil {
		v := *e.DurationMinutes
		out.DurationMinutes = &v
	}
	if e.WorkoutID != nil {
		v := *e.WorkoutID
		out.WorkoutID = &v
	}
	if e.SessionID != nil {
		v := *e.SessionID
		out.SessionID = &v
	}
	return out
}
