package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saadjs/fitplate/internal/model"
)

// The functions below are the pure transformations behind each mutation.
// They receive a copy of the base aggregate and return the new one.

func newID() string {
	return uuid.NewString()
}

func stampItem(item model.FoodItem, now time.Time) model.FoodItem {
	if strings.TrimSpace(item.ID) == "" {
		item.ID = newID()
	}
	if item.Timestamp == nil {
		ts := now
		item.Timestamp = &ts
	}
	return item
}

func validateItem(item model.FoodItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("food name is required")
	}
	for name, v := range map[string]float64{
		"calories":       item.Calories,
		"protein":        item.Protein,
		"carbs":          item.Carbs,
		"fats":           item.Fats,
		"serving weight": item.ServingWeight,
	} {
		if err := validateNonNegativeFloat(name, v); err != nil {
			return err
		}
	}
	return nil
}

// appendToMeal adds items under the meal called mealName, creating the meal
// when no meal with that name exists yet.
func appendToMeal(l model.DailyLog, mealName string, items []model.FoodItem, now time.Time) (model.DailyLog, error) {
	mealName = strings.TrimSpace(mealName)
	if mealName == "" {
		return l, fmt.Errorf("meal name is required")
	}
	if len(items) == 0 {
		return l, fmt.Errorf("at least one food item is required")
	}
	stamped := make([]model.FoodItem, 0, len(items))
	for _, item := range items {
		if err := validateItem(item); err != nil {
			return l, err
		}
		stamped = append(stamped, stampItem(item, now))
	}
	for i := range l.Meals {
		if l.Meals[i].Name == mealName {
			l.Meals[i].FoodItems = append(l.Meals[i].FoodItems, stamped...)
			return l, nil
		}
	}
	l.Meals = append(l.Meals, model.Meal{ID: newID(), Name: mealName, FoodItems: stamped})
	return l, nil
}

func findItem(l model.DailyLog, id string) (meal, item int, ok bool) {
	for i, m := range l.Meals {
		for j, f := range m.FoodItems {
			if f.Same(model.FoodItem{ID: id}) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// replaceItem swaps the item with the same id. The original timestamp is kept
// when the replacement carries none.
func replaceItem(l model.DailyLog, item model.FoodItem) (model.DailyLog, error) {
	if err := validateItem(item); err != nil {
		return l, err
	}
	i, j, ok := findItem(l, item.ID)
	if !ok {
		return l, fmt.Errorf("food item %q: %w", item.ID, ErrNotFound)
	}
	if item.Timestamp == nil {
		item.Timestamp = l.Meals[i].FoodItems[j].Timestamp
	}
	l.Meals[i].FoodItems[j] = item
	return l, nil
}

// removeItem deletes the item with id and returns its name.
func removeItem(l model.DailyLog, id string) (model.DailyLog, string, error) {
	i, j, ok := findItem(l, id)
	if !ok {
		return l, "", fmt.Errorf("food item %q: %w", id, ErrNotFound)
	}
	items := l.Meals[i].FoodItems
	name := items[j].Name
	l.Meals[i].FoodItems = append(items[:j:j], items[j+1:]...)
	return l, name, nil
}

func prepareExercise(l model.DailyLog, ex model.LoggedExercise, source string) (model.LoggedExercise, error) {
	if strings.TrimSpace(ex.Name) == "" {
		return ex, fmt.Errorf("exercise name is required")
	}
	if err := validateNonNegativeFloat("calories burned", ex.CaloriesBurned); err != nil {
		return ex, err
	}
	if ex.DurationMinutes != nil {
		if err := validateNonNegativeFloat("duration", *ex.DurationMinutes); err != nil {
			return ex, err
		}
	}
	if strings.TrimSpace(ex.ID) == "" {
		ex.ID = newID()
	}
	if ex.Date.IsZero() {
		ex.Date = l.Date
	}
	ex.Source = source
	return ex, nil
}

func appendExercise(l model.DailyLog, ex model.LoggedExercise) (model.DailyLog, error) {
	source := strings.TrimSpace(ex.Source)
	if source == "" {
		source = model.ExerciseSourceManual
	}
	ex, err := prepareExercise(l, ex, source)
	if err != nil {
		return l, err
	}
	l.Exercises = append(l.Exercises, ex)
	return l, nil
}

func removeExercise(l model.DailyLog, id string) (model.DailyLog, string, error) {
	for i, ex := range l.Exercises {
		if ex.ID == id {
			l.Exercises = append(l.Exercises[:i:i], l.Exercises[i+1:]...)
			return l, ex.Name, nil
		}
	}
	return l, "", fmt.Errorf("exercise %q: %w", id, ErrNotFound)
}

// replaceSourcedExercises drops every exercise tagged with source and appends
// the new set. Entries from other sources, manual ones included, are kept.
func replaceSourcedExercises(l model.DailyLog, source string, exercises []model.LoggedExercise) (model.DailyLog, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return l, fmt.Errorf("exercise source is required")
	}
	if source == model.ExerciseSourceManual {
		return l, fmt.Errorf("manual exercises cannot be replaced by an import")
	}
	kept := make([]model.LoggedExercise, 0, len(l.Exercises)+len(exercises))
	for _, ex := range l.Exercises {
		if ex.Source != source {
			kept = append(kept, ex)
		}
	}
	for _, ex := range exercises {
		prepared, err := prepareExercise(l, ex, source)
		if err != nil {
			return l, err
		}
		kept = append(kept, prepared)
	}
	l.Exercises = kept
	return l, nil
}

// adjustWater applies a signed change to the day's tracker, creating it with
// goalOunces when the day has none.
func adjustWater(l model.DailyLog, ounces, goalOunces float64) model.DailyLog {
	tracker := model.WaterTracker{GoalOunces: goalOunces, Date: l.Date}
	if l.Water != nil {
		tracker = *l.Water
	}
	tracker = tracker.Add(ounces)
	l.Water = &tracker
	return l
}

func prepareJournalEntry(l model.DailyLog, entry model.JournalEntry, now time.Time) (model.JournalEntry, error) {
	entry.Text = strings.TrimSpace(entry.Text)
	if entry.Text == "" {
		return entry, fmt.Errorf("journal text is required")
	}
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = newID()
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}
	if strings.TrimSpace(entry.Category) == "" {
		entry.Category = "general"
	}
	return entry, nil
}

func findJournalEntry(l model.DailyLog, id string) (model.JournalEntry, bool) {
	for _, e := range l.JournalEntries {
		if e.ID == id {
			return e, true
		}
	}
	return model.JournalEntry{}, false
}

func withoutJournalEntry(l model.DailyLog, id string) model.DailyLog {
	kept := make([]model.JournalEntry, 0, len(l.JournalEntries))
	for _, e := range l.JournalEntries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	l.JournalEntries = kept
	return l
}
