package analytics_test

import (
	"testing"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := model.ParseDay(value)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func f(v float64) *float64 { return &v }

// dayWith logs one item per meal name with the given calories.
func dayWith(t *testing.T, day string, meals map[string]float64) model.DailyLog {
	t.Helper()
	l := model.NewDailyLog("u1", mustDay(t, day))
	for name, kcal := range meals {
		l.Meals = append(l.Meals, model.Meal{ID: name, Name: name, FoodItems: []model.FoodItem{{ID: day + name, Name: name, Calories: kcal}}})
	}
	return l
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
