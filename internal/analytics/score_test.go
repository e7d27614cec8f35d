package analytics_test

import (
	"errors"
	"testing"

	"github.com/saadjs/fitplate/internal/analytics"
	"github.com/saadjs/fitplate/internal/model"
)

func scoredDay(t *testing.T, item model.FoodItem) model.DailyLog {
	t.Helper()
	l := model.NewDailyLog("u1", mustDay(t, "2026-03-10"))
	item.ID = "f1"
	l.Meals = []model.Meal{{ID: "m1", Name: "All day", FoodItems: []model.FoodItem{item}}}
	return l
}

var baseGoals = model.GoalSettings{Calories: 2000, Protein: 150, Carbs: 200, Fats: 65}

func TestCalorieScoreBounds(t *testing.T) {
	t.Parallel()
	exact, err := analytics.ComputeMealScore(scoredDay(t, model.FoodItem{Calories: 2000}), baseGoals)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if exact.CalorieScore != 100 {
		t.Fatalf("calorie score at goal = %v", exact.CalorieScore)
	}
	double, err := analytics.ComputeMealScore(scoredDay(t, model.FoodItem{Calories: 4000}), baseGoals)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if double.CalorieScore != 0 {
		t.Fatalf("calorie score at 2x goal = %v", double.CalorieScore)
	}
	triple, _ := analytics.ComputeMealScore(scoredDay(t, model.FoodItem{Calories: 6000}), baseGoals)
	if triple.CalorieScore != 0 {
		t.Fatalf("calorie score went negative: %v", triple.CalorieScore)
	}
}

func TestMacroScoreAtGoal(t *testing.T) {
	t.Parallel()
	s, err := analytics.ComputeMealScore(scoredDay(t, model.FoodItem{Calories: 2000, Protein: 150, Carbs: 200, Fats: 65}), baseGoals)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if s.MacroScore != 100 {
		t.Fatalf("macro score = %v", s.MacroScore)
	}
	half, _ := analytics.ComputeMealScore(scoredDay(t, model.FoodItem{Protein: 75, Carbs: 100, Fats: 32.5}), baseGoals)
	if !near(half.MacroScore, 50) {
		t.Fatalf("macro score at half = %v", half.MacroScore)
	}
}

func TestQualityScoreFiberAndSodium(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		fiber  float64
		sodium float64
		want   float64
	}{
		{"full fiber", 25, 0, 75},
		{"fiber capped", 50, 0, 75},
		{"sodium at limit", 0, 2300, 50},
		{"sodium at double", 0, 4600, 25},
		{"sodium penalty capped", 0, 9000, 25},
		{"half fiber", 12.5, 0, 62.5},
	}
	for _, tc := range cases {
		item := model.FoodItem{Calories: 2000}
		item.Fiber = f(tc.fiber)
		item.Sodium = f(tc.sodium)
		s, err := analytics.ComputeMealScore(scoredDay(t, item), baseGoals)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !near(s.QualityScore, tc.want) {
			t.Fatalf("%s: quality = %v, want %v", tc.name, s.QualityScore, tc.want)
		}
	}
}

func TestPerfectDayGradesAPlus(t *testing.T) {
	t.Parallel()
	goals := baseGoals
	goals.Micros = map[model.Nutrient]float64{model.Iron: 18, model.Calcium: 1000}
	item := model.FoodItem{Calories: 2000, Protein: 150, Carbs: 200, Fats: 65}
	item.Fiber = f(25)
	item.Sodium = f(2300)
	item.Iron = f(18)
	item.Calcium = f(1200)

	s, err := analytics.ComputeMealScore(scoredDay(t, item), goals)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if s.CalorieScore != 100 || s.MacroScore != 100 || s.QualityScore != 100 || !near(s.Score, 100) || s.Grade != "A+" {
		t.Fatalf("score = %+v", s)
	}
	if s.Date != "2026-03-10" {
		t.Fatalf("date = %q", s.Date)
	}
}

func TestNoCalorieGoal(t *testing.T) {
	t.Parallel()
	_, err := analytics.ComputeMealScore(scoredDay(t, model.FoodItem{Calories: 100}), model.GoalSettings{Protein: 100})
	if !errors.Is(err, analytics.ErrNoCalorieGoal) {
		t.Fatalf("err = %v", err)
	}
}

func TestGradesAndValues(t *testing.T) {
	t.Parallel()
	for score, grade := range map[float64]string{95: "A+", 90: "A+", 89.9: "A-", 80: "A-", 75: "B", 60: "C", 59.9: "D", 0: "D"} {
		if got := analytics.Grade(score); got != grade {
			t.Fatalf("Grade(%v) = %s, want %s", score, got, grade)
		}
	}
	for grade, value := range map[string]float64{"A+": 100, "A-": 90, "B": 80, "C": 70, "D": 60, "F": 0, "": 0} {
		if got := analytics.GradeValue(grade); got != value {
			t.Fatalf("GradeValue(%q) = %v, want %v", grade, got, value)
		}
	}
}
