package analytics

import (
	"errors"
	"math"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/nutrition"
)

var ErrNoCalorieGoal = errors.New("no calorie goal set")

const (
	fiberTargetGrams = 25.0
	sodiumLimitMg    = 2300.0

	calorieWeight = 0.4
	macroWeight   = 0.3
	qualityWeight = 0.3
)

// ComputeMealScore grades one day against goals: calorie adherence 40%,
// macro balance 30%, food quality 30%.
func ComputeMealScore(l model.DailyLog, goals model.GoalSettings) (model.MealScore, error) {
	if goals.Calories <= 0 {
		return model.MealScore{}, ErrNoCalorieGoal
	}
	consumed := nutrition.TotalCalories(l)
	macros := nutrition.TotalMacros(l)

	calorieScore := clamp(100-math.Abs(consumed-goals.Calories)/goals.Calories*200, 0, 100)

	diffs := []float64{
		relativeDiff(macros.Protein, goals.Protein),
		relativeDiff(macros.Carbs, goals.Carbs),
		relativeDiff(macros.Fats, goals.Fats),
	}
	macroScore := clamp(100-avg(diffs)*100, 0, 100)

	qualityScore := qualityScore(l, goals)

	final := calorieScore*calorieWeight + macroScore*macroWeight + qualityScore*qualityWeight
	return model.MealScore{
		Date:         model.DayKey(l.Date),
		CalorieScore: calorieScore,
		MacroScore:   macroScore,
		QualityScore: qualityScore,
		Score:        final,
		Grade:        Grade(final),
	}, nil
}

// relativeDiff is |actual-goal|/goal; a missing goal contributes zero.
func relativeDiff(actual, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Abs(actual-goal) / goal
}

func qualityScore(l model.DailyLog, goals model.GoalSettings) float64 {
	score := 50.0
	fiber := nutrition.TotalNutrient(l, model.Fiber)
	score += math.Min(25, fiber/fiberTargetGrams*25)

	sodium := nutrition.TotalNutrient(l, model.Sodium)
	if sodium > sodiumLimitMg {
		score -= math.Min(25, (sodium-sodiumLimitMg)/sodiumLimitMg*25)
	}
	if goal := goals.Micro(model.Iron); goal > 0 && nutrition.TotalNutrient(l, model.Iron) >= goal {
		score += 12.5
	}
	if goal := goals.Micro(model.Calcium); goal > 0 && nutrition.TotalNutrient(l, model.Calcium) >= goal {
		score += 12.5
	}
	return clamp(score, 0, 100)
}

func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A-"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

// GradeValue maps a stored letter back to a chartable number. Unknown grades
// are 0.
func GradeValue(grade string) float64 {
	switch grade {
	case "A+":
		return 100
	case "A-":
		return 90
	case "B":
		return 80
	case "C":
		return 70
	case "D":
		return 60
	default:
		return 0
	}
}
