// Package nutrition derives daily totals from a DailyLog. Every function is a
// pure reduction over meals and food items; missing values count as zero.
package nutrition

import (
	"sort"

	"github.com/saadjs/fitplate/internal/model"
)

type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// TotalCalories is the sum of item calories. It never reads
// TotalCaloriesOverride, so items logged after an override still count.
func TotalCalories(l model.DailyLog) float64 {
	total := 0.0
	eachItem(l, func(f model.FoodItem) { total += f.Calories })
	return total
}

// DisplayCalories is the figure to show for a day: a stored override when one
// is present, otherwise TotalCalories.
func DisplayCalories(l model.DailyLog) float64 {
	if l.TotalCaloriesOverride != nil {
		return *l.TotalCaloriesOverride
	}
	return TotalCalories(l)
}

func TotalMacros(l model.DailyLog) Macros {
	var out Macros
	eachItem(l, func(f model.FoodItem) {
		out.Protein += f.Protein
		out.Carbs += f.Carbs
		out.Fats += f.Fats
	})
	return out
}

func TotalNutrient(l model.DailyLog, k model.Nutrient) float64 {
	total := 0.0
	eachItem(l, func(f model.FoodItem) { total += f.Value(k) })
	return total
}

// TotalMicronutrients returns one total per entry of model.Micronutrients.
func TotalMicronutrients(l model.DailyLog) map[model.Nutrient]float64 {
	out := make(map[model.Nutrient]float64, len(model.Micronutrients))
	for _, k := range model.Micronutrients {
		out[k] = 0
	}
	eachItem(l, func(f model.FoodItem) {
		for _, k := range model.Micronutrients {
			out[k] += f.Value(k)
		}
	})
	return out
}

func TotalSaturatedFat(l model.DailyLog) float64 {
	return TotalNutrient(l, model.SaturatedFat)
}

func TotalPolyunsaturatedFat(l model.DailyLog) float64 {
	return TotalNutrient(l, model.PolyunsaturatedFat)
}

func TotalMonounsaturatedFat(l model.DailyLog) float64 {
	return TotalNutrient(l, model.MonounsaturatedFat)
}

// CaloriesBurnedBySource splits exercise calories by their source tag.
func CaloriesBurnedBySource(l model.DailyLog) map[string]float64 {
	out := map[string]float64{}
	for _, e := range l.Exercises {
		out[e.Source] += e.CaloriesBurned
	}
	return out
}

func TotalCaloriesBurned(l model.DailyLog) float64 {
	total := 0.0
	for _, e := range l.Exercises {
		total += e.CaloriesBurned
	}
	return total
}

type MealTotal struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
}

// MealCalories sums calories per meal name; duplicate names merge. The result
// is ordered by name.
func MealCalories(l model.DailyLog) []MealTotal {
	byName := map[string]float64{}
	for _, m := range l.Meals {
		for _, f := range m.FoodItems {
			byName[m.Name] += f.Calories
		}
		if _, ok := byName[m.Name]; !ok {
			byName[m.Name] = 0
		}
	}
	out := make([]MealTotal, 0, len(byName))
	for name, kcal := range byName {
		out = append(out, MealTotal{Name: name, Calories: kcal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func eachItem(l model.DailyLog, fn func(model.FoodItem)) {
	for _, m := range l.Meals {
		for _, f := range m.FoodItems {
			fn(f)
		}
	}
}
