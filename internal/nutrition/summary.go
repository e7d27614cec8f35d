package nutrition

import "github.com/saadjs/fitplate/internal/model"

// Summary is the set of totals shown for a day and exported to widgets.
type Summary struct {
	Date           string   `json:"date"`
	Calories       float64  `json:"calories"`
	Override       *float64 `json:"calories_override,omitempty"`
	CaloriesBurned float64  `json:"calories_burned"`
	NetCalories    float64  `json:"net_calories"`
	Macros         Macros   `json:"macros"`
	WaterOunces    float64  `json:"water_oz"`
	FoodItems      int      `json:"food_items"`
	Exercises      int      `json:"exercises"`
}

func Summarize(l model.DailyLog) Summary {
	s := Summary{
		Date:           model.DayKey(l.Date),
		Calories:       TotalCalories(l),
		CaloriesBurned: TotalCaloriesBurned(l),
		Macros:         TotalMacros(l),
		Exercises:      len(l.Exercises),
	}
	if l.TotalCaloriesOverride != nil {
		v := DisplayCalories(l)
		s.Override = &v
	}
	s.NetCalories = s.Calories - s.CaloriesBurned
	if l.Water != nil {
		s.WaterOunces = l.Water.TotalOunces
	}
	eachItem(l, func(model.FoodItem) { s.FoodItems++ })
	return s
}
