package model

// GoalSettings are the user's daily targets. Zero means "no target".
type GoalSettings struct {
	Calories    float64
	Protein     float64
	Carbs       float64
	Fats        float64
	WaterOunces float64
	Micros      map[Nutrient]float64
}

func (g GoalSettings) Micro(k Nutrient) float64 {
	if g.Micros == nil {
		return 0
	}
	return g.Micros[k]
}

// MealScore is the composite grade for one day.
type MealScore struct {
	Date         string  `json:"date"`
	CalorieScore float64 `json:"calorieScore"`
	MacroScore   float64 `json:"macroScore"`
	QualityScore float64 `json:"qualityScore"`
	Score        float64 `json:"score"`
	Grade        string  `json:"grade"`
}
