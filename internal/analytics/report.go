// Package analytics derives trends, averages, adherence and scores from a
// window of daily logs. Averages divide by the number of valid days, never by
// the length of the requested range.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/nutrition"
)

// MinValidDays is the default number of valid days a report needs.
const MinValidDays = 2

var ErrInsufficientData = errors.New("not enough logged days")

// Window is the history for [From, To), ordered by date. Days without a
// stored document are simply absent.
type Window struct {
	UserID string
	From   time.Time
	To     time.Time
	Days   []model.DailyLog
}

type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Trends struct {
	Calories []Point `json:"calories"`
	Protein  []Point `json:"protein"`
	Carbs    []Point `json:"carbs"`
	Fats     []Point `json:"fats"`
}

type Averages struct {
	Calories       float64 `json:"calories"`
	Protein        float64 `json:"protein"`
	Carbs          float64 `json:"carbs"`
	Fats           float64 `json:"fats"`
	CaloriesBurned float64 `json:"calories_burned"`
	WaterOunces    float64 `json:"water_oz"`
}

type NutrientAdherence struct {
	Nutrient model.Nutrient `json:"nutrient"`
	Average  float64        `json:"average"`
	Goal     float64        `json:"goal"`
	Percent  float64        `json:"percent"`
	// Progress is Percent/100 clamped to [0, 1] for progress bars.
	Progress float64 `json:"progress"`
}

type MealShare struct {
	Name            string  `json:"name"`
	AverageCalories float64 `json:"average_calories"`
}

type DayTotal struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
}

type MacroShare struct {
	ProteinPct float64 `json:"protein_pct"`
	CarbsPct   float64 `json:"carbs_pct"`
	FatPct     float64 `json:"fat_pct"`
}

type Report struct {
	UserID           string              `json:"user_id"`
	From             string              `json:"from"`
	To               string              `json:"to"`
	RangeDays        int                 `json:"range_days"`
	ValidDays        int                 `json:"valid_days"`
	Trends           Trends              `json:"trends"`
	Averages         Averages            `json:"averages"`
	Adherence        []NutrientAdherence `json:"adherence"`
	MealDistribution []MealShare         `json:"meal_distribution"`
	HighestDay       *DayTotal           `json:"highest_day,omitempty"`
	LowestDay        *DayTotal           `json:"lowest_day,omitempty"`
	CalorieTrend     TrendStat           `json:"calorie_trend"`
	Consistency      ConsistencyStat     `json:"calorie_consistency"`
	LoggingStreak    Streak              `json:"logging_streak"`
	MacroShare       MacroShare          `json:"macro_share"`
	GoalMacroShare   *MacroShare         `json:"goal_macro_share,omitempty"`
}

// BuildReport summarizes w against goals using MinValidDays.
func BuildReport(w Window, goals model.GoalSettings) (*Report, error) {
	return buildReport(w, goals, MinValidDays)
}

func buildReport(w Window, goals model.GoalSettings, minValid int) (*Report, error) {
	from := model.StartOfDay(w.From)
	to := model.StartOfDay(w.To)
	if !from.Before(to) {
		return nil, fmt.Errorf("from date must be before to date")
	}

	valid := validDays(w.Days)
	if len(valid) < minValid {
		return nil, fmt.Errorf("%w: %d valid days, need %d", ErrInsufficientData, len(valid), minValid)
	}

	r := &Report{
		UserID:    w.UserID,
		From:      model.DayKey(from),
		To:        model.DayKey(to),
		ValidDays: len(valid),
	}
	n := float64(len(valid))
	calories := make([]float64, 0, len(valid))
	micros := map[model.Nutrient]float64{}
	meals := map[string]float64{}

	for _, l := range valid {
		day := model.DayKey(l.Date)
		kcal := nutrition.TotalCalories(l)
		macros := nutrition.TotalMacros(l)
		calories = append(calories, kcal)

		r.Trends.Calories = append(r.Trends.Calories, Point{Date: day, Value: kcal})
		r.Trends.Protein = append(r.Trends.Protein, Point{Date: day, Value: macros.Protein})
		r.Trends.Carbs = append(r.Trends.Carbs, Point{Date: day, Value: macros.Carbs})
		r.Trends.Fats = append(r.Trends.Fats, Point{Date: day, Value: macros.Fats})

		r.Averages.Calories += kcal
		r.Averages.Protein += macros.Protein
		r.Averages.Carbs += macros.Carbs
		r.Averages.Fats += macros.Fats
		r.Averages.CaloriesBurned += nutrition.TotalCaloriesBurned(l)
		if l.Water != nil {
			r.Averages.WaterOunces += l.Water.TotalOunces
		}
		for k, v := range nutrition.TotalMicronutrients(l) {
			micros[k] += v
		}
		for _, m := range nutrition.MealCalories(l) {
			meals[m.Name] += m.Calories
		}
	}
	r.Averages.Calories /= n
	r.Averages.Protein /= n
	r.Averages.Carbs /= n
	r.Averages.Fats /= n
	r.Averages.CaloriesBurned /= n
	r.Averages.WaterOunces /= n

	r.Adherence = make([]NutrientAdherence, 0)
	for _, k := range model.Micronutrients {
		goal := goals.Micro(k)
		if goal <= 0 {
			continue
		}
		average := micros[k] / n
		r.Adherence = append(r.Adherence, NutrientAdherence{
			Nutrient: k,
			Average:  average,
			Goal:     goal,
			Percent:  average / goal * 100,
			Progress: clamp(average/goal, 0, 1),
		})
	}

	r.MealDistribution = make([]MealShare, 0, len(meals))
	for name, total := range meals {
		r.MealDistribution = append(r.MealDistribution, MealShare{Name: name, AverageCalories: total / n})
	}
	sort.Slice(r.MealDistribution, func(i, j int) bool {
		a, b := r.MealDistribution[i], r.MealDistribution[j]
		if a.AverageCalories != b.AverageCalories {
			return a.AverageCalories > b.AverageCalories
		}
		return a.Name < b.Name
	})

	r.HighestDay, r.LowestDay = extremeDays(r.Trends.Calories)
	r.CalorieTrend = trendFromValues(calories)
	r.Consistency = calcConsistencyStat(calories)
	r.MacroShare = macroShare(r.Averages.Protein, r.Averages.Carbs, r.Averages.Fats)
	if goalShare := macroShare(goals.Protein, goals.Carbs, goals.Fats); goalShare != (MacroShare{}) {
		r.GoalMacroShare = &goalShare
	}

	flags := make([]bool, 0)
	logged := map[string]bool{}
	for _, l := range valid {
		logged[model.DayKey(l.Date)] = true
	}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		flags = append(flags, logged[model.DayKey(d)])
	}
	r.RangeDays = len(flags)
	r.LoggingStreak = computeBooleanStreak(flags)
	return r, nil
}

// validDays keeps the days with at least one food item or exercise, ordered
// by date.
func validDays(days []model.DailyLog) []model.DailyLog {
	out := make([]model.DailyLog, 0, len(days))
	for _, l := range days {
		if !l.IsEmpty() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// extremeDays picks the highest and lowest calorie days; ties go to the
// earlier day.
func extremeDays(points []Point) (*DayTotal, *DayTotal) {
	if len(points) == 0 {
		return nil, nil
	}
	high, low := points[0], points[0]
	for _, p := range points[1:] {
		if p.Value > high.Value {
			high = p
		}
		if p.Value < low.Value {
			low = p
		}
	}
	return &DayTotal{Date: high.Date, Calories: high.Value}, &DayTotal{Date: low.Date, Calories: low.Value}
}

func macroShare(protein, carbs, fats float64) MacroShare {
	proteinKcal := protein * 4
	carbsKcal := carbs * 4
	fatKcal := fats * 9
	total := proteinKcal + carbsKcal + fatKcal
	if total <= 0 {
		return MacroShare{}
	}
	return MacroShare{
		ProteinPct: proteinKcal / total * 100,
		CarbsPct:   carbsKcal / total * 100,
		FatPct:     fatKcal / total * 100,
	}
}
