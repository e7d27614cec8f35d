package service

import (
	"context"
	"time"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/nutrition"
)

type TodayStatus struct {
	Date              string  `json:"date"`
	IntakeCalories    float64 `json:"intake_calories"`
	ExerciseCalories  float64 `json:"exercise_calories"`
	NetCalories       float64 `json:"net_calories"`
	ProteinG          float64 `json:"protein_g"`
	CarbsG            float64 `json:"carbs_g"`
	FatG              float64 `json:"fat_g"`
	WaterOz           float64 `json:"water_oz"`
	FoodItems         int     `json:"food_items"`
	Exercises         int     `json:"exercises"`
	JournalEntries    int     `json:"journal_entries"`
	GoalCalories      float64 `json:"goal_calories,omitempty"`
	GoalProteinG      float64 `json:"goal_protein_g,omitempty"`
	GoalCarbsG        float64 `json:"goal_carbs_g,omitempty"`
	GoalFatG          float64 `json:"goal_fat_g,omitempty"`
	GoalWaterOz       float64 `json:"goal_water_oz,omitempty"`
	RemainingCalories float64 `json:"remaining_calories,omitempty"`
	RemainingProteinG float64 `json:"remaining_protein_g,omitempty"`
	RemainingCarbsG   float64 `json:"remaining_carbs_g,omitempty"`
	RemainingFatG     float64 `json:"remaining_fat_g,omitempty"`
	HasGoal           bool    `json:"has_goal"`
}

// DayObserver loads the aggregate of a day, materializing it when missing.
type DayObserver interface {
	Observe(ctx context.Context, userID string, date time.Time) (model.DailyLog, error)
}

func TodaySummary(ctx context.Context, days DayObserver, goals GoalSource, userID string, date time.Time) (*TodayStatus, error) {
	log, err := days.Observe(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	summary := nutrition.Summarize(log)
	status := &TodayStatus{
		Date:             summary.Date,
		IntakeCalories:   summary.Calories,
		ExerciseCalories: summary.CaloriesBurned,
		NetCalories:      summary.NetCalories,
		ProteinG:         summary.Macros.Protein,
		CarbsG:           summary.Macros.Carbs,
		FatG:             summary.Macros.Fats,
		WaterOz:          summary.WaterOunces,
		FoodItems:        summary.FoodItems,
		Exercises:        summary.Exercises,
		JournalEntries:   len(log.JournalEntries),
	}
	if log.Water != nil {
		status.GoalWaterOz = log.Water.GoalOunces
	}

	goal, err := goals.Goals(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if goal.Calories > 0 || goal.Protein > 0 || goal.Carbs > 0 || goal.Fats > 0 {
		status.HasGoal = true
		status.GoalCalories = goal.Calories
		status.GoalProteinG = goal.Protein
		status.GoalCarbsG = goal.Carbs
		status.GoalFatG = goal.Fats
		status.RemainingCalories = goal.Calories - status.NetCalories
		status.RemainingProteinG = goal.Protein - status.ProteinG
		status.RemainingCarbsG = goal.Carbs - status.CarbsG
		status.RemainingFatG = goal.Fats - status.FatG
	}
	if goal.WaterOunces > 0 {
		status.GoalWaterOz = goal.WaterOunces
	}
	return status, nil
}
