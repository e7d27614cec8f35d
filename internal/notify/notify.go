// Package notify declares the write-only collaborators the engine calls after
// state changes. Calls are fire-and-forget: implementations handle their own
// failures.
package notify

import (
	"context"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// MutationKind identifies a daily-log mutation for achievement tracking.
type MutationKind string

const (
	FoodAdded         MutationKind = "food_added"
	FoodUpdated       MutationKind = "food_updated"
	FoodDeleted       MutationKind = "food_deleted"
	MealAdded         MutationKind = "meal_added"
	ExerciseAdded     MutationKind = "exercise_added"
	ExerciseDeleted   MutationKind = "exercise_deleted"
	ExercisesImported MutationKind = "exercises_imported"
	WaterAdded        MutationKind = "water_added"
	WaterRemoved      MutationKind = "water_removed"
	JournalAdded      MutationKind = "journal_added"
	JournalRemoved    MutationKind = "journal_removed"
)

type Banner interface {
	Show(title, message string, severity Severity)
}

type Achievements interface {
	Record(ctx context.Context, userID string, kind MutationKind, date time.Time)
}

// HealthSink receives per-record copies of logged food, water and exercise.
type HealthSink interface {
	LogFood(ctx context.Context, userID string, item model.FoodItem, date time.Time)
	LogWater(ctx context.Context, userID string, ounces float64, date time.Time)
	LogExercise(ctx context.Context, userID string, exercise model.LoggedExercise)
}

// WidgetExporter receives the freshly promoted or persisted aggregate.
type WidgetExporter interface {
	Export(ctx context.Context, userID string, log model.DailyLog)
}

// Nop implements every collaborator and does nothing.
type Nop struct{}

func (Nop) Show(string, string, Severity) {}
func (Nop) Record(context.Context, string, MutationKind, time.Time) {}
func (Nop) LogFood(context.Context, string, model.FoodItem, time.Time) {}
func (Nop) LogWater(context.Context, string, float64, time.Time) {}
func (Nop) LogExercise(context.Context, string, model.LoggedExercise) {}
func (Nop) Export(context.Context, string, model.DailyLog) {}
