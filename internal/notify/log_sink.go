package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

// LogSink implements Achievements and HealthSink by logging each event. It is
// the fallback when no event broker is configured.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s LogSink) Record(ctx context.Context, userID string, kind MutationKind, date time.Time) {
	s.logger().InfoContext(ctx, "achievement_event", slog.String("user_id", userID), slog.String("kind", string(kind)), slog.String("date", model.DayKey(date)))
}

func (s LogSink) LogFood(ctx context.Context, userID string, item model.FoodItem, date time.Time) {
	s.logger().InfoContext(ctx, "health_food", slog.String("user_id", userID), slog.String("item", item.Name), slog.Float64("calories", item.Calories), slog.String("date", model.DayKey(date)))
}

func (s LogSink) LogWater(ctx context.Context, userID string, ounces float64, date time.Time) {
	s.logger().InfoContext(ctx, "health_water", slog.String("user_id", userID), slog.Float64("ounces", ounces), slog.String("date", model.DayKey(date)))
}

func (s LogSink) LogExercise(ctx context.Context, userID string, exercise model.LoggedExercise) {
	s.logger().InfoContext(ctx, "health_exercise", slog.String("user_id", userID), slog.String("name", exercise.Name), slog.Float64("calories_burned", exercise.CaloriesBurned))
}
