package fitplate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/model"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Log exercise and import workouts",
}

var (
	exerciseDate     string
	exerciseID       string
	exerciseName     string
	exerciseCalories float64
	exerciseDuration float64
	exerciseSource   string
	exerciseFile     string
)

var exerciseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a manual exercise",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(exerciseDate)
		if err != nil {
			return err
		}
		ex := model.LoggedExercise{Name: exerciseName, CaloriesBurned: exerciseCalories}
		if cmd.Flags().Changed("duration") {
			d := exerciseDuration
			ex.DurationMinutes = &d
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.AddExercise(ctx, rt.userID, day, ex)
			return err
		})
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an exercise by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exerciseID) == "" {
			return fmt.Errorf("--id is required")
		}
		day, err := parseDayOrToday(exerciseDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.DeleteExercise(ctx, rt.userID, day, exerciseID)
			return err
		})
	},
}

var exerciseImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace a day's workouts from an external source with a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exerciseFile) == "" {
			return fmt.Errorf("--file is required")
		}
		day, err := parseDayOrToday(exerciseDate)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(exerciseFile)
		if err != nil {
			return fmt.Errorf("read workouts file: %w", err)
		}
		var workouts []model.LoggedExercise
		if err := json.Unmarshal(b, &workouts); err != nil {
			return fmt.Errorf("parse workouts json: %w", err)
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.ReplaceExternalExercises(ctx, rt.userID, day, exerciseSource, workouts)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(exerciseCmd)
	exerciseCmd.AddCommand(exerciseAddCmd, exerciseDeleteCmd, exerciseImportCmd)

	for _, c := range []*cobra.Command{exerciseAddCmd, exerciseDeleteCmd, exerciseImportCmd} {
		c.Flags().StringVar(&exerciseDate, "date", "", "Day YYYY-MM-DD (default today)")
	}
	exerciseAddCmd.Flags().StringVar(&exerciseName, "name", "", "Exercise name")
	exerciseAddCmd.Flags().Float64Var(&exerciseCalories, "calories", 0, "Calories burned")
	exerciseAddCmd.Flags().Float64Var(&exerciseDuration, "duration", 0, "Duration minutes")
	_ = exerciseAddCmd.MarkFlagRequired("name")
	exerciseDeleteCmd.Flags().StringVar(&exerciseID, "id", "", "Exercise id")
	exerciseImportCmd.Flags().StringVar(&exerciseSource, "source", model.ExerciseSourceHealthKit, "Source tag of the imported workouts")
	exerciseImportCmd.Flags().StringVar(&exerciseFile, "file", "", "JSON array of workouts")
}
