package fitplate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/service"
)

var (
	todayDate  string
	todayJSON  bool
	todayItems bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show a day's intake, exercise, water and goal progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseDayOrToday(todayDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			status, err := service.TodaySummary(ctx, rt.days, rt.goals, rt.userID, target)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if todayJSON {
				return printJSON(out, status)
			}
			fmt.Fprintf(out, "Date: %s\n", status.Date)
			fmt.Fprintf(out, "Intake: %.0f kcal\n", status.IntakeCalories)
			fmt.Fprintf(out, "Exercise: %.0f kcal\n", status.ExerciseCalories)
			fmt.Fprintf(out, "Net: %.0f kcal\n", status.NetCalories)
			fmt.Fprintf(out, "Macros: P %.1fg | C %.1fg | F %.1fg\n", status.ProteinG, status.CarbsG, status.FatG)
			if status.GoalWaterOz > 0 {
				fmt.Fprintf(out, "Water: %.1f / %.1f oz\n", status.WaterOz, status.GoalWaterOz)
			} else {
				fmt.Fprintf(out, "Water: %.1f oz\n", status.WaterOz)
			}
			if status.HasGoal {
				fmt.Fprintf(out, "Goal: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", status.GoalCalories, status.GoalProteinG, status.GoalCarbsG, status.GoalFatG)
				fmt.Fprintf(out, "Remaining: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", status.RemainingCalories, status.RemainingProteinG, status.RemainingCarbsG, status.RemainingFatG)
			} else {
				fmt.Fprintln(out, "Goal: not set")
			}
			if !todayItems {
				return nil
			}
			day, err := rt.days.Observe(ctx, rt.userID, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "ID\tMEAL\tNAME\tKCAL")
			for _, m := range day.Meals {
				for _, f := range m.FoodItems {
					fmt.Fprintf(out, "%s\t%s\t%s\t%.0f\n", f.ID, m.Name, f.Name, f.Calories)
				}
			}
			for _, e := range day.Exercises {
				fmt.Fprintf(out, "%s\texercise\t%s\t-%.0f\n", e.ID, e.Name, e.CaloriesBurned)
			}
			for _, j := range day.JournalEntries {
				fmt.Fprintf(out, "%s\tjournal\t%s\t\n", j.ID, j.Text)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Print JSON")
	todayCmd.Flags().BoolVar(&todayItems, "items", false, "List logged items with their ids")
}
