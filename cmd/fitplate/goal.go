package fitplate

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/service"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage daily calorie, macro, water and nutrient goals",
}

var (
	goalCalories  float64
	goalProtein   float64
	goalCarbs     float64
	goalFat       float64
	goalWater     float64
	goalNutrients []string
	goalDate      string
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set daily goals with an effective date",
	RunE: func(cmd *cobra.Command, args []string) error {
		micros, err := parseNutrients(goalNutrients)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			in := service.SetGoalInput{
				UserID:        rt.userID,
				Calories:      goalCalories,
				ProteinG:      goalProtein,
				CarbsG:        goalCarbs,
				FatG:          goalFat,
				WaterOz:       goalWater,
				Micros:        micros,
				EffectiveDate: goalDate,
			}
			if err := rt.goals.Set(ctx, in); err != nil {
				return err
			}
			if in.EffectiveDate == "" {
				in.EffectiveDate = "today"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set goal effective %s\n", in.EffectiveDate)
			return nil
		})
	},
}

var currentGoalDate string

var goalCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the goal in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(currentGoalDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			goal, err := rt.goals.Current(ctx, rt.userID, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if goal == nil {
				fmt.Fprintln(out, "No goal configured")
				return nil
			}
			fmt.Fprintf(out, "Effective: %s\nCalories: %.0f\nProtein: %.1fg\nCarbs: %.1fg\nFat: %.1fg\nWater: %.1foz\n",
				goal.EffectiveDate, goal.Calories, goal.ProteinG, goal.CarbsG, goal.FatG, goal.WaterOz)
			keys := make([]string, 0, len(goal.Micros))
			for k := range goal.Micros {
				keys = append(keys, string(k))
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s: %.1f\n", k, goal.Micros[model.Nutrient(k)])
			}
			return nil
		})
	},
}

var goalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show goal history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			goals, err := rt.goals.History(ctx, rt.userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tKCAL\tP\tC\tF\tWATER")
			for _, g := range goals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f\t%.1f\t%.1f\t%.1f\t%.1f\n", g.EffectiveDate, g.Calories, g.ProteinG, g.CarbsG, g.FatG, g.WaterOz)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalSetCmd, goalCurrentCmd, goalHistoryCmd)

	goalSetCmd.Flags().Float64Var(&goalCalories, "calories", 0, "Daily calorie target")
	goalSetCmd.Flags().Float64Var(&goalProtein, "protein", 0, "Daily protein target grams")
	goalSetCmd.Flags().Float64Var(&goalCarbs, "carbs", 0, "Daily carbs target grams")
	goalSetCmd.Flags().Float64Var(&goalFat, "fat", 0, "Daily fat target grams")
	goalSetCmd.Flags().Float64Var(&goalWater, "water", 0, "Daily water target ounces")
	goalSetCmd.Flags().StringArrayVar(&goalNutrients, "nutrient", nil, "Nutrient target name=value (repeatable), e.g. iron=18")
	goalSetCmd.Flags().StringVar(&goalDate, "effective-date", "", "Effective date YYYY-MM-DD (default today)")
	_ = goalSetCmd.MarkFlagRequired("calories")

	goalCurrentCmd.Flags().StringVar(&currentGoalDate, "date", "", "Resolve goal at date YYYY-MM-DD (default today)")
}
