package fitplate

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/service"
)

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Track water intake",
}

var (
	waterDate   string
	waterAmount float64
	waterUnit   string
)

var waterAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add water (default unit fluid ounces)",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(waterDate)
		if err != nil {
			return err
		}
		ounces, err := service.WaterOunces(waterAmount, waterUnit)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.AddWater(ctx, rt.userID, day, ounces)
			return err
		})
	},
}

var waterRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove water (never below zero)",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(waterDate)
		if err != nil {
			return err
		}
		ounces, err := service.WaterOunces(waterAmount, waterUnit)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.RemoveWater(ctx, rt.userID, day, ounces)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(waterCmd)
	waterCmd.AddCommand(waterAddCmd, waterRemoveCmd)
	for _, c := range []*cobra.Command{waterAddCmd, waterRemoveCmd} {
		c.Flags().StringVar(&waterDate, "date", "", "Day YYYY-MM-DD (default today)")
		c.Flags().Float64Var(&waterAmount, "amount", 8, "Amount in --unit")
		c.Flags().StringVar(&waterUnit, "unit", "oz", "Unit: oz|ml|l|cup|tbsp|tsp")
	}
}
