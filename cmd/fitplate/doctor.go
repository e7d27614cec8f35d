package fitplate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that every stored document decodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			report, err := service.RunDoctor(ctx, rt.store, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daily logs: %d (undecodable %d)\n", report.DailyLogs, report.UndecodableLogs)
			fmt.Fprintf(out, "Meal scores: %d (undecodable %d)\n", report.MealScores, report.UndecodableScores)
			for _, p := range report.Problems {
				fmt.Fprintf(out, "  %s\n", p)
			}
			if doctorFix {
				fmt.Fprintf(out, "Fixed daily logs: %d\n", report.FixedLogs)
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(ctx, rt.store, false)
				if err != nil {
					return err
				}
			}
			if report.UndecodableLogs > 0 || report.UndecodableScores > 0 {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Reset undecodable daily logs to empty")
}
