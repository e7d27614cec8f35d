package fitplate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Grade days against your goals",
}

var (
	scoreDate string
	scoreJSON bool
	scoreFrom string
	scoreTo   string
	scoreDays int
)

var scoreDayCmd = &cobra.Command{
	Use:   "day",
	Short: "Compute and store the meal score for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOr(scoreDate, yesterday())
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			score, err := rt.engine.ScoreDay(ctx, rt.userID, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if scoreJSON {
				return printJSON(out, score)
			}
			fmt.Fprintf(out, "Date: %s\n", score.Date)
			fmt.Fprintf(out, "Grade: %s (%.1f)\n", score.Grade, score.Score)
			fmt.Fprintf(out, "Calories: %.1f | Macros: %.1f | Quality: %.1f\n", score.CalorieScore, score.MacroScore, score.QualityScore)
			return nil
		})
	},
}

var scoreHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored grades for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(scoreFrom, scoreTo, scoreDays)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			points, err := rt.engine.GradeHistory(ctx, rt.userID, from, to)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if scoreJSON {
				return printJSON(out, points)
			}
			fmt.Fprintln(out, "DATE\tGRADE\tVALUE")
			for _, p := range points {
				fmt.Fprintf(out, "%s\t%s\t%.0f\n", p.Date, p.Grade, p.Value)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreDayCmd, scoreHistoryCmd)
	for _, c := range []*cobra.Command{scoreDayCmd, scoreHistoryCmd} {
		c.Flags().BoolVar(&scoreJSON, "json", false, "Output as JSON")
	}
	scoreDayCmd.Flags().StringVar(&scoreDate, "date", "", "Day YYYY-MM-DD (default yesterday)")
	scoreHistoryCmd.Flags().StringVar(&scoreFrom, "from", "", "Start date YYYY-MM-DD")
	scoreHistoryCmd.Flags().StringVar(&scoreTo, "to", "", "End date YYYY-MM-DD (inclusive, default today)")
	scoreHistoryCmd.Flags().IntVar(&scoreDays, "days", 30, "Days ending on --to when --from is empty")
}
