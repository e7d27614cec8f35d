package fitplate

import (
	"context"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/analytics"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "View weekly, monthly, and range trends",
}

var (
	analyticsJSON bool
	weekArg       string
	monthArg      string
	rangeFrom     string
	rangeTo       string
	rangeDays     int
)

var analyticsWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Weekly trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := resolveWeekRange(weekArg)
		if err != nil {
			return err
		}
		return runAnalytics(cmd, start, end)
	},
}

var analyticsMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Monthly trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := resolveMonthRange(monthArg)
		if err != nil {
			return err
		}
		return runAnalytics(cmd, start, end)
	},
}

var analyticsRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Trends for a date range (inclusive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRange(rangeFrom, rangeTo, rangeDays)
		if err != nil {
			return err
		}
		return runAnalytics(cmd, start, end)
	},
}

// runAnalytics loads [from, to) and prints the resulting view.
func runAnalytics(cmd *cobra.Command, from, to time.Time) error {
	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		view, err := rt.engine.Load(ctx, rt.userID, from, to)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if analyticsJSON {
			return printJSON(out, view)
		}
		switch {
		case view.Report != nil:
			printReport(out, view.Report)
		case view.Message != "":
			fmt.Fprintln(out, view.Message)
		}
		if view.Report == nil && !view.NeedMoreData {
			return fmt.Errorf("analytics unavailable")
		}
		return nil
	})
}

func printReport(out io.Writer, r *analytics.Report) {
	fmt.Fprintf(out, "Range: %s to %s (%d of %d days logged)\n", r.From, r.To, r.ValidDays, r.RangeDays)
	fmt.Fprintf(out, "Averages/day: intake=%.1f exercise=%.1f P=%.1f C=%.1f F=%.1f water=%.1foz\n",
		r.Averages.Calories, r.Averages.CaloriesBurned, r.Averages.Protein, r.Averages.Carbs, r.Averages.Fats, r.Averages.WaterOunces)
	if r.HighestDay != nil && r.LowestDay != nil {
		fmt.Fprintf(out, "Highest day: %s (%.0f kcal)\n", r.HighestDay.Date, r.HighestDay.Calories)
		fmt.Fprintf(out, "Lowest day: %s (%.0f kcal)\n", r.LowestDay.Date, r.LowestDay.Calories)
	}
	fmt.Fprintf(out, "Calories: %s trend %s (%+.1f kcal/day), std dev %.1f\n",
		sparkline(r.Trends.Calories), r.CalorieTrend.Direction, r.CalorieTrend.SlopePerDay, r.Consistency.StdDev)
	fmt.Fprintf(out, "Logging streak: current %d, longest %d\n", r.LoggingStreak.Current, r.LoggingStreak.Longest)
	fmt.Fprintf(out, "Macro split: P %.0f%% | C %.0f%% | F %.0f%%", r.MacroShare.ProteinPct, r.MacroShare.CarbsPct, r.MacroShare.FatPct)
	if r.GoalMacroShare != nil {
		fmt.Fprintf(out, " (goal P %.0f%% | C %.0f%% | F %.0f%%)", r.GoalMacroShare.ProteinPct, r.GoalMacroShare.CarbsPct, r.GoalMacroShare.FatPct)
	}
	fmt.Fprintln(out)

	if len(r.MealDistribution) > 0 {
		fmt.Fprintln(out, "\nMeals")
		fmt.Fprintln(out, "MEAL\tAVG KCAL")
		for _, m := range r.MealDistribution {
			fmt.Fprintf(out, "%s\t%.1f\n", m.Name, m.AverageCalories)
		}
	}
	if len(r.Adherence) > 0 {
		fmt.Fprintln(out, "\nMicronutrients")
		fmt.Fprintln(out, "NUTRIENT\tAVG\tGOAL\tPCT")
		for _, a := range r.Adherence {
			fmt.Fprintf(out, "%s\t%.1f\t%.1f\t%.0f%% %s\n", a.Nutrient, a.Average, a.Goal, a.Percent, progressBar(a.Progress, 10))
		}
	}
}

func progressBar(progress float64, width int) string {
	filled := int(math.Round(progress * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func sparkline(points []analytics.Point) string {
	if len(points) == 0 {
		return ""
	}
	chars := []rune("._-~=*#@")
	minV, maxV := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		minV = math.Min(minV, p.Value)
		maxV = math.Max(maxV, p.Value)
	}
	if maxV == minV {
		return strings.Repeat(string(chars[0]), len(points))
	}
	var b strings.Builder
	for _, p := range points {
		ratio := (p.Value - minV) / (maxV - minV)
		idx := int(math.Round(ratio * float64(len(chars)-1)))
		b.WriteRune(chars[idx])
	}
	return b.String()
}

// resolveWeekRange returns the half-open range of an ISO week.
func resolveWeekRange(week string) (time.Time, time.Time, error) {
	if week == "" {
		start := beginningOfWeek(time.Now().In(time.Local))
		return start, start.AddDate(0, 0, 7), nil
	}
	if !regexp.MustCompile(`^\d{4}-W\d{2}$`).MatchString(week) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (expected YYYY-Www)", week)
	}
	var year, weekNum int
	if _, err := fmt.Sscanf(week, "%4d-W%2d", &year, &weekNum); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (expected YYYY-Www)", week)
	}
	maxWeek := weeksInISOYear(year)
	if weekNum < 1 || weekNum > maxWeek {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (week must be between 01 and %02d for %d)", week, maxWeek, year)
	}
	start := isoWeekStart(year, weekNum)
	return start, start.AddDate(0, 0, 7), nil
}

func resolveMonthRange(month string) (time.Time, time.Time, error) {
	if month == "" {
		now := time.Now().In(time.Local)
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
		return start, start.AddDate(0, 1, 0), nil
	}
	parsed, err := time.ParseInLocation("2006-01", month, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --month value %q (expected YYYY-MM)", month)
	}
	start := time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0), nil
}

func beginningOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
}

func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.Local)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

func weeksInISOYear(year int) int {
	_, wk := time.Date(year, 12, 28, 0, 0, 0, 0, time.Local).ISOWeek()
	return wk
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsWeekCmd, analyticsMonthCmd, analyticsRangeCmd)

	for _, c := range []*cobra.Command{analyticsWeekCmd, analyticsMonthCmd, analyticsRangeCmd} {
		c.Flags().BoolVar(&analyticsJSON, "json", false, "Output as JSON")
	}
	analyticsWeekCmd.Flags().StringVar(&weekArg, "week", "", "ISO week in format YYYY-Www")
	analyticsMonthCmd.Flags().StringVar(&monthArg, "month", "", "Month in format YYYY-MM")
	analyticsRangeCmd.Flags().StringVar(&rangeFrom, "from", "", "Start date YYYY-MM-DD")
	analyticsRangeCmd.Flags().StringVar(&rangeTo, "to", "", "End date YYYY-MM-DD (inclusive, default today)")
	analyticsRangeCmd.Flags().IntVar(&rangeDays, "days", 7, "Days ending on --to when --from is empty")
}
