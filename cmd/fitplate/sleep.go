package fitplate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/analytics"
	"github.com/saadjs/fitplate/internal/model"
)

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Analyze wearable sleep samples",
}

var (
	sleepFile string
	sleepJSON bool
)

var sleepConsistencyCmd = &cobra.Command{
	Use:   "consistency",
	Short: "Report bedtime consistency from a JSON file of sleep samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(sleepFile) == "" {
			return fmt.Errorf("--file is required")
		}
		b, err := os.ReadFile(sleepFile)
		if err != nil {
			return fmt.Errorf("read sleep file: %w", err)
		}
		var samples []model.SleepSample
		if err := json.Unmarshal(b, &samples); err != nil {
			return fmt.Errorf("parse sleep json: %w", err)
		}
		report, err := analytics.SleepConsistency(samples)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if sleepJSON {
			return printJSON(out, report)
		}
		fmt.Fprintln(out, "NIGHT\tBEDTIME\tASLEEP\tIN BED")
		for _, n := range report.Nights {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", n.Night, n.Bedtime.Local().Format("15:04"), n.Asleep, n.InBed)
		}
		fmt.Fprintf(out, "Average asleep: %s\n", report.AverageAsleep)
		fmt.Fprintf(out, "Bedtime std dev: %.0f min\n", report.BedtimeStdDevMinutes)
		fmt.Fprintln(out, report.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sleepCmd)
	sleepCmd.AddCommand(sleepConsistencyCmd)
	sleepConsistencyCmd.Flags().StringVar(&sleepFile, "file", "", "JSON array of {start, end, stage} samples")
	sleepConsistencyCmd.Flags().BoolVar(&sleepJSON, "json", false, "Output as JSON")
}
