package fitplate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath   string
	userFlag string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "fitplate",
	Short:        "fitplate keeps your daily food, water and exercise log",
	Long:         "fitplate is a local-first daily log for meals, water, exercise and journal notes, with trends, meal scores and a widget feed.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id (default from FITPLATE_USER or config default_user)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file with FITPLATE_* settings")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}
