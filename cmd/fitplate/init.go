package fitplate

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local fitplate database",
	RunE: func(cmd *cobra.Command, args []string) error {
		sqldb, path, err := openDB()
		if err != nil {
			return err
		}
		defer sqldb.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized fitplate database at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
