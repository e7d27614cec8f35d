package fitplate

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/model"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Keep short notes on a day",
}

var (
	journalDate     string
	journalText     string
	journalCategory string
	journalID       string
)

var journalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a journal entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(journalDate)
		if err != nil {
			return err
		}
		text := journalText
		if text == "" && len(args) > 0 {
			text = strings.Join(args, " ")
		}
		entry := model.JournalEntry{Text: text, Category: journalCategory}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.AddJournalEntry(ctx, rt.userID, day, entry)
			return err
		})
	},
}

var journalRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a journal entry by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(journalID) == "" {
			return fmt.Errorf("--id is required")
		}
		day, err := parseDayOrToday(journalDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.RemoveJournalEntry(ctx, rt.userID, day, journalID)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAddCmd, journalRemoveCmd)
	for _, c := range []*cobra.Command{journalAddCmd, journalRemoveCmd} {
		c.Flags().StringVar(&journalDate, "date", "", "Day YYYY-MM-DD (default today)")
	}
	journalAddCmd.Flags().StringVar(&journalText, "text", "", "Entry text (or pass as arguments)")
	journalAddCmd.Flags().StringVar(&journalCategory, "category", "", "Entry category (default general)")
	journalRemoveCmd.Flags().StringVar(&journalID, "id", "", "Journal entry id")
}
