package fitplate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/service"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage meal templates",
}

var (
	templateDate        string
	templateMeal        string
	templateItems       []string
	templateServings    float64
	templateIncludeArch bool
	templateQuery       string
	templateLimit       int
	templateJSON        bool
)

const templateSaveExample = `  fitplate template save "Usual breakfast" --meal Breakfast --date 2026-03-01
  fitplate template save Shake --item "Whey:120:24:3:1" --item "Milk:100:8:12:2.5"`

var templateSaveCmd = &cobra.Command{
	Use:     "save <name>",
	Short:   "Save a template from --item values or from a logged meal",
	Example: templateSaveExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		items := make([]model.FoodItem, 0, len(templateItems))
		for _, raw := range templateItems {
			item, err := parseMealItem(raw)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			var (
				id  int64
				err error
			)
			if len(items) > 0 {
				id, err = rt.templates.Save(ctx, service.SaveTemplateInput{UserID: rt.userID, Name: name, MealName: templateMeal, Items: items})
			} else {
				if templateMeal == "" {
					return fmt.Errorf("either --item or --meal is required")
				}
				day, perr := parseDayOrToday(templateDate)
				if perr != nil {
					return perr
				}
				id, err = rt.templates.SaveFromDay(ctx, rt.days, rt.userID, day, templateMeal, name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved template %d (%s)\n", id, name)
			return nil
		})
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meal templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			items, err := rt.templates.List(ctx, rt.userID, service.ListTemplatesFilter{
				IncludeArchived: templateIncludeArch,
				Query:           templateQuery,
				Limit:           templateLimit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if templateJSON {
				return printJSON(out, items)
			}
			fmt.Fprintln(out, "ID\tNAME\tMEAL\tITEMS\tKCAL\tUSAGE\tARCHIVED")
			for _, it := range items {
				archived := "no"
				if it.ArchivedAt != "" {
					archived = "yes"
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%d\t%.0f\t%d\t%s\n", it.ID, it.Name, it.MealName, len(it.Items), it.Calories(), it.UseCount, archived)
			}
			return nil
		})
	},
}

var templateLogCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Log a template's items into a meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(templateDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			l, err := rt.templates.Log(ctx, rt.mutator, rt.userID, args[0], day, templateMeal, templateServings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s\n", args[0], model.DayKey(l.Date))
			return nil
		})
	},
}

var templateArchiveCmd = &cobra.Command{
	Use:   "archive <name>",
	Short: "Hide a template from the default list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			return rt.templates.SetArchived(ctx, rt.userID, args[0], true)
		})
	},
}

var templateRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore an archived template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			return rt.templates.SetArchived(ctx, rt.userID, args[0], false)
		})
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			return rt.templates.Delete(ctx, rt.userID, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateSaveCmd, templateListCmd, templateLogCmd, templateArchiveCmd, templateRestoreCmd, templateDeleteCmd)

	templateSaveCmd.Flags().StringArrayVar(&templateItems, "item", nil, "Item name:calories[:protein[:carbs[:fat]]] (repeatable)")
	for _, c := range []*cobra.Command{templateSaveCmd, templateLogCmd} {
		c.Flags().StringVar(&templateMeal, "meal", "", "Meal name")
		c.Flags().StringVar(&templateDate, "date", "", "Day YYYY-MM-DD (default today)")
	}
	templateLogCmd.Flags().Float64Var(&templateServings, "servings", 1, "Servings multiplier")
	templateListCmd.Flags().BoolVar(&templateIncludeArch, "include-archived", false, "Include archived templates")
	templateListCmd.Flags().StringVar(&templateQuery, "query", "", "Filter by name")
	templateListCmd.Flags().IntVar(&templateLimit, "limit", 0, "Max templates to list")
	templateListCmd.Flags().BoolVar(&templateJSON, "json", false, "Output JSON")
}
