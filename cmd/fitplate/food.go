package fitplate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/service"
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Add, update and delete logged food items",
}

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log several food items as one meal",
}

var (
	foodDate          string
	foodMeal          string
	foodID            string
	foodName          string
	foodCalories      float64
	foodProtein       float64
	foodCarbs         float64
	foodFat           float64
	foodServingSize   string
	foodServingWeight float64
	foodNutrients     []string
	foodAmount        float64
	foodUnit          string
	foodDensity       float64
	mealItems         []string
)

func foodFromFlags() (model.FoodItem, error) {
	item := model.FoodItem{
		Name:          foodName,
		Calories:      foodCalories,
		Protein:       foodProtein,
		Carbs:         foodCarbs,
		Fats:          foodFat,
		ServingSize:   foodServingSize,
		ServingWeight: foodServingWeight,
	}
	micros, err := parseNutrients(foodNutrients)
	if err != nil {
		return model.FoodItem{}, err
	}
	for k, v := range micros {
		item.Set(k, v)
	}
	if foodAmount > 0 {
		return service.ScaleFoodItem(item, foodAmount, foodUnit, foodDensity)
	}
	return item, nil
}

var foodAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a food item to a meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(foodDate)
		if err != nil {
			return err
		}
		item, err := foodFromFlags()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.AddFood(ctx, rt.userID, day, foodMeal, item)
			return err
		})
	},
}

var foodUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a logged food item by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(foodID) == "" {
			return fmt.Errorf("--id is required")
		}
		day, err := parseDayOrToday(foodDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			current, err := rt.days.Observe(ctx, rt.userID, day)
			if err != nil {
				return err
			}
			var item *model.FoodItem
			for _, m := range current.Meals {
				for i := range m.FoodItems {
					if m.FoodItems[i].ID == foodID {
						found := m.FoodItems[i].Clone()
						item = &found
					}
				}
			}
			if item == nil {
				return fmt.Errorf("food item %s not found on %s", foodID, model.DayKey(day))
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				item.Name = foodName
			}
			if flags.Changed("calories") {
				item.Calories = foodCalories
			}
			if flags.Changed("protein") {
				item.Protein = foodProtein
			}
			if flags.Changed("carbs") {
				item.Carbs = foodCarbs
			}
			if flags.Changed("fat") {
				item.Fats = foodFat
			}
			if flags.Changed("serving-size") {
				item.ServingSize = foodServingSize
			}
			if flags.Changed("serving-weight") {
				item.ServingWeight = foodServingWeight
			}
			micros, err := parseNutrients(foodNutrients)
			if err != nil {
				return err
			}
			for k, v := range micros {
				item.Set(k, v)
			}
			_, err = rt.mutator.UpdateFood(ctx, rt.userID, day, *item)
			return err
		})
	},
}

var foodDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a logged food item by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(foodID) == "" {
			return fmt.Errorf("--id is required")
		}
		day, err := parseDayOrToday(foodDate)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.DeleteFood(ctx, rt.userID, day, foodID)
			return err
		})
	},
}

var mealAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add several items to a meal in one write",
	Example: `  fitplate meal add --meal Lunch --item "Rice:200:4:44:0.5" --item "Chicken:250:40:0:9"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(mealItems) == 0 {
			return fmt.Errorf("at least one --item is required")
		}
		day, err := parseDayOrToday(foodDate)
		if err != nil {
			return err
		}
		items := make([]model.FoodItem, 0, len(mealItems))
		for _, raw := range mealItems {
			item, err := parseMealItem(raw)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			_, err := rt.mutator.AddMeal(ctx, rt.userID, day, foodMeal, items)
			return err
		})
	},
}

// parseMealItem reads name:calories[:protein[:carbs[:fat]]].
func parseMealItem(raw string) (model.FoodItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 5 || strings.TrimSpace(parts[0]) == "" {
		return model.FoodItem{}, fmt.Errorf("invalid --item %q (expected name:calories[:protein[:carbs[:fat]]])", raw)
	}
	values := make([]float64, 4)
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.FoodItem{}, fmt.Errorf("invalid number %q in --item %q", p, raw)
		}
		values[i] = v
	}
	return model.FoodItem{
		Name:     strings.TrimSpace(parts[0]),
		Calories: values[0],
		Protein:  values[1],
		Carbs:    values[2],
		Fats:     values[3],
	}, nil
}

func init() {
	rootCmd.AddCommand(foodCmd, mealCmd)
	foodCmd.AddCommand(foodAddCmd, foodUpdateCmd, foodDeleteCmd)
	mealCmd.AddCommand(mealAddCmd)

	for _, c := range []*cobra.Command{foodAddCmd, foodUpdateCmd} {
		c.Flags().StringVar(&foodName, "name", "", "Food name")
		c.Flags().Float64Var(&foodCalories, "calories", 0, "Calories")
		c.Flags().Float64Var(&foodProtein, "protein", 0, "Protein grams")
		c.Flags().Float64Var(&foodCarbs, "carbs", 0, "Carbs grams")
		c.Flags().Float64Var(&foodFat, "fat", 0, "Fat grams")
		c.Flags().StringVar(&foodServingSize, "serving-size", "", "Serving description, e.g. 1 cup")
		c.Flags().Float64Var(&foodServingWeight, "serving-weight", 0, "Serving weight grams")
		c.Flags().StringArrayVar(&foodNutrients, "nutrient", nil, "Nutrient amount name=value (repeatable), e.g. fiber=6")
	}
	for _, c := range []*cobra.Command{foodAddCmd, foodUpdateCmd, foodDeleteCmd, mealAddCmd} {
		c.Flags().StringVar(&foodDate, "date", "", "Day YYYY-MM-DD (default today)")
	}
	for _, c := range []*cobra.Command{foodUpdateCmd, foodDeleteCmd} {
		c.Flags().StringVar(&foodID, "id", "", "Food item id")
	}
	foodAddCmd.Flags().StringVar(&foodMeal, "meal", "Snacks", "Meal name")
	foodAddCmd.Flags().Float64Var(&foodAmount, "amount", 0, "Eaten amount; scales values given per --serving-weight grams")
	foodAddCmd.Flags().StringVar(&foodUnit, "unit", "g", "Unit for --amount: g|kg|oz|lb|ml|l|cup|tbsp|tsp")
	foodAddCmd.Flags().Float64Var(&foodDensity, "density", 0, "Density g/ml for volume amounts")
	mealAddCmd.Flags().StringVar(&foodMeal, "meal", "Snacks", "Meal name")
	mealAddCmd.Flags().StringArrayVar(&mealItems, "item", nil, "Item name:calories[:protein[:carbs[:fat]]] (repeatable)")
	_ = foodAddCmd.MarkFlagRequired("name")
}
