package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/saadjs/fitplate/internal/model"
)

type unitKind string

const (
	unitKindMass   unitKind = "mass"
	unitKindVolume unitKind = "volume"
)

type unitDef struct {
	kind       unitKind
	toBaseUnit float64
}

const flOzML = 29.5735295625

var unitTable = map[string]unitDef{
	// mass (base = g)
	"mg":  {kind: unitKindMass, toBaseUnit: 0.001},
	"g":   {kind: unitKindMass, toBaseUnit: 1},
	"kg":  {kind: unitKindMass, toBaseUnit: 1000},
	"oz":  {kind: unitKindMass, toBaseUnit: 28.349523125},
	"lb":  {kind: unitKindMass, toBaseUnit: 453.59237},
	"lbs": {kind: unitKindMass, toBaseUnit: 453.59237},

	// volume (base = ml)
	"ml":    {kind: unitKindVolume, toBaseUnit: 1},
	"l":     {kind: unitKindVolume, toBaseUnit: 1000},
	"tsp":   {kind: unitKindVolume, toBaseUnit: 4.92892159375},
	"tbsp":  {kind: unitKindVolume, toBaseUnit: 14.78676478125},
	"cup":   {kind: unitKindVolume, toBaseUnit: 236.5882365},
	"fl-oz": {kind: unitKindVolume, toBaseUnit: flOzML},
}

// WaterOunces converts a drink amount to fluid ounces. For water "oz" means
// fluid ounces, and mass units are read at 1 g/ml.
func WaterOunces(amount float64, unit string) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("water amount must be > 0")
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" || u == "oz" {
		return amount, nil
	}
	def, ok := resolveUnit(u)
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", unit)
	}
	// 1 g of water is 1 ml.
	return amount * def.toBaseUnit / flOzML, nil
}

// ScaleFoodItem rescales an item whose values describe one serving of
// item.ServingWeight grams to the given amount. Volume amounts need a density.
func ScaleFoodItem(item model.FoodItem, amount float64, unit string, densityGML float64) (model.FoodItem, error) {
	if item.ServingWeight <= 0 {
		return model.FoodItem{}, fmt.Errorf("serving weight must be > 0 to scale %q", item.Name)
	}
	grams, err := ConvertAmount(amount, unit, "g", densityGML)
	if err != nil {
		return model.FoodItem{}, err
	}
	factor := grams / item.ServingWeight

	out := item.Clone()
	out.Calories = math.Round(item.Calories * factor)
	out.Protein = item.Protein * factor
	out.Carbs = item.Carbs * factor
	out.Fats = item.Fats * factor
	out.Nutrients = item.Nutrients.Scaled(factor)
	out.ServingWeight = grams
	out.ServingSize = fmt.Sprintf("%g %s", amount, strings.ToLower(strings.TrimSpace(unit)))
	return out, nil
}

func ConvertAmount(value float64, fromUnit, toUnit string, densityGML float64) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}
	from, ok := resolveUnit(fromUnit)
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", fromUnit)
	}
	to, ok := resolveUnit(toUnit)
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", toUnit)
	}

	if from.kind == to.kind {
		base := value * from.toBaseUnit
		return base / to.toBaseUnit, nil
	}

	if densityGML <= 0 {
		return 0, fmt.Errorf("density-g-per-ml must be > 0 for mass/volume conversion")
	}

	var grams float64
	switch from.kind {
	case unitKindMass:
		grams = value * from.toBaseUnit
	case unitKindVolume:
		ml := value * from.toBaseUnit
		grams = ml * densityGML
	default:
		return 0, fmt.Errorf("unsupported source unit kind")
	}

	switch to.kind {
	case unitKindMass:
		return grams / to.toBaseUnit, nil
	case unitKindVolume:
		ml := grams / densityGML
		return ml / to.toBaseUnit, nil
	default:
		return 0, fmt.Errorf("unsupported target unit kind")
	}
}

func resolveUnit(unit string) (unitDef, bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	def, ok := unitTable[u]
	return def, ok
}
