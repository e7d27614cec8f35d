package model

// Nutrient names a tracked nutrient beyond the three macros.
type Nutrient string

const (
	SaturatedFat       Nutrient = "saturatedFat"
	PolyunsaturatedFat Nutrient = "polyunsaturatedFat"
	MonounsaturatedFat Nutrient = "monounsaturatedFat"
	Fiber              Nutrient = "fiber"
	Calcium            Nutrient = "calcium"
	Iron               Nutrient = "iron"
	Potassium          Nutrient = "potassium"
	Sodium             Nutrient = "sodium"
	VitaminA           Nutrient = "vitaminA"
	VitaminC           Nutrient = "vitaminC"
	VitaminD           Nutrient = "vitaminD"
	VitaminB12         Nutrient = "vitaminB12"
	Folate             Nutrient = "folate"
	Magnesium          Nutrient = "magnesium"
	Phosphorus         Nutrient = "phosphorus"
	Zinc               Nutrient = "zinc"
	Copper             Nutrient = "copper"
	Manganese          Nutrient = "manganese"
	Selenium           Nutrient = "selenium"
	VitaminB1          Nutrient = "vitaminB1"
	VitaminB2          Nutrient = "vitaminB2"
	VitaminB3          Nutrient = "vitaminB3"
	VitaminB5          Nutrient = "vitaminB5"
	VitaminB6          Nutrient = "vitaminB6"
	VitaminE           Nutrient = "vitaminE"
	VitaminK           Nutrient = "vitaminK"
)

// Micronutrients is the fixed, ordered list reported by micronutrient totals
// and adherence. Fat subtypes are reported separately.
var Micronutrients = []Nutrient{
	Fiber, Calcium, Iron, Potassium, Sodium,
	VitaminA, VitaminC, VitaminD, VitaminB12, Folate,
	Magnesium, Phosphorus, Zinc, Copper, Manganese, Selenium,
	VitaminB1, VitaminB2, VitaminB3, VitaminB5, VitaminB6,
	VitaminE, VitaminK,
}

// Nutrients holds the optional per-item nutrient amounts. Fiber and fats are
// grams; minerals are milligrams; vitamins use the unit the source reported.
type Nutrients struct {
	SaturatedFat       *float64 `json:"saturatedFat,omitempty"`
	PolyunsaturatedFat *float64 `json:"polyunsaturatedFat,omitempty"`
	MonounsaturatedFat *float64 `json:"monounsaturatedFat,omitempty"`
	Fiber              *float64 `json:"fiber,omitempty"`
	Calcium            *float64 `json:"calcium,omitempty"`
	Iron               *float64 `json:"iron,omitempty"`
	Potassium          *float64 `json:"potassium,omitempty"`
	Sodium             *float64 `json:"sodium,omitempty"`
	VitaminA           *float64 `json:"vitaminA,omitempty"`
	VitaminC           *float64 `json:"vitaminC,omitempty"`
	VitaminD           *float64 `json:"vitaminD,omitempty"`
	VitaminB12         *float64 `json:"vitaminB12,omitempty"`
	Folate             *float64 `json:"folate,omitempty"`
	Magnesium          *float64 `json:"magnesium,omitempty"`
	Phosphorus         *float64 `json:"phosphorus,omitempty"`
	Zinc               *float64 `json:"zinc,omitempty"`
	Copper             *float64 `json:"copper,omitempty"`
	Manganese          *float64 `json:"manganese,omitempty"`
	Selenium           *float64 `json:"selenium,omitempty"`
	VitaminB1          *float64 `json:"vitaminB1,omitempty"`
	VitaminB2          *float64 `json:"vitaminB2,omitempty"`
	VitaminB3          *float64 `json:"vitaminB3,omitempty"`
	VitaminB5          *float64 `json:"vitaminB5,omitempty"`
	VitaminB6          *float64 `json:"vitaminB6,omitempty"`
	VitaminE           *float64 `json:"vitaminE,omitempty"`
	VitaminK           *float64 `json:"vitaminK,omitempty"`
}

// Value returns the amount for k, or zero when it was not recorded.
func (n Nutrients) Value(k Nutrient) float64 {
	p := n.ref(k)
	if p == nil || *p == nil {
		return 0
	}
	return **p
}

// Set records v for k. Unknown nutrients are ignored.
func (n *Nutrients) Set(k Nutrient, v float64) {
	if p := n.ref(k); p != nil {
		*p = &v
	}
}

func (n *Nutrients) ref(k Nutrient) **float64 {
	switch k {
	case SaturatedFat:
		return &n.SaturatedFat
	case PolyunsaturatedFat:
		return &n.PolyunsaturatedFat
	case MonounsaturatedFat:
		return &n.MonounsaturatedFat
	case Fiber:
		return &n.Fiber
	case Calcium:
		return &n.Calcium
	case Iron:
		return &n.Iron
	case Potassium:
		return &n.Potassium
	case Sodium:
		return &n.Sodium
	case VitaminA:
		return &n.VitaminA
	case VitaminC:
		return &n.VitaminC
	case VitaminD:
		return &n.VitaminD
	case VitaminB12:
		return &n.VitaminB12
	case Folate:
		return &n.Folate
	case Magnesium:
		return &n.Magnesium
	case Phosphorus:
		return &n.Phosphorus
	case Zinc:
		return &n.Zinc
	case Copper:
		return &n.Copper
	case Manganese:
		return &n.Manganese
	case Selenium:
		return &n.Selenium
	case VitaminB1:
		return &n.VitaminB1
	case VitaminB2:
		return &n.VitaminB2
	case VitaminB3:
		return &n.VitaminB3
	case VitaminB5:
		return &n.VitaminB5
	case VitaminB6:
		return &n.VitaminB6
	case VitaminE:
		return &n.VitaminE
	case VitaminK:
		return &n.VitaminK
	default:
		return nil
	}
}

func (n Nutrients) clone() Nutrients {
	out := Nutrients{}
	for _, k := range append([]Nutrient{SaturatedFat, PolyunsaturatedFat, MonounsaturatedFat}, Micronutrients...) {
		if p := n.ref(k); *p != nil {
			out.Set(k, **p)
		}
	}
	return out
}

// KnownNutrient reports whether k is one of the tracked nutrients.
func KnownNutrient(k Nutrient) bool {
	var n Nutrients
	return n.ref(k) != nil
}

// Scaled returns a copy with every present amount multiplied by factor.
// Absent nutrients stay absent.
func (n Nutrients) Scaled(factor float64) Nutrients {
	out := n.clone()
	for _, k := range append([]Nutrient{SaturatedFat, PolyunsaturatedFat, MonounsaturatedFat}, Micronutrients...) {
		if p := out.ref(k); *p != nil {
			v := **p * factor
			*p = &v
		}
	}
	return out
}
