package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

type SetGoalInput struct {
	UserID        string
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	WaterOz       float64
	Micros        map[model.Nutrient]float64
	EffectiveDate string
}

// GoalRecord is one stored, effective-dated goal row.
type GoalRecord struct {
	ID            int64                      `json:"id"`
	UserID        string                     `json:"user_id"`
	Calories      float64                    `json:"calories"`
	ProteinG      float64                    `json:"protein_g"`
	CarbsG        float64                    `json:"carbs_g"`
	FatG          float64                    `json:"fat_g"`
	WaterOz       float64                    `json:"water_oz"`
	Micros        map[model.Nutrient]float64 `json:"micronutrients,omitempty"`
	EffectiveDate string                     `json:"effective_date"`
	CreatedAt     string                     `json:"created_at"`
}

func (r GoalRecord) Settings() model.GoalSettings {
	return model.GoalSettings{
		Calories:    r.Calories,
		Protein:     r.ProteinG,
		Carbs:       r.CarbsG,
		Fats:        r.FatG,
		WaterOunces: r.WaterOz,
		Micros:      r.Micros,
	}
}

// GoalStore provides the goals in effect for a user on a given day. A goal
// applies from its effective date until a later one replaces it.
type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

func (g *GoalStore) Set(ctx context.Context, in SetGoalInput) error {
	if err := validateUserID(in.UserID); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"calories": in.Calories,
		"protein":  in.ProteinG,
		"carbs":    in.CarbsG,
		"fat":      in.FatG,
		"water":    in.WaterOz,
	} {
		if err := validateNonNegativeFloat(name, v); err != nil {
			return err
		}
	}
	micros := ""
	if len(in.Micros) > 0 {
		for k, v := range in.Micros {
			if !model.KnownNutrient(k) {
				return fmt.Errorf("unknown nutrient %q", k)
			}
			if err := validateNonNegativeFloat(string(k), v); err != nil {
				return err
			}
		}
		b, err := json.Marshal(in.Micros)
		if err != nil {
			return fmt.Errorf("encode micronutrient goals: %w", err)
		}
		micros = string(b)
	}
	in.EffectiveDate = strings.TrimSpace(in.EffectiveDate)
	if in.EffectiveDate == "" {
		in.EffectiveDate = model.DayKey(time.Now())
	}
	if _, err := model.ParseDay(in.EffectiveDate); err != nil {
		return fmt.Errorf("invalid effective date %q (expected YYYY-MM-DD)", in.EffectiveDate)
	}

	_, err := g.db.ExecContext(ctx, `
INSERT INTO goals(user_id, calories, protein_g, carbs_g, fat_g, water_oz, micronutrients_json, effective_date)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, effective_date) DO UPDATE SET
  calories=excluded.calories,
  protein_g=excluded.protein_g,
  carbs_g=excluded.carbs_g,
  fat_g=excluded.fat_g,
  water_oz=excluded.water_oz,
  micronutrients_json=excluded.micronutrients_json
`, in.UserID, in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.WaterOz, micros, in.EffectiveDate)
	if err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	return nil
}

// Current returns the goal row in effect on date, or nil when none exists.
func (g *GoalStore) Current(ctx context.Context, userID string, date time.Time) (*GoalRecord, error) {
	day := model.DayKey(date)
	row := g.db.QueryRowContext(ctx, `
SELECT id, user_id, calories, protein_g, carbs_g, fat_g, water_oz, micronutrients_json, effective_date, created_at
FROM goals
WHERE user_id = ? AND effective_date <= ?
ORDER BY effective_date DESC
LIMIT 1
`, userID, day)
	r, err := scanGoal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("current goal for %s: %w", day, err)
	}
	return &r, nil
}

// Goals returns the settings in effect on date; zero values when unset.
func (g *GoalStore) Goals(ctx context.Context, userID string, date time.Time) (model.GoalSettings, error) {
	r, err := g.Current(ctx, userID, date)
	if err != nil || r == nil {
		return model.GoalSettings{}, err
	}
	return r.Settings(), nil
}

func (g *GoalStore) History(ctx context.Context, userID string) ([]GoalRecord, error) {
	rows, err := g.db.QueryContext(ctx, `
SELECT id, user_id, calories, protein_g, carbs_g, fat_g, water_oz, micronutrients_json, effective_date, created_at
FROM goals
WHERE user_id = ?
ORDER BY effective_date DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goal history: %w", err)
	}
	defer rows.Close()

	goals := make([]GoalRecord, 0)
	for rows.Next() {
		r, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal history: %w", err)
		}
		goals = append(goals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal history: %w", err)
	}
	return goals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (GoalRecord, error) {
	var r GoalRecord
	var micros string
	if err := row.Scan(&r.ID, &r.UserID, &r.Calories, &r.ProteinG, &r.CarbsG, &r.FatG, &r.WaterOz, &micros, &r.EffectiveDate, &r.CreatedAt); err != nil {
		return GoalRecord{}, err
	}
	if strings.TrimSpace(micros) != "" {
		if err := json.Unmarshal([]byte(micros), &r.Micros); err != nil {
			return GoalRecord{}, fmt.Errorf("decode micronutrient goals: %w", err)
		}
	}
	return r, nil
}
