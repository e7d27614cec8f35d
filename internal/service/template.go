package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

// MealTemplate is a named set of food items that can be logged again in one
// write.
type MealTemplate struct {
	ID         int64            `json:"id"`
	UserID     string           `json:"user_id"`
	Name       string           `json:"name"`
	MealName   string           `json:"meal_name,omitempty"`
	Items      []model.FoodItem `json:"items"`
	UseCount   int              `json:"use_count"`
	LastUsedAt string           `json:"last_used_at,omitempty"`
	ArchivedAt string           `json:"archived_at,omitempty"`
	CreatedAt  string           `json:"created_at"`
}

func (t MealTemplate) Calories() float64 {
	total := 0.0
	for _, it := range t.Items {
		total += it.Calories
	}
	return total
}

type SaveTemplateInput struct {
	UserID   string
	Name     string
	MealName string
	Items    []model.FoodItem
}

type ListTemplatesFilter struct {
	IncludeArchived bool
	Query           string
	Limit           int
}

// MealLogger appends items to a meal of a day.
type MealLogger interface {
	AddMeal(ctx context.Context, userID string, date time.Time, mealName string, items []model.FoodItem) (model.DailyLog, error)
}

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// Save creates a template or overwrites the items of the one with the same
// name. Saving un-archives it.
func (s *TemplateStore) Save(ctx context.Context, in SaveTemplateInput) (int64, error) {
	if err := validateUserID(in.UserID); err != nil {
		return 0, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, fmt.Errorf("template name is required")
	}
	if len(in.Items) == 0 {
		return 0, fmt.Errorf("template %q needs at least one item", name)
	}
	items := make([]model.FoodItem, 0, len(in.Items))
	for _, it := range in.Items {
		if err := validateItem(it); err != nil {
			return 0, err
		}
		c := it.Clone()
		c.ID = ""
		c.Timestamp = nil
		items = append(items, c)
	}
	body, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encode template items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO meal_templates(user_id, name, name_norm, meal_name, items_json)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(user_id, name_norm) DO UPDATE SET
  name = excluded.name,
  meal_name = excluded.meal_name,
  items_json = excluded.items_json,
  archived_at = NULL,
  updated_at = CURRENT_TIMESTAMP
`, in.UserID, name, normalizeName(name), strings.TrimSpace(in.MealName), string(body))
	if err != nil {
		return 0, fmt.Errorf("save template %q: %w", name, err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM meal_templates WHERE user_id = ? AND name_norm = ?`, in.UserID, normalizeName(name)).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve template id: %w", err)
	}
	return id, nil
}

// SaveFromDay snapshots the items currently logged under mealName on date.
func (s *TemplateStore) SaveFromDay(ctx context.Context, days DayObserver, userID string, date time.Time, mealName, name string) (int64, error) {
	l, err := days.Observe(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	for _, m := range l.Meals {
		if normalizeName(m.Name) != normalizeName(mealName) {
			continue
		}
		if strings.TrimSpace(name) == "" {
			name = m.Name
		}
		return s.Save(ctx, SaveTemplateInput{UserID: userID, Name: name, MealName: m.Name, Items: m.FoodItems})
	}
	return 0, fmt.Errorf("meal %q on %s: %w", mealName, model.DayKey(date), ErrNotFound)
}

func (s *TemplateStore) Get(ctx context.Context, userID, name string) (*MealTemplate, error) {
	row := s.db.QueryRowContext(ctx, templateSelectBase()+` WHERE user_id = ? AND name_norm = ?`, userID, normalizeName(name))
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", name, err)
	}
	return t, nil
}

func (s *TemplateStore) List(ctx context.Context, userID string, f ListTemplatesFilter) ([]MealTemplate, error) {
	query := templateSelectBase() + ` WHERE user_id = ?`
	args := []any{userID}
	if !f.IncludeArchived {
		query += ` AND archived_at IS NULL`
	}
	if q := normalizeName(f.Query); q != "" {
		query += ` AND name_norm LIKE ?`
		args = append(args, "%"+q+"%")
	}
	query += ` ORDER BY use_count DESC, name_norm ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]MealTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *TemplateStore) SetArchived(ctx context.Context, userID, name string, archived bool) error {
	stmt := `UPDATE meal_templates SET archived_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND name_norm = ?`
	if archived {
		stmt = `UPDATE meal_templates SET archived_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND name_norm = ?`
	}
	res, err := s.db.ExecContext(ctx, stmt, userID, normalizeName(name))
	if err != nil {
		return fmt.Errorf("archive template %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *TemplateStore) Delete(ctx context.Context, userID, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_templates WHERE user_id = ? AND name_norm = ?`, userID, normalizeName(name))
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}

// Log writes the template's items, scaled by servings, into mealName on date.
// An empty mealName uses the meal the template was saved from.
func (s *TemplateStore) Log(ctx context.Context, meals MealLogger, userID, name string, date time.Time, mealName string, servings float64) (model.DailyLog, error) {
	if servings <= 0 {
		return model.DailyLog{}, fmt.Errorf("servings must be > 0")
	}
	t, err := s.Get(ctx, userID, name)
	if err != nil {
		return model.DailyLog{}, err
	}
	if t.ArchivedAt != "" {
		return model.DailyLog{}, fmt.Errorf("template %q is archived", t.Name)
	}
	if strings.TrimSpace(mealName) == "" {
		mealName = t.MealName
	}
	if strings.TrimSpace(mealName) == "" {
		mealName = t.Name
	}

	items := make([]model.FoodItem, 0, len(t.Items))
	for _, it := range t.Items {
		c := it.Clone()
		if servings != 1 {
			c.Calories = it.Calories * servings
			c.Protein = it.Protein * servings
			c.Carbs = it.Carbs * servings
			c.Fats = it.Fats * servings
			c.ServingWeight = it.ServingWeight * servings
			c.Nutrients = it.Nutrients.Scaled(servings)
		}
		items = append(items, c)
	}
	l, err := meals.AddMeal(ctx, userID, date, mealName, items)
	if err != nil {
		return model.DailyLog{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE meal_templates SET use_count = use_count + 1, last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, t.ID); err != nil {
		return l, fmt.Errorf("record template use: %w", err)
	}
	return l, nil
}

func templateSelectBase() string {
	return `SELECT id, user_id, name, meal_name, items_json, use_count,
  COALESCE(last_used_at, ''), COALESCE(archived_at, ''), created_at
FROM meal_templates`
}

func scanTemplate(row rowScanner) (*MealTemplate, error) {
	var (
		t     MealTemplate
		items string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.MealName, &items, &t.UseCount, &t.LastUsedAt, &t.ArchivedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &t.Items); err != nil {
		return nil, fmt.Errorf("decode template items: %w", err)
	}
	return &t, nil
}
