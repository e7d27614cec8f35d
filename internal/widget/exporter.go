// Package widget keeps day summaries per user for home-screen widgets,
// mirrors them to disk and serves them over HTTP.
package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
	"github.com/saadjs/fitplate/internal/nutrition"
)

type GoalSource interface {
	Goals(ctx context.Context, userID string, date time.Time) (model.GoalSettings, error)
}

type Targets struct {
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fats        float64 `json:"fats"`
	WaterOunces float64 `json:"water_oz"`
}

// Data is one widget payload.
type Data struct {
	UserID            string            `json:"user_id"`
	Summary           nutrition.Summary `json:"summary"`
	Goals             Targets           `json:"goals"`
	RemainingCalories *float64          `json:"remaining_calories,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Exporter implements notify.WidgetExporter. An empty dir keeps data in
// memory only.
type Exporter struct {
	goals GoalSource
	dir   string
	log   *slog.Logger
	now   func() time.Time

	mu     sync.RWMutex
	latest map[string]Data
	byDay  map[string]map[string]Data
}

var _ notify.WidgetExporter = (*Exporter)(nil)

func NewExporter(goals GoalSource, dir string, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		goals:  goals,
		dir:    dir,
		log:    log.With(slog.String("component", "widget")),
		now:    time.Now,
		latest: map[string]Data{},
		byDay:  map[string]map[string]Data{},
	}
}

func (e *Exporter) Export(ctx context.Context, userID string, l model.DailyLog) {
	data := Data{UserID: userID, Summary: nutrition.Summarize(l), UpdatedAt: e.now().UTC()}
	if e.goals != nil {
		goals, err := e.goals.Goals(ctx, userID, l.Date)
		if err != nil {
			e.log.Warn("widget_goals_failed", slog.String("user_id", userID), slog.Any("err", err))
		} else {
			data.Goals = Targets{Calories: goals.Calories, Protein: goals.Protein, Carbs: goals.Carbs, Fats: goals.Fats, WaterOunces: goals.WaterOunces}
			if goals.Calories > 0 {
				remaining := goals.Calories - data.Summary.NetCalories
				data.RemainingCalories = &remaining
			}
		}
	}

	// Every day keeps its own payload; latest only moves forward.
	e.mu.Lock()
	days, ok := e.byDay[userID]
	if !ok {
		days = map[string]Data{}
		e.byDay[userID] = days
	}
	days[data.Summary.Date] = data
	prev, ok := e.latest[userID]
	newest := !ok || prev.Summary.Date <= data.Summary.Date
	if newest {
		e.latest[userID] = data
	}
	e.mu.Unlock()

	if e.dir == "" {
		return
	}
	if err := e.write(data, e.dayPath(userID, data.Summary.Date)); err != nil {
		e.log.Warn("widget_write_failed", slog.String("user_id", userID), slog.String("date", data.Summary.Date), slog.Any("err", err))
	}
	if !newest {
		return
	}
	if err := e.write(data, e.path(userID)); err != nil {
		e.log.Warn("widget_write_failed", slog.String("user_id", userID), slog.Any("err", err))
	}
}

// Latest returns the most recent payload for userID.
func (e *Exporter) Latest(userID string) (Data, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.latest[userID]
	return d, ok
}

// Day returns the payload exported for userID on day (YYYY-MM-DD).
func (e *Exporter) Day(userID, day string) (Data, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.byDay[userID][day]
	return d, ok
}

func (e *Exporter) path(userID string) string {
	return filepath.Join(e.dir, userID+".json")
}

func (e *Exporter) dayPath(userID, day string) string {
	return filepath.Join(e.dir, userID, day+".json")
}

func (e *Exporter) write(data Data, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create widget dir: %w", err)
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode widget data: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".widget-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write widget data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close widget data: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the newest payload previously written to dir.
func Load(dir, userID string) (Data, error) {
	return readData(filepath.Join(dir, userID+".json"))
}

// LoadDay reads the payload previously written to dir for one day.
func LoadDay(dir, userID, day string) (Data, error) {
	return readData(filepath.Join(dir, userID, day+".json"))
}

func readData(path string) (Data, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal(body, &d); err != nil {
		return Data{}, fmt.Errorf("decode widget data: %w", err)
	}
	return d, nil
}
