package fitplate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/analytics"
	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/service"
)

func TestDayInTheLifeFlow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	mustRun(t, path, "init")
	mustRun(t, path, "goal", "set",
		"--calories", "2000", "--protein", "150", "--carbs", "200", "--fat", "65",
		"--water", "80", "--nutrient", "fiber=25", "--effective-date", "2026-03-01")

	out := mustRun(t, path, "food", "add", "--date", "2026-03-01", "--meal", "Lunch",
		"--name", "Chicken bowl", "--calories", "700", "--protein", "45", "--carbs", "60", "--fat", "20", "--nutrient", "fiber=10")
	if !strings.Contains(out, "[OK] Food logged") {
		t.Fatalf("food add output = %q", out)
	}
	mustRun(t, path, "meal", "add", "--date", "2026-03-02", "--meal", "Dinner",
		"--item", "Rice:900:20:150:5", "--item", "Salmon:500:40:0:30")
	mustRun(t, path, "water", "add", "--date", "2026-03-01", "--amount", "16", "--unit", "oz")
	mustRun(t, path, "journal", "add", "--date", "2026-03-01", "--text", "felt good")
	mustRun(t, path, "exercise", "add", "--date", "2026-03-01", "--name", "Run", "--calories", "300", "--duration", "30")

	var status service.TodayStatus
	if err := json.Unmarshal([]byte(mustRun(t, path, "today", "--date", "2026-03-01", "--json")), &status); err != nil {
		t.Fatalf("decode today: %v", err)
	}
	if status.IntakeCalories != 700 || status.ExerciseCalories != 300 || status.WaterOz != 16 || status.GoalWaterOz != 80 {
		t.Fatalf("today = %+v", status)
	}
	if status.JournalEntries != 1 || !status.HasGoal || status.RemainingCalories != 1600 {
		t.Fatalf("today = %+v", status)
	}

	var view analytics.View
	if err := json.Unmarshal([]byte(mustRun(t, path, "analytics", "range", "--from", "2026-03-01", "--to", "2026-03-07", "--json")), &view); err != nil {
		t.Fatalf("decode analytics: %v", err)
	}
	if view.Report == nil || view.Report.ValidDays != 2 || view.Report.RangeDays != 7 || view.Report.Averages.Calories != 1050 {
		t.Fatalf("view = %+v", view)
	}

	var score model.MealScore
	if err := json.Unmarshal([]byte(mustRun(t, path, "score", "day", "--date", "2026-03-01", "--json")), &score); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if score.Date != "2026-03-01" || score.Grade == "" {
		t.Fatalf("score = %+v", score)
	}
	history := mustRun(t, path, "score", "history", "--from", "2026-03-01", "--to", "2026-03-07")
	if !strings.Contains(history, "2026-03-01\t"+score.Grade) {
		t.Fatalf("history = %q", history)
	}

	mustRun(t, path, "doctor")
}

func TestAnalyticsNeedsMoreData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	mustRun(t, path, "food", "add", "--date", "2026-03-01", "--name", "Toast", "--calories", "200")
	out := mustRun(t, path, "analytics", "range", "--from", "2026-03-01", "--to", "2026-03-07")
	if !strings.Contains(out, "Log at least 2 days") {
		t.Fatalf("analytics output = %q", out)
	}
}

func TestFoodUpdateAndDeleteByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	mustRun(t, path, "food", "add", "--date", "2026-03-01", "--name", "Apple", "--calories", "95")

	items := mustRun(t, path, "today", "--date", "2026-03-01", "--items")
	var id string
	for _, line := range strings.Split(items, "\n") {
		if strings.HasSuffix(line, "\tApple\t95") {
			id = strings.SplitN(line, "\t", 2)[0]
		}
	}
	if id == "" {
		t.Fatalf("apple id not listed:\n%s", items)
	}

	mustRun(t, path, "food", "update", "--date", "2026-03-01", "--id", id, "--calories", "120")
	if out := mustRun(t, path, "today", "--date", "2026-03-01"); !strings.Contains(out, "Intake: 120 kcal") {
		t.Fatalf("after update = %q", out)
	}

	mustRun(t, path, "food", "delete", "--date", "2026-03-01", "--id", id)
	if _, err := runCLI(t, path, "food", "delete", "--date", "2026-03-01", "--id", id); err == nil {
		t.Fatal("deleting an unknown id should fail")
	}
}

func TestSleepConsistencyCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sleep.json")
	body := `[
 {"start":"2026-03-01T22:30:00Z","end":"2026-03-02T06:30:00Z","stage":"asleep"},
 {"start":"2026-03-02T22:30:00Z","end":"2026-03-03T06:30:00Z","stage":"asleep"}
]`
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write sleep file: %v", err)
	}
	out := mustRun(t, filepath.Join(dir, "fitplate.db"), "sleep", "consistency", "--file", file)
	if !strings.Contains(out, analytics.SleepVeryConsistent) {
		t.Fatalf("sleep output = %q", out)
	}
}

func TestConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	mustRun(t, path, "config", "set", "min_valid_days", "3")
	if out := mustRun(t, path, "config", "get", "min_valid_days"); strings.TrimSpace(out) != "3" {
		t.Fatalf("config get = %q", out)
	}
	if _, err := runCLI(t, path, "config", "set", "theme", "dark"); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestRouterServesWidgetAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	resetFlags(rootCmd)
	dbPath, userFlag, envFile, logLevel = path, "u1", "", "error"

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	err := withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		r := newRouter(rt)

		req := httptest.NewRequest(http.MethodPost, "/users/u1/water", strings.NewReader(`{"date":"2026-03-01","ounces":12}`))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("water status = %d body = %s", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widget/u1", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"water_oz":12`) {
			t.Fatalf("widget status = %d body = %s", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fitplate_mutations_total") {
			t.Fatalf("metrics status = %d body = %s", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u1/today?date=2026-03-01", nil))
		var status service.TodayStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil || status.WaterOz != 12 {
			t.Fatalf("today = %+v err = %v", status, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with runtime: %v", err)
	}
}

func TestRouterKeepsUsersApart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	resetFlags(rootCmd)
	dbPath, userFlag, envFile, logLevel = path, "u0", "", "error"

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	err := withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		r := newRouter(rt)
		const users = 10
		urls := make([]string, 0, users*2)
		for i := 0; i < users; i++ {
			urls = append(urls,
				fmt.Sprintf("/users/u%d/analytics?from=2026-03-01&to=2026-03-07", i),
				fmt.Sprintf("/users/u%d/today?date=2026-03-0%d", i, i%7+1))
		}

		type result struct {
			url  string
			code int
			body string
		}
		results := make(chan result, len(urls))
		var wg sync.WaitGroup
		for _, u := range urls {
			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u, nil))
				results <- result{url: u, code: rec.Code, body: rec.Body.String()}
			}(u)
		}
		wg.Wait()
		close(results)
		for res := range results {
			if res.code != http.StatusOK {
				t.Errorf("%s: status = %d body = %s", res.url, res.code, res.body)
			}
		}
		if got := rt.sessions.get("u0"); got.engine != rt.engine || got.days != rt.days {
			t.Errorf("command user must share the runtime session")
		}
		if rt.sessions.get("u1").engine == rt.sessions.get("u2").engine {
			t.Errorf("users must not share an analytics engine")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with runtime: %v", err)
	}
}

func TestScaledFoodAndTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	mustRun(t, path, "food", "add", "--date", "2026-03-01", "--meal", "Lunch", "--name", "Rice",
		"--calories", "130", "--serving-weight", "100", "--amount", "150", "--unit", "g")
	if out := mustRun(t, path, "today", "--date", "2026-03-01"); !strings.Contains(out, "Intake: 195 kcal") {
		t.Fatalf("scaled intake = %q", out)
	}

	mustRun(t, path, "template", "save", "Rice bowl", "--meal", "lunch", "--date", "2026-03-01")
	list := mustRun(t, path, "template", "list")
	if !strings.Contains(list, "Rice bowl\tLunch\t1\t195") {
		t.Fatalf("template list = %q", list)
	}

	mustRun(t, path, "template", "log", "Rice bowl", "--date", "2026-03-02", "--servings", "2")
	if out := mustRun(t, path, "today", "--date", "2026-03-02"); !strings.Contains(out, "Intake: 390 kcal") {
		t.Fatalf("template intake = %q", out)
	}

	mustRun(t, path, "template", "archive", "Rice bowl")
	if _, err := runCLI(t, path, "template", "log", "Rice bowl", "--date", "2026-03-03"); err == nil {
		t.Fatal("logging an archived template should fail")
	}
}

func TestScoreDayDefaultsToYesterday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitplate.db")
	day := model.DayKey(yesterday())
	mustRun(t, path, "goal", "set", "--calories", "2000", "--protein", "150", "--carbs", "200", "--fat", "65", "--effective-date", "2020-01-01")
	mustRun(t, path, "food", "add", "--date", day, "--name", "Pasta", "--calories", "2000", "--protein", "150", "--carbs", "200", "--fat", "65")

	var score model.MealScore
	if err := json.Unmarshal([]byte(mustRun(t, path, "score", "day", "--json")), &score); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if score.Date != day || score.CalorieScore != 100 {
		t.Fatalf("score = %+v, want yesterday %s", score, day)
	}
}
