package fitplate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saadjs/fitplate/internal/model"
)

// parseDayOrToday accepts YYYY-MM-DD or empty for today.
func parseDayOrToday(value string) (time.Time, error) {
	return parseDayOr(value, model.StartOfDay(time.Now()))
}

// yesterday is the default day for grading: today is still being logged.
func yesterday() time.Time {
	return model.StartOfDay(time.Now()).AddDate(0, 0, -1)
}

func parseDayOr(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := model.ParseDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", value)
	}
	return d, nil
}

// parseRange resolves inclusive --from/--to days into a half-open range.
// Without --from the range covers the last days ending on --to (or today).
func parseRange(from, to string, days int) (time.Time, time.Time, error) {
	end := model.StartOfDay(time.Now()).AddDate(0, 0, 1)
	if strings.TrimSpace(to) != "" {
		d, err := model.ParseDay(to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q (expected YYYY-MM-DD)", to)
		}
		end = d.AddDate(0, 0, 1)
	}
	if days <= 0 {
		days = 7
	}
	start := end.AddDate(0, 0, -days)
	if strings.TrimSpace(from) != "" {
		d, err := model.ParseDay(from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", from)
		}
		start = d
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from must not be after --to")
	}
	return start, end, nil
}

// parseNutrients reads repeated name=value pairs, e.g. fiber=8.
func parseNutrients(pairs []string) (map[model.Nutrient]float64, error) {
	out := map[model.Nutrient]float64{}
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid nutrient %q (expected name=value)", p)
		}
		k := model.Nutrient(strings.TrimSpace(name))
		if !model.KnownNutrient(k) {
			return nil, fmt.Errorf("unknown nutrient %q", name)
		}
		var v float64
		if _, err := fmt.Sscan(strings.TrimSpace(raw), &v); err != nil || v < 0 {
			return nil, fmt.Errorf("invalid value for %s: %q", name, raw)
		}
		out[k] = v
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}
