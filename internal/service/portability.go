package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/model"
)

const exportVersion = 1

type ExportData struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	UserID     string            `json:"user_id"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	DailyLogs  []model.DailyLog  `json:"daily_logs"`
	MealScores []model.MealScore `json:"meal_scores"`
	Goals      []GoalRecord      `json:"goals"`
}

const (
	ImportModeMerge   = "merge"
	ImportModeReplace = "replace"
)

type ImportOptions struct {
	Mode   string
	DryRun bool
}

type ImportReport struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// ExportDataSnapshot collects a user's daily logs and meal scores for days in
// [from, to) plus the full goal history.
func ExportDataSnapshot(ctx context.Context, store *docstore.Store, goals *GoalStore, userID string, from, to time.Time) (*ExportData, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	out := &ExportData{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		UserID:     userID,
		From:       model.DayKey(from),
		To:         model.DayKey(to),
		DailyLogs:  []model.DailyLog{},
		MealScores: []model.MealScore{},
	}

	logs, err := store.Range(ctx, docstore.CollectionDailyLogs, userID, out.From, out.To)
	if err != nil {
		return nil, fmt.Errorf("export daily logs: %w", err)
	}
	for _, snap := range logs {
		day, err := model.ParseDay(snap.Ref.Day)
		if err != nil {
			return nil, fmt.Errorf("export daily log %s: %w", snap.Ref, err)
		}
		l, err := model.DecodeDailyLog(snap.Data, userID, day)
		if err != nil {
			return nil, fmt.Errorf("export daily log: %w", err)
		}
		out.DailyLogs = append(out.DailyLogs, l)
	}

	scores, err := store.Range(ctx, docstore.CollectionMealScores, userID, out.From, out.To)
	if err != nil {
		return nil, fmt.Errorf("export meal scores: %w", err)
	}
	for _, snap := range scores {
		var s model.MealScore
		if err := json.Unmarshal(snap.Data, &s); err != nil {
			return nil, fmt.Errorf("export meal score %s: %w", snap.Ref, err)
		}
		out.MealScores = append(out.MealScores, s)
	}

	history, err := goals.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.Goals = history
	return out, nil
}

// ImportDataSnapshot writes exported daily logs back. Merge mode keeps days
// that already exist; replace mode overwrites them.
func ImportDataSnapshot(ctx context.Context, store *docstore.Store, goals *GoalStore, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	mode := strings.TrimSpace(strings.ToLower(opts.Mode))
	if mode == "" {
		mode = ImportModeMerge
	}
	if mode != ImportModeMerge && mode != ImportModeReplace {
		return report, fmt.Errorf("invalid import mode %q (expected merge|replace)", opts.Mode)
	}
	if data == nil || data.Version != exportVersion {
		return report, fmt.Errorf("unsupported export version")
	}
	if err := validateUserID(data.UserID); err != nil {
		return report, err
	}

	for _, l := range data.DailyLogs {
		l.UserID = data.UserID
		ref := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: data.UserID, Day: model.DayKey(l.Date)}
		body, err := l.Encode()
		if err != nil {
			return report, err
		}
		if opts.DryRun {
			report.Inserted++
			continue
		}
		if mode == ImportModeReplace {
			if err := store.Replace(ctx, ref, body); err != nil {
				return report, fmt.Errorf("import %s: %w", ref, err)
			}
			report.Updated++
			continue
		}
		created, err := store.Create(ctx, ref, body)
		if err != nil {
			return report, fmt.Errorf("import %s: %w", ref, err)
		}
		if created {
			report.Inserted++
		} else {
			report.Skipped++
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s already exists", ref.Day))
		}
	}

	for _, s := range data.MealScores {
		if opts.DryRun {
			report.Inserted++
			continue
		}
		if err := persistScore(ctx, store, data.UserID, s); err != nil {
			return report, err
		}
		report.Updated++
	}

	for _, g := range data.Goals {
		if opts.DryRun {
			report.Inserted++
			continue
		}
		err := goals.Set(ctx, SetGoalInput{
			UserID:        data.UserID,
			Calories:      g.Calories,
			ProteinG:      g.ProteinG,
			CarbsG:        g.CarbsG,
			FatG:          g.FatG,
			WaterOz:       g.WaterOz,
			Micros:        g.Micros,
			EffectiveDate: g.EffectiveDate,
		})
		if err != nil {
			return report, fmt.Errorf("import goal %s: %w", g.EffectiveDate, err)
		}
		report.Updated++
	}
	return report, nil
}

func persistScore(ctx context.Context, store *docstore.Store, userID string, s model.MealScore) error {
	if _, err := model.ParseDay(s.Date); err != nil {
		return fmt.Errorf("import meal score: %w", err)
	}
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode meal score: %w", err)
	}
	ref := docstore.Ref{Collection: docstore.CollectionMealScores, UserID: userID, Day: s.Date}
	if err := store.Set(ctx, ref, body); err != nil {
		return fmt.Errorf("import meal score %s: %w", s.Date, err)
	}
	return nil
}
