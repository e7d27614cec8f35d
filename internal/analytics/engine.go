package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/metrics"
	"github.com/saadjs/fitplate/internal/model"
)

// Source is the document store surface analytics reads and writes.
type Source interface {
	Get(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error)
	Set(ctx context.Context, ref docstore.Ref, data []byte) error
	Range(ctx context.Context, collection, userID, fromDay, toDay string) ([]docstore.Snapshot, error)
}

type GoalSource interface {
	Goals(ctx context.Context, userID string, date time.Time) (model.GoalSettings, error)
}

type EngineConfig struct {
	MinValidDays int
}

// View is what a caller displays for the latest completed request. Exactly
// one of Report, NeedMoreData or Message describes the outcome.
type View struct {
	Seq          uint64  `json:"seq"`
	Report       *Report `json:"report,omitempty"`
	NeedMoreData bool    `json:"need_more_data"`
	Message      string  `json:"message,omitempty"`
}

type GradePoint struct {
	Date  string  `json:"date"`
	Grade string  `json:"grade"`
	Value float64 `json:"value"`
}

type Engine struct {
	source  Source
	goals   GoalSource
	cfg     EngineConfig
	metrics *metrics.Metrics
	log     *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	view   View
}

func NewEngine(source Source, goals GoalSource, cfg EngineConfig, m *metrics.Metrics, log *slog.Logger) *Engine {
	if cfg.MinValidDays <= 0 {
		cfg.MinValidDays = MinValidDays
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		source:  source,
		goals:   goals,
		cfg:     cfg,
		metrics: m,
		log:     log.With(slog.String("component", "analytics")),
	}
}

// Load builds the report for [from, to). Starting a Load cancels the one in
// flight; a cancelled or superseded Load returns its context error and leaves
// the displayed View untouched.
func (e *Engine) Load(ctx context.Context, userID string, from, to time.Time) (View, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.seq++
	seq := e.seq
	e.cancel = cancel
	e.mu.Unlock()

	view := e.compute(ctx, userID, from, to)
	view.Seq = seq

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil || seq != e.seq {
		e.metrics.Analytics("cancelled")
		if err == nil {
			err = context.Canceled
		}
		return View{}, err
	}
	e.view = view
	return view, nil
}

// Current returns the last promoted view.
func (e *Engine) Current() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

func (e *Engine) compute(ctx context.Context, userID string, from, to time.Time) View {
	from, to = model.StartOfDay(from), model.StartOfDay(to)
	if err := ctx.Err(); err != nil {
		return View{}
	}

	var (
		days  []model.DailyLog
		goals model.GoalSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = e.window(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = e.goals.Goals(gctx, userID, to.AddDate(0, 0, -1))
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		return nil
	})
	err := g.Wait()
	if ctx.Err() != nil {
		return View{}
	}
	if err != nil {
		e.metrics.Analytics("error")
		e.log.Warn("analytics_load_failed", slog.String("user_id", userID), slog.Any("err", err))
		return View{Message: fmt.Sprintf("Couldn't load your history: %v", err)}
	}

	report, err := buildReport(Window{UserID: userID, From: from, To: to, Days: days}, goals, e.cfg.MinValidDays)
	switch {
	case errors.Is(err, ErrInsufficientData):
		e.metrics.Analytics("need_more_data")
		return View{NeedMoreData: true, Message: fmt.Sprintf("Log at least %d days to see your trends.", e.cfg.MinValidDays)}
	case err != nil:
		e.metrics.Analytics("error")
		return View{Message: err.Error()}
	}
	e.metrics.Analytics("ok")
	return View{Report: report}
}

// window fetches the stored logs for [from, to). Undecodable days are
// treated as empty.
func (e *Engine) window(ctx context.Context, userID string, from, to time.Time) ([]model.DailyLog, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("from date must be before to date")
	}
	snaps, err := e.source.Range(ctx, docstore.CollectionDailyLogs, userID, model.DayKey(from), model.DayKey(to))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]model.DailyLog, 0, len(snaps))
	for _, snap := range snaps {
		day, err := model.ParseDay(snap.Ref.Day)
		if err != nil {
			continue
		}
		l, err := model.DecodeDailyLog(snap.Data, userID, day)
		if err != nil {
			e.log.Warn("history_decode_failed", slog.String("ref", snap.Ref.String()), slog.Any("err", err))
		}
		out = append(out, l)
	}
	return out, nil
}

// ScoreDay computes the meal score for date and stores it under mealScores.
func (e *Engine) ScoreDay(ctx context.Context, userID string, date time.Time) (model.MealScore, error) {
	date = model.StartOfDay(date)
	ref := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: userID, Day: model.DayKey(date)}
	snap, err := e.source.Get(ctx, ref)
	if err != nil {
		return model.MealScore{}, fmt.Errorf("load %s: %w", ref.Day, err)
	}
	l := model.NewDailyLog(userID, date)
	if snap.Exists {
		if l, err = model.DecodeDailyLog(snap.Data, userID, date); err != nil {
			e.log.Warn("score_decode_failed", slog.String("ref", ref.String()), slog.Any("err", err))
		}
	}
	goals, err := e.goals.Goals(ctx, userID, date)
	if err != nil {
		return model.MealScore{}, fmt.Errorf("load goals: %w", err)
	}
	score, err := ComputeMealScore(l, goals)
	if err != nil {
		return model.MealScore{}, err
	}
	body, err := json.Marshal(score)
	if err != nil {
		return model.MealScore{}, fmt.Errorf("encode meal score: %w", err)
	}
	scoreRef := docstore.Ref{Collection: docstore.CollectionMealScores, UserID: userID, Day: score.Date}
	if err := e.source.Set(context.WithoutCancel(ctx), scoreRef, body); err != nil {
		return model.MealScore{}, fmt.Errorf("save meal score: %w", err)
	}
	return score, nil
}

// GradeHistory rebuilds the grade trend for [from, to) from stored scores.
func (e *Engine) GradeHistory(ctx context.Context, userID string, from, to time.Time) ([]GradePoint, error) {
	snaps, err := e.source.Range(ctx, docstore.CollectionMealScores, userID, model.DayKey(from), model.DayKey(to))
	if err != nil {
		return nil, fmt.Errorf("load grade history: %w", err)
	}
	out := make([]GradePoint, 0, len(snaps))
	for _, snap := range snaps {
		var score model.MealScore
		if err := json.Unmarshal(snap.Data, &score); err != nil {
			e.log.Warn("grade_decode_failed", slog.String("ref", snap.Ref.String()), slog.Any("err", err))
			continue
		}
		out = append(out, GradePoint{Date: snap.Ref.Day, Grade: score.Grade, Value: GradeValue(score.Grade)})
	}
	return out, nil
}
