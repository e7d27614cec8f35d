package fitplate

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/saadjs/fitplate/internal/analytics"
	"github.com/saadjs/fitplate/internal/app"
	"github.com/saadjs/fitplate/internal/db"
	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/events"
	"github.com/saadjs/fitplate/internal/logging"
	"github.com/saadjs/fitplate/internal/logstore"
	"github.com/saadjs/fitplate/internal/metrics"
	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
	"github.com/saadjs/fitplate/internal/service"
	"github.com/saadjs/fitplate/internal/widget"
)

const fallbackUserID = "me"

// runtime is the fully wired engine for one command invocation.
type runtime struct {
	cfg       app.Config
	dbPath    string
	userID    string
	log       *slog.Logger
	sqldb     *sql.DB
	store     *docstore.Store
	goals     *service.GoalStore
	templates *service.TemplateStore
	days      *logstore.Store
	mutator   *service.Mutator
	engine    *analytics.Engine
	widgets   *widget.Exporter
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	sessions  *sessions

	closers []func() error
}

func loadConfig(cmd *cobra.Command) (app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig(envFile)
	if err != nil {
		return app.Config{}, nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log, err := logging.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return app.Config{}, nil, err
	}
	return cfg, log, nil
}

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg, err := app.LoadConfig(envFile); err == nil && cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return app.DefaultDBPath()
}

func openDB() (*sql.DB, string, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, "", err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return nil, "", err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return nil, "", err
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, "", err
	}
	return sqldb, path, nil
}

func withDB(run func(*sql.DB) error) error {
	sqldb, _, err := openDB()
	if err != nil {
		return err
	}
	defer sqldb.Close()
	return run(sqldb)
}

// withRuntime wires the store, caches, pipeline and collaborators, runs fn and
// tears everything down in reverse order.
func withRuntime(cmd *cobra.Command, fn func(context.Context, *runtime) error) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sqldb, path, err := openDB()
	if err != nil {
		return err
	}
	rt := &runtime{cfg: cfg, dbPath: path, log: log, sqldb: sqldb}
	rt.closers = append(rt.closers, sqldb.Close)
	defer rt.close()

	rt.userID, err = resolveUser(cfg, sqldb)
	if err != nil {
		return err
	}

	rt.registry = prometheus.NewRegistry()
	rt.metrics = metrics.New(rt.registry)

	rt.store = docstore.New(sqldb, log)
	rt.closers = append(rt.closers, rt.store.Close)
	rt.goals = service.NewGoalStore(sqldb)
	rt.templates = service.NewTemplateStore(sqldb)

	widgetDir := cfg.WidgetDir
	if widgetDir == "" {
		widgetDir = app.DefaultWidgetDir(path)
	}
	rt.widgets = widget.NewExporter(rt.goals, widgetDir, log)

	var (
		achievements notify.Achievements = notify.LogSink{Log: log}
		health       notify.HealthSink   = notify.LogSink{Log: log}
	)
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := events.NewPublisher(events.Config{
			Brokers:           cfg.KafkaBrokers,
			AchievementsTopic: cfg.AchievementsTopic,
			HealthTopic:       cfg.HealthTopic,
		}, log)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, pub.Close)
		achievements, health = pub, pub
	}

	settings, err := service.ListConfig(sqldb)
	if err != nil {
		return err
	}
	mcfg := service.MutatorConfig{
		SerializeByDay:  boolSetting(cfg.SerializeByDay, settings[service.ConfigSerializeByDay], true),
		WaterGoalOunces: floatSetting(settings[service.ConfigWaterGoalOz], model.DefaultWaterGoalOunces),
	}
	minValid := intSetting(cfg.MinValidDays, settings[service.ConfigMinValidDays], analytics.MinValidDays)
	banner := &notify.WriterBanner{W: cmd.OutOrStdout()}
	rt.sessions = newSessions(func() *session {
		days := logstore.New(rt.store, logstore.Options{Widgets: rt.widgets, Metrics: rt.metrics, Logger: log})
		return &session{
			days: days,
			mutator: service.NewMutator(rt.store, days, rt.goals, mcfg, service.Collaborators{
				Banner:       banner,
				Achievements: achievements,
				Health:       health,
				Widgets:      rt.widgets,
			}, rt.metrics, log),
			engine: analytics.NewEngine(rt.store, rt.goals, analytics.EngineConfig{MinValidDays: minValid}, rt.metrics, log),
		}
	})
	rt.closers = append(rt.closers, rt.sessions.close)

	own := rt.sessions.get(rt.userID)
	rt.days, rt.mutator, rt.engine = own.days, own.mutator, own.engine

	return fn(cmd.Context(), rt)
}

func (rt *runtime) close() {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		rt.log.Warn("runtime_close_failed", slog.Any("err", err))
	}
}

// resolveUser picks --user, then FITPLATE_USER, then the stored default_user.
func resolveUser(cfg app.Config, sqldb *sql.DB) (string, error) {
	if u := strings.TrimSpace(userFlag); u != "" {
		return u, nil
	}
	if cfg.UserID != "" {
		return cfg.UserID, nil
	}
	stored, ok, err := service.GetConfig(sqldb, service.ConfigDefaultUser)
	if err != nil {
		return "", err
	}
	if ok && stored != "" {
		return stored, nil
	}
	return fallbackUserID, nil
}

func boolSetting(env *bool, stored string, fallback bool) bool {
	if env != nil {
		return *env
	}
	if b, err := strconv.ParseBool(stored); err == nil {
		return b
	}
	return fallback
}

func intSetting(env *int, stored string, fallback int) int {
	if env != nil {
		return *env
	}
	if n, err := strconv.Atoi(stored); err == nil && n > 0 {
		return n
	}
	return fallback
}

func floatSetting(stored string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(stored, 64); err == nil && f > 0 {
		return f
	}
	return fallback
}
