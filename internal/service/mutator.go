package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/saadjs/fitplate/internal/docstore"
	"github.com/saadjs/fitplate/internal/metrics"
	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
)

const journalField = "journalEntries"

// Remote is the part of the document store mutations write through.
type Remote interface {
	Get(ctx context.Context, ref docstore.Ref) (docstore.Snapshot, error)
	Set(ctx context.Context, ref docstore.Ref, data []byte) error
	ArrayUnion(ctx context.Context, ref docstore.Ref, field string, values ...[]byte) error
	ArrayRemove(ctx context.Context, ref docstore.Ref, field string, values ...[]byte) error
}

// LogCache is the viewed-day cache that receives optimistic publishes.
type LogCache interface {
	CachedFor(userID string, date time.Time) (model.DailyLog, bool)
	Publish(log model.DailyLog) bool
}

type GoalSource interface {
	Goals(ctx context.Context, userID string, date time.Time) (model.GoalSettings, error)
}

type MutatorConfig struct {
	// SerializeByDay runs mutations of the same (user, day) one at a time and
	// reads their base from the store. When false, concurrent mutations of a
	// day may build on the same base and the later write wins.
	SerializeByDay bool
	// WaterGoalOunces is used for a new water tracker when the user has no
	// water goal.
	WaterGoalOunces float64
}

type Collaborators struct {
	Banner       notify.Banner
	Achievements notify.Achievements
	Health       notify.HealthSink
	Widgets      notify.WidgetExporter
}

type Mutator struct {
	remote       Remote
	cache        LogCache
	goals        GoalSource
	cfg          MutatorConfig
	banner       notify.Banner
	achievements notify.Achievements
	health       notify.HealthSink
	widgets      notify.WidgetExporter
	metrics      *metrics.Metrics
	log          *slog.Logger
	now          func() time.Time
	locks        *dayLocks
}

// NewMutator wires the pipeline. cache, goals and any collaborator may be nil.
func NewMutator(remote Remote, cache LogCache, goals GoalSource, cfg MutatorConfig, c Collaborators, m *metrics.Metrics, log *slog.Logger) *Mutator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.WaterGoalOunces <= 0 {
		cfg.WaterGoalOunces = model.DefaultWaterGoalOunces
	}
	mut := &Mutator{
		remote:       remote,
		cache:        cache,
		goals:        goals,
		cfg:          cfg,
		banner:       c.Banner,
		achievements: c.Achievements,
		health:       c.Health,
		widgets:      c.Widgets,
		metrics:      m,
		log:          log.With(slog.String("component", "mutator")),
		now:          time.Now,
		locks:        newDayLocks(),
	}
	if mut.banner == nil {
		mut.banner = notify.Nop{}
	}
	if mut.achievements == nil {
		mut.achievements = notify.Nop{}
	}
	if mut.health == nil {
		mut.health = notify.Nop{}
	}
	if mut.widgets == nil {
		mut.widgets = notify.Nop{}
	}
	return mut
}

// mutation describes one run of the pipeline.
type mutation struct {
	kind      notify.MutationKind
	userID    string
	date      time.Time
	title     string
	transform func(model.DailyLog) (model.DailyLog, error)
	// persist overrides the whole-document merge-write.
	persist func(ctx context.Context, ref docstore.Ref, next model.DailyLog) error
	// message builds the success text; it runs after transform.
	message func() string
	// forward runs after a successful persist, e.g. to feed the health sink.
	forward func(ctx context.Context)
}

// apply runs fetch, transform, optimistic publish and persist, then fires the
// collaborators. Once the write has started it is not cancellable.
func (m *Mutator) apply(ctx context.Context, mu mutation) (model.DailyLog, error) {
	if err := validateUserID(mu.userID); err != nil {
		return model.DailyLog{}, err
	}
	date := model.StartOfDay(mu.date)
	ref := docstore.Ref{Collection: docstore.CollectionDailyLogs, UserID: mu.userID, Day: model.DayKey(date)}

	if m.cfg.SerializeByDay {
		unlock := m.locks.lock(ref.String())
		defer unlock()
	}

	base, err := m.fetch(ctx, mu.userID, date, ref)
	if err != nil {
		return model.DailyLog{}, m.fail(mu, ref, err)
	}
	next, err := mu.transform(base.Clone())
	if err != nil {
		return model.DailyLog{}, m.fail(mu, ref, err)
	}
	next.UserID, next.Date = mu.userID, date

	if m.cache != nil {
		m.cache.Publish(next)
	}

	wctx := context.WithoutCancel(ctx)
	start := time.Now()
	if mu.persist != nil {
		err = mu.persist(wctx, ref, next)
	} else {
		err = m.mergeWrite(wctx, ref, next)
	}
	m.metrics.ObservePersist(string(mu.kind), time.Since(start))
	if err != nil {
		return next, m.fail(mu, ref, err)
	}
	m.metrics.Mutation(string(mu.kind), nil)
	m.log.Debug("mutation_applied", slog.String("kind", string(mu.kind)), slog.String("ref", ref.String()))

	m.widgets.Export(wctx, mu.userID, next)
	m.achievements.Record(wctx, mu.userID, mu.kind, date)
	m.banner.Show(mu.title, mu.message(), notify.SeveritySuccess)
	if mu.forward != nil {
		mu.forward(wctx)
	}
	return next, nil
}

// fetch returns the base aggregate. Serialized mutations read the store so
// they always build on the last committed write.
func (m *Mutator) fetch(ctx context.Context, userID string, date time.Time, ref docstore.Ref) (model.DailyLog, error) {
	if !m.cfg.SerializeByDay && m.cache != nil {
		if cached, ok := m.cache.CachedFor(userID, date); ok {
			return cached, nil
		}
	}
	snap, err := m.remote.Get(ctx, ref)
	if err != nil {
		return model.DailyLog{}, fmt.Errorf("read %s: %w", ref, err)
	}
	if !snap.Exists {
		return model.NewDailyLog(userID, date), nil
	}
	log, err := model.DecodeDailyLog(snap.Data, userID, date)
	if err != nil {
		m.log.Warn("mutation_base_decode_failed", slog.String("ref", ref.String()), slog.Any("err", err))
	}
	return log, nil
}

func (m *Mutator) mergeWrite(ctx context.Context, ref docstore.Ref, next model.DailyLog) error {
	data, err := next.EncodeForMerge()
	if err != nil {
		return err
	}
	return m.remote.Set(ctx, ref, data)
}

func (m *Mutator) fail(mu mutation, ref docstore.Ref, err error) error {
	m.metrics.Mutation(string(mu.kind), err)
	m.log.Warn("mutation_failed", slog.String("kind", string(mu.kind)), slog.String("ref", ref.String()), slog.Any("err", err))
	m.banner.Show("Couldn't save", err.Error(), notify.SeverityError)
	return fmt.Errorf("%s %s: %w", mu.kind, ref.Day, err)
}

func (m *Mutator) waterGoal(ctx context.Context, userID string, date time.Time) float64 {
	if m.goals == nil {
		return m.cfg.WaterGoalOunces
	}
	goals, err := m.goals.Goals(ctx, userID, date)
	if err != nil {
		m.log.Warn("water_goal_lookup_failed", slog.String("user_id", userID), slog.Any("err", err))
		return m.cfg.WaterGoalOunces
	}
	if goals.WaterOunces > 0 {
		return goals.WaterOunces
	}
	return m.cfg.WaterGoalOunces
}

func (m *Mutator) AddFood(ctx context.Context, userID string, date time.Time, mealName string, item model.FoodItem) (model.DailyLog, error) {
	var added model.FoodItem
	return m.apply(ctx, mutation{
		kind:   notify.FoodAdded,
		userID: userID,
		date:   date,
		title:  "Food logged",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			next, err := appendToMeal(l, mealName, []model.FoodItem{item}, m.now())
			if err != nil {
				return l, err
			}
			for _, meal := range next.Meals {
				if meal.Name == strings.TrimSpace(mealName) {
					added = meal.FoodItems[len(meal.FoodItems)-1]
				}
			}
			return next, nil
		},
		message: func() string { return fmt.Sprintf("Added %s to %s", item.Name, strings.TrimSpace(mealName)) },
		forward: func(ctx context.Context) { m.health.LogFood(ctx, userID, added, date) },
	})
}

func (m *Mutator) AddMeal(ctx context.Context, userID string, date time.Time, mealName string, items []model.FoodItem) (model.DailyLog, error) {
	var added []model.FoodItem
	return m.apply(ctx, mutation{
		kind:   notify.MealAdded,
		userID: userID,
		date:   date,
		title:  "Meal logged",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			next, err := appendToMeal(l, mealName, items, m.now())
			if err != nil {
				return l, err
			}
			for _, meal := range next.Meals {
				if meal.Name == strings.TrimSpace(mealName) {
					added = meal.FoodItems[len(meal.FoodItems)-len(items):]
				}
			}
			return next, nil
		},
		message: func() string { return fmt.Sprintf("Added %d items to %s", len(items), strings.TrimSpace(mealName)) },
		forward: func(ctx context.Context) {
			for _, item := range added {
				m.health.LogFood(ctx, userID, item, date)
			}
		},
	})
}

func (m *Mutator) UpdateFood(ctx context.Context, userID string, date time.Time, item model.FoodItem) (model.DailyLog, error) {
	return m.apply(ctx, mutation{
		kind:      notify.FoodUpdated,
		userID:    userID,
		date:      date,
		title:     "Food updated",
		transform: func(l model.DailyLog) (model.DailyLog, error) { return replaceItem(l, item) },
		message:   func() string { return fmt.Sprintf("Updated %s", item.Name) },
	})
}

func (m *Mutator) DeleteFood(ctx context.Context, userID string, date time.Time, itemID string) (model.DailyLog, error) {
	var name string
	return m.apply(ctx, mutation{
		kind:   notify.FoodDeleted,
		userID: userID,
		date:   date,
		title:  "Food removed",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			next, removed, err := removeItem(l, itemID)
			name = removed
			return next, err
		},
		message: func() string { return fmt.Sprintf("Removed %s", name) },
	})
}

func (m *Mutator) AddExercise(ctx context.Context, userID string, date time.Time, ex model.LoggedExercise) (model.DailyLog, error) {
	var added model.LoggedExercise
	return m.apply(ctx, mutation{
		kind:   notify.ExerciseAdded,
		userID: userID,
		date:   date,
		title:  "Exercise logged",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			next, err := appendExercise(l, ex)
			if err == nil {
				added = next.Exercises[len(next.Exercises)-1]
			}
			return next, err
		},
		message: func() string { return fmt.Sprintf("Added %s (%.0f kcal)", added.Name, added.CaloriesBurned) },
		forward: func(ctx context.Context) { m.health.LogExercise(ctx, userID, added) },
	})
}

func (m *Mutator) DeleteExercise(ctx context.Context, userID string, date time.Time, exerciseID string) (model.DailyLog, error) {
	var name string
	return m.apply(ctx, mutation{
		kind:   notify.ExerciseDeleted,
		userID: userID,
		date:   date,
		title:  "Exercise removed",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			next, removed, err := removeExercise(l, exerciseID)
			name = removed
			return next, err
		},
		message: func() string { return fmt.Sprintf("Removed %s", name) },
	})
}

// ReplaceExternalExercises swaps every exercise tagged with source for the
// given set, e.g. after re-importing from a wearable.
func (m *Mutator) ReplaceExternalExercises(ctx context.Context, userID string, date time.Time, source string, exercises []model.LoggedExercise) (model.DailyLog, error) {
	return m.apply(ctx, mutation{
		kind:   notify.ExercisesImported,
		userID: userID,
		date:   date,
		title:  "Workouts synced",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			return replaceSourcedExercises(l, source, exercises)
		},
		message: func() string { return fmt.Sprintf("Imported %d %s workouts", len(exercises), strings.TrimSpace(source)) },
	})
}

func (m *Mutator) AddWater(ctx context.Context, userID string, date time.Time, ounces float64) (model.DailyLog, error) {
	if ounces <= 0 {
		return model.DailyLog{}, fmt.Errorf("water amount must be > 0")
	}
	goal := m.waterGoal(ctx, userID, date)
	return m.apply(ctx, mutation{
		kind:      notify.WaterAdded,
		userID:    userID,
		date:      date,
		title:     "Water logged",
		transform: func(l model.DailyLog) (model.DailyLog, error) { return adjustWater(l, ounces, goal), nil },
		message:   func() string { return fmt.Sprintf("Added %.1f oz", ounces) },
		forward:   func(ctx context.Context) { m.health.LogWater(ctx, userID, ounces, date) },
	})
}

func (m *Mutator) RemoveWater(ctx context.Context, userID string, date time.Time, ounces float64) (model.DailyLog, error) {
	if ounces <= 0 {
		return model.DailyLog{}, fmt.Errorf("water amount must be > 0")
	}
	goal := m.waterGoal(ctx, userID, date)
	return m.apply(ctx, mutation{
		kind:      notify.WaterRemoved,
		userID:    userID,
		date:      date,
		title:     "Water updated",
		transform: func(l model.DailyLog) (model.DailyLog, error) { return adjustWater(l, -ounces, goal), nil },
		message:   func() string { return fmt.Sprintf("Removed %.1f oz", ounces) },
	})
}

// AddJournalEntry appends entry through an atomic array union on the stored
// document instead of a whole-document write.
func (m *Mutator) AddJournalEntry(ctx context.Context, userID string, date time.Time, entry model.JournalEntry) (model.DailyLog, error) {
	var added model.JournalEntry
	return m.apply(ctx, mutation{
		kind:   notify.JournalAdded,
		userID: userID,
		date:   date,
		title:  "Journal updated",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			prepared, err := prepareJournalEntry(l, entry, m.now())
			if err != nil {
				return l, err
			}
			added = prepared
			l.JournalEntries = append(l.JournalEntries, prepared)
			return l, nil
		},
		persist: func(ctx context.Context, ref docstore.Ref, _ model.DailyLog) error {
			data, err := json.Marshal(added)
			if err != nil {
				return fmt.Errorf("encode journal entry: %w", err)
			}
			return m.remote.ArrayUnion(ctx, ref, journalField, data)
		},
		message: func() string { return "Journal entry added" },
	})
}

// RemoveJournalEntry removes the stored entry equal to the one with id.
func (m *Mutator) RemoveJournalEntry(ctx context.Context, userID string, date time.Time, entryID string) (model.DailyLog, error) {
	var removed model.JournalEntry
	return m.apply(ctx, mutation{
		kind:   notify.JournalRemoved,
		userID: userID,
		date:   date,
		title:  "Journal updated",
		transform: func(l model.DailyLog) (model.DailyLog, error) {
			entry, ok := findJournalEntry(l, entryID)
			if !ok {
				return l, fmt.Errorf("journal entry %q: %w", entryID, ErrNotFound)
			}
			removed = entry
			return withoutJournalEntry(l, entryID), nil
		},
		persist: func(ctx context.Context, ref docstore.Ref, _ model.DailyLog) error {
			data, err := json.Marshal(removed)
			if err != nil {
				return fmt.Errorf("encode journal entry: %w", err)
			}
			return m.remote.ArrayRemove(ctx, ref, journalField, data)
		},
		message: func() string { return "Journal entry removed" },
	})
}

// dayLocks hands out one mutex per key, dropping it once unused.
type dayLocks struct {
	mu    sync.Mutex
	locks map[string]*dayLock
}

type dayLock struct {
	mu   sync.Mutex
	refs int
}

func newDayLocks() *dayLocks {
	return &dayLocks{locks: map[string]*dayLock{}}
}

func (d *dayLocks) lock(key string) func() {
	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &dayLock{}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
}
