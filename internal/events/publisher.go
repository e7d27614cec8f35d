// Package events publishes achievement and health records to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/saadjs/fitplate/internal/model"
	"github.com/saadjs/fitplate/internal/notify"
)

const writeTimeout = 5 * time.Second

type Config struct {
	Brokers           []string
	AchievementsTopic string
	HealthTopic       string
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON body of every published message.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	OccurredAt time.Time `json:"occurred_at"`

	Kind     string                `json:"kind,omitempty"`
	Food     *model.FoodItem       `json:"food,omitempty"`
	Ounces   float64               `json:"ounces,omitempty"`
	Exercise *model.LoggedExercise `json:"exercise,omitempty"`
}

// Publisher implements notify.Achievements and notify.HealthSink. Delivery
// failures are logged and never reach the caller.
type Publisher struct {
	achievements messageWriter
	health       messageWriter
	log          *slog.Logger
	now          func() time.Time
}

var (
	_ notify.Achievements = (*Publisher)(nil)
	_ notify.HealthSink   = (*Publisher)(nil)
)

func NewPublisher(cfg Config, log *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.AchievementsTopic == "" || cfg.HealthTopic == "" {
		return nil, errors.New("kafka topics are required")
	}
	return newPublisher(writer(cfg.Brokers, cfg.AchievementsTopic), writer(cfg.Brokers, cfg.HealthTopic), log), nil
}

func writer(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func newPublisher(achievements, health messageWriter, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		achievements: achievements,
		health:       health,
		log:          log.With(slog.String("component", "events")),
		now:          time.Now,
	}
}

func (p *Publisher) Record(ctx context.Context, userID string, kind notify.MutationKind, date time.Time) {
	p.publish(ctx, p.achievements, Event{Type: "achievement", UserID: userID, Date: model.DayKey(date), Kind: string(kind)})
}

func (p *Publisher) LogFood(ctx context.Context, userID string, item model.FoodItem, date time.Time) {
	p.publish(ctx, p.health, Event{Type: "food", UserID: userID, Date: model.DayKey(date), Food: &item})
}

func (p *Publisher) LogWater(ctx context.Context, userID string, ounces float64, date time.Time) {
	p.publish(ctx, p.health, Event{Type: "water", UserID: userID, Date: model.DayKey(date), Ounces: ounces})
}

func (p *Publisher) LogExercise(ctx context.Context, userID string, exercise model.LoggedExercise) {
	p.publish(ctx, p.health, Event{Type: "exercise", UserID: userID, Date: model.DayKey(exercise.Date), Exercise: &exercise})
}

func (p *Publisher) publish(ctx context.Context, w messageWriter, ev Event) {
	ev.ID = uuid.NewString()
	ev.OccurredAt = p.now().UTC()
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("event_encode_failed", slog.String("type", ev.Type), slog.Any("err", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("event_publish_failed", slog.String("type", ev.Type), slog.String("user_id", ev.UserID), slog.Any("err", err))
		return
	}
	p.log.Debug("event_published", slog.String("type", ev.Type), slog.String("id", ev.ID))
}

func (p *Publisher) Close() error {
	return errors.Join(p.achievements.Close(), p.health.Close())
}
