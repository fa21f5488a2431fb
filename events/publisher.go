// Package events publishes finished comparisons to Kafka. Without brokers it
// only logs them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rrifaldi/yuzu/observability"
)

type Config struct {
	Enabled   bool     `env:"ENABLED" envDefault:"false"`
	Brokers   []string `env:"BROKERS" envSeparator:","`
	Topic     string   `env:"TOPIC" envDefault:"yuzu.comparisons"`
	Principal string   `env:"PRINCIPAL" envDefault:"yuzu"`
}

// ModelRun is one side of a comparison as it appears in an event.
type ModelRun struct {
	Label          string  `json:"label"`
	Model          string  `json:"model"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Failed         bool    `json:"failed"`
	Characters     int     `json:"characters"`
}

type ComparisonCompleted struct {
	ID                   string    `json:"id"`
	Source               string    `json:"source"`
	CreatedAt            time.Time `json:"created_at"`
	AudioDurationSeconds float64   `json:"audio_duration_seconds"`
	A                    ModelRun  `json:"a"`
	B                    ModelRun  `json:"b"`
	Reference            string    `json:"reference"`
	CharacterErrorRate   float64   `json:"character_error_rate"`
	Tier                 string    `json:"tier"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer    messageWriter
	topic     string
	principal string
	enabled   bool

	log     *zap.Logger
	metrics *observability.Metrics
}

func New(cfg Config, log *zap.Logger, metrics *observability.Metrics) *Publisher {
	p := &Publisher{
		topic:     cfg.Topic,
		principal: cfg.Principal,
		log:       log,
		metrics:   metrics,
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info("kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}
	p.enabled = true

	log.Info("kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("principal", cfg.Principal),
	)

	return p
}

// PublishComparison writes the event keyed by its ID so retries of the same
// run land on the same partition.
func (p *Publisher) PublishComparison(ctx context.Context, event ComparisonCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	log := p.log.With(zap.String("topic", p.topic), zap.String("key", event.ID))
	log.Debug("publishing event", zap.ByteString("payload", payload))

	if !p.enabled || p.writer == nil {
		p.record(observability.PublishOutcomeLogged)
		return nil
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("comparison_completed")},
			{Key: "principal", Value: []byte(p.principal)},
		},
	})
	if err != nil {
		p.record(observability.PublishOutcomeFailed)
		return fmt.Errorf("writing to kafka: %w", err)
	}

	p.record(observability.PublishOutcomeOK)
	return nil
}

func (p *Publisher) record(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordPublish(p.topic, outcome)
	}
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
