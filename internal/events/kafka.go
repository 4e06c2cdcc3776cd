package events

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"wallet_ledger/internal/ledger"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// batchTimeout caps how long a single event waits for a batch to fill.
const batchTimeout = 5 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes committed ledger events to one topic, keyed by
// wallet number so a wallet's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	retry  RetryConfig
}

var _ ledger.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, retry RetryConfig) *KafkaPublisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: batchTimeout,
	}, topic, retry)
}

func newPublisher(w messageWriter, topic string, retry RetryConfig) *KafkaPublisher {
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = 5
	}
	if retry.BaseDelay == 0 {
		retry.BaseDelay = 100 * time.Millisecond
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 10 * time.Second
	}
	return &KafkaPublisher{writer: w, topic: topic, retry: retry}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ledger.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.WalletNumber, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "event-id", Value: []byte(ev.ID)},
		},
	}

	var lastErr error
	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			if attempt > 0 {
				logrus.WithFields(logrus.Fields{
					"topic":    p.topic,
					"event_id": ev.ID,
					"attempts": attempt + 1,
				}).Info("Event published after retry")
			}
			return nil
		}
		lastErr = err
		if attempt == p.retry.MaxAttempts-1 {
			break
		}

		delay := p.backoff(attempt)
		logrus.WithFields(logrus.Fields{
			"topic":   p.topic,
			"attempt": attempt + 1,
			"delay":   delay.String(),
			"error":   err.Error(),
		}).Warn("Retrying event publish")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
	return fmt.Errorf("failed to publish event to topic '%s' after %d attempts: %w",
		p.topic, p.retry.MaxAttempts, lastErr)
}

func (p *KafkaPublisher) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * p.retry.BaseDelay
	if delay > p.retry.MaxDelay {
		delay = p.retry.MaxDelay
	}
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.3)
	return delay + jitter - time.Duration(float64(delay)*0.15)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
