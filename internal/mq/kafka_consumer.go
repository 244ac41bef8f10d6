package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// KafkaConsumer implements ObjectEventConsumer using confluent-kafka-go.
// Offsets are auto-committed, so a message whose processing fails is not
// redelivered.
type KafkaConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  ObjectEventHandler
	filter   NotificationFilter
	doneCh   chan struct{}
}

// NewKafkaConsumer creates a new Kafka consumer for bucket notifications.
func NewKafkaConsumer(brokers, topic, groupID string, filter NotificationFilter, handler ObjectEventHandler) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		consumer: c,
		topic:    topic,
		handler:  handler,
		filter:   filter,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins consuming messages from Kafka in a background goroutine.
func (kc *KafkaConsumer) Start(ctx context.Context) error {
	if err := kc.consumer.Subscribe(kc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", kc.topic, err)
	}

	l := pkglog.L()
	l.Info().Str("topic", kc.topic).Str("client", kc.consumer.String()).Msg("bucket notification consumer started")

	go kc.consumeLoop(ctx)

	return nil
}

func (kc *KafkaConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(kc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("bucket notification consumer shutting down")
			return
		default:
			msg, err := kc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("kafka consumer error")
				continue
			}
			// Detached so in-flight processing completes after the shutdown signal.
			kc.processMessage(context.WithoutCancel(ctx), msg)
		}
	}
}

func (kc *KafkaConsumer) processMessage(ctx context.Context, msg *kafka.Message) {
	l := pkglog.L().With().Str(pkglog.FieldTransport, metrics.TransportKafka).Logger()
	metrics.EventsReceived.WithLabelValues(metrics.TransportKafka).Inc()

	events, err := ParseNotification(msg.Value, kc.filter)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(metrics.TransportKafka).Inc()
		l.Error().Err(err).Msg("failed to parse bucket notification")
		return
	}

	ctx = pkglog.WithLogger(ctx, l)
	for _, event := range events {
		l.Info().
			Str(pkglog.FieldBucket, event.Bucket).
			Str(pkglog.FieldKey, event.Key).
			Str(pkglog.FieldEventType, event.EventName).
			Int64("size", event.Size).
			Msg("received bucket notification")

		if err := kc.handler.HandleObjectEvent(ctx, event); err != nil {
			l.Error().Err(err).Str(pkglog.FieldKey, event.Key).Msg("failed to handle bucket notification")
		}
	}
}

// Close waits for the consume loop to drain, then closes the Kafka client.
// ctx must already be cancelled before calling Close.
func (kc *KafkaConsumer) Close() error {
	<-kc.doneCh
	if err := kc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
