package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// PublisherConfig configures the thumbnail-created producer and the topic it
// creates on startup.
type PublisherConfig struct {
	Brokers           string
	Topic             string
	Partitions        int
	ReplicationFactor int
}

func (c PublisherConfig) topicSpec() kafka.TopicSpecification {
	spec := kafka.TopicSpecification{
		Topic:             c.Topic,
		NumPartitions:     c.Partitions,
		ReplicationFactor: c.ReplicationFactor,
	}
	if spec.NumPartitions <= 0 {
		spec.NumPartitions = 1
	}
	if spec.ReplicationFactor <= 0 {
		spec.ReplicationFactor = 1
	}
	return spec
}

// KafkaPublisher implements ThumbnailEventPublisher using confluent-kafka-go.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

// NewKafkaPublisher creates the producer. A failure to create the topic is
// logged and tolerated; the broker may auto-create it or it may already exist.
func NewKafkaPublisher(cfg PublisherConfig) (*KafkaPublisher, error) {
	if err := ensureTopic(cfg.Brokers, cfg.topicSpec()); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str("topic", cfg.Topic).Msg("failed to ensure thumbnail topic")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		topic:    cfg.Topic,
		doneCh:   make(chan struct{}),
	}

	go kp.watchDeliveries()

	return kp, nil
}

func ensureTopic(brokers string, spec kafka.TopicSpecification) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{spec})
	if err != nil {
		return err
	}

	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

// watchDeliveries logs messages the broker failed to accept. It exits when
// the producer is closed.
func (kp *KafkaPublisher) watchDeliveries() {
	defer close(kp.doneCh)
	l := pkglog.L()
	for e := range kp.producer.Events() {
		msg, ok := e.(*kafka.Message)
		if !ok || msg.TopicPartition.Error == nil {
			continue
		}
		l.Error().Err(msg.TopicPartition.Error).
			Str(pkglog.FieldDstKey, string(msg.Key)).
			Msg("thumbnail created event not delivered")
	}
}

// thumbnailCreatedMessage builds the record for event. The thumbnail key is
// the message key, so repeated writes of one thumbnail land on one partition
// in order.
func thumbnailCreatedMessage(topic string, event *ThumbnailCreatedEvent) (*kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thumbnail created event: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Thumbnail.Key),
		Value: value,
	}, nil
}

// PublishThumbnailCreated enqueues event; delivery is reported asynchronously.
func (kp *KafkaPublisher) PublishThumbnailCreated(ctx context.Context, event *ThumbnailCreatedEvent) error {
	msg, err := thumbnailCreatedMessage(kp.topic, event)
	if err != nil {
		return err
	}

	if err := kp.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce thumbnail created event: %w", err)
	}

	return nil
}

// Close flushes pending messages and releases producer resources.
func (kp *KafkaPublisher) Close() error {
	if n := kp.producer.Flush(5000); n > 0 {
		l := pkglog.L()
		l.Warn().Int("pending", n).Msg("closing producer with undelivered thumbnail events")
	}
	kp.producer.Close()
	<-kp.doneCh
	return nil
}
