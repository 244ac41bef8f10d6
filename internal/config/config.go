package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	pkgconfig "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

// StorageConfig mirrors the nested structure used by other services.
type StorageConfig struct {
	Type  string              `mapstructure:"type"`
	S3    storage.S3Config    `mapstructure:"s3"`
	Local storage.LocalConfig `mapstructure:"local"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ThumbnailConfig holds the destination bucket and the thumbnail policy.
type ThumbnailConfig struct {
	DestinationBucket string        `mapstructure:"destination_bucket"`
	MaxWidth          int           `mapstructure:"max_width"`
	MaxHeight         int           `mapstructure:"max_height"`
	JpegQuality       int           `mapstructure:"jpeg_quality"`
	MaxSourcePixels   int64         `mapstructure:"max_source_pixels"`
	URLExpiry         time.Duration `mapstructure:"url_expiry"`
}

// Policy returns the thumbnail policy described by the config.
func (c ThumbnailConfig) Policy() domain.ThumbnailPolicy {
	return domain.ThumbnailPolicy{
		MaxWidth:        c.MaxWidth,
		MaxHeight:       c.MaxHeight,
		Quality:         c.JpegQuality,
		MaxSourcePixels: c.MaxSourcePixels,
	}
}

// KafkaConfig configures the optional bucket-notification consumer and the
// thumbnail-created publisher. Both run only when Enabled is set.
type KafkaConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	Brokers          string   `mapstructure:"brokers"`
	ConsumerTopic    string   `mapstructure:"consumer_topic"`
	ConsumerGroupID  string   `mapstructure:"consumer_group_id"`
	ProducerTopic    string   `mapstructure:"producer_topic"`
	TopicPartitions  int      `mapstructure:"topic_partitions"`
	TopicReplication int      `mapstructure:"topic_replication"`
	BucketFilter     string   `mapstructure:"bucket_filter"`
	EventNameFilters []string `mapstructure:"event_name_filters"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	policy := domain.DefaultThumbnailPolicy()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("storage.local.base_path", "./data/storage")
	v.SetDefault("thumbnail.max_width", policy.MaxWidth)
	v.SetDefault("thumbnail.max_height", policy.MaxHeight)
	v.SetDefault("thumbnail.jpeg_quality", policy.Quality)
	v.SetDefault("thumbnail.max_source_pixels", policy.MaxSourcePixels)
	v.SetDefault("thumbnail.url_expiry", 24*time.Hour)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.consumer_topic", "minio-events")
	v.SetDefault("kafka.consumer_group_id", "thumbnail-service")
	v.SetDefault("kafka.producer_topic", "thumbnail-created")
	v.SetDefault("kafka.topic_partitions", 1)
	v.SetDefault("kafka.topic_replication", 1)
	v.SetDefault("kafka.event_name_filters", []string{"s3:ObjectCreated:*"})

	// Env bindings. PORT and PROCESSED_BUCKET are the names the Cloud Run
	// deployment sets.
	v.BindEnv("server.port", "PORT", "SERVER_PORT")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("thumbnail.destination_bucket", "PROCESSED_BUCKET", "THUMBNAIL_DESTINATION_BUCKET")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("storage.local.base_path", "LOCAL_STORAGE_PATH")
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.consumer_topic", "KAFKA_CONSUMER_TOPIC")
	v.BindEnv("kafka.consumer_group_id", "KAFKA_CONSUMER_GROUP_ID")
	v.BindEnv("kafka.producer_topic", "KAFKA_PRODUCER_TOPIC")
	v.BindEnv("kafka.topic_partitions", "KAFKA_TOPIC_PARTITIONS")
	v.BindEnv("kafka.topic_replication", "KAFKA_TOPIC_REPLICATION")
	v.BindEnv("kafka.bucket_filter", "KAFKA_BUCKET_FILTER")
	v.BindEnv("kafka.event_name_filters", "KAFKA_EVENT_NAME_FILTERS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks fields that have no usable default.
func (c *Config) Validate() error {
	var errs []error

	if c.Thumbnail.DestinationBucket == "" {
		errs = append(errs, errors.New("thumbnail.destination_bucket (PROCESSED_BUCKET) is required"))
	}
	if err := c.Thumbnail.Policy().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Storage.Type {
	case "s3", "local":
	default:
		errs = append(errs, fmt.Errorf("unsupported storage type: %q", c.Storage.Type))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}
	if c.Kafka.Enabled && c.Kafka.Brokers == "" {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Kafka.TopicPartitions < 0 || c.Kafka.TopicReplication < 0 {
		errs = append(errs, fmt.Errorf("invalid kafka topic layout: %d partitions, replication %d",
			c.Kafka.TopicPartitions, c.Kafka.TopicReplication))
	}

	return errors.Join(errs...)
}
