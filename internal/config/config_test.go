package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	pkgconfig "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/config"
)

// isolate points the loader at an empty config file so the developer's
// working tree does not leak into the test.
func isolate(t *testing.T, yaml string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(yaml), 0o644))
	t.Setenv(pkgconfig.EnvConfigFile, p)
	for _, name := range []string{"PORT", "SERVER_PORT", "PROCESSED_BUCKET", "THUMBNAIL_DESTINATION_BUCKET", "STORAGE_TYPE", "KAFKA_ENABLED"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t, "")
	t.Setenv("PROCESSED_BUCKET", "thumbnails")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "thumbnails", cfg.Thumbnail.DestinationBucket)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, domain.DefaultThumbnailPolicy(), cfg.Thumbnail.Policy())
	assert.Equal(t, 24*time.Hour, cfg.Thumbnail.URLExpiry)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"s3:ObjectCreated:*"}, cfg.Kafka.EventNameFilters)
	assert.Equal(t, 1, cfg.Kafka.TopicPartitions)
	assert.Equal(t, 1, cfg.Kafka.TopicReplication)
}

func TestLoad_PortFromEnv(t *testing.T) {
	isolate(t, "")
	t.Setenv("PROCESSED_BUCKET", "thumbnails")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MissingDestinationBucket(t *testing.T) {
	isolate(t, "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROCESSED_BUCKET")
}

func TestLoad_File(t *testing.T) {
	isolate(t, `
server:
  port: 7070
storage:
  type: local
  local:
    base_path: /var/lib/thumbs
thumbnail:
  destination_bucket: processed
  max_width: 128
  max_height: 96
  jpeg_quality: 70
  max_source_pixels: 1000000
  url_expiry: 1h
kafka:
  enabled: true
  brokers: kafka:9092
  bucket_filter: uploads
  topic_partitions: 6
  topic_replication: 3
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "/var/lib/thumbs", cfg.Storage.Local.BasePath)
	assert.Equal(t, "processed", cfg.Thumbnail.DestinationBucket)
	assert.Equal(t, domain.ThumbnailPolicy{MaxWidth: 128, MaxHeight: 96, Quality: 70, MaxSourcePixels: 1000000}, cfg.Thumbnail.Policy())
	assert.Equal(t, time.Hour, cfg.Thumbnail.URLExpiry)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "kafka:9092", cfg.Kafka.Brokers)
	assert.Equal(t, "uploads", cfg.Kafka.BucketFilter)
	assert.Equal(t, 6, cfg.Kafka.TopicPartitions)
	assert.Equal(t, 3, cfg.Kafka.TopicReplication)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t, "thumbnail:\n  destination_bucket: from-file\n")
	t.Setenv("PROCESSED_BUCKET", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Thumbnail.DestinationBucket)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Storage:   StorageConfig{Type: "s3"},
			Thumbnail: ThumbnailConfig{
				DestinationBucket: "thumbs",
				MaxWidth:          300,
				MaxHeight:         300,
				JpegQuality:       85,
				MaxSourcePixels:   domain.DefaultMaxSourcePixels,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad storage type", func(c *Config) { c.Storage.Type = "gcs" }, "unsupported storage type"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"zero bounds", func(c *Config) { c.Thumbnail.MaxWidth = 0 }, "thumbnail bounds"},
		{"quality out of range", func(c *Config) { c.Thumbnail.JpegQuality = 101 }, "jpeg quality"},
		{"no source pixel limit", func(c *Config) { c.Thumbnail.MaxSourcePixels = 0 }, "max source pixels"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
		{"negative partitions", func(c *Config) { c.Kafka.TopicPartitions = -1 }, "kafka topic layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
