package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/handler"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

const (
	serviceName = "thumbnail-service"
	version     = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: serviceName,
	})
	logger := pkglog.L()

	logger.Info().Str("version", version).Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).
		Str("storage_type", cfg.Storage.Type).Str(pkglog.FieldDstBucket, cfg.Thumbnail.DestinationBucket).
		Bool("kafka_enabled", cfg.Kafka.Enabled).
		Msg("starting thumbnail service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One storage client for the process, shared by every invocation.
	store, err := initStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	metrics.Init()

	// The publisher stays nil (no completion events) unless Kafka is enabled.
	var publisher mq.ThumbnailEventPublisher
	if cfg.Kafka.Enabled {
		kp, err := mq.NewKafkaPublisher(mq.PublisherConfig{
			Brokers:           cfg.Kafka.Brokers,
			Topic:             cfg.Kafka.ProducerTopic,
			Partitions:        cfg.Kafka.TopicPartitions,
			ReplicationFactor: cfg.Kafka.TopicReplication,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init kafka publisher")
		}
		publisher = kp
	}

	proc := processor.NewThumbnailProcessor(store, publisher, cfg)

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	handler.NewHealthHandler(serviceName, version).RegisterRoutes(r)
	handler.NewEventHandler(proc).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("thumbnail service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var consumer *mq.KafkaConsumer
	if cfg.Kafka.Enabled {
		consumer, err = mq.NewKafkaConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerTopic,
			cfg.Kafka.ConsumerGroupID,
			mq.NotificationFilter{
				Bucket:     cfg.Kafka.BucketFilter,
				EventNames: cfg.Kafka.EventNameFilters,
			},
			proc,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init kafka consumer")
		}
		if err := consumer.Start(gctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to start consumer")
		}
	}

	// Block until SIGINT / SIGTERM or a component fails.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-quit:
		case <-gctx.Done():
		}

		logger.Info().Msg("shutting down thumbnail service")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("thumbnail service stopped with error")
	}

	// gctx is cancelled once Wait returns, so the consume loop is already exiting.
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}
	if publisher != nil {
		publisher.Close()
	}

	logger.Info().Msg("thumbnail service stopped")
}

// initStorage initializes the storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	l := pkglog.L()
	switch cfg.Storage.Type {
	case "s3":
		st, err := storage.NewS3Storage(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		l.Info().Str("endpoint", cfg.Storage.S3.Endpoint).Str("region", cfg.Storage.S3.Region).Msg("s3 storage initialised")
		return st, nil
	case "local":
		st, err := storage.NewLocalStorage(cfg.Storage.Local)
		if err != nil {
			return nil, err
		}
		l.Info().Str("path", st.GetBasePath()).Msg("local storage initialised")
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
