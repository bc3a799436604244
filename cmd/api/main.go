// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"pulse/internal/adapter/source"
	"pulse/internal/adapter/storage"
	"pulse/internal/analysis"
	"pulse/internal/config"
	"pulse/internal/domain/pulse"
	"pulse/internal/logger"
	"pulse/internal/metrics"
	"pulse/internal/server"
	pulseService "pulse/internal/service/pulse"
)

func main() {
	// Load .env if present; environment variables take precedence
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.LogLevel, cfg.Environment == "development")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer natsConn.Close()

	// Initialize post source
	postSource, err := initSource(cfg.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize post source")
	}

	// Optional post archive
	if cfg.Database.Enabled {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer db.Close()

		postStore := storage.NewPostStore(db)
		if err := postStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure post schema")
		}
		postSource = source.NewArchivingSource(postSource, postStore)
	}

	// Initialize snapshot store
	snapshotStore, err := storage.NewSnapshotStore(
		cfg.Snapshot.Dir,
		cfg.Snapshot.MaxSnapshots,
		cfg.Snapshot.MinInterval,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize snapshot store")
	}

	// Initialize pulse computation service
	computer := analysis.NewService(postSource, snapshotStore, analysis.ServiceConfig{
		NumPosts:          cfg.Source.NumPosts,
		PageRankDamping:   cfg.Pulse.PageRankDamping,
		VelocityCap:       cfg.Pulse.VelocityCap,
		MaxAuthorsDefault: cfg.Pulse.MaxAuthorsDefault,
		MinClusterSize:    cfg.Pulse.MinClusterSize,
	})

	// Initialize scheduler
	m := metrics.New()
	scheduler := pulseService.NewScheduler(computer, snapshotStore, natsConn, m, pulseService.SchedulerConfig{
		ScanInterval: cfg.Pulse.ScanInterval,
		NumPosts:     cfg.Source.NumPosts,
		EventsTopic:  cfg.Pulse.EventsTopic,
	})

	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start pulse scheduler")
	}

	thresholds := analysis.Thresholds{
		SignificantRankDiff: cfg.Pulse.SignificantRankDiff,
		HighVelocity:        cfg.Pulse.HighVelocityThreshold,
		HighCentrality:      cfg.Pulse.HighCentralityThreshold,
		DiverseAuthors:      cfg.Pulse.DiverseAuthorsThreshold,
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		natsConn,
		scheduler,
		thresholds,
		cfg.Pulse.EventsTopic,
	)

	// Start HTTP server
	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// Initialize the configured post source
func initSource(cfg config.SourceConfig) (pulse.PostSource, error) {
	switch cfg.Feed {
	case "hackernews", "":
		return source.NewHackerNewsClient(cfg.Timeout, source.WithCacheTTL(cfg.CacheTTL)), nil
	case "reddit":
		return source.NewRedditClient(cfg.Subreddit, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported post source: %s", cfg.Feed)
	}
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
