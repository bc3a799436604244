// cmd/seed/main.go

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pulse/internal/adapter/storage"
	"pulse/internal/config"
	"pulse/internal/domain/pulse"
	"pulse/internal/logger"
)

// seed loads a JSON post corpus (as written by cmd/fetch) into the post
// archive.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.LogLevel, true)

	in := flag.String("in", "posts.json", "input corpus file")
	flag.Parse()

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal().Err(err).Str("path", *in).Msg("failed to read corpus file")
	}

	var posts []pulse.RawPost
	if err := json.Unmarshal(data, &posts); err != nil {
		log.Fatal().Err(err).Msg("failed to parse corpus file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	store := storage.NewPostStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure post schema")
	}

	saved, err := store.SavePosts(ctx, posts)
	if err != nil {
		log.Fatal().Err(err).Int("saved", saved).Msg("failed to save posts")
	}

	total, err := store.CountPosts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count posts")
	}

	log.Info().Int("saved", saved).Int("total", total).Msg("corpus seeded")
}

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

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}
