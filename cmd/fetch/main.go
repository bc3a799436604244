// cmd/fetch/main.go

package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pulse/internal/adapter/source"
	"pulse/internal/config"
	"pulse/internal/domain/pulse"
	"pulse/internal/logger"
)

// fetch pulls a post corpus from the configured source and writes it as
// JSON, for offline analysis or seeding the post archive.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.LogLevel, true)

	limit := flag.Int("limit", cfg.Source.NumPosts, "maximum number of posts to fetch")
	out := flag.String("out", "posts.json", "output file path")
	feed := flag.String("feed", cfg.Source.Feed, "post source (hackernews or reddit)")
	flag.Parse()

	var src pulse.PostSource
	switch *feed {
	case "hackernews", "":
		src = source.NewHackerNewsClient(cfg.Source.Timeout)
	case "reddit":
		src = source.NewRedditClient(cfg.Source.Subreddit, cfg.Source.Timeout)
	default:
		log.Fatal().Str("feed", *feed).Msg("unsupported post source")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	posts, err := src.FetchPosts(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch posts")
	}

	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal posts")
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("failed to write output file")
	}

	log.Info().Int("posts", len(posts)).Str("source", src.Name()).Str("out", *out).Msg("corpus written")
}
