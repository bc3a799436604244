// internal/config/config.go

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Source      SourceConfig
	Pulse       PulseConfig
	Snapshot    SnapshotConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration for the post archive
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// SourceConfig holds post source configuration
type SourceConfig struct {
	Feed      string // "hackernews" or "reddit"
	Subreddit string
	Timeout   time.Duration
	CacheTTL  time.Duration
	NumPosts  int
}

// PulseConfig holds pulse computation and comparison configuration
type PulseConfig struct {
	SignificantRankDiff     int
	HighVelocityThreshold   float64
	HighCentralityThreshold float64
	DiverseAuthorsThreshold int
	MinClusterSize          int
	PageRankDamping         float64
	VelocityCap             float64
	MaxAuthorsDefault       int
	ScanInterval            time.Duration
	EventsTopic             string
}

// SnapshotConfig holds snapshot store configuration
type SnapshotConfig struct {
	Dir          string
	MinInterval  time.Duration
	MaxSnapshots int
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	home, _ := os.UserHomeDir()
	defaultSnapshotDir := filepath.Join(home, ".community_pulse", "snapshots")

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ARCHIVE_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "pulse"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Source: SourceConfig{
			Feed:      getEnv("SOURCE_FEED", "hackernews"),
			Subreddit: getEnv("SOURCE_SUBREDDIT", "programming"),
			Timeout:   getEnvAsDuration("SOURCE_TIMEOUT", 30*time.Second),
			CacheTTL:  getEnvAsDuration("SOURCE_CACHE_TTL", 3*time.Minute),
			NumPosts:  getEnvAsInt("SOURCE_NUM_POSTS", 100),
		},
		Pulse: PulseConfig{
			SignificantRankDiff:     getEnvAsInt("PULSE_SIGNIFICANT_RANK_DIFF", 2),
			HighVelocityThreshold:   getEnvAsFloat("PULSE_HIGH_VELOCITY_THRESHOLD", 1.5),
			HighCentralityThreshold: getEnvAsFloat("PULSE_HIGH_CENTRALITY_THRESHOLD", 0.3),
			DiverseAuthorsThreshold: getEnvAsInt("PULSE_DIVERSE_AUTHORS_THRESHOLD", 5),
			MinClusterSize:          getEnvAsInt("PULSE_MIN_CLUSTER_SIZE", 3),
			PageRankDamping:         getEnvAsFloat("PULSE_PAGERANK_DAMPING", 0.85),
			VelocityCap:             getEnvAsFloat("PULSE_VELOCITY_CAP", 3.0),
			MaxAuthorsDefault:       getEnvAsInt("PULSE_MAX_AUTHORS", 100),
			ScanInterval:            getEnvAsDuration("PULSE_SCAN_INTERVAL", 5*time.Minute),
			EventsTopic:             getEnv("PULSE_EVENTS_TOPIC", "pulse.updates"),
		},
		Snapshot: SnapshotConfig{
			Dir:          getEnv("SNAPSHOT_DIR", defaultSnapshotDir),
			MinInterval:  getEnvAsDuration("SNAPSHOT_MIN_INTERVAL", 1*time.Hour),
			MaxSnapshots: getEnvAsInt("SNAPSHOT_MAX_COUNT", 24),
		},
	}

	return config, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
