package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Local persistence backends.
const (
	LocalBackendFile     = "file"
	LocalBackendPostgres = "postgres"
	LocalBackendMemory   = "memory"
)

// Remote store backends.
const (
	RemoteBackendGist = "gist"
	RemoteBackendGCS  = "gcs"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     string

	// Local persistence
	DataDir       string
	LocalBackend  string
	DatabaseURL   string
	EnableDBCheck bool
	WatchLocal    bool

	// Remote store
	RemoteBackend       string
	GistAPIURL          string
	GCSBucket           string
	RemoteTimeout       time.Duration
	AutoRefreshInterval time.Duration

	// Local API
	APISecret              string
	APITokenExpiryDuration time.Duration
	CORSOrigins            []string
	RateLimit              string
	AssetOrigin            string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATA_DIR", ".stack")
	viper.SetDefault("LOCAL_BACKEND", LocalBackendFile)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("WATCH_LOCAL", true)
	viper.SetDefault("REMOTE_BACKEND", RemoteBackendGist)
	viper.SetDefault("GIST_API_URL", "https://api.github.com")
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("REMOTE_TIMEOUT", "30s")
	viper.SetDefault("AUTO_REFRESH_INTERVAL", "5s")
	viper.SetDefault("API_SECRET", "")
	viper.SetDefault("API_TOKEN_EXPIRY_DURATION", "720h")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("ASSET_ORIGIN", "")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:          viper.GetString("PORT"),
		IsProduction:  viper.GetBool("IS_PRODUCTION"),
		LogLevel:      strings.ToLower(viper.GetString("LOG_LEVEL")),
		DataDir:       viper.GetString("DATA_DIR"),
		LocalBackend:  strings.ToLower(viper.GetString("LOCAL_BACKEND")),
		DatabaseURL:   viper.GetString("PGSQL_URL"),
		EnableDBCheck: viper.GetBool("ENABLE_DB_CHECK"),
		WatchLocal:    viper.GetBool("WATCH_LOCAL"),
		RemoteBackend: strings.ToLower(viper.GetString("REMOTE_BACKEND")),
		GistAPIURL:    strings.TrimRight(viper.GetString("GIST_API_URL"), "/"),
		GCSBucket:     viper.GetString("GCS_BUCKET"),
		APISecret:     viper.GetString("API_SECRET"),
		RateLimit:     viper.GetString("RATE_LIMIT"),
		AssetOrigin:   strings.TrimRight(viper.GetString("ASSET_ORIGIN"), "/"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.RemoteTimeout = durationOrDefault("REMOTE_TIMEOUT", 30*time.Second)
	cfg.AutoRefreshInterval = durationOrDefault("AUTO_REFRESH_INTERVAL", 5*time.Second)
	cfg.APITokenExpiryDuration = durationOrDefault("API_TOKEN_EXPIRY_DURATION", 30*24*time.Hour)

	for _, origin := range strings.Split(viper.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	switch cfg.LocalBackend {
	case LocalBackendFile, LocalBackendMemory:
	case LocalBackendPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: LOCAL_BACKEND is postgres but PGSQL_URL is not set.")
		}
	default:
		log.Printf("Warning: Invalid value for LOCAL_BACKEND ('%s'). Defaulting to %s.\n", cfg.LocalBackend, LocalBackendFile)
		cfg.LocalBackend = LocalBackendFile
	}

	switch cfg.RemoteBackend {
	case RemoteBackendGist:
	case RemoteBackendGCS:
		if cfg.GCSBucket == "" {
			log.Println("Warning: REMOTE_BACKEND is gcs but GCS_BUCKET is not set. Sync will fail.")
		}
	default:
		log.Printf("Warning: Invalid value for REMOTE_BACKEND ('%s'). Defaulting to %s.\n", cfg.RemoteBackend, RemoteBackendGist)
		cfg.RemoteBackend = RemoteBackendGist
	}

	if cfg.APISecret == "" && cfg.IsProduction {
		log.Println("Warning: API_SECRET not set. The local API accepts unauthenticated requests.")
	}

	return cfg, nil
}

// durationOrDefault reads a duration key, falling back with a warning when
// the value does not parse.
func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}
