package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	MigrationsDir string
	CORSOrigin    string
	TokenSecret   string
	SessionTTL    time.Duration
	// Upstream Atelier backend
	BackendURL     string
	BackendTimeout time.Duration
	// Only honored by binaries built with the devauth tag
	DevUserEmail string
	// Upper bound for the sign-in user sync call
	SyncTimeout time.Duration
	// Standards choice lists are cached for this long
	CatalogCacheTTL time.Duration
	LogLevel        string
	LogFormat       string
}

// Load reads the optional .env file in the working directory and then the
// process environment. Values already present in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            getenv("PORTAL_ADDR", ":8790"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		MigrationsDir:   getenv("PORTAL_MIGRATIONS_DIR", "./db/migrations"),
		CORSOrigin:      getenv("PORTAL_CORS_ORIGIN", "*"),
		TokenSecret:     getenv("PORTAL_TOKEN_SECRET", "atelier-dev-secret"),
		SessionTTL:      getenvSeconds("PORTAL_SESSION_TTL_SECONDS", 12*60*60),
		BackendURL:      strings.TrimRight(getenv("BACKEND_URL", "http://localhost:5175"), "/"),
		BackendTimeout:  getenvSeconds("BACKEND_TIMEOUT_SECONDS", 0),
		DevUserEmail:    strings.TrimSpace(os.Getenv("PORTAL_DEV_USER_EMAIL")),
		SyncTimeout:     getenvSeconds("PORTAL_SYNC_TIMEOUT_SECONDS", 10),
		CatalogCacheTTL: getenvSeconds("CATALOG_CACHE_TTL_SECONDS", 300),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "text"),
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvSeconds(key string, fallback int) time.Duration {
	seconds := getenvInt(key, fallback)
	if seconds < 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
