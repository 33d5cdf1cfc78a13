package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	// BackendRedis selects the Redis-backed store (production).
	BackendRedis = "redis"
	// BackendMemory selects the in-memory store (dev mode).
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Backend    string        // "redis" | "memory"
	SeedFile   string        // path to users.yaml (optional, empty = no seeding)
	TokenPath  string        // where the session token is persisted
	JWTSecret  string        // HMAC key for session tokens (required for redis backend)
	SessionTTL time.Duration // session token lifetime (default: 720h)

	// Redis (required only when Backend == "redis")
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PINSTACK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PINSTACK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PINSTACK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PINSTACK_PRETTY_LOG", true),

		// Backend selection
		Backend:    getenv("PINSTACK_BACKEND", BackendMemory),
		SeedFile:   getenv("PINSTACK_SEED_FILE", ""),
		TokenPath:  getenv("PINSTACK_TOKEN_PATH", defaultTokenPath()),
		JWTSecret:  getenv("PINSTACK_JWT_SECRET", ""),
		SessionTTL: mustDuration("PINSTACK_SESSION_TTL", 720*time.Hour),

		// Redis settings
		RedisAddr:           getenv("PINSTACK_REDIS_ADDR", ""),
		RedisUser:           getenv("PINSTACK_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("PINSTACK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PINSTACK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
	}

	switch cfg.Backend {
	case BackendRedis:
		if cfg.RedisAddr == "" {
			panic("❌ FATAL: PINSTACK_REDIS_ADDR is required when PINSTACK_BACKEND=redis")
		}
		if cfg.JWTSecret == "" {
			panic("❌ FATAL: PINSTACK_JWT_SECRET is required when PINSTACK_BACKEND=redis")
		}
	case BackendMemory:
		// nothing extra required
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown PINSTACK_BACKEND %q (want %q or %q)",
			cfg.Backend, BackendRedis, BackendMemory))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.JWTSecret != "" {
			cfgCopy.JWTSecret = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func defaultTokenPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".pinstack-session"
	}
	return dir + "/pinstack/session-token"
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
