package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/backend/memory"
	redisstore "github.com/pinstack/pinstack/internal/backend/redis"
	"github.com/pinstack/pinstack/internal/client"
	"github.com/pinstack/pinstack/internal/config"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/httpserver"
	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/logger"
	"github.com/pinstack/pinstack/internal/redisconn"
	"github.com/pinstack/pinstack/internal/seed"
	"github.com/pinstack/pinstack/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	client      *client.Client
	redisClient *goredis.Client
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	var (
		b           backend.Backend
		redisClient *goredis.Client
		ready       func() bool
	)

	switch cfg.Backend {
	case config.BackendRedis:
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		rc, err := redisconn.New(redisconn.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			// Degraded mode: serve the UI with a labeled non-functional
			// state instead of crashing. Every operation reports the
			// missing backend; /readyz answers 503.
			loggerClient.Error("redis unavailable, starting degraded",
				logger.Error(err))
			ready = func() bool { return false }
		} else {
			redisClient = rc
			b = redisstore.NewStore(rc, redisstore.Options{
				Secret:     []byte(cfg.JWTSecret),
				TokenPath:  cfg.TokenPath,
				SessionTTL: cfg.SessionTTL,
			}, loggerClient)
			ready = func() bool {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisPingTimeout)
				defer cancel()
				return rc.Ping(ctx).Err() == nil
			}
			loggerClient.Info("Redis backend initialized")
		}

	case config.BackendMemory:
		b = memory.New()
		ready = func() bool { return true }
		loggerClient.Info("in-memory backend initialized (dev mode)")
	}

	if b != nil && cfg.SeedFile != "" {
		if err := applySeed(context.Background(), b, cfg.SeedFile, loggerClient); err != nil {
			loggerClient.Warn("failed to apply seed file", logger.Error(err))
		}
	}

	if cfg.TokenPath != "" {
		// Best effort; a missing parent dir only matters at sign-in.
		_ = os.MkdirAll(filepath.Dir(cfg.TokenPath), 0o700)
	}

	bookmarkClient := client.New(b, loggerClient)

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,
		Client:    bookmarkClient,
		Ready:     ready,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		client:      bookmarkClient,
		redisClient: redisClient,
	}
}

// applySeed provisions accounts and starter bookmarks from the YAML
// seed file into whichever backend is configured.
func applySeed(ctx context.Context, b backend.Backend, path string, log logger.Logger) error {
	cfgSeed, err := seed.NewLoader(path).Load()
	if err != nil {
		return err
	}

	users, err := seed.NewMapper().MapUsers(cfgSeed)
	if err != nil {
		return err
	}

	for _, user := range users {
		if err := saveUser(ctx, b, user); err != nil {
			return err
		}
		for _, bm := range user.Bookmarks {
			if err := b.InsertBookmark(ctx, bm); err != nil {
				return err
			}
		}
	}

	log.Info("seed applied", logger.Int("users", len(users)))
	return nil
}

// saveUser provisions one account; both backends expose the same
// SaveUser shape without it being part of the core capabilities.
func saveUser(ctx context.Context, b backend.Backend, user seed.User) error {
	prov, ok := b.(interface {
		SaveUser(ctx context.Context, identity domain.Identity, passwordHash []byte) error
	})
	if !ok {
		return fmt.Errorf("backend %T does not support user provisioning", b)
	}
	return prov.SaveUser(ctx, user.Identity, user.PasswordHash)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Pinstack v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Pinstack %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the bookmark client (restores any persisted session and
	// begins synchronizing). A degraded backend is surfaced, not fatal.
	if err := a.client.Start(ctx); err != nil {
		a.logger.Warn("client started degraded", logger.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop the client first so subscriptions are released before the
	// backend connection goes away.
	a.client.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Pinstack stopped cleanly")
	return nil
}
