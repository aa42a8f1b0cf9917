package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forgo/campusfeed/internal/config"
	"github.com/forgo/campusfeed/internal/handler"
	"github.com/forgo/campusfeed/internal/jobs"
	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/repository"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/session"
	"github.com/forgo/campusfeed/internal/storage"
	"github.com/forgo/campusfeed/pkg/jwt"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize database and repositories
	backend, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = backend.Close() }()

	slog.Info("connected to database", slog.String("driver", backend.Driver))

	// Initialize blob storage
	blobs, uploads, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize sessions
	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		// Development only; Validate rejects an empty secret in production
		secret = make([]byte, jwt.MinSecretLength)
		if _, err := rand.Read(secret); err != nil {
			slog.Error("failed to generate session secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	signer, err := jwt.NewService(jwt.Config{Secret: secret, Issuer: "campusfeed"})
	if err != nil {
		slog.Error("failed to initialize session signer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var sessionStore session.Store
	var sweeper *jobs.SessionSweeper
	if cfg.Session.UsesRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		sessionStore = session.NewRedisStore(rdb)
		slog.Info("sessions stored in redis", slog.String("addr", cfg.Session.RedisAddr))
	} else {
		memory := session.NewMemoryStore()
		sweeper = jobs.NewSessionSweeper(memory, cfg.Session.SweepInterval)
		sweeper.Start()
		sessionStore = memory
	}

	sessions := session.NewManager(sessionStore, signer, session.Options{
		TTL:        cfg.Session.TTL,
		Sliding:    cfg.Session.Sliding,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.IsProduction(),
	})

	// Initialize services
	authService, err := service.NewAuthService(service.AuthServiceConfig{
		Accounts:    backend.Accounts,
		EmailDomain: cfg.Account.EmailDomain,
		BcryptCost:  cfg.Account.BcryptCost,
	})
	if err != nil {
		slog.Error("failed to initialize auth service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	profileService := service.NewProfileService(service.ProfileServiceConfig{
		Accounts:       backend.Accounts,
		Blobs:          blobs,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})

	adminService := service.NewAdminService(backend.Accounts)

	feedService := service.NewFeedService(service.FeedServiceConfig{
		Posts:          backend.Posts,
		Blobs:          blobs,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})

	chat := service.NewChatBroadcaster(cfg.Chat.HistorySize, cfg.Chat.SubscriberBuffer)

	// Initialize rate limiter for register and login
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})

	// Initialize idempotency store for post creation
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		MaxBody: cfg.Storage.MaxUploadBytes + 1<<20,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, sessions),
		Profile:        handler.NewProfileHandler(profileService, cfg.Storage.MaxUploadBytes),
		Posts:          handler.NewPostHandler(feedService, cfg.Storage.MaxUploadBytes),
		Admin:          handler.NewAdminUsersHandler(adminService),
		Chat:           handler.NewChatHandler(chat, cfg.Server.AllowedOrigins, cfg.Chat.MaxMessageBytes),
		Health:         handler.NewHealthHandler(backend),
		Sessions:       sessions,
		Accounts:       authService,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthLimiter:    rateLimiter,
		Idempotency:    idempotencyStore,
		Uploads:        uploads,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Closing the room ends every chat connection so Shutdown is not held
	// open by hijacked websockets.
	chat.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	if sweeper != nil {
		sweeper.Stop()
	}
	rateLimiter.Stop()
	idempotencyStore.Stop()

	slog.Info("server exited")
}

// newBlobStore builds the configured image store. The disk store also
// returns a handler serving the stored files.
func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, http.Handler, error) {
	if cfg.Driver == config.StorageS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storing uploads in bucket", slog.String("bucket", cfg.Bucket))
		return store, nil, nil
	}

	store, err := storage.NewDiskStore(cfg.DiskDir, cfg.PublicURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("storing uploads on disk", slog.String("dir", store.Dir()))
	return store, store.Handler(), nil
}
