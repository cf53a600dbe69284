package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/config"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/handler"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/ratelimit"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository/postgres"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/email"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/jwt"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/upload"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/validator"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zl.Sync() }()
	log := logger.NewZapAdapter(zl)

	if err := run(cfg, log); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("error closing database connection", nil)
		}
	}()
	log.Info("database connection established", nil)

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	checks := map[string]handler.Check{}

	var limits ratelimit.Store
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		redisClient, err := initRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.WithError(err).Warn("error closing redis connection", nil)
			}
		}()
		limits = ratelimit.NewRedisStore(redisClient)
		checks["cache"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("rate limits stored in redis", map[string]interface{}{"addr": cfg.Redis.Addr})
	default:
		memory := ratelimit.NewMemoryStore()
		go memory.RunSweeper(ctx, sweepInterval)
		limits = memory
		log.Info("rate limits stored in memory", nil)
	}

	mailer, err := initMailer(ctx, cfg)
	if err != nil {
		return err
	}

	images, err := upload.NewCloudinaryHost(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		return err
	}

	tokenService, err := jwt.NewTokenService(cfg.Token.Secret, cfg.Token.VerificationExpiry)
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.MaxAge, cfg.IsProduction())
	if err != nil {
		return err
	}

	validate := validator.NewValidator()

	profileRepo := postgres.NewProfileRepository(db)
	tweetRepo := postgres.NewTweetRepository(db)
	likeRepo := postgres.NewLikeRepository(db)
	checks["database"] = profileRepo.Ping

	app := handler.NewApp(handler.Dependencies{
		Config:   cfg,
		Logger:   log,
		Sessions: sessions,
		Limits:   limits,
		Auth:     service.NewAuthService(profileRepo, tokenService, mailer, validate, log, cfg),
		Tweets:   service.NewTweetService(tweetRepo, likeRepo, validate, log),
		Likes:    service.NewLikeService(likeRepo),
		Profiles: service.NewProfileService(profileRepo, images, validate, log),
		Checks:   checks,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("server starting", map[string]interface{}{
			"addr":        addr,
			"environment": cfg.Server.Environment,
		})
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped", nil)
	return nil
}

// initDB connects to PostgreSQL, retrying while the database starts up.
func initDB(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
		if err == nil {
			break
		}

		log.WithError(err).Warn("failed to connect to database", map[string]interface{}{
			"attempt":    i + 1,
			"maxRetries": maxRetries,
		})
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// initMailer picks the configured provider and throttles it.
func initMailer(ctx context.Context, cfg *config.Config) (email.Sender, error) {
	emailConfig := &email.EmailConfig{
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}

	var sender email.Sender
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		ses, err := email.NewSESEmailService(ctx, cfg.Email.AWSRegion, emailConfig)
		if err != nil {
			return nil, err
		}
		sender = ses
	default:
		resend, err := email.NewResendEmailService(cfg.Email.ResendAPIKey, emailConfig)
		if err != nil {
			return nil, err
		}
		sender = resend
	}

	return email.NewThrottledSender(sender, cfg.Email.RatePerSecond), nil
}
