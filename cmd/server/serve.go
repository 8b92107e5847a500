package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/terminal-bench/policedash/internal/auth"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/config"
	"github.com/terminal-bench/policedash/internal/events"
	"github.com/terminal-bench/policedash/internal/external"
	"github.com/terminal-bench/policedash/internal/handlers"
	"github.com/terminal-bench/policedash/internal/middleware"
	"github.com/terminal-bench/policedash/internal/repository"
	"github.com/terminal-bench/policedash/internal/services/notification"
	"github.com/terminal-bench/policedash/internal/services/storage"
	"github.com/terminal-bench/policedash/pkg/crypto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

type eventBus interface {
	communication.Publisher
	Close() error
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rdb := openRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}
	notify := notification.NewService(rdb, logger)
	defer notify.Close()

	bus := openEventBus(cfg)
	defer bus.Close()

	opts := []communication.Option{
		communication.WithNotifier(notify),
		communication.WithPublisher(bus),
	}
	var dispatcher *external.SMSDispatcher
	if cfg.SMS.Enabled() {
		dispatcher = external.NewSMSDispatcher(external.NewSMSClient(cfg.SMS, logger), 256, time.Second, logger)
		opts = append(opts, communication.WithAlertDispatcher(dispatcher))
	} else {
		logger.Info("sms gateway not configured, alerts are in-app only")
	}
	comm := communication.NewService(store, logger, opts...)

	var hash string
	if cfg.SeedPassword != "" {
		if hash, err = auth.HashPassword(cfg.SeedPassword); err != nil {
			return err
		}
	}
	if _, err := comm.Seed(ctx, hash); err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS)
	logins := handlers.NewLoginLimiter()

	g, gctx := errgroup.WithContext(ctx)
	router := handlers.NewRouter(gctx, handlers.Deps{
		Comm:           comm,
		Auth:           auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL, logger),
		Storage:        storage.NewService(backend, cfg.MaxFileSize),
		Notify:         notify,
		Limiter:        limiter,
		LoginLimiter:   logins,
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return limiter.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		return logins.Run(gctx, time.Minute)
	})
	if dispatcher != nil {
		g.Go(func() error {
			return dispatcher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exiting")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (communication.Store, error) {
	if cfg.StoreBackend != config.BackendPostgres {
		logger.Warn("using in-memory store, data is lost on restart")
		return communication.NewMemoryStore(), nil
	}

	store, err := repository.NewPostgresStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func openRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	rdb, err := notification.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, notification history disabled", zap.Error(err))
		return nil
	}
	return rdb
}

func openEventBus(cfg *config.Config) eventBus {
	if cfg.NATSURL == "" {
		return events.Nop{}
	}
	client, err := events.NewClient(events.DefaultConfig(cfg.NATSURL), logger)
	if err != nil {
		logger.Warn("nats unavailable, events will not be published", zap.Error(err))
		return events.Nop{}
	}
	return client
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	var backend storage.Backend = storage.NewMemoryBackend()
	if cfg.MinioEndpoint != "" {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		remote, err := storage.NewMinioBackend(ctx, cfg)
		if err == nil {
			backend = remote
		} else {
			logger.Warn("object store unavailable, keeping attachments in memory", zap.Error(err))
		}
	}

	if cfg.AttachmentKey == "" {
		return backend, nil
	}
	enc, err := crypto.NewEncryptor(cfg.AttachmentKey)
	if err != nil {
		return nil, err
	}
	return storage.NewEncryptedBackend(backend, enc), nil
}
