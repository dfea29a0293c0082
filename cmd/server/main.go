package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/config"
	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/PaulBabatuyi/FileDrop/internal/events"
	"github.com/PaulBabatuyi/FileDrop/internal/observability"
	"github.com/PaulBabatuyi/FileDrop/internal/server"
	"github.com/PaulBabatuyi/FileDrop/internal/service"
	"github.com/PaulBabatuyi/FileDrop/internal/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type backend interface {
	service.DatabaseInterface
	io.Closer
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "filedrop:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.InitLogger(observability.LogOptions{
		Dev:   cfg.Dev,
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing {
		tp, err := observability.InitTracerProvider(logger)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTO)
			defer cancel()
			observability.ShutdownTracerProvider(sctx, tp, logger)
		}()
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metricsSrv := observability.StartMetricsServer(cfg.MetricsAddr, metrics, logger)

	db, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store := service.NewFileStore(db,
		service.WithLogger(logger.Named("store")),
		service.WithMetrics(metrics),
		service.WithCapacity(cfg.Capacity),
		service.WithUploadConcurrency(cfg.UploadConcurrency),
		service.WithStrictTypes(cfg.StrictTypes),
	)

	thumbs, err := worker.NewThumbnailer(&worker.WorkerConfig{
		Logger:          logger.Named("thumbnails"),
		Metrics:         metrics,
		CacheSize:       cfg.ThumbnailCacheSize,
		ShutdownTimeout: cfg.ShutdownTO,
	})
	if err != nil {
		return err
	}
	store.Subscribe(thumbs)
	thumbs.Start(ctx)
	defer thumbs.Stop()

	if cfg.RedisAddr != "" {
		client, err := events.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			// events are optional; the store works without them
			logger.Warn("redis unavailable, event publishing disabled", zap.Error(err))
		} else {
			defer client.Close()
			store.Subscribe(events.NewRedisPublisher(client, cfg.RedisChannel, logger.Named("events")))
			logger.Info("publishing events", zap.String("channel", cfg.RedisChannel))
		}
	}

	health := server.NewHealthServer()
	if _, err := store.LoadAll(ctx); err != nil {
		logger.Error("initial load failed; serving NOT_SERVING", zap.Error(err))
	} else {
		server.SetServing(health, true)
	}

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(
		server.NewFileServer(store, thumbs, logger.Named("http")),
		server.RouterConfig{
			AllowedOrigins:     cfg.AllowedOrigins,
			APIKeys:            cfg.APIKeys,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			MaxUploadBytes:     cfg.MaxUploadBytes,
			Metrics:            metrics,
		},
		logger.Named("http"),
	)
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := server.NewGRPCServer(logger.Named("grpc"), metrics, health)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info("starting grpc server", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	server.SetServing(health, false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTO)
	defer cancel()

	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		logger.Error("http shutdown", zap.Error(serr))
	}
	grpcSrv.GracefulStop()
	if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
		logger.Error("metrics shutdown", zap.Error(serr))
	}
	return err
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to database", zap.String("driver", "postgres"))
		return db, nil
	default:
		return database.NewGormDB(cfg.DBDriver, cfg.DatabaseURL, logger, cfg.LogLevel)
	}
}
