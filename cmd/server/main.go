package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Skufu/leukovision/internal/assessment"
	"github.com/Skufu/leukovision/internal/classifier"
	"github.com/Skufu/leukovision/internal/config"
	"github.com/Skufu/leukovision/internal/httpapi"
	"github.com/Skufu/leukovision/internal/store"
	"github.com/Skufu/leukovision/pkg/logger"
	"github.com/Skufu/leukovision/pkg/metrics"
)

const serviceName = "leukovision"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	logg, err := logger.New(cfg.Log, serviceName)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("startup failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx := context.Background()

	// The model is loaded once and shared read-only by every request.
	forest, err := classifier.LoadForest(cfg.Model.Path)
	if err != nil {
		return err
	}
	logg.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.Int("trees", len(forest.Trees)),
		zap.Ints("classes", forest.Classes),
	)

	m := metrics.NewCollector(serviceName)
	records := store.NewCSV(cfg.Store.RecordsPath)
	opts := []assessment.Option{assessment.WithMetrics(m)}

	var db httpapi.HealthChecker
	if cfg.Database.Enabled {
		pool, err := connectDB(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		mirror := store.NewPostgres(pool)
		if err := mirror.Migrate(ctx); err != nil {
			return err
		}
		db = pool
		opts = append(opts, assessment.WithMirror(mirror))
	}

	svc := assessment.NewService(classifier.New(forest), records, logg, opts...)

	router := httpapi.NewRouter(cfg, httpapi.Deps{
		Assessor:  svc,
		DB:        db,
		Metrics:   m,
		Log:       logg,
		ModelPath: cfg.Model.Path,
	})
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logg.Info("server listening",
		zap.String("addr", server.Addr),
		zap.String("records", records.Path()),
		zap.Bool("db", cfg.Database.Enabled),
	)
	return waitForShutdown(server, errCh, cfg.Server.ShutdownTimeout, logg)
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func waitForShutdown(server *http.Server, errCh <-chan error, timeout time.Duration, logg *zap.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	logg.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Warn("graceful shutdown failed", zap.Error(err))
	}
	return nil
}
