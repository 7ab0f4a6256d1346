package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/restaurant-reservation/internal/api"
	"github.com/sanosuguru/restaurant-reservation/internal/api/handler"
	"github.com/sanosuguru/restaurant-reservation/internal/api/middleware"
	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/config"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/restaurant-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/restaurant-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/logger"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/restaurant-reservation/internal/worker"
)

func main() {
	if err := run(); err != nil {
		logger.Error("起動に失敗しました", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg := config.Load()
	logger.Init(cfg.App.Env)
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("データベース接続: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("マイグレーション: %w", err)
	}

	m := metrics.New()
	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	tableRepo := postgres.NewTableRepository(db)

	healthChecks := []handler.HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return postgres.Ping(ctx, db) }},
	}
	var tableOpts []application.TableServiceOption

	if cfg.Redis.Enabled {
		rdb, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			// Redis なしでも DB の行ロックで整合性は保てる
			logger.Warn("Redis に接続できないためロックとキャッシュを無効化します", zap.Error(err))
		} else {
			defer rdb.Close()
			tableOpts = append(tableOpts,
				application.WithLockManager(redisinfra.NewLockManager(rdb)),
				application.WithTableCache(redisinfra.NewTableCache(rdb)),
			)
			healthChecks = append(healthChecks, handler.HealthCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return redisinfra.Ping(ctx, rdb) },
			})
			logRedisConnected(rdb)
		}
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn("RabbitMQ に接続できないためイベント発行を無効化します", zap.Error(err))
		} else {
			defer publisher.Close()
			tableOpts = append(tableOpts, application.WithPublisher(publisher))
		}
	}

	policy := reservation.DefaultPolicy(cfg.Restaurant.Location())
	reservationService := application.NewReservationService(txManager, reservationRepo, policy, m)
	tableService := application.NewTableService(txManager, tableRepo, reservationRepo, m, tableOpts...)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.JSONSerializer = api.JSONSerializer{}
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	handler.RegisterRoutes(e,
		handler.NewReservationHandler(reservationService),
		handler.NewTableHandler(tableService),
		handler.NewHealthHandler(healthChecks...),
	)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	auditor := worker.NewOccupancyAuditor(tableService, cfg.Worker.AuditInterval)
	go auditor.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		auditor.Stop()
		return fmt.Errorf("サーバー起動: %w", err)
	}

	logger.Info("サーバーをシャットダウンしています...")
	auditor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーシャットダウン: %w", err)
	}

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

func logRedisConnected(rdb *goredis.Client) {
	opts := rdb.Options()
	logger.Info("Redis に接続しました", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
}
