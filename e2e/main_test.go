package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/restaurant-reservation/internal/api"
	"github.com/sanosuguru/restaurant-reservation/internal/api/handler"
	"github.com/sanosuguru/restaurant-reservation/internal/api/middleware"
	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/config"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/restaurant-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/metrics"
)

var (
	testServer  *TestServer
	testDB      *sqlx.DB
	redisClient *redis.Client
)

// TestMain はE2Eテストのエントリポイント
// パッケージ全体で1回だけサーバーを起動する
func TestMain(m *testing.M) {
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0) // DB未起動時はスキップ
	}
	testDB = db
	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		os.Exit(1)
	}

	mtr := metrics.NewNop()
	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	tableRepo := postgres.NewTableRepository(db)

	// Redis はなくても動く
	var tableOpts []application.TableServiceOption
	if rc, err := redisinfra.NewClient(&cfg.Redis); err == nil {
		redisClient = rc
		tableOpts = append(tableOpts,
			application.WithLockManager(redisinfra.NewLockManager(rc)),
			application.WithTableCache(redisinfra.NewTableCache(rc)),
		)
	}

	reservationService := application.NewReservationService(txManager, reservationRepo, reservation.DefaultPolicy(cfg.Restaurant.Location()), mtr)
	tableService := application.NewTableService(txManager, tableRepo, reservationRepo, mtr, tableOpts...)

	e := echo.New()
	e.Validator = api.NewValidator()
	e.JSONSerializer = api.JSONSerializer{}
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	middleware.SetupMiddleware(e)

	handler.RegisterRoutes(e,
		handler.NewReservationHandler(reservationService),
		handler.NewTableHandler(tableService),
		handler.NewHealthHandler(),
	)

	testServer = &TestServer{Echo: e}

	code := m.Run()

	cleanupTables()
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	os.Exit(code)
}

// cleanupTables はテーブルとキャッシュをクリーンアップ
func cleanupTables() {
	testDB.Exec("TRUNCATE TABLE tables, reservations CASCADE")
	if redisClient != nil {
		_ = redisinfra.NewTableCache(redisClient).Invalidate(context.Background())
	}
}

// getTestServer は共有サーバーを取得（テスト前にテーブルをクリーンアップ）
func getTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testServer == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupTables()
	return testServer
}
