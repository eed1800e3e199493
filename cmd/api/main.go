package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-sales/internal/api"
	"github.com/sanosuguru/go-ticket-sales/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-ticket-sales/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/config"
	"github.com/sanosuguru/go-ticket-sales/internal/infrastructure/payment"
	"github.com/sanosuguru/go-ticket-sales/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-ticket-sales/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/metrics"
	"github.com/sanosuguru/go-ticket-sales/internal/pkg/ticketcode"
	"github.com/sanosuguru/go-ticket-sales/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	env := os.Getenv("APP_ENV")
	logger.Set(logger.NewLogger(env))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// データベース接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（任意。未接続でも縮退運転する）
	var (
		lockManager redisinfra.LockManagerInterface
		cache       redisinfra.InventoryCacheInterface
	)
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis接続に失敗（ロックとキャッシュなしで起動）", zap.Error(err))
	} else {
		defer redisClient.Close()
		lockManager = redisinfra.NewLockManager(redisClient)
		cache = redisinfra.NewInventoryCache(redisClient)
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	purchaseRepo := postgres.NewPurchaseRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// 外部サービス
	paymentClient := payment.NewClient(&cfg.Payment)

	// アプリケーションサービス
	eventService := application.NewEventService(eventRepo)
	ticketService := application.NewTicketService(
		txManager, ticketRepo, eventRepo, auditRepo,
		ticketcode.NewRandomGenerator(), cache,
	)
	purchaseService := application.NewPurchaseService(
		txManager, purchaseRepo, ticketRepo, eventRepo, auditRepo,
		paymentClient, lockManager, cache,
	)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	eventHandler := handler.NewEventHandler(eventService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	requireManager := custommiddleware.RequireRole(custommiddleware.RoleManager)

	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.POST("/events", eventHandler.Create, requireManager)

	v1.GET("/events/:id/tickets", ticketHandler.ListByEvent)
	v1.GET("/events/:id/tickets/availability", ticketHandler.Availability)
	v1.POST("/events/:id/tickets/generate", ticketHandler.Generate, requireManager)

	v1.POST("/purchases", purchaseHandler.Create)
	v1.GET("/purchases/:id", purchaseHandler.GetByID)
	v1.GET("/events/:id/purchases", purchaseHandler.ListByEvent, requireManager)

	// バックグラウンドワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	releaser := worker.NewStaleClaimReleaser(
		purchaseService, cfg.Worker.CleanupInterval, cfg.Worker.ClaimTTL,
	)
	go releaser.Start(workerCtx)

	// サーバー起動
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()
	logger.Info("サーバー起動", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています")

	releaser.Stop()
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
