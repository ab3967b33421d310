package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	_ "github.com/gestock/backend/docs"
	"github.com/gestock/backend/internal/application/audit"
	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/application/trade"
	"github.com/gestock/backend/internal/infrastructure/auth"
	"github.com/gestock/backend/internal/infrastructure/cache"
	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/gestock/backend/internal/infrastructure/event"
	"github.com/gestock/backend/internal/infrastructure/logger"
	"github.com/gestock/backend/internal/infrastructure/notification"
	"github.com/gestock/backend/internal/infrastructure/persistence"
	"github.com/gestock/backend/internal/infrastructure/queue"
	"github.com/gestock/backend/internal/infrastructure/telemetry"
	"github.com/gestock/backend/internal/interfaces/http/handler"
	"github.com/gestock/backend/internal/interfaces/http/middleware"
	"github.com/gestock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout     = 30 * time.Second
	eventHandlerTimeout = 5 * time.Second
)

//	@title			Gestock API
//	@version		1.0
//	@description	Stock ledger, inventory campaigns and sales for small retail tenants.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Gestock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Failed to shutdown tracer", zap.Error(err))
		}
	}()

	meters, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := meters.Shutdown(context.Background()); err != nil {
			log.Error("Failed to shutdown meter provider", zap.Error(err))
		}
	}()
	ledgerMetrics, err := telemetry.NewLedgerMetricsFromProvider(meters)
	if err != nil {
		return err
	}

	logs, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := logs.Shutdown(context.Background()); err != nil {
			log.Error("Failed to shutdown logger provider", zap.Error(err))
		}
	}()
	if logs.IsEnabled() {
		log = log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, logs.ZapCore(core))
		}))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowQueryThresh)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		return err
	}

	// Redis carries the queue, the alert cooldown, the token blacklist and
	// the shared rate limit. Only the worker cannot do without it.
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.Worker.Enabled {
			return err
		}
		log.Warn("Redis unavailable, running without token revocation and shared rate limits", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	bus := event.NewBus(log).WithHandlerTimeout(eventHandlerTimeout)

	var (
		notifier inventoryapp.StockAlertNotifier = inventoryapp.NewLoggingStockAlertNotifier(log)
		recorder audit.Recorder                  = persistence.NewGormAuditLogRepository(db.DB)
		worker   *queue.Worker
	)
	var sender queue.AlertSender
	if cfg.Notification.Enabled {
		webhook := notification.NewWebhookClient(cfg.Notification)
		notifier, sender = webhook, webhook
	}
	if cfg.Worker.Enabled {
		opt := queue.RedisOpt(cfg.Redis)
		client := queue.NewClient(opt, cfg.Worker, log)
		defer func() { _ = client.Close() }()
		notifier, recorder = client, client

		worker = queue.NewWorker(opt, cfg.Worker, log,
			queue.Route{
				Type:    queue.TypeStockAlert,
				Handler: queue.NewAlertHandler(sender, redislock.New(rdb), cfg.Notification.Cooldown, log),
			},
			queue.Route{
				Type:    queue.TypeAuditRecord,
				Handler: queue.NewAuditHandler(persistence.NewGormAuditLogRepository(db.DB), log),
			},
		)
	}

	alerts := inventoryapp.NewStockBelowThresholdHandler(log).WithNotifier(notifier)
	bus.Subscribe(alerts, alerts.EventTypes()...)
	auditHandler := audit.NewHandler(log, recorder)
	bus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	if err := bus.Start(ctx); err != nil {
		return err
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	inventoryService := inventoryapp.NewInventoryService(
		persistence.NewGormStockItemRepository(db.DB),
		persistence.NewGormMovementRepository(db.DB),
		scope,
		log,
	)
	inventoryService.SetMovementHistoryLimit(cfg.Ledger.MovementHistory)
	inventoryService.SetEventPublisher(bus)
	inventoryService.SetLedgerRecorder(ledgerMetrics)

	campaignService := inventoryapp.NewCampaignService(persistence.NewGormCampaignRepository(db.DB), scope, log)
	campaignService.SetEventPublisher(bus)
	campaignService.SetLedgerRecorder(ledgerMetrics)

	saleService := trade.NewSaleService(
		persistence.NewGormSaleRepository(db.DB),
		persistence.NewGormInvoiceRepository(db.DB),
		persistence.NewGormPaymentRepository(db.DB),
		persistence.NewGormSalesTransactionScope(db.DB),
		trade.SaleSettings{
			TaxRate:        cfg.Ledger.TaxRate,
			InvoiceDueDays: cfg.Ledger.InvoiceDueDays,
			Currency:       cfg.Ledger.Currency,
		},
		log,
	)
	saleService.SetEventPublisher(bus)
	saleService.SetLedgerRecorder(ledgerMetrics)

	if err := middleware.SetupValidator(); err != nil {
		return err
	}

	opts := router.Options{
		App:       cfg.App,
		HTTP:      cfg.HTTP,
		Telemetry: cfg.Telemetry,
		Swagger:   cfg.Swagger,
		Verifier:  auth.NewJWTService(cfg.JWT),
		Logger:    log,
	}
	dependencies := map[string]handler.Pinger{"database": handler.PingerFunc(db.Ping)}
	if rdb != nil {
		opts.Revocations = auth.NewRedisRevocationList(rdb)
		dependencies["redis"] = redisPinger(rdb)
	}
	if cfg.HTTP.RateLimitEnabled {
		if rdb != nil {
			opts.Limiter = middleware.NewRedisRateLimiter(rdb, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		} else {
			opts.Limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		}
	}

	engine := router.NewEngine(opts, router.Handlers{
		Stock:    handler.NewStockHandler(inventoryService),
		Campaign: handler.NewCampaignHandler(campaignService),
		Sale:     handler.NewSaleHandler(saleService),
		System:   handler.NewSystemHandler(cfg.App.Name, version, dependencies),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error { return worker.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// in-flight requests are done, so no event is published after this
		return bus.Stop(shutdownCtx)
	})

	return g.Wait()
}

func redisPinger(client *redis.Client) handler.PingerFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
