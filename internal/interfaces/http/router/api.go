package router

import (
	"github.com/gestock/backend/internal/infrastructure/auth"
	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/gestock/backend/internal/infrastructure/logger"
	"github.com/gestock/backend/internal/interfaces/http/handler"
	"github.com/gestock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers served by the API
type Handlers struct {
	Stock    *handler.StockHandler
	Campaign *handler.CampaignHandler
	Sale     *handler.SaleHandler
	System   *handler.SystemHandler
}

// Options configures the engine built by NewEngine
type Options struct {
	App         config.AppConfig
	HTTP        config.HTTPConfig
	Telemetry   config.TelemetryConfig
	Swagger     config.SwaggerConfig
	Verifier    middleware.TokenVerifier
	Revocations auth.RevocationList
	// Limiter is nil when rate limiting is disabled
	Limiter middleware.Limiter
	Logger  *zap.Logger
}

// NewEngine builds the gin engine with the global middleware chain, the
// unauthenticated health routes and the tenant-scoped /api/v1 routes.
func NewEngine(opts Options, h Handlers) *gin.Engine {
	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			opts.Logger.Warn("Invalid trusted proxies, ignoring", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(opts.Logger),
		logger.Recovery(opts.Logger),
		middleware.Tracing(opts.Telemetry.ServiceName, opts.Telemetry.Enabled),
		middleware.Secure(opts.HTTP, opts.App.Env != "production"),
		middleware.CORS(opts.HTTP),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
	)

	jwtAuth := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		Verifier:    opts.Verifier,
		Revocations: opts.Revocations,
		Logger:      opts.Logger,
	})

	engine.GET("/health", h.System.Health)
	engine.GET("/system/info", h.System.GetSystemInfo)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(opts.Swagger, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	apiMiddleware := []gin.HandlerFunc{
		jwtAuth,
		middleware.TenantMiddleware(),
		middleware.SpanAttributes(),
	}
	if opts.Limiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(opts.Limiter, opts.Logger))
	}

	r := NewRouter(engine, WithAPIVersion("v1"), WithMiddleware(apiMiddleware...))
	r.Register(stockRoutes(h.Stock, h.Campaign))
	r.Register(saleRoutes(h.Sale))
	r.Setup()
	return engine
}

func stockRoutes(stock *handler.StockHandler, campaigns *handler.CampaignHandler) *DomainGroup {
	return NewDomainGroup("stock", "/stock").
		GET("", stock.List).
		POST("", stock.Create).
		GET("/movements", stock.ListMovements).
		GET("/movements/stats", stock.MovementStats).
		POST("/movements", stock.AddMovement).
		POST("/movements/bulk-in", stock.BulkStockIn).
		GET("/campaigns", campaigns.List).
		POST("/campaigns", campaigns.Create).
		GET("/campaigns/:id", campaigns.Get).
		GET("/campaigns/:id/sheet", campaigns.Export).
		PUT("/campaigns/:id/items/:itemId", campaigns.UpdateCount).
		POST("/campaigns/:id/validate", campaigns.Validate).
		POST("/campaigns/:id/suspend", campaigns.Suspend).
		POST("/campaigns/:id/cancel", campaigns.Cancel).
		POST("/campaigns/:id/resume", campaigns.Resume).
		GET("/:id", stock.Get).
		PUT("/:id", stock.Update).
		DELETE("/:id", stock.Delete)
}

func saleRoutes(sales *handler.SaleHandler) *DomainGroup {
	return NewDomainGroup("sales", "/sales").
		GET("", sales.List).
		POST("", sales.Create).
		GET("/:id", sales.Get).
		PUT("/:id", sales.Update).
		POST("/:id/payments", sales.AddPayment).
		POST("/:id/delivery", sales.RecordDelivery).
		POST("/:id/cancel", sales.Cancel)
}
