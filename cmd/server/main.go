package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/calibra/backend/internal/bootstrap"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/interfaces/http/handler"
	"github.com/calibra/backend/internal/interfaces/http/middleware"
	"github.com/calibra/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	_ "github.com/calibra/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Calibra API
//	@version		1.0
//	@description	Calibration laboratory ERP: work orders, commissions, finance, bank reconciliation and fiscal notes

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const apiPrefix = "/api/v1"

// publicPaths are served without a token or tenant
var publicPaths = []string{apiPrefix + "/auth/login", apiPrefix + "/auth/refresh"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	base, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(base)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, base, "api")
	if err != nil {
		base.Fatal("Failed to initialize application", zap.Error(err))
	}
	log := app.Logger
	log.Info("Starting Calibra API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", bootstrap.Version),
	)

	engine := newEngine(cfg, app)

	var cron interface{ Stop(context.Context) error }
	if cfg.Scheduler.Enabled {
		trigger, err := app.NewScheduler()
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		cron = trigger
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cron != nil {
		if err := cron.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler stop failed", zap.Error(err))
		}
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("Error releasing resources", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func newEngine(cfg *config.Config, app *bootstrap.App) *gin.Engine {
	log := app.Logger
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	var meter metric.Meter
	if app.Telemetry.Enabled() {
		meter = app.Telemetry.Meter("calibra.http")
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(meter),
		middleware.Secure(cfg.HTTP.HSTSEnabled),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	jwt := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     app.JWT,
		TokenBlacklist: app.Blacklist,
		SkipPaths:      publicPaths,
		Logger:         log,
	})
	tenant := middleware.TenantMiddleware(middleware.TenantMiddlewareConfig{
		SkipPaths: publicPaths,
		Validator: app.Services.Tenants,
		Logger:    log,
	})

	var authorizer middleware.Authorizer
	if cfg.Authz.Enabled {
		authorizer = app.Authz
	}
	guard := middleware.NewPermissions(middleware.PermissionConfig{Authorizer: authorizer, Logger: log})

	chain := []gin.HandlerFunc{authRateLimit(app), jwt, tenant}
	if cfg.HTTP.RateLimitEnabled {
		limiter := newLimiter(app, "ratelimit:api", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		chain = append(chain, middleware.RateLimit(limiter, middleware.KeyByTenantOrIP, log))
	}
	chain = append(chain, middleware.Profiling())

	handlers := newHandlers(app)
	r := router.NewRouter(engine).Use(chain...)
	for _, group := range router.Groups(handlers, guard) {
		r.Register(group)
	}
	r.Setup()

	engine.GET("/health", handlers.System.Health)
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:     cfg.Swagger.Enabled,
				RequireAuth: cfg.Swagger.RequireAuth,
				AllowedIPs:  cfg.Swagger.AllowedIPs,
			}, jwt),
			ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return engine
}

func newHandlers(app *bootstrap.App) router.Handlers {
	s := app.Services
	// without a queue the publish endpoint answers 503
	var statements handler.StatementQueue
	if app.Queue.Enabled() {
		statements = app.Queue
	}
	return router.Handlers{
		Auth:           handler.NewAuthHandler(s.Auth),
		User:           handler.NewUserHandler(s.Users),
		Tenant:         handler.NewTenantHandler(s.Tenants),
		Role:           handler.NewRoleHandler(app.Authz),
		System:         handler.NewSystemHandler(bootstrap.Version, app.Pingers()),
		Customer:       handler.NewCustomerHandler(s.Customers),
		WorkOrder:      handler.NewWorkOrderHandler(s.WorkOrders),
		Commission:     handler.NewCommissionHandler(s.Commissions),
		Settlement:     handler.NewSettlementHandler(s.Settlements, statements),
		Receivable:     handler.NewReceivableHandler(s.Receivables, s.Payments),
		Payable:        handler.NewPayableHandler(s.Payables, s.Payments),
		Finance:        handler.NewFinanceHandler(s.Payments, s.Invoices, s.Expenses),
		Reconciliation: handler.NewReconciliationHandler(s.Reconciliation),
		Contract:       handler.NewContractHandler(s.Contracts),
		Import:         handler.NewImportHandler(s.Imports),
		Fiscal:         handler.NewFiscalHandler(s.Fiscal),
	}
}

func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowOrigins = h.CORSAllowOrigins
	if len(h.CORSAllowMethods) > 0 {
		c.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		c.AllowHeaders = h.CORSAllowHeaders
	}
	return c
}

// newLimiter shares counters through Redis when it is reachable
func newLimiter(app *bootstrap.App, prefix string, limit int, window time.Duration) middleware.Limiter {
	if app.Redis != nil {
		return middleware.NewRedisLimiter(app.Redis, prefix, limit, window)
	}
	return middleware.NewMemoryLimiter(limit, window)
}

// authRateLimit applies the stricter login limit to the auth endpoints only,
// counted per address and account email.
func authRateLimit(app *bootstrap.App) gin.HandlerFunc {
	h := app.Config.HTTP
	if !h.AuthRateLimitEnabled {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newLimiter(app, "ratelimit:auth", h.AuthRateLimitRequests, h.AuthRateLimitWindow)
	limit := middleware.RateLimit(limiter, middleware.KeyByIPAndJSONField("email"), app.Logger)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, apiPrefix+"/auth/") {
			limit(c)
			return
		}
		c.Next()
	}
}
