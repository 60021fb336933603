package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	linkingapp "github.com/bizgrow/backend/internal/application/linking"
	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/bizgrow/backend/internal/infrastructure/auth"
	"github.com/bizgrow/backend/internal/infrastructure/cache"
	"github.com/bizgrow/backend/internal/infrastructure/config"
	"github.com/bizgrow/backend/internal/infrastructure/event"
	"github.com/bizgrow/backend/internal/infrastructure/logger"
	"github.com/bizgrow/backend/internal/infrastructure/persistence"
	"github.com/bizgrow/backend/internal/infrastructure/provider"
	"github.com/bizgrow/backend/internal/interfaces/http/handler"
	"github.com/bizgrow/backend/internal/interfaces/http/middleware"
	"github.com/bizgrow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			BizGrow Backend API
//	@version		1.0
//	@description	Marketing operations backend - external account linking for ad and social platforms

//	@contact.name	API Support
//	@contact.url	https://github.com/bizgrow/backend
//	@contact.email	support@bizgrow.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BizGrow Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with zap-backed GORM logging
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	subAccountRepo := persistence.NewGormSubAccountRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Integration writes persist their domain events in the same transaction
	integrationRepo.SetOutboxEventSaver(outboxPublisher)

	// Redis-backed stores: pending link sessions and event idempotency keys
	redisCfg := cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	sessionStore, err := cache.NewRedisSessionStore(redisCfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis for link sessions", zap.Error(err))
	}
	idempotencyStore, err := cache.NewRedisIdempotencyStore(redisCfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis for idempotency tracking", zap.Error(err))
	}
	log.Info("Redis connected successfully")

	// OAuth provider registry
	providers := provider.NewRegistry()
	providers.Register(provider.NewMetaProvider(
		cfg.OAuth.Meta.ClientID, cfg.OAuth.Meta.ClientSecret, cfg.Linking.ProviderTimeout,
	))
	googleAds, err := provider.NewGoogleProvider(
		linking.PlatformGoogleAds, cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.Linking.ProviderTimeout,
	)
	if err != nil {
		log.Fatal("Failed to initialize Google Ads provider", zap.Error(err))
	}
	providers.Register(googleAds)
	googleAnalytics, err := provider.NewGoogleProvider(
		linking.PlatformGoogleAnalytics, cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.Linking.ProviderTimeout,
	)
	if err != nil {
		log.Fatal("Failed to initialize Google Analytics provider", zap.Error(err))
	}
	providers.Register(googleAnalytics)
	yandexMetrica, err := provider.NewYandexProvider(
		linking.PlatformYandexMetrica, cfg.OAuth.Yandex.ClientID, cfg.OAuth.Yandex.ClientSecret, cfg.Linking.ProviderTimeout,
	)
	if err != nil {
		log.Fatal("Failed to initialize Yandex Metrica provider", zap.Error(err))
	}
	providers.Register(yandexMetrica)
	yandexDirect, err := provider.NewYandexProvider(
		linking.PlatformYandexDirect, cfg.OAuth.Yandex.ClientID, cfg.OAuth.Yandex.ClientSecret, cfg.Linking.ProviderTimeout,
	)
	if err != nil {
		log.Fatal("Failed to initialize Yandex Direct provider", zap.Error(err))
	}
	providers.Register(yandexDirect)
	log.Info("OAuth providers registered", zap.Int("count", len(providers.Platforms())))

	// Initialize application services
	guardService := linkingapp.NewGuardService(subscriptionRepo, planRepo, subAccountRepo)
	linkService := linkingapp.NewLinkService(
		integrationRepo,
		subAccountRepo,
		sessionStore,
		providers,
		guardService,
		cfg.App.RedirectURI(),
		cfg.Linking.SessionTTL,
		cfg.Linking.SyncLookbackMonths,
	)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Integration connected -> historical sync dispatch, deduplicated so
	// outbox redelivery never double-triggers a backfill
	syncDispatcher := linkingapp.NewLoggingSyncDispatcher(log)
	syncHandler := linkingapp.NewSyncRequestedHandler(log, integrationRepo, syncDispatcher)
	eventBus.Subscribe(event.NewIdempotentHandler(syncHandler, idempotencyStore, log))

	log.Info("Event handlers registered",
		zap.Strings("sync_requested_events", syncHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	// The outbox processor reads events from the outbox_events table and publishes them to the event bus
	outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
	outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
	outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
	outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
	if cfg.Event.ProcessorEnabled {
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Initialize HTTP handlers
	linkingHandler := handler.NewLinkingHandler(linkService)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// The OAuth callback is exempt: providers redirect the browser there
	// without an Authorization header, and the state token scopes the
	// request to its pending session
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
			"/api/v1/integrations/social/callback",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Integrations domain (external account linking)
	integrationRoutes := router.NewDomainGroup("integrations", "/integrations")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		integrationRoutes.Use(middleware.AuthRateLimit(authLimiter))
		log.Info("Auth rate limiting enabled for linking endpoints",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}
	integrationRoutes.GET("/status", linkingHandler.Status)
	integrationRoutes.GET("/social/check", linkingHandler.Check)
	integrationRoutes.POST("/social/initiate", linkingHandler.Initiate)
	integrationRoutes.GET("/social/callback", linkingHandler.Callback)
	integrationRoutes.GET("/social/candidates", linkingHandler.Candidates)
	integrationRoutes.POST("/social/select", linkingHandler.Select)
	integrationRoutes.DELETE("/social/:platform", linkingHandler.Disconnect)
	r.Register(integrationRoutes)

	// Register system routes
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
