package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seekeradv/internal/config"
	"seekeradv/internal/handlers/admin"
	handlers "seekeradv/internal/handlers/shared"
	"seekeradv/internal/handlers/webhooks"
	"seekeradv/internal/metrics"
	"seekeradv/internal/middleware"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/repositories/mongodb"
	"seekeradv/internal/services"
	"seekeradv/internal/validators"
	"seekeradv/pkg/cache"
	"seekeradv/pkg/database"
	"seekeradv/pkg/logger"
	"seekeradv/pkg/payment"
	"seekeradv/pkg/storage"
	"seekeradv/pkg/websocket"
	"seekeradv/routes"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongo, err := database.NewMongoDB(ctx, database.ConnectOptions{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		AppName:        cfg.App.Name,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
		Majority:       cfg.Database.WriteMajority,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			appLogger.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()

	if cfg.Database.RunMigrations {
		err := database.NewMigrator(mongo.Database).Up(ctx, func(m database.Migration) {
			appLogger.WithField("version", m.Version).Infof("Applied migration: %s", m.Description)
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	checks := map[string]routes.HealthCheck{"mongodb": mongo.Ping}

	// Redis is optional. Without it bookings are locked in-process, which is
	// only correct for a single instance.
	var (
		locker    services.BookingLocker
		tripCache interfaces.Cache
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cache.Options{
			URL:          cfg.Redis.URL,
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()

		locker = services.NewRedisLocker(redisCache, cfg.Redis.Lock.TTL, cfg.Redis.Lock.Wait, appLogger)
		tripCache = redisCache
		checks["redis"] = redisCache.Ping
	} else {
		appLogger.Warn("Redis disabled, using in-process booking locks")
		locker = services.NewLocalLocker()
	}

	proofStore, err := storage.New(ctx, cfg.Storage.StoreConfig())
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Repositories
	bookingRepo := mongodb.NewBookingRepository(mongo.Database)
	tripRepo := mongodb.NewTripRepository(mongo.Database, tripCache, cfg.Redis.TripCacheTTL)
	userRepo := mongodb.NewUserRepository(mongo.Database)
	counterRepo := mongodb.NewCounterRepository(mongo.Database)
	txRepo := mongodb.NewPaymentTransactionRepository(mongo.Database)
	auditRepo := mongodb.NewAuditLogRepository(mongo.Database)

	// Gateways
	pc := cfg.Payment
	billplz := payment.NewBillplzClient(payment.BillplzConfig{
		APIKey:        pc.Billplz.APIKey,
		CollectionID:  pc.Billplz.CollectionID,
		XSignatureKey: pc.Billplz.XSignatureKey,
		BaseURL:       pc.Billplz.BaseURL,
		Timeout:       pc.Billplz.Timeout,
		QueryTimeout:  pc.Billplz.QueryTimeout,
	})
	stripe := payment.NewStripeClient(payment.StripeConfig{
		SecretKey:     pc.Stripe.SecretKey,
		WebhookSecret: pc.Stripe.WebhookSecret,
		Currency:      pc.Stripe.Currency,
		Timeout:       pc.Stripe.Timeout,
	})
	bayarcash := payment.NewBayarcashClient(payment.BayarcashConfig{
		APIToken:  pc.Bayarcash.APIToken,
		PortalKey: pc.Bayarcash.PortalKey,
		APISecret: pc.Bayarcash.APISecret,
		BaseURL:   pc.Bayarcash.BaseURL,
		Timeout:   pc.Bayarcash.Timeout,
	})
	bankTransfer := payment.NewBankTransferGateway(payment.BankAccount{
		BankName:      pc.BankTransfer.BankName,
		AccountNumber: pc.BankTransfer.AccountNumber,
		AccountName:   pc.BankTransfer.AccountName,
	})
	if !billplz.SignatureEnabled() {
		appLogger.Warn("BILLPLZ_X_SIGNATURE_KEY not set, Billplz callbacks are not verified")
	}

	minAmount, err := decimal.NewFromString(pc.MinAmount)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid PAYMENT_MIN_AMOUNT")
	}

	// WebSocket hub
	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)
	wsHandler := websocket.NewHandler(hub, websocket.Options{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		MaxMessageSize:   cfg.WebSocket.MaxMessageSize,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	})

	// Services
	reconciler := services.NewReconciliationService(bookingRepo, locker, hub, appLogger)
	bookingService := services.NewBookingService(bookingRepo, tripRepo, counterRepo, auditRepo, reconciler, locker, proofStore, hub, appLogger)
	paymentService := services.NewPaymentService(bookingRepo, userRepo, txRepo,
		[]payment.Gateway{billplz, stripe, bayarcash, bankTransfer},
		locker,
		services.PaymentServiceConfig{
			FrontendURL: cfg.App.FrontendURL,
			BackendURL:  cfg.App.BackendURL,
			MinAmount:   minAmount,
			Currency:    pc.Stripe.Currency,
		},
		appLogger,
	)
	webhookService := services.NewWebhookService(reconciler, bookingRepo, txRepo, billplz, stripe, bayarcash, appLogger)

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	metrics.Register()
	validators.RegisterGin()
	routes.SetupRoutes(router, &routes.Handlers{
		Booking: handlers.NewBookingHandler(bookingService, wsHandler, cfg.Security.MaxUploadSize, appLogger),
		Payment: handlers.NewPaymentHandler(paymentService, webhookService),
		Admin:   admin.NewBookingHandler(bookingService),
		Webhook: webhooks.NewWebhookHandler(webhookService, appLogger),
	}, cfg.Security.JWTSecret, cfg.App.Version, checks)

	if cfg.Storage.IsLocal() {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server shutdown failed")
	}
}
