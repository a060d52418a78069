package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	authController "wallet-ledger/controllers/auth"
	paymentController "wallet-ledger/controllers/payment"
	superAdminController "wallet-ledger/controllers/superAdmin"
	walletController "wallet-ledger/controllers/wallet"
	"wallet-ledger/database"
	"wallet-ledger/gateway"
	"wallet-ledger/ledger"
	applog "wallet-ledger/logger"
	"wallet-ledger/metrics"
	"wallet-ledger/middleware"
	"wallet-ledger/notifier"
	"wallet-ledger/reconciliation"
	authRoutes "wallet-ledger/routers/authRoutes"
	metricsRoutes "wallet-ledger/routers/metricsRoutes"
	paymentRoutes "wallet-ledger/routers/paymentRoutes"
	superAdminRoutes "wallet-ledger/routers/superAdmin"
	walletRoutes "wallet-ledger/routers/walletRoutes"
	"wallet-ledger/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := applog.Init(applog.ConfigFromEnv()); err != nil {
		panic(err)
	}
	defer applog.Sync()
	log := applog.L()

	cfg := config.LoadConfig()
	db, err := database.ConnectDb(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.DBDriver))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		log.Fatal("metrics registration failed", zap.Error(err))
	}

	var mailer notifier.Notifier = notifier.Nop{}
	if cfg.SendgridApiKey != "" {
		mailer = notifier.NewSendGrid(cfg.SendgridApiKey, cfg.EmailSender)
	}

	engine := reconciliation.New(ledger.New(db), reconciliation.Options{
		Gateway: gateway.NewPlisio(gateway.Config{
			BaseURL:     cfg.PlisioApiURL,
			APIKey:      cfg.PlisioApiKey,
			CallbackURL: cfg.PlisioCallbackURL,
			Timeout:     cfg.GatewayTimeout,
			ReadRetries: 2,
		}),
		Notifier:      mailer,
		InvoiceTTL:    cfg.CryptoInvoiceTTL,
		WebhookSecret: cfg.PlisioSecretKey,
	})

	scheduler, err := utils.NewExpiryScheduler(cfg.ExpirySweepSpec, engine)
	if err != nil {
		log.Fatal("invalid EXPIRY_SWEEP_SPEC", zap.String("spec", cfg.ExpirySweepSpec), zap.Error(err))
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Static("/uploads", cfg.UploadDir)

	requireAdmin := middleware.RequireAdmin(engine.Ledger().FindUser)
	authRoutes.SetupAuthRoutes(app, authController.NewHandler(db, cfg.SaltRound))
	walletRoutes.SetupWalletRoutes(app, walletController.NewHandler(engine, utils.FileStore{Dir: cfg.UploadDir}), requireAdmin)
	paymentRoutes.SetupPaymentRoutes(app, paymentController.NewHandler(engine), requireAdmin)
	superAdminRoutes.SetupSuperAdminRoutes(app, superAdminController.NewHandler(db), requireAdmin)
	metricsRoutes.SetupMetricsRoutes(app, registry)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server is running", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	<-stop
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	scheduler.Stop(ctx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}
