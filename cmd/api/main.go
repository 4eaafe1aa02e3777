package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TRPST/airvoucher-backend/api/routes"
	"github.com/TRPST/airvoucher-backend/internal/auth"
	"github.com/TRPST/airvoucher-backend/internal/commission"
	"github.com/TRPST/airvoucher-backend/internal/inventory"
	"github.com/TRPST/airvoucher-backend/internal/retailers"
	"github.com/TRPST/airvoucher-backend/internal/sales"
	"github.com/TRPST/airvoucher-backend/internal/sales/lifecycle"
	"github.com/TRPST/airvoucher-backend/internal/terminals"
	"github.com/TRPST/airvoucher-backend/internal/vouchers"
	"github.com/TRPST/airvoucher-backend/pkg/auth/session"
	"github.com/TRPST/airvoucher-backend/pkg/billpay"
	"github.com/TRPST/airvoucher-backend/pkg/config"
	"github.com/TRPST/airvoucher-backend/pkg/db"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/metrics"
	"github.com/TRPST/airvoucher-backend/pkg/migrate"
	"github.com/TRPST/airvoucher-backend/pkg/ott"
	"github.com/TRPST/airvoucher-backend/pkg/outbox"
	"github.com/TRPST/airvoucher-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Repo:           auth.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	inventoryService, err := inventory.NewService(inventoryRepo, redisClient, cfg.InventoryCache.TTL, cfg.InventoryCache.Enabled, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	commissionService, err := commission.NewService(commission.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create commission service", err)
		os.Exit(1)
	}

	terminalService, err := terminals.NewService(terminals.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create terminal service", err)
		os.Exit(1)
	}

	retailerService, err := retailers.NewService(dbClient, retailers.NewRepository(dbClient.DB()), outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create retailer service", err)
		os.Exit(1)
	}

	voucherService, err := vouchers.NewService(dbClient, vouchers.NewRepository(dbClient.DB()), outboxService, inventoryService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create voucher service", err)
		os.Exit(1)
	}

	// Vendor clients are optional integrations. An unconfigured client still
	// wires in as a nil receiver that reports a dependency error on use.
	var ottClient *ott.Client
	if cfg.OTT.BaseURL != "" {
		ottClient, err = ott.NewClient(cfg.OTT.BaseURL, cfg.OTT.APIKey, cfg.OTT.SharedKey,
			ott.WithHTTPClient(&http.Client{Timeout: cfg.OTT.Timeout}))
		if err != nil {
			logg.Error(context.Background(), "failed to create ott client", err)
			os.Exit(1)
		}
	}
	var billpayClient *billpay.Client
	if cfg.BillPay.BaseURL != "" {
		billpayClient, err = billpay.NewClient(cfg.BillPay.BaseURL, cfg.BillPay.Username, cfg.BillPay.Password,
			billpay.WithHTTPClient(&http.Client{Timeout: cfg.BillPay.Timeout}))
		if err != nil {
			logg.Error(context.Background(), "failed to create billpay client", err)
			os.Exit(1)
		}
	}

	saleMetrics := metrics.NewSaleMetrics(prometheus.DefaultRegisterer)

	saleService, err := sales.NewService(
		dbClient,
		sales.NewRepository(dbClient.DB()),
		inventoryRepo,
		commissionService,
		outboxService,
		inventoryService,
		ottClient,
		billpayClient,
		saleMetrics,
		logg,
		cfg.Sale.ExecuteTimeout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale service", err)
		os.Exit(1)
	}

	saleSessions, err := lifecycle.NewManager(redisClient, cfg.Sale.SessionTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale session manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			inventoryService,
			saleService,
			saleSessions,
			terminalService,
			retailerService,
			voucherService,
			commissionService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
