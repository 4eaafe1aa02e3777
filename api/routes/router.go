package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TRPST/airvoucher-backend/api/controllers"
	"github.com/TRPST/airvoucher-backend/api/middleware"
	"github.com/TRPST/airvoucher-backend/internal/auth"
	"github.com/TRPST/airvoucher-backend/internal/commission"
	"github.com/TRPST/airvoucher-backend/internal/inventory"
	"github.com/TRPST/airvoucher-backend/internal/retailers"
	"github.com/TRPST/airvoucher-backend/internal/sales"
	"github.com/TRPST/airvoucher-backend/internal/sales/lifecycle"
	"github.com/TRPST/airvoucher-backend/internal/terminals"
	"github.com/TRPST/airvoucher-backend/internal/vouchers"
	"github.com/TRPST/airvoucher-backend/pkg/auth/session"
	"github.com/TRPST/airvoucher-backend/pkg/config"
	"github.com/TRPST/airvoucher-backend/pkg/db"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/redis"
)

// redisStore is the slice of the redis client the authed API surface needs:
// health pings, idempotency replay, and the two rate limiters.
type redisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	inventoryService inventory.Service,
	saleService sales.Service,
	saleSessions lifecycle.Manager,
	terminalService terminals.Service,
	retailerService retailers.Service,
	voucherService vouchers.Service,
	commissionService commission.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(redisClient, logg))

		// Terminal-facing surface: every route runs in the retailer's context.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, "retailer", "cashier"))
			r.Use(middleware.RetailerContext(logg))

			r.Get("/inventory", controllers.InventoryList(inventoryService, logg))
			r.Get("/retailers/me", controllers.RetailerProfile(retailerService, logg))

			r.Route("/sales", func(r chi.Router) {
				r.Post("/", controllers.SaleExecute(saleService, terminalService, saleSessions, logg))
				r.Post("/preflight", controllers.SalePreflight(saleService, terminalService, saleSessions, logg))
				r.Get("/", controllers.SaleByReference(saleService, logg))
				r.Get("/history", controllers.RetailerSalesHistory(saleService, logg))
				r.Get("/{saleId}", controllers.SaleReceipt(saleService, logg))
			})

			r.Route("/terminals/{terminalId}", func(r chi.Router) {
				r.Get("/", controllers.TerminalGet(terminalService, logg))
				r.Get("/sales", controllers.TerminalSalesHistory(saleService, terminalService, logg))
				r.Route("/session", func(r chi.Router) {
					r.Get("/", controllers.SaleSessionGet(saleSessions, terminalService, logg))
					r.Post("/category", controllers.SaleSessionSelectCategory(saleSessions, terminalService, logg))
					r.Post("/value", controllers.SaleSessionSelectValue(saleSessions, terminalService, logg))
					r.Post("/retry", controllers.SaleSessionRetry(saleSessions, terminalService, logg))
					r.Post("/cancel", controllers.SaleSessionCancel(saleSessions, terminalService, logg))
					r.Post("/new", controllers.SaleSessionNew(saleSessions, terminalService, logg))
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))

			r.Post("/users", controllers.AdminCreateUser(authService, logg))

			r.Route("/retailers", func(r chi.Router) {
				r.Post("/", controllers.RetailerCreate(retailerService, logg))
				r.Get("/", controllers.RetailerList(retailerService, logg))
				r.Route("/{retailerId}", func(r chi.Router) {
					r.Get("/", controllers.RetailerGet(retailerService, logg))
					r.Put("/", controllers.RetailerUpdate(retailerService, logg))
					r.Post("/status", controllers.RetailerSetStatus(retailerService, logg))
					r.Post("/commission-group", controllers.RetailerAssignGroup(retailerService, logg))
					r.Post("/topup", controllers.RetailerTopUp(retailerService, logg))
					r.Post("/withdraw", controllers.RetailerWithdraw(retailerService, logg))
					r.Post("/settle-credit", controllers.RetailerSettleCredit(retailerService, logg))
					r.Post("/credit-limit", controllers.RetailerSetCreditLimit(retailerService, logg))
					r.Post("/terminals", controllers.TerminalRegister(terminalService, logg))
					r.Get("/terminals", controllers.TerminalList(terminalService, logg))
				})
			})

			r.Route("/terminals/{terminalId}", func(r chi.Router) {
				r.Post("/status", controllers.TerminalSetStatus(terminalService, logg))
				r.Post("/name", controllers.TerminalRename(terminalService, logg))
			})

			r.Route("/voucher-types", func(r chi.Router) {
				r.Post("/", controllers.VoucherTypeCreate(voucherService, logg))
				r.Get("/", controllers.VoucherTypeList(voucherService, logg))
				r.Get("/{voucherTypeId}", controllers.VoucherTypeGet(voucherService, logg))
				r.Put("/{voucherTypeId}", controllers.VoucherTypeUpdate(voucherService, logg))
				r.Post("/{voucherTypeId}/stock", controllers.VoucherStockUpload(voucherService, logg))
			})
			r.Get("/voucher-batches/{batchId}", controllers.VoucherBatchGet(voucherService, logg))

			r.Route("/commission-groups", func(r chi.Router) {
				r.Post("/", controllers.CommissionGroupCreate(commissionService, logg))
				r.Get("/", controllers.CommissionGroupList(commissionService, logg))
				r.Post("/{groupId}/rates", controllers.CommissionRateSet(commissionService, logg))
				r.Get("/{groupId}/rates", controllers.CommissionRateList(commissionService, logg))
			})
		})
	})

	return r
}
