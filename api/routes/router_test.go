package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/internal/auth"
	"github.com/TRPST/airvoucher-backend/internal/commission"
	"github.com/TRPST/airvoucher-backend/internal/inventory"
	"github.com/TRPST/airvoucher-backend/internal/retailers"
	"github.com/TRPST/airvoucher-backend/internal/sales"
	"github.com/TRPST/airvoucher-backend/internal/sales/lifecycle"
	"github.com/TRPST/airvoucher-backend/internal/vouchers"
	pkgAuth "github.com/TRPST/airvoucher-backend/pkg/auth"
	"github.com/TRPST/airvoucher-backend/pkg/auth/session"
	"github.com/TRPST/airvoucher-backend/pkg/config"
	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubRedisStore struct{}

func (stubRedisStore) Ping(context.Context) error { return nil }

func (stubRedisStore) Get(context.Context, string) (string, error) {
	return "", goredis.Nil
}

func (stubRedisStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	return true, nil
}

func (stubRedisStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (stubRedisStore) Del(context.Context, ...string) error { return nil }

func (stubRedisStore) IncrWithTTL(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

func (stubRedisStore) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

func (stubAuthService) CreateUser(ctx context.Context, req auth.CreateUserRequest) (*auth.UserSummary, error) {
	return &auth.UserSummary{}, nil
}

type stubInventoryService struct{}

func (stubInventoryService) ListAvailable(ctx context.Context, filter inventory.Filter) ([]inventory.DenominationStock, error) {
	return []inventory.DenominationStock{}, nil
}

func (stubInventoryService) InvalidateCategory(ctx context.Context, category enums.VoucherCategory) error {
	return nil
}

type stubSaleService struct{}

func (stubSaleService) Execute(ctx context.Context, params sales.ExecuteParams) (*sales.Receipt, error) {
	panic("unimplemented")
}

func (stubSaleService) Preflight(ctx context.Context, terminalID uuid.UUID, amount decimal.Decimal) (*sales.PreflightResult, error) {
	panic("unimplemented")
}

func (stubSaleService) GetReceipt(ctx context.Context, saleID uuid.UUID) (*sales.Receipt, error) {
	panic("unimplemented")
}

func (stubSaleService) FindByReference(ctx context.Context, reference string) (*sales.Receipt, error) {
	panic("unimplemented")
}

func (stubSaleService) ListByRetailer(ctx context.Context, retailerID uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	return []models.Sale{}, "", nil
}

func (stubSaleService) ListByTerminal(ctx context.Context, terminalID uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	return []models.Sale{}, "", nil
}

type stubLifecycleManager struct{}

func (stubLifecycleManager) Load(ctx context.Context, terminalID uuid.UUID) (*lifecycle.Session, error) {
	return &lifecycle.Session{}, nil
}

func (stubLifecycleManager) SelectCategory(ctx context.Context, terminalID uuid.UUID, category enums.VoucherCategory) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) SelectValue(ctx context.Context, terminalID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) Review(ctx context.Context, terminalID uuid.UUID, fundable bool) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) BeginSubmit(ctx context.Context, terminalID uuid.UUID) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) CompleteSuccess(ctx context.Context, terminalID, saleID uuid.UUID) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) CompleteFailure(ctx context.Context, terminalID uuid.UUID, code pkgerrors.Code) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) Retry(ctx context.Context, terminalID uuid.UUID) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) Cancel(ctx context.Context, terminalID uuid.UUID) (*lifecycle.Session, error) {
	panic("unimplemented")
}

func (stubLifecycleManager) NewSale(ctx context.Context, terminalID uuid.UUID) (*lifecycle.Session, error) {
	panic("unimplemented")
}

type stubTerminalService struct{}

func (stubTerminalService) Register(ctx context.Context, retailerID uuid.UUID, name string) (*models.Terminal, error) {
	panic("unimplemented")
}

func (stubTerminalService) Get(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error) {
	return &models.Terminal{ID: terminalID}, nil
}

func (stubTerminalService) ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Terminal, error) {
	return []models.Terminal{}, nil
}

func (stubTerminalService) SetStatus(ctx context.Context, terminalID uuid.UUID, status enums.TerminalStatus) error {
	return nil
}

func (stubTerminalService) Rename(ctx context.Context, terminalID uuid.UUID, name string) error {
	return nil
}

func (stubTerminalService) Touch(ctx context.Context, terminalID uuid.UUID) error { return nil }

type stubRetailerService struct{}

func (stubRetailerService) Create(ctx context.Context, params retailers.CreateParams) (*models.Retailer, error) {
	panic("unimplemented")
}

func (stubRetailerService) Get(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
	return &models.Retailer{ID: retailerID}, nil
}

func (stubRetailerService) List(ctx context.Context, params pagination.Params) ([]models.Retailer, string, error) {
	return []models.Retailer{}, "", nil
}

func (stubRetailerService) UpdateProfile(ctx context.Context, retailerID uuid.UUID, name string, contactEmail *string) error {
	return nil
}

func (stubRetailerService) SetStatus(ctx context.Context, retailerID uuid.UUID, status enums.RetailerStatus) error {
	return nil
}

func (stubRetailerService) AssignCommissionGroup(ctx context.Context, retailerID, groupID uuid.UUID) error {
	return nil
}

func (stubRetailerService) TopUp(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error) {
	panic("unimplemented")
}

func (stubRetailerService) Withdraw(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error) {
	panic("unimplemented")
}

func (stubRetailerService) SetCreditLimit(ctx context.Context, retailerID uuid.UUID, limit decimal.Decimal) (*models.Retailer, error) {
	panic("unimplemented")
}

func (stubRetailerService) SettleCredit(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error) {
	panic("unimplemented")
}

type stubVoucherService struct{}

func (stubVoucherService) CreateType(ctx context.Context, params vouchers.TypeParams) (*models.VoucherType, error) {
	panic("unimplemented")
}

func (stubVoucherService) GetType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error) {
	panic("unimplemented")
}

func (stubVoucherService) ListTypes(ctx context.Context, category *enums.VoucherCategory) ([]models.VoucherType, error) {
	return []models.VoucherType{}, nil
}

func (stubVoucherService) UpdateType(ctx context.Context, voucherTypeID uuid.UUID, params vouchers.TypeParams) (*models.VoucherType, error) {
	panic("unimplemented")
}

func (stubVoucherService) UploadStock(ctx context.Context, voucherTypeID, uploadedBy uuid.UUID, csvData io.Reader) (*vouchers.UploadResult, error) {
	panic("unimplemented")
}

func (stubVoucherService) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.VoucherBatch, error) {
	panic("unimplemented")
}

type stubCommissionService struct{}

func (stubCommissionService) ComputeCommission(ctx context.Context, retailerID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*commission.Result, error) {
	panic("unimplemented")
}

func (stubCommissionService) SetRate(ctx context.Context, groupID, voucherTypeID uuid.UUID, retailerPercent, agentPercent decimal.Decimal) error {
	return nil
}

func (stubCommissionService) ListGroupRates(ctx context.Context, groupID uuid.UUID) ([]models.CommissionRate, error) {
	return []models.CommissionRate{}, nil
}

func (stubCommissionService) CreateGroup(ctx context.Context, name string) (*models.CommissionGroup, error) {
	panic("unimplemented")
}

func (stubCommissionService) ListGroups(ctx context.Context) ([]models.CommissionGroup, error) {
	return []models.CommissionGroup{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    20,
			LoginEmailLimit: 10,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubRedisStore{},
		stubSessionChecker{},
		stubAuthService{},
		stubInventoryService{},
		stubSaleService{},
		stubLifecycleManager{},
		stubTerminalService{},
		stubRetailerService{},
		stubVoucherService{},
		stubCommissionService{},
	)
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?category=airtime", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestRetailSurfaceRequiresRetailerContext(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?category=airtime", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin on retail surface got %d", resp.Code)
	}

	retailerID := uuid.New()
	cashier := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?category=airtime", nil)
	cashier.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCashier, &retailerID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, cashier)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cashier inventory got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	retailerID := uuid.New()
	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/commission-groups", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRetailer, &retailerID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/commission-groups", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin, nil))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRetailerProfileResolvesFromToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	retailerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/retailers/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRetailer, &retailerID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for retailer profile got %d", resp.Code)
	}
}

func TestSaleExecuteDemandsIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	retailerID := uuid.New()
	body := strings.NewReader(`{"terminal_id":"` + uuid.NewString() + `","voucher_type_id":"` + uuid.NewString() + `","amount":"50"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCashier, &retailerID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, retailerID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		RetailerID: retailerID,
		Role:       role,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
