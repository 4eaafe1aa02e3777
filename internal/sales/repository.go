package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

// Repository exposes the persistence operations of the sale executor and the
// sales history reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetRetailer(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error)
	GetTerminal(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error)
	GetVoucherType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error)
	// ApplySaleFunding debits balance, raises credit used and credits the
	// retailer commission in one guarded statement. Returns false when the
	// retailer's funds no longer cover the split.
	ApplySaleFunding(ctx context.Context, retailerID uuid.UUID, fromBalance, fromCredit, retailerCommission decimal.Decimal) (bool, error)
	CreditAgentCommission(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal) error
	CreateSale(ctx context.Context, sale *models.Sale) error
	// CreateVendorIssuance records a voucher bought from a vendor before the
	// funding transaction settles.
	CreateVendorIssuance(ctx context.Context, issuance *models.VendorIssuance) error
	// SetVendorIssuanceStatus resolves what became of an issued voucher,
	// optionally linking the sale that consumed it.
	SetVendorIssuanceStatus(ctx context.Context, issuanceID uuid.UUID, status enums.VendorIssuanceStatus, saleID *uuid.UUID) error
	TouchTerminal(ctx context.Context, terminalID uuid.UUID, at time.Time) error
	GetSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	GetSaleByReference(ctx context.Context, reference string) (*models.Sale, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID, params pagination.Params) ([]models.Sale, error)
	ListByTerminal(ctx context.Context, terminalID uuid.UUID, params pagination.Params) ([]models.Sale, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetRetailer(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).First(&retailer, "id = ?", retailerID).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

func (r *repository) GetTerminal(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error) {
	var terminal models.Terminal
	if err := r.db.WithContext(ctx).First(&terminal, "id = ?", terminalID).Error; err != nil {
		return nil, err
	}
	return &terminal, nil
}

func (r *repository) GetVoucherType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error) {
	var voucherType models.VoucherType
	if err := r.db.WithContext(ctx).First(&voucherType, "id = ?", voucherTypeID).Error; err != nil {
		return nil, err
	}
	return &voucherType, nil
}

func (r *repository) ApplySaleFunding(ctx context.Context, retailerID uuid.UUID, fromBalance, fromCredit, retailerCommission decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Where("balance >= ?", fromBalance).
		Where("credit_used + ? <= credit_limit", fromCredit).
		Updates(map[string]any{
			"balance":            gorm.Expr("balance - ?", fromBalance),
			"credit_used":        gorm.Expr("credit_used + ?", fromCredit),
			"commission_balance": gorm.Expr("commission_balance + ?", retailerCommission),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CreditAgentCommission(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", agentID).
		Update("commission_balance", gorm.Expr("commission_balance + ?", amount)).Error
}

func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) CreateVendorIssuance(ctx context.Context, issuance *models.VendorIssuance) error {
	return r.db.WithContext(ctx).Create(issuance).Error
}

func (r *repository) SetVendorIssuanceStatus(ctx context.Context, issuanceID uuid.UUID, status enums.VendorIssuanceStatus, saleID *uuid.UUID) error {
	updates := map[string]any{"status": status}
	if saleID != nil {
		updates["sale_id"] = *saleID
	}
	return r.db.WithContext(ctx).
		Model(&models.VendorIssuance{}).
		Where("id = ?", issuanceID).
		Updates(updates).Error
}

func (r *repository) TouchTerminal(ctx context.Context, terminalID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Terminal{}).
		Where("id = ?", terminalID).
		Update("last_active_at", at).Error
}

func (r *repository) GetSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).
		Preload("VoucherType").
		Preload("InventoryUnit").
		First(&sale, "id = ?", saleID).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) GetSaleByReference(ctx context.Context, reference string) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).
		Preload("VoucherType").
		Preload("InventoryUnit").
		First(&sale, "reference_number = ?", reference).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListByRetailer(ctx context.Context, retailerID uuid.UUID, params pagination.Params) ([]models.Sale, error) {
	return r.listSales(ctx, "retailer_id = ?", retailerID, params)
}

func (r *repository) ListByTerminal(ctx context.Context, terminalID uuid.UUID, params pagination.Params) ([]models.Sale, error) {
	return r.listSales(ctx, "terminal_id = ?", terminalID, params)
}

func (r *repository) listSales(ctx context.Context, cond string, id uuid.UUID, params pagination.Params) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).
		Where(cond, id).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
