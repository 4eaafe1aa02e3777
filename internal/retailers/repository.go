package retailers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

// Repository persists retailer accounts. Balance and credit fields only move
// through the guarded adjustment statements, never through plain saves.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, retailer *models.Retailer) error
	Get(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error)
	List(ctx context.Context, params pagination.Params) ([]models.Retailer, error)
	UpdateProfile(ctx context.Context, retailerID uuid.UUID, name string, contactEmail *string) error
	UpdateStatus(ctx context.Context, retailerID uuid.UUID, status enums.RetailerStatus) error
	AssignCommissionGroup(ctx context.Context, retailerID, groupID uuid.UUID) error
	// TopUpBalance adds funds unconditionally.
	TopUpBalance(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal) (bool, error)
	// WithdrawBalance removes funds only while the balance covers them.
	WithdrawBalance(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal) (bool, error)
	// SetCreditLimit changes the limit only when already-used credit still fits.
	SetCreditLimit(ctx context.Context, retailerID uuid.UUID, limit decimal.Decimal) (bool, error)
	// SettleCredit pays down used credit, never below zero.
	SettleCredit(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal) (bool, error)
	GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a retailer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, retailer *models.Retailer) error {
	return r.db.WithContext(ctx).Create(retailer).Error
}

func (r *repository) Get(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).
		Preload("CommissionGroup").
		First(&retailer, "id = ?", retailerID).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Retailer, error) {
	query := r.db.WithContext(ctx).
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

	var rows []models.Retailer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateProfile(ctx context.Context, retailerID uuid.UUID, name string, contactEmail *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Updates(map[string]any{
			"name":          name,
			"contact_email": contactEmail,
		}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, retailerID uuid.UUID, status enums.RetailerStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Update("status", status).Error
}

func (r *repository) AssignCommissionGroup(ctx context.Context, retailerID, groupID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Update("commission_group_id", groupID).Error
}

func (r *repository) TopUpBalance(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) WithdrawBalance(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Where("balance >= ?", amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetCreditLimit(ctx context.Context, retailerID uuid.UUID, limit decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Where("credit_used <= ?", limit).
		Update("credit_limit", limit)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SettleCredit(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Where("credit_used >= ?", amount).
		Update("credit_used", gorm.Expr("credit_used - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) GroupExists(ctx context.Context, groupID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommissionGroup{}).
		Where("id = ?", groupID).
		Count(&count).Error
	return count > 0, err
}
