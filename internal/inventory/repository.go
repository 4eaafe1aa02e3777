package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// Filter narrows the availability lookup. Category is required; the rest are
// optional refinements.
type Filter struct {
	Category        enums.VoucherCategory
	NetworkProvider string
	SubCategory     string
}

// DenominationStock is one row of the availability view: a voucher type and
// denomination with how many unsold units remain.
type DenominationStock struct {
	VoucherTypeID   uuid.UUID       `json:"voucher_type_id"`
	VoucherTypeName string          `json:"voucher_type_name"`
	NetworkProvider string          `json:"network_provider"`
	SubCategory     *string         `json:"sub_category,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	AvailableCount  int64           `json:"available_count"`
}

// Repository exposes inventory persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListAvailable(ctx context.Context, filter Filter) ([]DenominationStock, error)
	FindAvailableUnit(ctx context.Context, voucherTypeID uuid.UUID, amount decimal.Decimal) (*models.VoucherInventoryUnit, error)
	GetUnit(ctx context.Context, unitID uuid.UUID) (*models.VoucherInventoryUnit, error)
	InsertUnits(ctx context.Context, units []models.VoucherInventoryUnit) error
	CountAvailable(ctx context.Context, voucherTypeID uuid.UUID, amount decimal.Decimal) (int64, error)
	// ClaimUnit flips the sold flag only when the row is still unsold.
	// Returns false when another transaction won the race.
	ClaimUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListAvailable(ctx context.Context, filter Filter) ([]DenominationStock, error) {
	query := r.db.WithContext(ctx).
		Table("voucher_inventory_units AS u").
		Select(`u.voucher_type_id,
			vt.name AS voucher_type_name,
			vt.network_provider,
			vt.sub_category,
			u.amount,
			COUNT(u.id) AS available_count`).
		Joins("JOIN voucher_types vt ON vt.id = u.voucher_type_id").
		Where("u.sold = ?", false).
		Where("vt.category = ?", filter.Category).
		Group("u.voucher_type_id, vt.name, vt.network_provider, vt.sub_category, u.amount").
		Order("u.amount ASC")

	if filter.NetworkProvider != "" {
		query = query.Where("vt.network_provider = ?", filter.NetworkProvider)
	}
	if filter.SubCategory != "" {
		query = query.Where("vt.sub_category = ?", filter.SubCategory)
	}

	var rows []DenominationStock
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindAvailableUnit(ctx context.Context, voucherTypeID uuid.UUID, amount decimal.Decimal) (*models.VoucherInventoryUnit, error) {
	var unit models.VoucherInventoryUnit
	if err := r.db.WithContext(ctx).
		Where("voucher_type_id = ? AND amount = ? AND sold = ?", voucherTypeID, amount, false).
		Order("created_at ASC").
		First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) GetUnit(ctx context.Context, unitID uuid.UUID) (*models.VoucherInventoryUnit, error) {
	var unit models.VoucherInventoryUnit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", unitID).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) InsertUnits(ctx context.Context, units []models.VoucherInventoryUnit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *repository) CountAvailable(ctx context.Context, voucherTypeID uuid.UUID, amount decimal.Decimal) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VoucherInventoryUnit{}).
		Where("voucher_type_id = ? AND amount = ? AND sold = ?", voucherTypeID, amount, false).
		Count(&count).Error
	return count, err
}

func (r *repository) ClaimUnit(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (bool, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.WithContext(ctx).
		Model(&models.VoucherInventoryUnit{}).
		Where("id = ? AND sold = ?", unitID, false).
		Updates(map[string]any{
			"sold":    true,
			"sold_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
