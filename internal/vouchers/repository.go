package vouchers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// Repository persists the voucher catalog and bulk upload batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateType(ctx context.Context, voucherType *models.VoucherType) error
	GetType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error)
	ListTypes(ctx context.Context, category *enums.VoucherCategory) ([]models.VoucherType, error)
	UpdateType(ctx context.Context, voucherType *models.VoucherType) error
	CreateBatch(ctx context.Context, batch *models.VoucherBatch) error
	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.VoucherBatch, error)
	// InsertUnit writes a single unit; the unique serial constraint is the
	// duplicate detector, surfaced to the service per row.
	InsertUnit(ctx context.Context, unit *models.VoucherInventoryUnit) error
	SerialExists(ctx context.Context, serial string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a voucher catalog repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateType(ctx context.Context, voucherType *models.VoucherType) error {
	return r.db.WithContext(ctx).Create(voucherType).Error
}

func (r *repository) GetType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error) {
	var voucherType models.VoucherType
	if err := r.db.WithContext(ctx).First(&voucherType, "id = ?", voucherTypeID).Error; err != nil {
		return nil, err
	}
	return &voucherType, nil
}

func (r *repository) ListTypes(ctx context.Context, category *enums.VoucherCategory) ([]models.VoucherType, error) {
	query := r.db.WithContext(ctx).Order("category ASC").Order("name ASC")
	if category != nil {
		query = query.Where("category = ?", *category)
	}
	var rows []models.VoucherType
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateType(ctx context.Context, voucherType *models.VoucherType) error {
	return r.db.WithContext(ctx).
		Model(&models.VoucherType{}).
		Where("id = ?", voucherType.ID).
		Updates(map[string]any{
			"name":              voucherType.Name,
			"network_provider":  voucherType.NetworkProvider,
			"sub_category":      voucherType.SubCategory,
			"instructions":      voucherType.Instructions,
			"help_text":         voucherType.HelpText,
			"vendor_issued":     voucherType.VendorIssued,
			"vendor_product_id": voucherType.VendorProductID,
		}).Error
}

func (r *repository) CreateBatch(ctx context.Context, batch *models.VoucherBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *repository) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.VoucherBatch, error) {
	var batch models.VoucherBatch
	if err := r.db.WithContext(ctx).
		Preload("VoucherType").
		First(&batch, "id = ?", batchID).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) InsertUnit(ctx context.Context, unit *models.VoucherInventoryUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repository) SerialExists(ctx context.Context, serial string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VoucherInventoryUnit{}).
		Where("serial_number = ?", serial).
		Count(&count).Error
	return count > 0, err
}
