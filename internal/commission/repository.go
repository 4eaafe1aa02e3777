package commission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
)

// Repository exposes the commission rate lookups the calculator needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetRetailer(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error)
	GetRate(ctx context.Context, groupID, voucherTypeID uuid.UUID) (*models.CommissionRate, error)
	GetGroup(ctx context.Context, groupID uuid.UUID) (*models.CommissionGroup, error)
	UpsertRate(ctx context.Context, rate *models.CommissionRate) error
	ListRates(ctx context.Context, groupID uuid.UUID) ([]models.CommissionRate, error)
	CreateGroup(ctx context.Context, group *models.CommissionGroup) error
	ListGroups(ctx context.Context) ([]models.CommissionGroup, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commission repository bound to the provided database.
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

func (r *repository) GetRate(ctx context.Context, groupID, voucherTypeID uuid.UUID) (*models.CommissionRate, error) {
	var rate models.CommissionRate
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND voucher_type_id = ?", groupID, voucherTypeID).
		First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.CommissionGroup, error) {
	var group models.CommissionGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) UpsertRate(ctx context.Context, rate *models.CommissionRate) error {
	existing, err := r.GetRate(ctx, rate.GroupID, rate.VoucherTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(rate).Error
		}
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.CommissionRate{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"retailer_percent": rate.RetailerPercent,
			"agent_percent":    rate.AgentPercent,
		}).Error
}

func (r *repository) CreateGroup(ctx context.Context, group *models.CommissionGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repository) ListGroups(ctx context.Context) ([]models.CommissionGroup, error) {
	var groups []models.CommissionGroup
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) ListRates(ctx context.Context, groupID uuid.UUID) ([]models.CommissionRate, error) {
	var rates []models.CommissionRate
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
