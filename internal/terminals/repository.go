package terminals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// Repository persists cashier terminals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, terminal *models.Terminal) error
	Get(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Terminal, error)
	UpdateStatus(ctx context.Context, terminalID uuid.UUID, status enums.TerminalStatus) error
	Rename(ctx context.Context, terminalID uuid.UUID, name string) error
	Touch(ctx context.Context, terminalID uuid.UUID, at time.Time) error
	RetailerExists(ctx context.Context, retailerID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a terminal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, terminal *models.Terminal) error {
	return r.db.WithContext(ctx).Create(terminal).Error
}

func (r *repository) Get(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error) {
	var terminal models.Terminal
	if err := r.db.WithContext(ctx).First(&terminal, "id = ?", terminalID).Error; err != nil {
		return nil, err
	}
	return &terminal, nil
}

func (r *repository) ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Terminal, error) {
	var rows []models.Terminal
	err := r.db.WithContext(ctx).
		Where("retailer_id = ?", retailerID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, terminalID uuid.UUID, status enums.TerminalStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Terminal{}).
		Where("id = ?", terminalID).
		Update("status", status).Error
}

func (r *repository) Rename(ctx context.Context, terminalID uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Terminal{}).
		Where("id = ?", terminalID).
		Update("name", name).Error
}

func (r *repository) Touch(ctx context.Context, terminalID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Terminal{}).
		Where("id = ?", terminalID).
		Update("last_active_at", at).Error
}

func (r *repository) RetailerExists(ctx context.Context, retailerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Retailer{}).
		Where("id = ?", retailerID).
		Count(&count).Error
	return count > 0, err
}
