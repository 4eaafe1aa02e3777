package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

type fakeRepository struct {
	getRetailerFn func(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error)
	getRateFn     func(ctx context.Context, groupID, voucherTypeID uuid.UUID) (*models.CommissionRate, error)
	getGroupFn    func(ctx context.Context, groupID uuid.UUID) (*models.CommissionGroup, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) GetRetailer(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
	return f.getRetailerFn(ctx, retailerID)
}

func (f *fakeRepository) GetRate(ctx context.Context, groupID, voucherTypeID uuid.UUID) (*models.CommissionRate, error) {
	return f.getRateFn(ctx, groupID, voucherTypeID)
}

func (f *fakeRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.CommissionGroup, error) {
	return f.getGroupFn(ctx, groupID)
}

func (f *fakeRepository) UpsertRate(ctx context.Context, rate *models.CommissionRate) error {
	return nil
}

func (f *fakeRepository) ListRates(ctx context.Context, groupID uuid.UUID) ([]models.CommissionRate, error) {
	return nil, nil
}

func (f *fakeRepository) CreateGroup(ctx context.Context, group *models.CommissionGroup) error {
	return nil
}

func (f *fakeRepository) ListGroups(ctx context.Context) ([]models.CommissionGroup, error) {
	return nil, nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeCommissionRoundsHalfUp(t *testing.T) {
	groupID := uuid.New()
	repo := &fakeRepository{
		getRetailerFn: func(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
			return &models.Retailer{ID: retailerID, CommissionGroupID: &groupID}, nil
		},
		getRateFn: func(ctx context.Context, gID, vtID uuid.UUID) (*models.CommissionRate, error) {
			assert.Equal(t, groupID, gID)
			return &models.CommissionRate{
				GroupID:         gID,
				VoucherTypeID:   vtID,
				RetailerPercent: d("5.5"),
				AgentPercent:    d("1.125"),
			}, nil
		},
		getGroupFn: func(ctx context.Context, gID uuid.UUID) (*models.CommissionGroup, error) {
			return &models.CommissionGroup{ID: gID, Name: "Standard"}, nil
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	// 5.5% of 33.33 = 1.83315 -> 1.83; 1.125% of 33.33 = 0.3749... -> 0.37
	result, err := svc.ComputeCommission(context.Background(), uuid.New(), uuid.New(), d("33.33"))
	require.NoError(t, err)
	assert.Equal(t, "Standard", result.GroupName)
	assert.True(t, result.RetailerCommission.Equal(d("1.83")), "got %s", result.RetailerCommission)
	assert.True(t, result.AgentCommission.Equal(d("0.37")), "got %s", result.AgentCommission)
}

func TestComputeCommissionMissingRateRow(t *testing.T) {
	groupID := uuid.New()
	repo := &fakeRepository{
		getRetailerFn: func(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
			return &models.Retailer{ID: retailerID, CommissionGroupID: &groupID}, nil
		},
		getRateFn: func(ctx context.Context, gID, vtID uuid.UUID) (*models.CommissionRate, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.ComputeCommission(context.Background(), uuid.New(), uuid.New(), d("50"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateNotConfigured), "got %v", err)
}

func TestComputeCommissionNoGroupAssigned(t *testing.T) {
	repo := &fakeRepository{
		getRetailerFn: func(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
			return &models.Retailer{ID: retailerID}, nil
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.ComputeCommission(context.Background(), uuid.New(), uuid.New(), d("50"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateNotConfigured), "got %v", err)
}

func TestComputeCommissionRetailerNotFound(t *testing.T) {
	repo := &fakeRepository{
		getRetailerFn: func(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.ComputeCommission(context.Background(), uuid.New(), uuid.New(), d("50"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestComputeCommissionRejectsNonPositiveAmount(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	require.NoError(t, err)

	_, err = svc.ComputeCommission(context.Background(), uuid.New(), uuid.New(), decimal.Zero)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}
