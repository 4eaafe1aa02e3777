package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Result is the resolved commission for one prospective sale.
type Result struct {
	GroupName          string
	RetailerPercent    decimal.Decimal
	AgentPercent       decimal.Decimal
	RetailerCommission decimal.Decimal
	AgentCommission    decimal.Decimal
}

// Service resolves commission rates. A missing rate row is a configuration
// failure that blocks the sale, never a silent default of zero.
type Service interface {
	ComputeCommission(ctx context.Context, retailerID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*Result, error)
	SetRate(ctx context.Context, groupID, voucherTypeID uuid.UUID, retailerPercent, agentPercent decimal.Decimal) error
	ListGroupRates(ctx context.Context, groupID uuid.UUID) ([]models.CommissionRate, error)
	CreateGroup(ctx context.Context, name string) (*models.CommissionGroup, error)
	ListGroups(ctx context.Context) ([]models.CommissionGroup, error)
}

type service struct {
	repo Repository
}

// NewService wires a commission service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ComputeCommission(ctx context.Context, retailerID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*Result, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}
	if voucherTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher type id is required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	retailer, err := s.repo.GetRetailer(ctx, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading retailer")
	}
	if retailer.CommissionGroupID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeRateNotConfigured, "retailer has no commission group assigned")
	}

	rate, err := s.repo.GetRate(ctx, *retailer.CommissionGroupID, voucherTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeRateNotConfigured, "no commission rate configured for this voucher type")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading commission rate")
	}

	group, err := s.repo.GetGroup(ctx, *retailer.CommissionGroupID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading commission group")
	}
	groupName := ""
	if group != nil {
		groupName = group.Name
	}

	return &Result{
		GroupName:          groupName,
		RetailerPercent:    rate.RetailerPercent,
		AgentPercent:       rate.AgentPercent,
		RetailerCommission: commissionAmount(amount, rate.RetailerPercent),
		AgentCommission:    commissionAmount(amount, rate.AgentPercent),
	}, nil
}

func (s *service) SetRate(ctx context.Context, groupID, voucherTypeID uuid.UUID, retailerPercent, agentPercent decimal.Decimal) error {
	if groupID == uuid.Nil || voucherTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "group id and voucher type id are required")
	}
	if retailerPercent.IsNegative() || agentPercent.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission percent must not be negative")
	}
	return s.repo.UpsertRate(ctx, &models.CommissionRate{
		GroupID:         groupID,
		VoucherTypeID:   voucherTypeID,
		RetailerPercent: retailerPercent,
		AgentPercent:    agentPercent,
	})
}

func (s *service) ListGroupRates(ctx context.Context, groupID uuid.UUID) ([]models.CommissionRate, error) {
	if groupID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id is required")
	}
	return s.repo.ListRates(ctx, groupID)
}

func (s *service) CreateGroup(ctx context.Context, name string) (*models.CommissionGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name is required")
	}
	group := &models.CommissionGroup{
		ID:   uuid.New(),
		Name: name,
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating commission group")
	}
	return group, nil
}

func (s *service) ListGroups(ctx context.Context) ([]models.CommissionGroup, error) {
	return s.repo.ListGroups(ctx)
}

// commissionAmount applies the percentage and rounds half-up to cents.
func commissionAmount(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(oneHundred).Round(2)
}
