package retailers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/outbox"
	"github.com/TRPST/airvoucher-backend/pkg/outbox/payloads"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateParams are the admin inputs for a new retailer account.
type CreateParams struct {
	Name              string
	ContactEmail      *string
	CommissionGroupID *uuid.UUID
	AgentID           *uuid.UUID
	CreditLimit       decimal.Decimal
}

// Service manages retailer accounts. Every money movement goes through an
// atomic guarded statement and leaves a credit-moved event behind.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Retailer, error)
	Get(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error)
	List(ctx context.Context, params pagination.Params) ([]models.Retailer, string, error)
	UpdateProfile(ctx context.Context, retailerID uuid.UUID, name string, contactEmail *string) error
	SetStatus(ctx context.Context, retailerID uuid.UUID, status enums.RetailerStatus) error
	AssignCommissionGroup(ctx context.Context, retailerID, groupID uuid.UUID) error
	TopUp(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error)
	Withdraw(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error)
	SetCreditLimit(ctx context.Context, retailerID uuid.UUID, limit decimal.Decimal) (*models.Retailer, error)
	SettleCredit(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	outbox outboxPublisher
}

// NewService wires the retailer account service.
func NewService(tx txRunner, repo Repository, publisher outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("retailer repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{tx: tx, repo: repo, outbox: publisher}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Retailer, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer name required")
	}
	if params.CreditLimit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit cannot be negative")
	}
	if params.CommissionGroupID != nil {
		exists, err := s.repo.GroupExists(ctx, *params.CommissionGroupID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking commission group")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission group not found")
		}
	}

	retailer := &models.Retailer{
		ID:                uuid.New(),
		Name:              name,
		ContactEmail:      params.ContactEmail,
		Status:            enums.RetailerStatusActive,
		Balance:           decimal.Zero,
		CreditLimit:       params.CreditLimit,
		CreditUsed:        decimal.Zero,
		CommissionBalance: decimal.Zero,
		CommissionGroupID: params.CommissionGroupID,
		AgentID:           params.AgentID,
	}
	if err := s.repo.Create(ctx, retailer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating retailer")
	}
	return retailer, nil
}

func (s *service) Get(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	retailer, err := s.repo.Get(ctx, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading retailer")
	}
	return retailer, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Retailer, string, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing retailers")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) UpdateProfile(ctx context.Context, retailerID uuid.UUID, name string, contactEmail *string) error {
	if _, err := s.Get(ctx, retailerID); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "retailer name required")
	}
	if err := s.repo.UpdateProfile(ctx, retailerID, name, contactEmail); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating retailer")
	}
	return nil
}

func (s *service) SetStatus(ctx context.Context, retailerID uuid.UUID, status enums.RetailerStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown retailer status %q", status))
	}
	if _, err := s.Get(ctx, retailerID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, retailerID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating retailer status")
	}
	return nil
}

func (s *service) AssignCommissionGroup(ctx context.Context, retailerID, groupID uuid.UUID) error {
	if groupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission group id required")
	}
	if _, err := s.Get(ctx, retailerID); err != nil {
		return err
	}
	exists, err := s.repo.GroupExists(ctx, groupID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking commission group")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "commission group not found")
	}
	if err := s.repo.AssignCommissionGroup(ctx, retailerID, groupID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assigning commission group")
	}
	return nil
}

// TopUp credits the retailer balance.
func (s *service) TopUp(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return s.move(ctx, retailerID, amount, reason, func(repo Repository) (bool, error) {
		return repo.TopUpBalance(ctx, retailerID, amount)
	}, "")
}

// Withdraw debits the retailer balance; the guard refuses an overdraw.
func (s *service) Withdraw(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return s.move(ctx, retailerID, amount.Neg(), reason, func(repo Repository) (bool, error) {
		return repo.WithdrawBalance(ctx, retailerID, amount)
	}, "balance does not cover the withdrawal")
}

// SettleCredit pays down used credit.
func (s *service) SettleCredit(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return s.move(ctx, retailerID, amount, reason, func(repo Repository) (bool, error) {
		return repo.SettleCredit(ctx, retailerID, amount)
	}, "settlement exceeds the credit currently used")
}

// SetCreditLimit adjusts the ceiling; it never drops below credit in use.
func (s *service) SetCreditLimit(ctx context.Context, retailerID uuid.UUID, limit decimal.Decimal) (*models.Retailer, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	if limit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit cannot be negative")
	}

	var updated *models.Retailer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.SetCreditLimit(ctx, retailerID, limit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setting credit limit")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "credit in use exceeds the requested limit")
		}
		updated, err = repo.Get(ctx, retailerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "re-loading retailer")
		}
		return s.emitCreditMoved(ctx, tx, updated, decimal.Zero, "credit_limit_changed")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) move(ctx context.Context, retailerID uuid.UUID, delta decimal.Decimal, reason string, apply func(Repository) (bool, error), refusal string) (*models.Retailer, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	if _, err := s.Get(ctx, retailerID); err != nil {
		return nil, err
	}

	var updated *models.Retailer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := apply(repo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjusting retailer funds")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, refusal)
		}
		updated, err = repo.Get(ctx, retailerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "re-loading retailer")
		}
		return s.emitCreditMoved(ctx, tx, updated, delta, reason)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) emitCreditMoved(ctx context.Context, tx *gorm.DB, retailer *models.Retailer, delta decimal.Decimal, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRetailerCreditMoved,
		AggregateType: enums.AggregateRetailer,
		AggregateID:   retailer.ID,
		Version:       1,
		Data: payloads.RetailerCreditMovedEvent{
			RetailerID: retailer.ID,
			Amount:     delta,
			Balance:    retailer.Balance,
			CreditUsed: retailer.CreditUsed,
			Reason:     reason,
			MovedAt:    time.Now().UTC(),
		},
	})
}
