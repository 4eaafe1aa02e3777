package sales

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/internal/commission"
	"github.com/TRPST/airvoucher-backend/internal/funds"
	"github.com/TRPST/airvoucher-backend/internal/inventory"
	"github.com/TRPST/airvoucher-backend/pkg/billpay"
	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/metrics"
	"github.com/TRPST/airvoucher-backend/pkg/outbox"
	"github.com/TRPST/airvoucher-backend/pkg/outbox/payloads"
	"github.com/TRPST/airvoucher-backend/pkg/ott"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type commissionResolver interface {
	ComputeCommission(ctx context.Context, retailerID, voucherTypeID uuid.UUID, amount decimal.Decimal) (*commission.Result, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cacheInvalidator interface {
	InvalidateCategory(ctx context.Context, category enums.VoucherCategory) error
}

type vendorIssuer interface {
	IssueVoucher(ctx context.Context, req ott.IssueRequest) (*ott.IssuedVoucher, error)
}

type billPaymentSubmitter interface {
	SubmitPayment(ctx context.Context, req billpay.PaymentRequest) (*billpay.PaymentResult, error)
}

// vendorIssue normalizes what came back from a vendor, whichever vendor it
// was. Bill payments carry the vendor receipt in place of a pin.
type vendorIssue struct {
	Pin          string
	SerialNumber string
	VendorRef    string
}

// ExecuteParams carries one confirmed sale submission.
type ExecuteParams struct {
	TerminalID      uuid.UUID
	VoucherTypeID   uuid.UUID
	Amount          decimal.Decimal
	InventoryUnitID *uuid.UUID
	// AccountNumber identifies the customer account for bill payments.
	AccountNumber string
}

// PreflightResult is the funds check surfaced before confirmation.
type PreflightResult struct {
	Fundable        bool            `json:"fundable"`
	FromBalance     decimal.Decimal `json:"from_balance"`
	FromCredit      decimal.Decimal `json:"from_credit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

// Service executes atomic voucher sales and serves sales history.
type Service interface {
	Execute(ctx context.Context, params ExecuteParams) (*Receipt, error)
	Preflight(ctx context.Context, terminalID uuid.UUID, amount decimal.Decimal) (*PreflightResult, error)
	GetReceipt(ctx context.Context, saleID uuid.UUID) (*Receipt, error)
	FindByReference(ctx context.Context, reference string) (*Receipt, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID, params pagination.Params) ([]models.Sale, string, error)
	ListByTerminal(ctx context.Context, terminalID uuid.UUID, params pagination.Params) ([]models.Sale, string, error)
}

type service struct {
	tx             txRunner
	repo           Repository
	inventoryRepo  inventory.Repository
	commission     commissionResolver
	outbox         outboxPublisher
	cache          cacheInvalidator
	vendor         vendorIssuer
	billpay        billPaymentSubmitter
	metrics        *metrics.SaleMetrics
	logg           *logger.Logger
	executeTimeout time.Duration
}

// NewService builds the sale executor.
func NewService(
	tx txRunner,
	repo Repository,
	inventoryRepo inventory.Repository,
	commissionSvc commissionResolver,
	publisher outboxPublisher,
	cache cacheInvalidator,
	vendor vendorIssuer,
	billpaySvc billPaymentSubmitter,
	saleMetrics *metrics.SaleMetrics,
	logg *logger.Logger,
	executeTimeout time.Duration,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if commissionSvc == nil {
		return nil, fmt.Errorf("commission service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if executeTimeout <= 0 {
		executeTimeout = 15 * time.Second
	}
	return &service{
		tx:             tx,
		repo:           repo,
		inventoryRepo:  inventoryRepo,
		commission:     commissionSvc,
		outbox:         publisher,
		cache:          cache,
		vendor:         vendor,
		billpay:        billpaySvc,
		metrics:        saleMetrics,
		logg:           logg,
		executeTimeout: executeTimeout,
	}, nil
}

// Preflight resolves the funding split without committing anything. The same
// validation runs again inside the sale transaction.
func (s *service) Preflight(ctx context.Context, terminalID uuid.UUID, amount decimal.Decimal) (*PreflightResult, error) {
	if terminalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	terminal, err := s.loadActiveTerminal(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	retailer, err := s.loadActiveRetailer(ctx, terminal.RetailerID)
	if err != nil {
		return nil, err
	}

	split := funds.Validate(retailer.Balance, retailer.CreditLimit, retailer.CreditUsed, amount)
	return &PreflightResult{
		Fundable:        split.Fundable,
		FromBalance:     split.FromBalance,
		FromCredit:      split.FromCredit,
		AvailableCredit: split.AvailableCredit,
	}, nil
}

// Execute runs one confirmed sale. Everything between claiming the inventory
// unit and writing the sale row happens in a single transaction; there are no
// automatic retries at any layer.
func (s *service) Execute(ctx context.Context, params ExecuteParams) (*Receipt, error) {
	started := time.Now()

	voucherType, receipt, err := s.execute(ctx, params)

	category := ""
	if voucherType != nil {
		category = voucherType.Category.String()
	}
	s.metrics.ObserveDuration(category, time.Since(started))
	if err != nil {
		s.metrics.IncFailure(category, string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.IncSuccess(category)
	return receipt, nil
}

func (s *service) execute(ctx context.Context, params ExecuteParams) (*models.VoucherType, *Receipt, error) {
	if params.TerminalID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	if params.VoucherTypeID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher type id required")
	}
	if !params.Amount.IsPositive() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	terminal, err := s.loadActiveTerminal(ctx, params.TerminalID)
	if err != nil {
		return nil, nil, err
	}
	retailer, err := s.loadActiveRetailer(ctx, terminal.RetailerID)
	if err != nil {
		return nil, nil, err
	}
	voucherType, err := s.repo.GetVoucherType(ctx, params.VoucherTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher type not found")
		}
		return voucherType, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading voucher type")
	}

	// Commission resolves before the transaction; a missing rate blocks the
	// sale entirely.
	rates, err := s.commission.ComputeCommission(ctx, retailer.ID, voucherType.ID, params.Amount)
	if err != nil {
		return voucherType, nil, err
	}

	// Cheap pre-check. The guarded update inside the transaction is the
	// authoritative funds decision.
	if split := funds.Validate(retailer.Balance, retailer.CreditLimit, retailer.CreditUsed, params.Amount); !split.Fundable {
		return voucherType, nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "retailer balance and credit do not cover the sale")
	}

	var (
		issued     *vendorIssue
		issuanceID uuid.UUID
	)
	if voucherType.VendorIssued {
		issued, err = s.issueFromVendor(ctx, voucherType, params)
		if err != nil {
			return voucherType, nil, err
		}
		// The vendor has already charged for the pin. Record it before the
		// funding transaction so a rollback leaves a reconcilable row instead
		// of a silently dropped voucher.
		issuance := &models.VendorIssuance{
			ID:            uuid.New(),
			VoucherTypeID: voucherType.ID,
			RetailerID:    retailer.ID,
			TerminalID:    terminal.ID,
			Amount:        params.Amount,
			Pin:           issued.Pin,
			SerialNumber:  issued.SerialNumber,
			VendorRef:     issued.VendorRef,
			Status:        enums.VendorIssuancePending,
		}
		if err := s.repo.CreateVendorIssuance(ctx, issuance); err != nil {
			return voucherType, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording vendor issuance")
		}
		issuanceID = issuance.ID
	}

	reference := newReferenceNumber()
	execCtx, cancel := context.WithTimeout(ctx, s.executeTimeout)
	defer cancel()

	var (
		sale *models.Sale
		pin  string
		sn   string
	)
	txErr := s.tx.WithTx(execCtx, func(tx *gorm.DB) error {
		salesRepo := s.repo.WithTx(tx)
		invRepo := s.inventoryRepo.WithTx(tx)

		var unitID *uuid.UUID
		if !voucherType.VendorIssued {
			unit, err := s.resolveUnit(execCtx, invRepo, params, voucherType.ID)
			if err != nil {
				return err
			}
			claimed, err := invRepo.ClaimUnit(execCtx, tx, unit.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming inventory unit")
			}
			if !claimed {
				return pkgerrors.New(pkgerrors.CodeInventoryUnavailable, "voucher was sold while the sale was being confirmed")
			}
			unitID = &unit.ID
			pin = unit.Pin
			sn = unit.SerialNumber
		} else {
			pin = issued.Pin
			sn = issued.SerialNumber
		}

		// Re-read inside the transaction, then let the guarded update make
		// the final call on funding.
		current, err := salesRepo.GetRetailer(execCtx, retailer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "re-loading retailer")
		}
		split := funds.Validate(current.Balance, current.CreditLimit, current.CreditUsed, params.Amount)
		if !split.Fundable {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "retailer balance and credit do not cover the sale")
		}

		funded, err := salesRepo.ApplySaleFunding(execCtx, retailer.ID, split.FromBalance, split.FromCredit, rates.RetailerCommission)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying sale funding")
		}
		if !funded {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "retailer balance and credit do not cover the sale")
		}

		if current.AgentID != nil && rates.AgentCommission.IsPositive() {
			if err := salesRepo.CreditAgentCommission(execCtx, *current.AgentID, rates.AgentCommission); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting agent commission")
			}
		}

		sale = &models.Sale{
			ID:                       uuid.New(),
			InventoryUnitID:          unitID,
			VoucherTypeID:            voucherType.ID,
			RetailerID:               retailer.ID,
			TerminalID:               terminal.ID,
			ReferenceNumber:          reference,
			Amount:                   params.Amount,
			FromBalance:              split.FromBalance,
			FromCredit:               split.FromCredit,
			RetailerCommissionPct:    rates.RetailerPercent,
			AgentCommissionPct:       rates.AgentPercent,
			RetailerCommissionAmount: rates.RetailerCommission,
			AgentCommissionAmount:    rates.AgentCommission,
		}
		if issued != nil && issued.VendorRef != "" {
			sale.VendorReference = &issued.VendorRef
		}
		if err := salesRepo.CreateSale(execCtx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording sale")
		}

		if issued != nil {
			if err := salesRepo.SetVendorIssuanceStatus(execCtx, issuanceID, enums.VendorIssuanceConsumed, &sale.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "linking vendor issuance")
			}
		}

		if err := salesRepo.TouchTerminal(execCtx, terminal.ID, time.Now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating terminal activity")
		}

		return s.outbox.Emit(execCtx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Version:       1,
			Data: payloads.SaleCompletedEvent{
				SaleID:             sale.ID,
				ReferenceNumber:    sale.ReferenceNumber,
				RetailerID:         sale.RetailerID,
				TerminalID:         sale.TerminalID,
				VoucherTypeID:      sale.VoucherTypeID,
				Category:           voucherType.Category,
				Amount:             sale.Amount,
				RetailerCommission: sale.RetailerCommissionAmount,
				AgentCommission:    sale.AgentCommissionAmount,
				SoldAt:             time.Now().UTC(),
			},
		})
	})
	if txErr != nil {
		if errors.Is(txErr, context.DeadlineExceeded) {
			// The transaction may or may not have committed; the caller has
			// to verify through sales history before retrying. The issuance
			// stays pending for the same reason.
			return voucherType, nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, txErr, "sale outcome unknown, check sales history before retrying")
		}
		if issued != nil {
			// Definite failure after the vendor charged: keep the pin visible
			// for reconciliation.
			if err := s.repo.SetVendorIssuanceStatus(ctx, issuanceID, enums.VendorIssuanceOrphaned, nil); err != nil && s.logg != nil {
				s.logg.Error(ctx, "marking vendor issuance orphaned", err)
			}
		}
		return voucherType, nil, txErr
	}

	if s.cache != nil {
		if err := s.cache.InvalidateCategory(ctx, voucherType.Category); err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("inventory cache invalidation failed: %v", err))
		}
	}

	receipt := BuildReceipt(sale, voucherType, pin, sn)
	return voucherType, &receipt, nil
}

func (s *service) resolveUnit(ctx context.Context, invRepo inventory.Repository, params ExecuteParams, voucherTypeID uuid.UUID) (*models.VoucherInventoryUnit, error) {
	if params.InventoryUnitID != nil {
		unit, err := invRepo.GetUnit(ctx, *params.InventoryUnitID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeInventoryUnavailable, "selected voucher no longer exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory unit")
		}
		if unit.VoucherTypeID != voucherTypeID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit does not match voucher type")
		}
		if !unit.Amount.Equal(params.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit does not match sale amount")
		}
		return unit, nil
	}

	unit, err := invRepo.FindAvailableUnit(ctx, voucherTypeID, params.Amount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInventoryUnavailable, "no voucher of this denomination is available")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding available unit")
	}
	return unit, nil
}

func (s *service) issueFromVendor(ctx context.Context, voucherType *models.VoucherType, params ExecuteParams) (*vendorIssue, error) {
	if voucherType.Category == enums.VoucherCategoryBillPay {
		return s.submitBillPayment(ctx, params)
	}

	if s.vendor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor integration not configured")
	}
	if voucherType.VendorProductID == nil || *voucherType.VendorProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "voucher type has no vendor product mapping")
	}
	voucher, err := s.vendor.IssueVoucher(ctx, ott.IssueRequest{
		ProductID: *voucherType.VendorProductID,
		Amount:    params.Amount.StringFixed(2),
		UniqueRef: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	return &vendorIssue{
		Pin:          voucher.Pin,
		SerialNumber: voucher.SerialNumber,
		VendorRef:    voucher.VendorRef,
	}, nil
}

func (s *service) submitBillPayment(ctx context.Context, params ExecuteParams) (*vendorIssue, error) {
	if s.billpay == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bill payment integration not configured")
	}
	if params.AccountNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account number required for bill payments")
	}
	result, err := s.billpay.SubmitPayment(ctx, billpay.PaymentRequest{
		AccountNumber: params.AccountNumber,
		Amount:        params.Amount,
		Reference:     uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	return &vendorIssue{
		Pin:       result.Receipt,
		VendorRef: result.VendorRef,
	}, nil
}

// GetReceipt rebuilds the receipt for a committed sale, used by clients
// verifying an indeterminate outcome.
func (s *service) GetReceipt(ctx context.Context, saleID uuid.UUID) (*Receipt, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sale")
	}
	return s.receiptFromSale(sale), nil
}

// FindByReference looks a sale up by its reference number.
func (s *service) FindByReference(ctx context.Context, reference string) (*Receipt, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference required")
	}
	sale, err := s.repo.GetSaleByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sale")
	}
	return s.receiptFromSale(sale), nil
}

func (s *service) receiptFromSale(sale *models.Sale) *Receipt {
	pin := ""
	sn := ""
	if sale.InventoryUnit != nil {
		pin = sale.InventoryUnit.Pin
		sn = sale.InventoryUnit.SerialNumber
	}
	receipt := BuildReceipt(sale, sale.VoucherType, pin, sn)
	return &receipt
}

func (s *service) ListByRetailer(ctx context.Context, retailerID uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	if retailerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	rows, err := s.repo.ListByRetailer(ctx, retailerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing sales")
	}
	return paginate(rows, params)
}

func (s *service) ListByTerminal(ctx context.Context, terminalID uuid.UUID, params pagination.Params) ([]models.Sale, string, error) {
	if terminalID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	rows, err := s.repo.ListByTerminal(ctx, terminalID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing sales")
	}
	return paginate(rows, params)
}

func paginate(rows []models.Sale, params pagination.Params) ([]models.Sale, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) loadActiveTerminal(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error) {
	terminal, err := s.repo.GetTerminal(ctx, terminalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "terminal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading terminal")
	}
	if terminal.Status != enums.TerminalStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "terminal is disabled")
	}
	return terminal, nil
}

func (s *service) loadActiveRetailer(ctx context.Context, retailerID uuid.UUID) (*models.Retailer, error) {
	retailer, err := s.repo.GetRetailer(ctx, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading retailer")
	}
	if retailer.Status != enums.RetailerStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "retailer account is not active")
	}
	return retailer, nil
}

// newReferenceNumber creates the customer-facing sale reference. References
// are unique per sale, never reused across retries.
func newReferenceNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AV-" + uuid.NewString()[:12]
	}
	return "AV-" + hex.EncodeToString(buf)
}
