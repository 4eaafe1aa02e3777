package vouchers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db"
	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/outbox"
	"github.com/TRPST/airvoucher-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cacheInvalidator interface {
	InvalidateCategory(ctx context.Context, category enums.VoucherCategory) error
}

// TypeParams are the admin inputs for a catalog entry.
type TypeParams struct {
	Name            string
	Category        enums.VoucherCategory
	NetworkProvider string
	SubCategory     *string
	Instructions    *string
	HelpText        *string
	VendorIssued    bool
	VendorProductID *string
}

// RowError describes one rejected line of a stock upload.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// UploadResult summarizes a bulk stock upload.
type UploadResult struct {
	BatchID  uuid.UUID  `json:"batch_id"`
	Accepted int        `json:"accepted"`
	Rejected int        `json:"rejected"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Service manages the voucher catalog and bulk stock uploads.
type Service interface {
	CreateType(ctx context.Context, params TypeParams) (*models.VoucherType, error)
	GetType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error)
	ListTypes(ctx context.Context, category *enums.VoucherCategory) ([]models.VoucherType, error)
	UpdateType(ctx context.Context, voucherTypeID uuid.UUID, params TypeParams) (*models.VoucherType, error)
	// UploadStock parses pin,serial,amount CSV rows into inventory units under
	// a new batch. Bad rows are rejected individually; the batch itself always
	// commits with accurate counts.
	UploadStock(ctx context.Context, voucherTypeID, uploadedBy uuid.UUID, csvData io.Reader) (*UploadResult, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.VoucherBatch, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	outbox outboxPublisher
	cache  cacheInvalidator
	logg   *logger.Logger
}

// NewService wires the voucher catalog service.
func NewService(tx txRunner, repo Repository, publisher outboxPublisher, cache cacheInvalidator, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{tx: tx, repo: repo, outbox: publisher, cache: cache, logg: logg}, nil
}

func (s *service) CreateType(ctx context.Context, params TypeParams) (*models.VoucherType, error) {
	if err := validateTypeParams(&params); err != nil {
		return nil, err
	}
	voucherType := &models.VoucherType{
		ID:              uuid.New(),
		Name:            params.Name,
		Category:        params.Category,
		NetworkProvider: params.NetworkProvider,
		SubCategory:     params.SubCategory,
		Instructions:    params.Instructions,
		HelpText:        params.HelpText,
		VendorIssued:    params.VendorIssued,
		VendorProductID: params.VendorProductID,
	}
	if err := s.repo.CreateType(ctx, voucherType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating voucher type")
	}
	return voucherType, nil
}

func (s *service) GetType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error) {
	if voucherTypeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher type id required")
	}
	voucherType, err := s.repo.GetType(ctx, voucherTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading voucher type")
	}
	return voucherType, nil
}

func (s *service) ListTypes(ctx context.Context, category *enums.VoucherCategory) ([]models.VoucherType, error) {
	if category != nil && !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown voucher category %q", *category))
	}
	rows, err := s.repo.ListTypes(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing voucher types")
	}
	if rows == nil {
		rows = []models.VoucherType{}
	}
	return rows, nil
}

func (s *service) UpdateType(ctx context.Context, voucherTypeID uuid.UUID, params TypeParams) (*models.VoucherType, error) {
	existing, err := s.GetType(ctx, voucherTypeID)
	if err != nil {
		return nil, err
	}
	// category is immutable once stock and rates reference the type
	params.Category = existing.Category
	if err := validateTypeParams(&params); err != nil {
		return nil, err
	}

	existing.Name = params.Name
	existing.NetworkProvider = params.NetworkProvider
	existing.SubCategory = params.SubCategory
	existing.Instructions = params.Instructions
	existing.HelpText = params.HelpText
	existing.VendorIssued = params.VendorIssued
	existing.VendorProductID = params.VendorProductID

	if err := s.repo.UpdateType(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating voucher type")
	}
	return existing, nil
}

func (s *service) UploadStock(ctx context.Context, voucherTypeID, uploadedBy uuid.UUID, csvData io.Reader) (*UploadResult, error) {
	if uploadedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uploader id required")
	}
	voucherType, err := s.GetType(ctx, voucherTypeID)
	if err != nil {
		return nil, err
	}
	if voucherType.VendorIssued {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor-issued voucher types do not hold local stock")
	}

	rows, rowErrors, err := parseStockRows(csvData)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && len(rowErrors) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload contains no rows")
	}

	result := &UploadResult{BatchID: uuid.New(), Errors: rowErrors}
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		accepted := 0
		for _, row := range rows {
			exists, err := repo.SerialExists(ctx, row.serial)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking serial number")
			}
			if exists {
				result.Errors = append(result.Errors, RowError{Line: row.line, Reason: "duplicate serial number"})
				continue
			}
			unit := &models.VoucherInventoryUnit{
				ID:            uuid.New(),
				VoucherTypeID: voucherType.ID,
				Amount:        row.amount,
				Pin:           row.pin,
				SerialNumber:  row.serial,
				BatchID:       &result.BatchID,
			}
			if err := repo.InsertUnit(ctx, unit); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "serial number uploaded concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting inventory unit")
			}
			accepted++
		}

		result.Accepted = accepted
		result.Rejected = len(result.Errors)
		batch := &models.VoucherBatch{
			ID:            result.BatchID,
			VoucherTypeID: voucherType.ID,
			UploadedBy:    uploadedBy,
			UnitCount:     accepted,
			RejectedCount: result.Rejected,
		}
		if err := repo.CreateBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording upload batch")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryUploaded,
			AggregateType: enums.AggregateVoucher,
			AggregateID:   batch.ID,
			Version:       1,
			Data: payloads.InventoryUploadedEvent{
				BatchID:       batch.ID,
				VoucherTypeID: voucherType.ID,
				UnitCount:     batch.UnitCount,
				RejectedCount: batch.RejectedCount,
				UploadedAt:    time.Now().UTC(),
			},
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.cache != nil && result.Accepted > 0 {
		if err := s.cache.InvalidateCategory(ctx, voucherType.Category); err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("inventory cache invalidation failed: %v", err))
		}
	}
	return result, nil
}

func (s *service) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.VoucherBatch, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "upload batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading upload batch")
	}
	return batch, nil
}

type stockRow struct {
	line   int
	pin    string
	serial string
	amount decimal.Decimal
}

// parseStockRows reads pin,serial,amount lines. A header row is tolerated and
// skipped; duplicates inside the same file are rejected per row.
func parseStockRows(data io.Reader) ([]stockRow, []RowError, error) {
	reader := csv.NewReader(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows      []stockRow
		rowErrors []RowError
		seen      = map[string]bool{}
		line      int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed csv payload")
		}
		line++

		if line == 1 && looksLikeHeader(record) {
			continue
		}
		if len(record) != 3 {
			rowErrors = append(rowErrors, RowError{Line: line, Reason: "expected pin,serial,amount"})
			continue
		}
		pin := strings.TrimSpace(record[0])
		serial := strings.TrimSpace(record[1])
		rawAmount := strings.TrimSpace(record[2])
		if pin == "" || serial == "" {
			rowErrors = append(rowErrors, RowError{Line: line, Reason: "pin and serial are required"})
			continue
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil || !amount.IsPositive() {
			rowErrors = append(rowErrors, RowError{Line: line, Reason: "amount must be a positive number"})
			continue
		}
		if seen[serial] {
			rowErrors = append(rowErrors, RowError{Line: line, Reason: "duplicate serial number in file"})
			continue
		}
		seen[serial] = true
		rows = append(rows, stockRow{line: line, pin: pin, serial: serial, amount: amount})
	}
	return rows, rowErrors, nil
}

func looksLikeHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "pin" || first == "voucher_pin"
}

func validateTypeParams(params *TypeParams) error {
	params.Name = strings.TrimSpace(params.Name)
	params.NetworkProvider = strings.TrimSpace(params.NetworkProvider)
	if params.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "voucher type name required")
	}
	if !params.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown voucher category %q", params.Category))
	}
	if params.NetworkProvider == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "network provider required")
	}
	if params.VendorIssued && (params.VendorProductID == nil || strings.TrimSpace(*params.VendorProductID) == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor product id required for vendor-issued types")
	}
	return nil
}
