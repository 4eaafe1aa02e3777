package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// SaleCompletedEvent is emitted after a voucher sale commits.
type SaleCompletedEvent struct {
	SaleID             uuid.UUID             `json:"sale_id"`
	ReferenceNumber    string                `json:"reference_number"`
	RetailerID         uuid.UUID             `json:"retailer_id"`
	TerminalID         uuid.UUID             `json:"terminal_id"`
	VoucherTypeID      uuid.UUID             `json:"voucher_type_id"`
	Category           enums.VoucherCategory `json:"category"`
	Amount             decimal.Decimal       `json:"amount"`
	RetailerCommission decimal.Decimal       `json:"retailer_commission"`
	AgentCommission    decimal.Decimal       `json:"agent_commission"`
	SoldAt             time.Time             `json:"sold_at"`
}

// InventoryUploadedEvent signals a completed bulk stock upload.
type InventoryUploadedEvent struct {
	BatchID       uuid.UUID `json:"batch_id"`
	VoucherTypeID uuid.UUID `json:"voucher_type_id"`
	UnitCount     int       `json:"unit_count"`
	RejectedCount int       `json:"rejected_count"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// RetailerCreditMovedEvent records a balance or credit adjustment.
type RetailerCreditMovedEvent struct {
	RetailerID uuid.UUID       `json:"retailer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	CreditUsed decimal.Decimal `json:"credit_used"`
	Reason     string          `json:"reason"`
	MovedAt    time.Time       `json:"moved_at"`
}
