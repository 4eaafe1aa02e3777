package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the immutable record of one completed transaction. Rows are created
// once inside the sale transaction and never updated or deleted.
type Sale struct {
	ID                       uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InventoryUnitID          *uuid.UUID            `gorm:"column:inventory_unit_id;type:uuid;uniqueIndex:ux_sales_inventory_unit"`
	VoucherTypeID            uuid.UUID             `gorm:"column:voucher_type_id;type:uuid;not null"`
	RetailerID               uuid.UUID             `gorm:"column:retailer_id;type:uuid;not null;index"`
	TerminalID               uuid.UUID             `gorm:"column:terminal_id;type:uuid;not null;index"`
	ReferenceNumber          string                `gorm:"column:reference_number;not null;uniqueIndex:ux_sales_reference"`
	Amount                   decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	FromBalance              decimal.Decimal       `gorm:"column:from_balance;type:numeric(12,2);not null"`
	FromCredit               decimal.Decimal       `gorm:"column:from_credit;type:numeric(12,2);not null"`
	RetailerCommissionPct    decimal.Decimal       `gorm:"column:retailer_commission_pct;type:numeric(6,3);not null"`
	AgentCommissionPct       decimal.Decimal       `gorm:"column:agent_commission_pct;type:numeric(6,3);not null"`
	RetailerCommissionAmount decimal.Decimal       `gorm:"column:retailer_commission_amount;type:numeric(12,2);not null"`
	AgentCommissionAmount    decimal.Decimal       `gorm:"column:agent_commission_amount;type:numeric(12,2);not null"`
	VendorReference          *string               `gorm:"column:vendor_reference"`
	VoucherType              *VoucherType          `gorm:"foreignKey:VoucherTypeID"`
	InventoryUnit            *VoucherInventoryUnit `gorm:"foreignKey:InventoryUnitID"`
	CreatedAt                time.Time             `gorm:"column:created_at;autoCreateTime"`
}
