package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherInventoryUnit is one sellable redemption code. Once the sold flag
// flips it is immutable and never returned by availability lookups again.
type VoucherInventoryUnit struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VoucherTypeID uuid.UUID       `gorm:"column:voucher_type_id;type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Pin           string          `gorm:"column:pin;not null"`
	SerialNumber  string          `gorm:"column:serial_number;not null;uniqueIndex:ux_inventory_serial"`
	Sold          bool            `gorm:"column:sold;not null;default:false"`
	SoldAt        *time.Time      `gorm:"column:sold_at"`
	BatchID       *uuid.UUID      `gorm:"column:batch_id;type:uuid"`
	VoucherType   *VoucherType    `gorm:"foreignKey:VoucherTypeID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
