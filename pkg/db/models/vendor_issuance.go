package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// VendorIssuance records every voucher bought from an external vendor. The
// vendor charges the moment it answers, so the row is written before the
// funding transaction and survives its rollback, keeping the pin recoverable.
type VendorIssuance struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VoucherTypeID uuid.UUID                  `gorm:"column:voucher_type_id;type:uuid;not null"`
	RetailerID    uuid.UUID                  `gorm:"column:retailer_id;type:uuid;not null"`
	TerminalID    uuid.UUID                  `gorm:"column:terminal_id;type:uuid;not null"`
	Amount        decimal.Decimal            `gorm:"column:amount;type:numeric(12,2);not null"`
	Pin           string                     `gorm:"column:pin;not null"`
	SerialNumber  string                     `gorm:"column:serial_number"`
	VendorRef     string                     `gorm:"column:vendor_ref"`
	Status        enums.VendorIssuanceStatus `gorm:"column:status;not null;default:pending;index"`
	SaleID        *uuid.UUID                 `gorm:"column:sale_id;type:uuid"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (VendorIssuance) TableName() string {
	return "vendor_issuances"
}
