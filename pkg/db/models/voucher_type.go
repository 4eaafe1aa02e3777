package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// VoucherType is the catalog entry inventory units and commission rates hang off.
type VoucherType struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string                `gorm:"column:name;not null"`
	Category        enums.VoucherCategory `gorm:"column:category;type:text;not null"`
	NetworkProvider string                `gorm:"column:network_provider;not null"`
	SubCategory     *string               `gorm:"column:sub_category"`
	Instructions    *string               `gorm:"column:instructions"`
	HelpText        *string               `gorm:"column:help_text"`
	VendorIssued    bool                  `gorm:"column:vendor_issued;not null;default:false"`
	VendorProductID *string               `gorm:"column:vendor_product_id"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
