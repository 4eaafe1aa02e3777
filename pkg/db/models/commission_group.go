package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionGroup is a named rate table. Each retailer is assigned exactly one.
type CommissionGroup struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;not null;uniqueIndex:ux_commission_groups_name"`
	Rates     []CommissionRate `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CommissionRate maps a voucher type to a percentage within one group. Lookup
// is exact: a missing row is a configuration failure, never a default of zero.
type CommissionRate struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID         uuid.UUID       `gorm:"column:group_id;type:uuid;not null;uniqueIndex:ux_commission_rates_group_type"`
	VoucherTypeID   uuid.UUID       `gorm:"column:voucher_type_id;type:uuid;not null;uniqueIndex:ux_commission_rates_group_type"`
	RetailerPercent decimal.Decimal `gorm:"column:retailer_percent;type:numeric(6,3);not null"`
	AgentPercent    decimal.Decimal `gorm:"column:agent_percent;type:numeric(6,3);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
