package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// Retailer is the tenant financial account. Balance, credit and commission are
// only ever mutated inside atomic sale/credit transactions, never by plain
// read-modify-write from a handler.
type Retailer struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string               `gorm:"column:name;not null"`
	ContactEmail      *string              `gorm:"column:contact_email"`
	Status            enums.RetailerStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Balance           decimal.Decimal      `gorm:"column:balance;type:numeric(12,2);not null"`
	CreditLimit       decimal.Decimal      `gorm:"column:credit_limit;type:numeric(12,2);not null"`
	CreditUsed        decimal.Decimal      `gorm:"column:credit_used;type:numeric(12,2);not null"`
	CommissionBalance decimal.Decimal      `gorm:"column:commission_balance;type:numeric(12,2);not null"`
	CommissionGroupID *uuid.UUID           `gorm:"column:commission_group_id;type:uuid"`
	AgentID           *uuid.UUID           `gorm:"column:agent_id;type:uuid"`
	CommissionGroup   *CommissionGroup     `gorm:"foreignKey:CommissionGroupID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
