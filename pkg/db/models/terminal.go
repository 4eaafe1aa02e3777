package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// Terminal is a cashier-facing point-of-sale session tied to one retailer.
type Terminal struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetailerID   uuid.UUID            `gorm:"column:retailer_id;type:uuid;not null;index"`
	Name         string               `gorm:"column:name;not null"`
	Status       enums.TerminalStatus `gorm:"column:status;type:text;not null;default:'active'"`
	LastActiveAt *time.Time           `gorm:"column:last_active_at"`
	Retailer     *Retailer            `gorm:"foreignKey:RetailerID"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
