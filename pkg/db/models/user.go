package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// User is a portal login. Cashier users are scoped to a retailer and pick a
// terminal after signing in.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;not null;uniqueIndex:ux_users_email"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null"`
	RetailerID   *uuid.UUID     `gorm:"column:retailer_id;type:uuid"`
	AgentID      *uuid.UUID     `gorm:"column:agent_id;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
