package auth

import (
	"github.com/google/uuid"

	"github.com/TRPST/airvoucher-backend/pkg/enums"
)

// LoginRequest carries portal credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates an expired access token using its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateUserRequest is the admin input for provisioning a portal login.
type CreateUserRequest struct {
	Email      string         `json:"email" validate:"required,email"`
	Password   string         `json:"password" validate:"required,min=10"`
	Role       enums.UserRole `json:"role" validate:"required"`
	RetailerID *uuid.UUID     `json:"retailer_id,omitempty"`
	AgentID    *uuid.UUID     `json:"agent_id,omitempty"`
}

// UserSummary is the caller-facing view of a login.
type UserSummary struct {
	ID         uuid.UUID      `json:"id"`
	Email      string         `json:"email"`
	Role       enums.UserRole `json:"role"`
	RetailerID *uuid.UUID     `json:"retailer_id,omitempty"`
	AgentID    *uuid.UUID     `json:"agent_id,omitempty"`
}

// TokenPair is one issued access/refresh pair.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	User   UserSummary `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}
