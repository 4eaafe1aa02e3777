package terminals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

// Service manages terminal registration and lifecycle per retailer.
type Service interface {
	Register(ctx context.Context, retailerID uuid.UUID, name string) (*models.Terminal, error)
	Get(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Terminal, error)
	SetStatus(ctx context.Context, terminalID uuid.UUID, status enums.TerminalStatus) error
	Rename(ctx context.Context, terminalID uuid.UUID, name string) error
	Touch(ctx context.Context, terminalID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires the terminal service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("terminal repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, retailerID uuid.UUID, name string) (*models.Terminal, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal name required")
	}

	exists, err := s.repo.RetailerExists(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking retailer")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
	}

	terminal := &models.Terminal{
		ID:         uuid.New(),
		RetailerID: retailerID,
		Name:       name,
		Status:     enums.TerminalStatusActive,
	}
	if err := s.repo.Create(ctx, terminal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registering terminal")
	}
	return terminal, nil
}

func (s *service) Get(ctx context.Context, terminalID uuid.UUID) (*models.Terminal, error) {
	if terminalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	terminal, err := s.repo.Get(ctx, terminalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "terminal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading terminal")
	}
	return terminal, nil
}

func (s *service) ListByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.Terminal, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	rows, err := s.repo.ListByRetailer(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing terminals")
	}
	if rows == nil {
		rows = []models.Terminal{}
	}
	return rows, nil
}

func (s *service) SetStatus(ctx context.Context, terminalID uuid.UUID, status enums.TerminalStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown terminal status %q", status))
	}
	if _, err := s.Get(ctx, terminalID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, terminalID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating terminal status")
	}
	return nil
}

func (s *service) Rename(ctx context.Context, terminalID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "terminal name required")
	}
	if _, err := s.Get(ctx, terminalID); err != nil {
		return err
	}
	if err := s.repo.Rename(ctx, terminalID, name); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "renaming terminal")
	}
	return nil
}

// Touch stamps the terminal as active now, called on authenticated terminal
// activity outside the sale transaction (the executor stamps it in-tx).
func (s *service) Touch(ctx context.Context, terminalID uuid.UUID) error {
	if terminalID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "terminal id required")
	}
	if err := s.repo.Touch(ctx, terminalID, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating terminal activity")
	}
	return nil
}
