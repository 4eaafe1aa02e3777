package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/api/responses"
	"github.com/TRPST/airvoucher-backend/api/validators"
	"github.com/TRPST/airvoucher-backend/internal/sales/lifecycle"
	"github.com/TRPST/airvoucher-backend/internal/terminals"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

type selectCategoryRequest struct {
	Category string `json:"category" validate:"required"`
}

type selectValueRequest struct {
	VoucherTypeID uuid.UUID       `json:"voucher_type_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
}

// SaleSessionGet returns the terminal's current sale flow state; a terminal
// with no session gets a fresh idle one.
func SaleSessionGet(sessions lifecycle.Manager, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return withTerminalSession(terminalSvc, logg, func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error) {
		return sessions.Load(r.Context(), terminalID)
	})
}

func SaleSessionSelectCategory(sessions lifecycle.Manager, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return withTerminalSession(terminalSvc, logg, func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error) {
		var req selectCategoryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		category, err := enums.ParseVoucherCategory(req.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		return sessions.SelectCategory(r.Context(), terminalID, category)
	})
}

func SaleSessionSelectValue(sessions lifecycle.Manager, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return withTerminalSession(terminalSvc, logg, func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error) {
		var req selectValueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return sessions.SelectValue(r.Context(), terminalID, req.VoucherTypeID, req.Amount)
	})
}

// SaleSessionRetry re-arms the confirmation step after a failed sale. The
// retry is a fresh manual confirmation, never an automatic resubmission.
func SaleSessionRetry(sessions lifecycle.Manager, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return withTerminalSession(terminalSvc, logg, func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error) {
		return sessions.Retry(r.Context(), terminalID)
	})
}

// SaleSessionCancel abandons the flow. Refused while a submission is in
// flight, because the outcome is no longer the terminal's to discard.
func SaleSessionCancel(sessions lifecycle.Manager, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return withTerminalSession(terminalSvc, logg, func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error) {
		return sessions.Cancel(r.Context(), terminalID)
	})
}

// SaleSessionNew leaves the success screen and starts the next sale.
func SaleSessionNew(sessions lifecycle.Manager, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return withTerminalSession(terminalSvc, logg, func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error) {
		return sessions.NewSale(r.Context(), terminalID)
	})
}

func withTerminalSession(
	terminalSvc terminals.Service,
	logg *logger.Logger,
	fn func(r *http.Request, terminalID uuid.UUID) (*lifecycle.Session, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := validators.PathUUID(r, "terminalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ownedTerminal(r.Context(), terminalSvc, terminalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := fn(r, terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
