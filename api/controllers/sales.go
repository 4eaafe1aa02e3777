package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/api/middleware"
	"github.com/TRPST/airvoucher-backend/api/responses"
	"github.com/TRPST/airvoucher-backend/api/validators"
	"github.com/TRPST/airvoucher-backend/internal/sales"
	"github.com/TRPST/airvoucher-backend/internal/sales/lifecycle"
	"github.com/TRPST/airvoucher-backend/internal/terminals"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

type salePreflightRequest struct {
	TerminalID uuid.UUID       `json:"terminal_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
}

type saleExecuteRequest struct {
	TerminalID      uuid.UUID       `json:"terminal_id" validate:"required"`
	VoucherTypeID   uuid.UUID       `json:"voucher_type_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	InventoryUnitID *uuid.UUID      `json:"inventory_unit_id,omitempty"`
	AccountNumber   string          `json:"account_number,omitempty"`
}

// ownedTerminal resolves the terminal and refuses cross-retailer access.
// Admins may act on any terminal.
func ownedTerminal(ctx context.Context, svc terminals.Service, terminalID uuid.UUID) error {
	terminal, err := svc.Get(ctx, terminalID)
	if err != nil {
		return err
	}
	retailerID := middleware.RetailerIDFromContext(ctx)
	if retailerID == "" {
		if middleware.RoleFromContext(ctx) == "admin" {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "retailer context missing")
	}
	if terminal.RetailerID.String() != retailerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "terminal belongs to another retailer")
	}
	return nil
}

// SalePreflight runs the funds check for the selected amount and moves the
// terminal's session to the confirmation step, with confirm disabled when the
// sale cannot be funded.
func SalePreflight(saleSvc sales.Service, terminalSvc terminals.Service, sessions lifecycle.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req salePreflightRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ownedTerminal(r.Context(), terminalSvc, req.TerminalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := saleSvc.Preflight(r.Context(), req.TerminalID, req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := sessions.Review(r.Context(), req.TerminalID, result.Fundable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"preflight": result,
			"session":   session,
		})
	}
}

// SaleExecute is the confirmed submission. The session guard runs first so a
// terminal that is already Submitting cannot fire a second transaction; the
// outcome is then fed back into the session.
func SaleExecute(saleSvc sales.Service, terminalSvc terminals.Service, sessions lifecycle.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saleExecuteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ownedTerminal(r.Context(), terminalSvc, req.TerminalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Once the submission is claimed it must outlive the request: a client
		// disconnect cannot abandon the executor call or strand the session in
		// Submitting. The executor applies its own timeout.
		ctx := context.WithoutCancel(r.Context())

		if _, err := sessions.BeginSubmit(ctx, req.TerminalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := saleSvc.Execute(ctx, sales.ExecuteParams{
			TerminalID:      req.TerminalID,
			VoucherTypeID:   req.VoucherTypeID,
			Amount:          req.Amount,
			InventoryUnitID: req.InventoryUnitID,
			AccountNumber:   req.AccountNumber,
		})
		if err != nil {
			code := pkgerrors.CodeInternal
			if typed := pkgerrors.As(err); typed != nil {
				code = typed.Code()
			}
			if _, failErr := sessions.CompleteFailure(ctx, req.TerminalID, code); failErr != nil && logg != nil {
				logg.Error(ctx, "recording sale failure on session", failErr)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := sessions.CompleteSuccess(ctx, req.TerminalID, receipt.SaleID); err != nil && logg != nil {
			logg.Error(ctx, "recording sale success on session", err)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

// SaleReceipt re-fetches a receipt by sale id, which is how a terminal
// verifies the outcome after an indeterminate submission.
func SaleReceipt(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saleID, err := validators.PathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.GetReceipt(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}

// SaleByReference looks a sale up by its printed reference number.
func SaleByReference(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := strings.TrimSpace(r.URL.Query().Get("reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference query parameter required"))
			return
		}

		receipt, err := svc.FindByReference(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}

// RetailerSalesHistory lists the calling retailer's sales, newest first.
func RetailerSalesHistory(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := uuid.Parse(middleware.RetailerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "retailer context missing"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListByRetailer(r.Context(), retailerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"sales":       rows,
			"next_cursor": next,
		})
	}
}

// TerminalSalesHistory lists one terminal's sales, newest first.
func TerminalSalesHistory(saleSvc sales.Service, terminalSvc terminals.Service, logg *logger.Logger) http.HandlerFunc {
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

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := saleSvc.ListByTerminal(r.Context(), terminalID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"sales":       rows,
			"next_cursor": next,
		})
	}
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
