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
	"github.com/TRPST/airvoucher-backend/internal/retailers"
	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/pagination"
)

type createRetailerRequest struct {
	Name              string          `json:"name" validate:"required"`
	ContactEmail      *string         `json:"contact_email,omitempty" validate:"omitempty,email"`
	CommissionGroupID *uuid.UUID      `json:"commission_group_id,omitempty"`
	AgentID           *uuid.UUID      `json:"agent_id,omitempty"`
	CreditLimit       decimal.Decimal `json:"credit_limit"`
}

type updateRetailerRequest struct {
	Name         string  `json:"name" validate:"required"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
}

type retailerStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignGroupRequest struct {
	CommissionGroupID uuid.UUID `json:"commission_group_id" validate:"required"`
}

type moneyMoveRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Reason string          `json:"reason,omitempty"`
}

type creditLimitRequest struct {
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

func RetailerCreate(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRetailerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := svc.Create(r.Context(), retailers.CreateParams{
			Name:              req.Name,
			ContactEmail:      req.ContactEmail,
			CommissionGroupID: req.CommissionGroupID,
			AgentID:           req.AgentID,
			CreditLimit:       req.CreditLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, retailer)
	}
}

func RetailerGet(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := svc.Get(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

// RetailerProfile serves the calling retailer's own account.
func RetailerProfile(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := uuid.Parse(middleware.RetailerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "retailer context missing"))
			return
		}

		retailer, err := svc.Get(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

func RetailerList(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"retailers":   rows,
			"next_cursor": next,
		})
	}
}

func RetailerUpdate(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateRetailerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateProfile(r.Context(), retailerID, req.Name, req.ContactEmail); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func RetailerSetStatus(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req retailerStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseRetailerStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.SetStatus(r.Context(), retailerID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

func RetailerAssignGroup(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignGroupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AssignCommissionGroup(r.Context(), retailerID, req.CommissionGroupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "assigned"})
	}
}

func RetailerTopUp(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return moneyMove(logg, svc.TopUp)
}

func RetailerWithdraw(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return moneyMove(logg, svc.Withdraw)
}

func RetailerSettleCredit(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return moneyMove(logg, svc.SettleCredit)
}

func RetailerSetCreditLimit(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req creditLimitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := svc.SetCreditLimit(r.Context(), retailerID, req.CreditLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

type moveFn func(ctx context.Context, retailerID uuid.UUID, amount decimal.Decimal, reason string) (*models.Retailer, error)

func moneyMove(logg *logger.Logger, move moveFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req moneyMoveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := move(r.Context(), retailerID, req.Amount, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}
