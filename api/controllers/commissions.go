package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/api/responses"
	"github.com/TRPST/airvoucher-backend/api/validators"
	"github.com/TRPST/airvoucher-backend/internal/commission"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

type createGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

type setRateRequest struct {
	VoucherTypeID   uuid.UUID       `json:"voucher_type_id" validate:"required"`
	RetailerPercent decimal.Decimal `json:"retailer_percent"`
	AgentPercent    decimal.Decimal `json:"agent_percent"`
}

func CommissionGroupCreate(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGroupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateGroup(r.Context(), req.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

func CommissionGroupList(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.ListGroups(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"groups": groups})
	}
}

// CommissionRateSet upserts the rate one group pays for one voucher type.
// There is deliberately no default: a type without a row cannot be sold.
func CommissionRateSet(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.PathUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setRateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetRate(r.Context(), groupID, req.VoucherTypeID, req.RetailerPercent, req.AgentPercent); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "configured"})
	}
}

func CommissionRateList(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.PathUUID(r, "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rates, err := svc.ListGroupRates(r.Context(), groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"rates": rates})
	}
}
