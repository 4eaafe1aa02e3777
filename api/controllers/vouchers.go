package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/TRPST/airvoucher-backend/api/middleware"
	"github.com/TRPST/airvoucher-backend/api/responses"
	"github.com/TRPST/airvoucher-backend/api/validators"
	"github.com/TRPST/airvoucher-backend/internal/vouchers"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

// stock uploads are plain text CSV; cap the body well above any realistic
// batch but below something that could hurt the instance.
const maxStockUploadBytes = 8 << 20

type voucherTypeRequest struct {
	Name            string  `json:"name" validate:"required"`
	Category        string  `json:"category" validate:"required"`
	NetworkProvider string  `json:"network_provider" validate:"required"`
	SubCategory     *string `json:"sub_category,omitempty"`
	Instructions    *string `json:"instructions,omitempty"`
	HelpText        *string `json:"help_text,omitempty"`
	VendorIssued    bool    `json:"vendor_issued"`
	VendorProductID *string `json:"vendor_product_id,omitempty"`
}

func (req voucherTypeRequest) toParams() (vouchers.TypeParams, error) {
	category, err := enums.ParseVoucherCategory(req.Category)
	if err != nil {
		return vouchers.TypeParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	return vouchers.TypeParams{
		Name:            req.Name,
		Category:        category,
		NetworkProvider: req.NetworkProvider,
		SubCategory:     req.SubCategory,
		Instructions:    req.Instructions,
		HelpText:        req.HelpText,
		VendorIssued:    req.VendorIssued,
		VendorProductID: req.VendorProductID,
	}, nil
}

func VoucherTypeCreate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voucherTypeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucherType, err := svc.CreateType(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, voucherType)
	}
}

func VoucherTypeGet(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voucherTypeID, err := validators.PathUUID(r, "voucherTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucherType, err := svc.GetType(r.Context(), voucherTypeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, voucherType)
	}
}

func VoucherTypeList(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var category *enums.VoucherCategory
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			parsed, err := enums.ParseVoucherCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			category = &parsed
		}

		rows, err := svc.ListTypes(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"voucher_types": rows})
	}
}

func VoucherTypeUpdate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voucherTypeID, err := validators.PathUUID(r, "voucherTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req voucherTypeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := req.toParams()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucherType, err := svc.UpdateType(r.Context(), voucherTypeID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, voucherType)
	}
}

// VoucherStockUpload ingests a pin,serial,amount CSV body into a new batch.
func VoucherStockUpload(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voucherTypeID, err := validators.PathUUID(r, "voucherTypeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		uploadedBy, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		body := http.MaxBytesReader(w, r.Body, maxStockUploadBytes)
		result, err := svc.UploadStock(r.Context(), voucherTypeID, uploadedBy, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func VoucherBatchGet(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.PathUUID(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.GetBatch(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}
