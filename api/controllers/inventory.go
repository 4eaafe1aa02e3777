package controllers

import (
	"net/http"
	"strings"

	"github.com/TRPST/airvoucher-backend/api/responses"
	"github.com/TRPST/airvoucher-backend/internal/inventory"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

// InventoryList serves the availability view a terminal renders after the
// cashier picks a category: denominations with live unit counts.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawCategory := strings.TrimSpace(r.URL.Query().Get("category"))
		if rawCategory == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category query parameter required"))
			return
		}
		category, err := enums.ParseVoucherCategory(rawCategory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		filter := inventory.Filter{
			Category:        category,
			NetworkProvider: strings.TrimSpace(r.URL.Query().Get("network_provider")),
			SubCategory:     strings.TrimSpace(r.URL.Query().Get("sub_category")),
		}

		rows, err := svc.ListAvailable(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"denominations": rows})
	}
}
