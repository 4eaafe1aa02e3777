package middleware

import (
	"net/http"

	"github.com/TRPST/airvoucher-backend/api/responses"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

// RetailerContext refuses requests from actors that carry no retailer scope.
// Retail-surface routes sit behind it so handlers can trust the context value.
func RetailerContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RetailerIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "retailer context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
