package controllers

import (
	"net/http"

	"github.com/TRPST/airvoucher-backend/api/responses"
	"github.com/TRPST/airvoucher-backend/api/validators"
	"github.com/TRPST/airvoucher-backend/internal/terminals"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
)

type terminalRequest struct {
	Name string `json:"name" validate:"required"`
}

type terminalStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func TerminalRegister(svc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req terminalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		terminal, err := svc.Register(r.Context(), retailerID, req.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, terminal)
	}
}

func TerminalList(svc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retailerID, err := validators.PathUUID(r, "retailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByRetailer(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"terminals": rows})
	}
}

func TerminalGet(svc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := validators.PathUUID(r, "terminalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ownedTerminal(r.Context(), svc, terminalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		terminal, err := svc.Get(r.Context(), terminalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, terminal)
	}
}

func TerminalSetStatus(svc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := validators.PathUUID(r, "terminalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req terminalStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := enums.TerminalStatus(req.Status)
		if !status.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid terminal status"))
			return
		}

		if err := svc.SetStatus(r.Context(), terminalID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

func TerminalRename(svc terminals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminalID, err := validators.PathUUID(r, "terminalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req terminalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Rename(r.Context(), terminalID, req.Name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "renamed"})
	}
}
