package handler

import (
	"crypto/x509"
	"net/http"

	"github.com/RetendoNetwork/SSSL/internal/api/dto"
	apierrors "github.com/RetendoNetwork/SSSL/internal/api/errors"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// InspectHandler handles inspect-related HTTP requests.
type InspectHandler struct{}

// NewInspectHandler creates a new InspectHandler.
func NewInspectHandler() *InspectHandler {
	return &InspectHandler{}
}

// Inspect handles POST /api/v1/inspect.
func (h *InspectHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	var req dto.InspectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	format, err := x509util.ParseFormat(req.Format)
	if err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewValidationError(err.Error(), map[string]string{"field": "format"}))
		return
	}
	if req.Format == "" {
		format = x509util.FormatAuto
	}

	data, err := req.Data.Decode()
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("data is required and must decode"))
		return
	}

	var issuer *x509.Certificate
	if raw, err := req.Issuer.DecodeOptional(); err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("issuer must decode"))
		return
	} else if raw != nil {
		issuer, err = x509util.DecodeCertificate(raw, x509util.FormatAuto)
		if err != nil {
			status, apiErr := apierrors.MapError(err)
			respondError(w, status, apiErr)
			return
		}
	}

	result, err := x509util.Inspect(data, format, issuer)
	if err != nil {
		status, apiErr := apierrors.MapError(err)
		respondError(w, status, apiErr)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
