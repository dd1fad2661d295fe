package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/RetendoNetwork/SSSL/internal/api/dto"
	apierrors "github.com/RetendoNetwork/SSSL/internal/api/errors"
	"github.com/RetendoNetwork/SSSL/internal/api/middleware"
	"github.com/RetendoNetwork/SSSL/internal/config"
	"github.com/RetendoNetwork/SSSL/internal/forge"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// ForgeHandler runs the forging engine for HTTP clients. Artifacts are
// returned in the response and never written to disk.
type ForgeHandler struct {
	engine *forge.Engine
	logger *zap.Logger
}

// NewForgeHandler creates a new ForgeHandler.
func NewForgeHandler(engine *forge.Engine, logger *zap.Logger) *ForgeHandler {
	return &ForgeHandler{engine: engine, logger: logger}
}

// Forge handles POST /api/v1/forge.
func (h *ForgeHandler) Forge(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, apiErr := forgeConfig(&req)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr)
		return
	}

	res, err := h.engine.ForgeCertificateChain(cfg)
	if err != nil {
		status, apiErr := apierrors.MapError(err)
		h.logger.Warn("forge request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		respondError(w, status, apiErr)
		return
	}

	artifacts := make(map[string]string, 6)
	for name, data := range res.Artifacts.Map() {
		artifacts[name] = string(data)
	}
	respondJSON(w, http.StatusOK, dto.ForgeResponse{
		Artifacts:       artifacts,
		ForgedCA:        x509util.DescribeCertificate(res.ForgedCA, res.ForgedCA),
		SiteCertificate: x509util.DescribeCertificate(res.SiteCert, res.ForgedCA),
		CSR:             x509util.DescribeCSR(res.CSR),
	})
}

func forgeConfig(req *dto.ForgeRequest) (forge.Config, *dto.APIError) {
	var cfg forge.Config

	if err := config.ValidateCommonName(req.CommonName); err != nil {
		return cfg, apierrors.NewValidationError(err.Error(), map[string]string{"field": "common_name"})
	}
	format, err := x509util.ParseFormat(req.RootCAFormat)
	if err != nil {
		return cfg, apierrors.NewValidationError(err.Error(), map[string]string{"field": "root_ca_format"})
	}

	rootCA, err := req.RootCA.Decode()
	if err != nil || len(rootCA) == 0 {
		return cfg, apierrors.NewValidationError("root_ca is required and must decode", map[string]string{"field": "root_ca"})
	}

	optional := []struct {
		field string
		in    *dto.BinaryData
		out   *[]byte
	}{
		{"ca_private_key", req.CAPrivateKey, &cfg.CAPrivateKey},
		{"site_private_key", req.SitePrivateKey, &cfg.SitePrivateKey},
		{"csr", req.CSR, &cfg.CSR},
	}
	for _, o := range optional {
		data, err := o.in.DecodeOptional()
		if err != nil {
			return cfg, apierrors.NewValidationError(err.Error(), map[string]string{"field": o.field})
		}
		*o.out = data
	}

	cfg.RootCA = rootCA
	cfg.RootCAFormat = format
	cfg.CommonName = req.CommonName
	return cfg, nil
}
