package dto

import "github.com/RetendoNetwork/SSSL/internal/x509util"

// ForgeRequest is the body of POST /api/v1/forge. Optional inputs are
// generated when omitted.
type ForgeRequest struct {
	RootCA         BinaryData  `json:"root_ca"`
	RootCAFormat   string      `json:"root_ca_format,omitempty"`
	CAPrivateKey   *BinaryData `json:"ca_private_key,omitempty"`
	SitePrivateKey *BinaryData `json:"site_private_key,omitempty"`
	CSR            *BinaryData `json:"csr,omitempty"`
	CommonName     string      `json:"common_name"`
}

// ForgeResponse carries the artifacts of a forging run keyed by file name.
type ForgeResponse struct {
	Artifacts       map[string]string           `json:"artifacts"`
	ForgedCA        x509util.CertificateSummary `json:"forged_ca"`
	SiteCertificate x509util.CertificateSummary `json:"site_certificate"`
	CSR             x509util.CSRSummary         `json:"csr"`
}
