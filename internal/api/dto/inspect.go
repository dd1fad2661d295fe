package dto

// InspectRequest represents an inspection request.
type InspectRequest struct {
	// Data is the certificate, chain or CSR to inspect.
	Data BinaryData `json:"data"`

	// Format is "der", "pem" or "auto" (default).
	Format string `json:"format,omitempty"`

	// Issuer optionally verifies a single certificate's signature.
	Issuer *BinaryData `json:"issuer,omitempty"`
}
