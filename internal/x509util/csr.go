package x509util

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCSR indicates a supplied certificate signing request does not parse.
var ErrInvalidCSR = errors.New("invalid CSR")

// ParseCSRPEM parses a PEM-encoded PKCS#10 certification request.
func ParseCSRPEM(data []byte) (*x509.CertificateRequest, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidCSR)
	}
	if block.Type != "CERTIFICATE REQUEST" && block.Type != "NEW CERTIFICATE REQUEST" {
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidCSR, block.Type)
	}

	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSR, err)
	}
	return csr, nil
}

// PrepareCSR loads the supplied request, or starts from an empty one, and
// re-creates it for commonName and sitePub, self-signed by siteKey.
//
// A supplied request only contributes its requested extensions. Its subject
// and public key are always replaced.
func PrepareCSR(random io.Reader, supplied []byte, commonName string, sitePub crypto.PublicKey, siteKey crypto.Signer) (*x509.CertificateRequest, error) {
	template := &x509.CertificateRequest{
		Subject:            pkix.Name{CommonName: commonName},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}

	if len(supplied) > 0 {
		existing, err := ParseCSRPEM(supplied)
		if err != nil {
			return nil, err
		}
		template.ExtraExtensions = existing.Extensions
	}

	// x509.CreateCertificateRequest embeds siteKey.Public(), so the
	// requested key has to be that same key.
	type equaler interface{ Equal(crypto.PublicKey) bool }
	if eq, ok := sitePub.(equaler); !ok || !eq.Equal(siteKey.Public()) {
		return nil, fmt.Errorf("%w: site public key does not match the signing key", ErrSigning)
	}

	der, err := x509.CreateCertificateRequest(random, template, siteKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create CSR: %v", ErrSigning, err)
	}

	csr, err := x509.ParseCertificateRequest(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse created CSR: %v", ErrSigning, err)
	}
	if err := csr.CheckSignature(); err != nil {
		return nil, fmt.Errorf("%w: CSR self-signature does not verify: %v", ErrSigning, err)
	}
	return csr, nil
}

// EncodeCSRPEM returns the PEM encoding of a certification request.
func EncodeCSRPEM(csr *x509.CertificateRequest) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csr.Raw})
}
