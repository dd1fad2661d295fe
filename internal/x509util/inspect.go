package x509util

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Inspected object types.
const (
	TypeCertificate = "certificate"
	TypeChain       = "chain"
	TypeCSR         = "csr"
)

// Inspection is the description of a certificate, chain or CSR.
type Inspection struct {
	Type         string               `yaml:"type" json:"type"`
	Format       Format               `yaml:"format" json:"format"`
	Certificates []CertificateSummary `yaml:"certificates,omitempty" json:"certificates,omitempty"`
	CSR          *CSRSummary          `yaml:"csr,omitempty" json:"csr,omitempty"`
}

// Inspect describes data, which may hold one certificate, a PEM chain or a
// certification request. Within a chain each certificate is verified against
// the next one; a trailing self-issued certificate is verified against
// itself. When issuer is non-nil it verifies a single certificate instead.
func Inspect(data []byte, format Format, issuer *x509.Certificate) (*Inspection, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(data)
	}

	if format == FormatDER {
		if cert, err := DecodeCertificate(data, FormatDER); err == nil {
			return inspectCertificates([]*x509.Certificate{cert}, FormatDER, issuer), nil
		}
		csr, err := x509.ParseCertificateRequest(data)
		if err != nil {
			return nil, fmt.Errorf("%w: neither a certificate nor a CSR", ErrMalformedCertificate)
		}
		s := DescribeCSR(csr)
		return &Inspection{Type: TypeCSR, Format: FormatDER, CSR: &s}, nil
	}

	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrMalformedCertificate)
	}
	switch block.Type {
	case "CERTIFICATE":
		certs, err := ParseCertificatesPEM(data)
		if err != nil {
			return nil, err
		}
		return inspectCertificates(certs, FormatPEM, issuer), nil
	case "CERTIFICATE REQUEST", "NEW CERTIFICATE REQUEST":
		csr, err := ParseCSRPEM(data)
		if err != nil {
			return nil, err
		}
		s := DescribeCSR(csr)
		return &Inspection{Type: TypeCSR, Format: FormatPEM, CSR: &s}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrMalformedCertificate, block.Type)
	}
}

func inspectCertificates(certs []*x509.Certificate, format Format, issuer *x509.Certificate) *Inspection {
	out := &Inspection{Type: TypeCertificate, Format: format}
	if len(certs) > 1 {
		out.Type = TypeChain
	}
	for i, cert := range certs {
		var parent *x509.Certificate
		switch {
		case len(certs) == 1 && issuer != nil:
			parent = issuer
		case i+1 < len(certs):
			parent = certs[i+1]
		case bytes.Equal(cert.RawIssuer, cert.RawSubject):
			parent = cert
		}
		out.Certificates = append(out.Certificates, DescribeCertificate(cert, parent))
	}
	return out
}
