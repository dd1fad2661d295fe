package x509util

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCertificate indicates input bytes do not decode as a
// certificate under the declared format.
var ErrMalformedCertificate = errors.New("malformed certificate")

// Format is the encoding of an input certificate.
type Format string

const (
	FormatDER  Format = "der"
	FormatPEM  Format = "pem"
	FormatAuto Format = "auto"
)

// ParseFormat parses a format name. The empty string selects DER.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "der":
		return FormatDER, nil
	case "pem":
		return FormatPEM, nil
	case "auto":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unknown certificate format %q (want der, pem or auto)", s)
	}
}

// DetectFormat guesses the encoding of data from its first bytes.
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		return FormatPEM
	}
	return FormatDER
}

// DecodeCertificate parses a certificate in the given format.
//
// PEM input is unwrapped and then follows the DER path, so both encodings
// of the same certificate produce identical results. DER input is decoded
// into a node tree and checked against the Certificate layout before it is
// interpreted. Negative serial numbers need GODEBUG=x509negativeserial=1.
func DecodeCertificate(data []byte, format Format) (*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedCertificate)
	}

	if format == FormatAuto {
		format = DetectFormat(data)
	}

	switch format {
	case FormatPEM:
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no PEM block found", ErrMalformedCertificate)
		}
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrMalformedCertificate, block.Type)
		}
		return decodeDER(block.Bytes)
	case FormatDER:
		return decodeDER(data)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedCertificate, format)
	}
}

func decodeDER(der []byte) (*x509.Certificate, error) {
	tree, err := ParseDER(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}
	if err := checkCertificateShape(tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}
	return cert, nil
}

// ParseCertificatesPEM parses every CERTIFICATE block in data, in order.
// Blocks of other types are skipped.
func ParseCertificatesPEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		data = rest

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := decodeDER(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: no CERTIFICATE block found", ErrMalformedCertificate)
	}
	return certs, nil
}

// EncodeCertificatePEM returns the PEM encoding of a certificate.
func EncodeCertificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}
