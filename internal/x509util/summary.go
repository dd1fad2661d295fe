package x509util

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"strings"
	"time"
)

// CertificateSummary is a flat, serializable description of a certificate.
type CertificateSummary struct {
	Subject            string                 `yaml:"subject" json:"subject"`
	Issuer             string                 `yaml:"issuer" json:"issuer"`
	SerialNumber       string                 `yaml:"serial_number" json:"serial_number"`
	NotBefore          time.Time              `yaml:"not_before" json:"not_before"`
	NotAfter           time.Time              `yaml:"not_after" json:"not_after"`
	SignatureAlgorithm string                 `yaml:"signature_algorithm" json:"signature_algorithm"`
	PublicKeyBits      int                    `yaml:"public_key_bits,omitempty" json:"public_key_bits,omitempty"`
	IsCA               bool                   `yaml:"is_ca" json:"is_ca"`
	SHA256Fingerprint  string                 `yaml:"sha256_fingerprint" json:"sha256_fingerprint"`
	Extensions         []ExtensionSummary     `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	AuthorityKeyID     *AuthorityKeyIDSummary `yaml:"authority_key_identifier,omitempty" json:"authority_key_identifier,omitempty"`
	SignatureVerified  *bool                  `yaml:"signature_verified,omitempty" json:"signature_verified,omitempty"`
}

// ExtensionSummary names one extension of a certificate.
type ExtensionSummary struct {
	OID      string `yaml:"oid" json:"oid"`
	Name     string `yaml:"name" json:"name"`
	Critical bool   `yaml:"critical" json:"critical"`
}

// AuthorityKeyIDSummary is the readable form of an authorityKeyIdentifier.
type AuthorityKeyIDSummary struct {
	KeyID        string `yaml:"key_id,omitempty" json:"key_id,omitempty"`
	Issuer       string `yaml:"issuer,omitempty" json:"issuer,omitempty"`
	SerialNumber string `yaml:"serial_number,omitempty" json:"serial_number,omitempty"`
}

// CSRSummary is a flat, serializable description of a certification request.
type CSRSummary struct {
	Subject            string             `yaml:"subject" json:"subject"`
	SignatureAlgorithm string             `yaml:"signature_algorithm" json:"signature_algorithm"`
	PublicKeyBits      int                `yaml:"public_key_bits,omitempty" json:"public_key_bits,omitempty"`
	Extensions         []ExtensionSummary `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	SignatureVerified  bool               `yaml:"signature_verified" json:"signature_verified"`
}

// DescribeCertificate summarizes cert. When issuer is non-nil the signature
// is checked against the issuer's public key.
func DescribeCertificate(cert *x509.Certificate, issuer *x509.Certificate) CertificateSummary {
	fp := sha256.Sum256(cert.Raw)
	s := CertificateSummary{
		Subject:            cert.Subject.String(),
		Issuer:             cert.Issuer.String(),
		SerialNumber:       cert.SerialNumber.String(),
		NotBefore:          cert.NotBefore.UTC(),
		NotAfter:           cert.NotAfter.UTC(),
		SignatureAlgorithm: cert.SignatureAlgorithm.String(),
		PublicKeyBits:      rsaBits(cert.PublicKey),
		IsCA:               cert.IsCA,
		SHA256Fingerprint:  formatHex(fp[:]),
	}

	for _, ext := range cert.Extensions {
		s.Extensions = append(s.Extensions, ExtensionSummary{
			OID:      ext.Id.String(),
			Name:     ExtensionName(ext.Id),
			Critical: ext.Critical,
		})
		if OIDEqual(ext.Id, OIDExtAuthorityKeyId) {
			if aki, err := ParseAuthorityKeyIdentifier(ext.Value); err == nil {
				s.AuthorityKeyID = describeAKI(aki)
			}
		}
	}

	if issuer != nil {
		ok := VerifyCertificateSignature(cert, issuer.PublicKey) == nil
		s.SignatureVerified = &ok
	}
	return s
}

// DescribeCSR summarizes a certification request.
func DescribeCSR(csr *x509.CertificateRequest) CSRSummary {
	s := CSRSummary{
		Subject:            csr.Subject.String(),
		SignatureAlgorithm: csr.SignatureAlgorithm.String(),
		PublicKeyBits:      rsaBits(csr.PublicKey),
		SignatureVerified:  csr.CheckSignature() == nil,
	}
	for _, ext := range csr.Extensions {
		s.Extensions = append(s.Extensions, ExtensionSummary{
			OID:      ext.Id.String(),
			Name:     ExtensionName(ext.Id),
			Critical: ext.Critical,
		})
	}
	return s
}

func describeAKI(aki *AuthorityKeyIdentifier) *AuthorityKeyIDSummary {
	out := &AuthorityKeyIDSummary{KeyID: formatHex(aki.KeyID)}
	if len(aki.Issuer) > 0 {
		out.Issuer = formatRawName(aki.Issuer)
	}
	if aki.SerialNumber != nil {
		out.SerialNumber = aki.SerialNumber.String()
	}
	return out
}

func rsaBits(pub any) int {
	if k, ok := pub.(*rsa.PublicKey); ok {
		return k.N.BitLen()
	}
	return 0
}

// formatRawName renders a DER-encoded Name in RFC 2253 style.
func formatRawName(der []byte) string {
	var rdn pkix.RDNSequence
	if rest, err := asn1.Unmarshal(der, &rdn); err != nil || len(rest) > 0 {
		return formatHex(der)
	}
	var name pkix.Name
	name.FillFromRDNSequence(&rdn)
	return name.String()
}

// formatHex renders bytes as colon-separated upper-case hex.
func formatHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{c}))
	}
	return strings.Join(parts, ":")
}
