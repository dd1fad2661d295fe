// Package x509util provides the X.509 building blocks of the forging
// engine: certificate decoding, extension classification, explicit
// TBSCertificate assembly and CSR preparation.
package x509util

import (
	"encoding/asn1"
)

// Standard X.509 extension OIDs.
var (
	// Key Usage extension
	OIDExtKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 15}

	// Extended Key Usage extension
	OIDExtExtKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}

	// Basic Constraints extension
	OIDExtBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}

	// Subject Alternative Name extension
	OIDExtSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

	// Authority Key Identifier extension
	OIDExtAuthorityKeyId = asn1.ObjectIdentifier{2, 5, 29, 35}

	// Subject Key Identifier extension
	OIDExtSubjectKeyId = asn1.ObjectIdentifier{2, 5, 29, 14}

	// CRL Distribution Points extension
	OIDExtCRLDistributionPoints = asn1.ObjectIdentifier{2, 5, 29, 31}

	// Authority Information Access extension
	OIDExtAuthorityInfoAccess = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}

	// Certificate Policies extension
	OIDExtCertificatePolicies = asn1.ObjectIdentifier{2, 5, 29, 32}

	// Netscape Certificate Type, still found on old vendor roots
	OIDExtNetscapeCertType = asn1.ObjectIdentifier{2, 16, 840, 1, 113730, 1, 1}
)

// RSA signature algorithm OIDs.
var (
	OIDSignatureRSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	OIDSignatureRSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDSignatureRSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	OIDSignatureRSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
)

// extensionNames maps well-known extension OIDs to the names used in
// inspection output.
var extensionNames = []struct {
	oid  asn1.ObjectIdentifier
	name string
}{
	{OIDExtKeyUsage, "keyUsage"},
	{OIDExtExtKeyUsage, "extKeyUsage"},
	{OIDExtBasicConstraints, "basicConstraints"},
	{OIDExtSubjectAltName, "subjectAltName"},
	{OIDExtAuthorityKeyId, "authorityKeyIdentifier"},
	{OIDExtSubjectKeyId, "subjectKeyIdentifier"},
	{OIDExtCRLDistributionPoints, "cRLDistributionPoints"},
	{OIDExtAuthorityInfoAccess, "authorityInfoAccess"},
	{OIDExtCertificatePolicies, "certificatePolicies"},
	{OIDExtNetscapeCertType, "nsCertType"},
}

// OIDEqual compares two OIDs for equality.
func OIDEqual(a, b asn1.ObjectIdentifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ExtensionName returns the conventional name of an extension OID, or its
// dotted form when the OID is not known.
func ExtensionName(oid asn1.ObjectIdentifier) string {
	for _, e := range extensionNames {
		if OIDEqual(e.oid, oid) {
			return e.name
		}
	}
	return oid.String()
}
