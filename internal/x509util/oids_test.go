package x509util

import (
	"encoding/asn1"
	"testing"
)

func TestU_OIDEqual(t *testing.T) {
	tests := []struct {
		name string
		a    asn1.ObjectIdentifier
		b    asn1.ObjectIdentifier
		want bool
	}{
		{"[U] Compare: equal OIDs", asn1.ObjectIdentifier{1, 2, 3}, asn1.ObjectIdentifier{1, 2, 3}, true},
		{"[U] Compare: different length", asn1.ObjectIdentifier{1, 2}, asn1.ObjectIdentifier{1, 2, 3}, false},
		{"[U] Compare: different values", asn1.ObjectIdentifier{1, 2, 3}, asn1.ObjectIdentifier{1, 2, 4}, false},
		{"[U] Compare: empty OIDs", asn1.ObjectIdentifier{}, asn1.ObjectIdentifier{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OIDEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("OIDEqual() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestU_ExtensionName(t *testing.T) {
	tests := []struct {
		name string
		oid  asn1.ObjectIdentifier
		want string
	}{
		{"[U] Name: authority key identifier", OIDExtAuthorityKeyId, "authorityKeyIdentifier"},
		{"[U] Name: basic constraints", OIDExtBasicConstraints, "basicConstraints"},
		{"[U] Name: netscape cert type", OIDExtNetscapeCertType, "nsCertType"},
		{"[U] Name: unknown falls back to dotted form", asn1.ObjectIdentifier{1, 2, 3, 4}, "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtensionName(tt.oid); got != tt.want {
				t.Errorf("ExtensionName() = %q, want %q", got, tt.want)
			}
		})
	}
}
