package x509util

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// AuthorityKeyIdentifier is the decoded form of the authorityKeyIdentifier
// extension (RFC 5280, section 4.2.1.1).
//
//	AuthorityKeyIdentifier ::= SEQUENCE {
//	    keyIdentifier             [0] KeyIdentifier           OPTIONAL,
//	    authorityCertIssuer       [1] GeneralNames            OPTIONAL,
//	    authorityCertSerialNumber [2] CertificateSerialNumber OPTIONAL
//	}
//
// Issuer holds the DER encoding of a directoryName; it is carried as raw
// bytes so a copied issuer stays byte-identical.
type AuthorityKeyIdentifier struct {
	KeyID        []byte
	Issuer       []byte
	SerialNumber *big.Int
}

// authorityKeyIdentifier is the marshalling form. GeneralNames is an
// implicitly tagged SEQUENCE OF GeneralName; directoryName is [4] and
// explicit because Name is a CHOICE.
type authorityKeyIdentifier struct {
	KeyIdentifier             []byte          `asn1:"optional,tag:0"`
	AuthorityCertIssuer       []asn1.RawValue `asn1:"optional,tag:1"`
	AuthorityCertSerialNumber *big.Int        `asn1:"optional,tag:2"`
}

// Marshal returns the DER encoding of the extension value.
func (a AuthorityKeyIdentifier) Marshal() ([]byte, error) {
	v := authorityKeyIdentifier{
		KeyIdentifier:             a.KeyID,
		AuthorityCertSerialNumber: a.SerialNumber,
	}
	if len(a.Issuer) > 0 {
		v.AuthorityCertIssuer = []asn1.RawValue{{
			Class:      asn1.ClassContextSpecific,
			Tag:        4,
			IsCompound: true,
			Bytes:      a.Issuer,
		}}
	}

	value, err := asn1.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authorityKeyIdentifier: %w", err)
	}
	return value, nil
}

// ParseAuthorityKeyIdentifier decodes an authorityKeyIdentifier extension
// value. Only the first directoryName of authorityCertIssuer is kept.
func ParseAuthorityKeyIdentifier(der []byte) (*AuthorityKeyIdentifier, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("authorityKeyIdentifier is not a single SEQUENCE")
	}

	var aki AuthorityKeyIdentifier

	var keyID cryptobyte.String
	var hasKeyID bool
	if !seq.ReadOptionalASN1(&keyID, &hasKeyID, cbasn1.Tag(0).ContextSpecific()) {
		return nil, fmt.Errorf("invalid keyIdentifier")
	}
	if hasKeyID {
		aki.KeyID = append([]byte(nil), keyID...)
	}

	var names cryptobyte.String
	var hasNames bool
	if !seq.ReadOptionalASN1(&names, &hasNames, cbasn1.Tag(1).ContextSpecific().Constructed()) {
		return nil, fmt.Errorf("invalid authorityCertIssuer")
	}
	for hasNames && !names.Empty() {
		var name cryptobyte.String
		var tag cbasn1.Tag
		if !names.ReadAnyASN1(&name, &tag) {
			return nil, fmt.Errorf("invalid GeneralName in authorityCertIssuer")
		}
		if tag == cbasn1.Tag(4).ContextSpecific().Constructed() && aki.Issuer == nil {
			aki.Issuer = append([]byte(nil), name...)
		}
	}

	var serial cryptobyte.String
	var hasSerial bool
	if !seq.ReadOptionalASN1(&serial, &hasSerial, cbasn1.Tag(2).ContextSpecific()) {
		return nil, fmt.Errorf("invalid authorityCertSerialNumber")
	}
	if hasSerial {
		n, err := parseIntegerContent(serial)
		if err != nil {
			return nil, fmt.Errorf("invalid authorityCertSerialNumber: %w", err)
		}
		aki.SerialNumber = n
	}

	if !seq.Empty() {
		return nil, fmt.Errorf("trailing data in authorityKeyIdentifier")
	}
	return &aki, nil
}

// parseIntegerContent decodes two's-complement INTEGER content octets.
func parseIntegerContent(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty integer")
	}
	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b))*8))
	}
	return n, nil
}

// Extension is one entry of an ordered extension list. Entries are either
// copied verbatim (OpaqueExtension) or carry a decoded authority key
// identifier that can be rebuilt (AuthorityKeyIDExtension).
type Extension interface {
	OID() asn1.ObjectIdentifier
	PKIX() (pkix.Extension, error)
	// DER returns the complete Extension SEQUENCE.
	DER() ([]byte, error)
}

// OpaqueExtension is an extension carried through unchanged.
type OpaqueExtension struct {
	pkix.Extension

	// Raw is the extension as it was encoded in its certificate. When set
	// it is written back as-is, including non-canonical forms such as an
	// explicit critical FALSE.
	Raw []byte
}

// OID returns the extension identifier.
func (e OpaqueExtension) OID() asn1.ObjectIdentifier { return e.Id }

// PKIX returns the extension as-is.
func (e OpaqueExtension) PKIX() (pkix.Extension, error) { return e.Extension, nil }

// DER returns Raw, or the encoding of the parsed extension when Raw is
// empty.
func (e OpaqueExtension) DER() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return asn1.Marshal(e.Extension)
}

// AuthorityKeyIDExtension is a decoded authorityKeyIdentifier extension.
type AuthorityKeyIDExtension struct {
	Critical bool
	Value    AuthorityKeyIdentifier
}

// OID returns the authorityKeyIdentifier OID.
func (e AuthorityKeyIDExtension) OID() asn1.ObjectIdentifier { return OIDExtAuthorityKeyId }

// PKIX encodes the extension.
func (e AuthorityKeyIDExtension) PKIX() (pkix.Extension, error) {
	value, err := e.Value.Marshal()
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: OIDExtAuthorityKeyId, Critical: e.Critical, Value: value}, nil
}

// DER encodes the extension.
func (e AuthorityKeyIDExtension) DER() ([]byte, error) {
	ext, err := e.PKIX()
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(ext)
}

// ClassifyExtensions turns a certificate's extension list into tagged
// variants, preserving order. An authorityKeyIdentifier that does not
// decode is kept opaque; it is still replaced by ReplaceAuthorityKeyID.
func ClassifyExtensions(exts []pkix.Extension) []Extension {
	out := make([]Extension, 0, len(exts))
	for _, ext := range exts {
		if OIDEqual(ext.Id, OIDExtAuthorityKeyId) {
			if aki, err := ParseAuthorityKeyIdentifier(ext.Value); err == nil {
				out = append(out, AuthorityKeyIDExtension{Critical: ext.Critical, Value: *aki})
				continue
			}
		}
		out = append(out, OpaqueExtension{Extension: ext})
	}
	return out
}

// CertificateExtensions classifies cert's extensions like
// ClassifyExtensions and attaches to every opaque entry its original DER
// taken from RawTBSCertificate.
func CertificateExtensions(cert *x509.Certificate) ([]Extension, error) {
	raw, err := RawExtensions(cert)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(cert.Extensions) {
		return nil, fmt.Errorf("found %d encoded extensions, parsed %d", len(raw), len(cert.Extensions))
	}

	out := ClassifyExtensions(cert.Extensions)
	for i, ext := range out {
		if op, ok := ext.(OpaqueExtension); ok {
			op.Raw = raw[i]
			out[i] = op
		}
	}
	return out, nil
}

// ReplaceAuthorityKeyID returns a new list in which every authority key
// identifier is replaced by aki. The replacement keeps the position and
// critical flag of the entry it replaces; when the list has none, aki is
// appended as a non-critical extension. The input is not modified.
func ReplaceAuthorityKeyID(exts []Extension, aki AuthorityKeyIdentifier) []Extension {
	out := make([]Extension, 0, len(exts)+1)
	replaced := false
	for _, ext := range exts {
		if !OIDEqual(ext.OID(), OIDExtAuthorityKeyId) {
			out = append(out, ext)
			continue
		}
		if replaced {
			// a second AKI would make the certificate unparsable
			continue
		}
		critical := false
		switch e := ext.(type) {
		case AuthorityKeyIDExtension:
			critical = e.Critical
		case OpaqueExtension:
			critical = e.Critical
		}
		out = append(out, AuthorityKeyIDExtension{Critical: critical, Value: aki})
		replaced = true
	}
	if !replaced {
		out = append(out, AuthorityKeyIDExtension{Value: aki})
	}
	return out
}

// marshalExtensionsBlock encodes the explicit [3] extensions field of a
// TBSCertificate from the entries' DER. It returns nil for an empty list.
func marshalExtensionsBlock(exts []Extension) ([]byte, error) {
	if len(exts) == 0 {
		return nil, nil
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cbasn1.Tag(3).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			for _, ext := range exts {
				der, err := ext.DER()
				if err != nil {
					b.SetError(fmt.Errorf("extension %s: %w", ExtensionName(ext.OID()), err))
					return
				}
				b.AddBytes(der)
			}
		})
	})
	return b.Bytes()
}

// FindExtension returns the first extension with the given OID, or nil.
func FindExtension(exts []pkix.Extension, oid asn1.ObjectIdentifier) *pkix.Extension {
	for i := range exts {
		if OIDEqual(exts[i].Id, oid) {
			return &exts[i]
		}
	}
	return nil
}
