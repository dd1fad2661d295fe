package x509util

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ErrSigning indicates a signature could not be produced or did not verify.
var ErrSigning = errors.New("signing failed")

// ASN.1 structures for X.509 certificates (RFC 5280). Certificates are
// assembled by hand rather than through x509.CreateCertificate so that
// names, validity and extensions copied from another certificate keep
// their exact encoding and no extension is added implicitly.

// tbsCertificate represents the TBSCertificate ASN.1 structure.
type tbsCertificate struct {
	Version            int `asn1:"optional,explicit,default:0,tag:0"`
	SerialNumber       *big.Int
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Issuer             asn1.RawValue
	Validity           asn1.RawValue
	Subject            asn1.RawValue
	PublicKey          asn1.RawValue
	// Extensions holds the complete [3] element, see marshalExtensionsBlock.
	Extensions         asn1.RawValue `asn1:"optional"`
}

// validity represents the X.509 validity period.
type validity struct {
	NotBefore, NotAfter time.Time
}

// certificate represents the full X.509 certificate structure.
type certificate struct {
	TBSCertificate     asn1.RawValue
	SignatureAlgorithm pkix.AlgorithmIdentifier
	SignatureValue     asn1.BitString
}

// SignatureAlgorithm pairs an RSA PKCS#1 v1.5 signature OID with its digest.
type SignatureAlgorithm struct {
	Name string
	OID  asn1.ObjectIdentifier
	Hash crypto.Hash
}

var (
	// SHA256WithRSA is used for the forged CA.
	SHA256WithRSA = SignatureAlgorithm{Name: "SHA256-RSA", OID: OIDSignatureRSAWithSHA256, Hash: crypto.SHA256}

	// SHA1WithRSA is used for site certificates. SHA-1 is chosen for the
	// legacy client that verifies them, not for its strength.
	SHA1WithRSA = SignatureAlgorithm{Name: "SHA1-RSA", OID: OIDSignatureRSAWithSHA1, Hash: crypto.SHA1}
)

var rsaSignatureAlgorithms = []SignatureAlgorithm{
	SHA1WithRSA,
	SHA256WithRSA,
	{Name: "SHA384-RSA", OID: OIDSignatureRSAWithSHA384, Hash: crypto.SHA384},
	{Name: "SHA512-RSA", OID: OIDSignatureRSAWithSHA512, Hash: crypto.SHA512},
}

// AlgorithmIdentifier returns the AlgorithmIdentifier with NULL parameters.
func (a SignatureAlgorithm) AlgorithmIdentifier() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: a.OID, Parameters: asn1.NullRawValue}
}

// CertificateTemplate holds the already-encoded parts of a TBSCertificate.
// Issuer and Subject are DER Names, Validity is a DER Validity and
// PublicKey is a DER SubjectPublicKeyInfo.
type CertificateTemplate struct {
	SerialNumber *big.Int
	Issuer       []byte
	Subject      []byte
	Validity     []byte
	PublicKey    []byte
	Extensions   []Extension
}

// SignCertificate encodes the template as a version 3 certificate, signs
// it with signer and returns the parsed result. The signature is verified
// against the signer's public key before returning.
func SignCertificate(random io.Reader, tmpl *CertificateTemplate, alg SignatureAlgorithm, signer crypto.Signer) (*x509.Certificate, error) {
	if tmpl.SerialNumber == nil {
		return nil, fmt.Errorf("%w: missing serial number", ErrSigning)
	}
	pub, ok := signer.Public().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signer key type %T", ErrSigning, signer.Public())
	}

	extensions, err := marshalExtensionsBlock(tmpl.Extensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	tbs := tbsCertificate{
		Version:            2,
		SerialNumber:       tmpl.SerialNumber,
		SignatureAlgorithm: alg.AlgorithmIdentifier(),
		Issuer:             asn1.RawValue{FullBytes: tmpl.Issuer},
		Validity:           asn1.RawValue{FullBytes: tmpl.Validity},
		Subject:            asn1.RawValue{FullBytes: tmpl.Subject},
		PublicKey:          asn1.RawValue{FullBytes: tmpl.PublicKey},
	}
	if len(extensions) > 0 {
		tbs.Extensions = asn1.RawValue{FullBytes: extensions}
	}
	tbsDER, err := asn1.Marshal(tbs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal TBSCertificate: %v", ErrSigning, err)
	}

	h := alg.Hash.New()
	h.Write(tbsDER)
	digest := h.Sum(nil)

	signature, err := signer.Sign(random, digest, alg.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	if err := rsa.VerifyPKCS1v15(pub, alg.Hash, digest, signature); err != nil {
		return nil, fmt.Errorf("%w: signature does not verify: %v", ErrSigning, err)
	}

	certDER, err := asn1.Marshal(certificate{
		TBSCertificate:     asn1.RawValue{FullBytes: tbsDER},
		SignatureAlgorithm: alg.AlgorithmIdentifier(),
		SignatureValue:     asn1.BitString{Bytes: signature, BitLength: len(signature) * 8},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal certificate: %v", ErrSigning, err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse created certificate: %v", ErrSigning, err)
	}
	return cert, nil
}

// MarshalValidity encodes a validity window. Times are converted to UTC and
// use UTCTime through 2049 and GeneralizedTime afterwards.
func MarshalValidity(notBefore, notAfter time.Time) ([]byte, error) {
	return asn1.Marshal(validity{NotBefore: notBefore.UTC(), NotAfter: notAfter.UTC()})
}

// RawValidity extracts the DER Validity element of a certificate exactly as
// it was encoded.
func RawValidity(cert *x509.Certificate) ([]byte, error) {
	input := cryptobyte.String(cert.RawTBSCertificate)
	var tbs cryptobyte.String
	if !input.ReadASN1(&tbs, cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("malformed TBSCertificate")
	}
	if !tbs.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!tbs.SkipASN1(cbasn1.INTEGER) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("malformed TBSCertificate header")
	}

	var v cryptobyte.String
	if !tbs.ReadASN1Element(&v, cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("malformed validity")
	}
	return append([]byte(nil), v...), nil
}

// RawExtensions returns the DER of each Extension in cert's TBSCertificate,
// in order and exactly as encoded. A certificate without extensions yields
// nil.
func RawExtensions(cert *x509.Certificate) ([][]byte, error) {
	input := cryptobyte.String(cert.RawTBSCertificate)
	var tbs cryptobyte.String
	if !input.ReadASN1(&tbs, cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("malformed TBSCertificate")
	}
	if !tbs.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!tbs.SkipASN1(cbasn1.INTEGER) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // signature
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // issuer
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // validity
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // subject
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // subjectPublicKeyInfo
		!tbs.SkipOptionalASN1(cbasn1.Tag(1).ContextSpecific()) ||
		!tbs.SkipOptionalASN1(cbasn1.Tag(2).ContextSpecific()) {
		return nil, fmt.Errorf("malformed TBSCertificate header")
	}

	var block cryptobyte.String
	var present bool
	if !tbs.ReadOptionalASN1(&block, &present, cbasn1.Tag(3).Constructed().ContextSpecific()) {
		return nil, fmt.Errorf("malformed extensions")
	}
	if !present {
		return nil, nil
	}
	var seq cryptobyte.String
	if !block.ReadASN1(&seq, cbasn1.SEQUENCE) || !block.Empty() {
		return nil, fmt.Errorf("malformed extensions")
	}

	var out [][]byte
	for !seq.Empty() {
		var ext cryptobyte.String
		if !seq.ReadASN1Element(&ext, cbasn1.SEQUENCE) {
			return nil, fmt.Errorf("malformed extension")
		}
		out = append(out, append([]byte(nil), ext...))
	}
	return out, nil
}

// SignatureAlgorithmByOID returns the RSA signature algorithm for an OID.
func SignatureAlgorithmByOID(oid asn1.ObjectIdentifier) (SignatureAlgorithm, bool) {
	for _, alg := range rsaSignatureAlgorithms {
		if OIDEqual(alg.OID, oid) {
			return alg, true
		}
	}
	return SignatureAlgorithm{}, false
}

// signatureAlgorithmOID reads the outer signatureAlgorithm OID of a
// certificate.
func signatureAlgorithmOID(cert *x509.Certificate) (asn1.ObjectIdentifier, error) {
	input := cryptobyte.String(cert.Raw)
	var body, algID cryptobyte.String
	var oid asn1.ObjectIdentifier
	if !input.ReadASN1(&body, cbasn1.SEQUENCE) ||
		!body.SkipASN1(cbasn1.SEQUENCE) ||
		!body.ReadASN1(&algID, cbasn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&oid) {
		return nil, fmt.Errorf("malformed signatureAlgorithm")
	}
	return oid, nil
}

// VerifyCertificateSignature checks cert's signature against an RSA public
// key. Unlike Certificate.CheckSignatureFrom it accepts SHA-1, which site
// certificates use on purpose.
func VerifyCertificateSignature(cert *x509.Certificate, pub crypto.PublicKey) error {
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("unsupported issuer key type %T", pub)
	}
	oid, err := signatureAlgorithmOID(cert)
	if err != nil {
		return err
	}
	alg, ok := SignatureAlgorithmByOID(oid)
	if !ok {
		return fmt.Errorf("unsupported signature algorithm %s", oid)
	}

	h := alg.Hash.New()
	h.Write(cert.RawTBSCertificate)
	return rsa.VerifyPKCS1v15(rsaPub, alg.Hash, h.Sum(nil), cert.Signature)
}
