// Package testutil builds certificates and keys for tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// OIDPrivateTest is a private extension carried by fixture roots so tests can
// check that unknown extensions survive cloning.
var OIDPrivateTest = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 55555, 1, 1}

var oidAuthorityKeyID = asn1.ObjectIdentifier{2, 5, 29, 35}

type authorityKeyID struct {
	KeyID  []byte          `asn1:"optional,tag:0"`
	Issuer []asn1.RawValue `asn1:"optional,tag:1"`
	Serial *big.Int        `asn1:"optional,tag:2"`
}

// AKIValue encodes an authorityKeyIdentifier with a directoryName issuer.
func AKIValue(t testing.TB, keyID, issuerName []byte, serial *big.Int) []byte {
	t.Helper()
	value, err := asn1.Marshal(authorityKeyID{
		KeyID: keyID,
		Issuer: []asn1.RawValue{{
			Class:      asn1.ClassContextSpecific,
			Tag:        4,
			IsCompound: true,
			Bytes:      issuerName,
		}},
		Serial: serial,
	})
	if err != nil {
		t.Fatalf("marshal AKI failed: %v", err)
	}
	return value
}

// ExplicitFalseExtension encodes an Extension whose critical field is
// present and FALSE. Go's encoders never produce this form.
func ExplicitFalseExtension(t testing.TB, oid asn1.ObjectIdentifier, value []byte) []byte {
	t.Helper()
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
		b.AddASN1Boolean(false)
		b.AddASN1OctetString(value)
	})
	der, err := b.Bytes()
	if err != nil {
		t.Fatalf("encode extension failed: %v", err)
	}
	return der
}

var (
	keyMu    sync.Mutex
	keyCache = map[string]*rsa.PrivateKey{}
)

// RSAKey returns an RSA key generated once per name and bit size for the
// whole test binary.
func RSAKey(t testing.TB, name string, bits int) *rsa.PrivateKey {
	t.Helper()
	keyMu.Lock()
	defer keyMu.Unlock()

	id := name + "/" + strconv.Itoa(bits)
	if k, ok := keyCache[id]; ok {
		return k
	}
	k, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("GenerateKey(%d) failed: %v", bits, err)
	}
	keyCache[id] = k
	return k
}

// KeyPEM encodes key as a PKCS#1 PEM block.
func KeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

// PKCS8KeyPEM encodes key as a PKCS#8 PEM block.
func PKCS8KeyPEM(t testing.TB, key any) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey failed: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// RootCA is a fixture root certificate in every encoding tests need.
type RootCA struct {
	Cert *x509.Certificate
	DER  []byte
	PEM  []byte
	Key  *rsa.PrivateKey
}

// RootOptions tweaks the fixture root.
type RootOptions struct {
	// WithoutAKI omits the authorityKeyIdentifier extension.
	WithoutAKI bool
	// CriticalAKI marks the authorityKeyIdentifier critical.
	CriticalAKI bool
	// CrossSigned issues the root from a separate parent so its issuer
	// differs from its subject.
	CrossSigned bool
}

// NewRootCA returns a self-signed root CA carrying basicConstraints,
// keyUsage, subjectKeyIdentifier, a private extension and an
// authorityKeyIdentifier with key id, issuer and serial.
func NewRootCA(t testing.TB) *RootCA {
	t.Helper()
	return NewRootCAWithOptions(t, RootOptions{})
}

// NewRootCAWithOptions is NewRootCA with options.
func NewRootCAWithOptions(t testing.TB, opts RootOptions) *RootCA {
	t.Helper()

	key := RSAKey(t, "root", 2048)
	subject := pkix.Name{
		Country:      []string{"US"},
		Organization: []string{"Nintendo Co., Ltd"},
		CommonName:   "Nintendo CA - G3",
	}
	serial := big.NewInt(0x0102030405)
	notBefore := time.Date(2010, 6, 1, 12, 0, 0, 0, time.UTC)
	notAfter := time.Date(2037, 12, 31, 23, 59, 59, 0, time.UTC)

	parent := &x509.Certificate{Subject: subject}
	parentKey := key
	if opts.CrossSigned {
		parent = &x509.Certificate{
			Subject: pkix.Name{Organization: []string{"Legacy Trust"}, CommonName: "Legacy Root"},
		}
		parentKey = RSAKey(t, "parent", 2048)
	}

	issuerDER, err := asn1.Marshal(parent.Subject.ToRDNSequence())
	if err != nil {
		t.Fatalf("marshal issuer failed: %v", err)
	}
	skid := sha1.Sum(x509.MarshalPKCS1PublicKey(&key.PublicKey))

	extra := []pkix.Extension{
		{Id: OIDPrivateTest, Critical: false, Value: []byte{0x0c, 0x05, 'h', 'e', 'l', 'l', 'o'}},
	}
	if !opts.WithoutAKI {
		extra = append(extra, pkix.Extension{
			Id:       oidAuthorityKeyID,
			Critical: opts.CriticalAKI,
			Value:    AKIValue(t, skid[:], issuerDER, big.NewInt(7)),
		})
	}

	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          skid[:],
		SignatureAlgorithm:    x509.SHA256WithRSA,
		ExtraExtensions:       extra,
	}
	if opts.CrossSigned {
		parent.PublicKey = &parentKey.PublicKey
	} else {
		parent = tmpl
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatalf("CreateCertificate failed: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate failed: %v", err)
	}
	return &RootCA{
		Cert: cert,
		DER:  der,
		PEM:  pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		Key:  key,
	}
}

// NewCSRPEM creates a PEM certification request for cn signed by key.
func NewCSRPEM(t testing.TB, key *rsa.PrivateKey, cn string, exts ...pkix.Extension) []byte {
	t.Helper()
	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:         pkix.Name{CommonName: cn, Organization: []string{"Requester"}},
		ExtraExtensions: exts,
	}, key)
	if err != nil {
		t.Fatalf("CreateCertificateRequest failed: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der})
}
