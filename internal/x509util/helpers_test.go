package x509util

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/RetendoNetwork/SSSL/internal/testutil"
)

// newTestLeaf issues a SHA-1 site certificate for cn from root.
func newTestLeaf(t *testing.T, root *testutil.RootCA, cn string) *x509.Certificate {
	t.Helper()

	siteKey := testutil.RSAKey(t, "site", 1024)
	spki, err := x509.MarshalPKIXPublicKey(&siteKey.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey() error = %v", err)
	}
	subject, err := asn1.Marshal(pkix.Name{CommonName: cn}.ToRDNSequence())
	if err != nil {
		t.Fatalf("marshal subject failed: %v", err)
	}
	notBefore := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v, err := MarshalValidity(notBefore, notBefore.Add(365*24*time.Hour))
	if err != nil {
		t.Fatalf("MarshalValidity() error = %v", err)
	}

	cert, err := SignCertificate(rand.Reader, &CertificateTemplate{
		SerialNumber: big.NewInt(1700000000000),
		Issuer:       root.Cert.RawSubject,
		Subject:      subject,
		Validity:     v,
		PublicKey:    spki,
	}, SHA1WithRSA, root.Key)
	if err != nil {
		t.Fatalf("SignCertificate() error = %v", err)
	}
	return cert
}
