package forge

import (
	"crypto/rand"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkicrypto "github.com/RetendoNetwork/SSSL/internal/crypto"
	"github.com/RetendoNetwork/SSSL/internal/testutil"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

func newForgedCA(t *testing.T) (*x509.Certificate, *pkicrypto.KeyPair) {
	t.Helper()
	caKey := keyPair(t, pkicrypto.RoleCA, "ca")
	forged, err := ForgeCA(rand.Reader, testutil.NewRootCA(t).Cert, caKey)
	require.NoError(t, err)
	return forged, caKey
}

func newCSR(t *testing.T, cn string) (*x509.CertificateRequest, *pkicrypto.KeyPair) {
	t.Helper()
	siteKey := keyPair(t, pkicrypto.RoleSite, "site")
	csr, err := x509util.PrepareCSR(rand.Reader, nil, cn, siteKey.PublicKey, siteKey.PrivateKey)
	require.NoError(t, err)
	return csr, siteKey
}

func TestU_IssueLeaf(t *testing.T) {
	forged, caKey := newForgedCA(t)
	csr, siteKey := newCSR(t, "*.example.com")
	now := time.Date(2024, 6, 1, 12, 30, 45, 987654321, time.FixedZone("JST", 9*3600))

	leaf, err := IssueLeaf(rand.Reader, csr, forged, caKey.PrivateKey, now)
	require.NoError(t, err)

	assert.Equal(t, 3, leaf.Version)
	assert.Equal(t, now.UnixMilli(), leaf.SerialNumber.Int64())
	assert.Equal(t, forged.RawSubject, leaf.RawIssuer)
	assert.Equal(t, csr.RawSubject, leaf.RawSubject)
	assert.Equal(t, "*.example.com", leaf.Subject.CommonName)
	assert.True(t, siteKey.PublicKey.Equal(leaf.PublicKey))
	assert.Empty(t, leaf.Extensions)
	assert.Equal(t, x509.SHA1WithRSA, leaf.SignatureAlgorithm)

	wantNotBefore := time.Date(2024, 6, 1, 3, 30, 45, 0, time.UTC)
	assert.True(t, leaf.NotBefore.Equal(wantNotBefore), "NotBefore = %s", leaf.NotBefore)
	assert.Equal(t, LeafValidity, leaf.NotAfter.Sub(leaf.NotBefore))
	assert.Equal(t, 3650*24*time.Hour, leaf.NotAfter.Sub(leaf.NotBefore))

	require.NoError(t, x509util.VerifyCertificateSignature(leaf, caKey.PublicKey))
}

func TestU_IssueLeaf_SerialIncreases(t *testing.T) {
	forged, caKey := newForgedCA(t)
	csr, _ := newCSR(t, "www.example.com")
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	first, err := IssueLeaf(rand.Reader, csr, forged, caKey.PrivateKey, now)
	require.NoError(t, err)
	second, err := IssueLeaf(rand.Reader, csr, forged, caKey.PrivateKey, now.Add(time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 1, second.SerialNumber.Cmp(first.SerialNumber))
}

func TestU_IssueLeaf_BadCSRSignature(t *testing.T) {
	forged, caKey := newForgedCA(t)
	csr, _ := newCSR(t, "www.example.com")

	tampered := *csr
	tampered.Signature = append([]byte(nil), csr.Signature...)
	tampered.Signature[0] ^= 0xff

	_, err := IssueLeaf(rand.Reader, &tampered, forged, caKey.PrivateKey, time.Now())
	assert.ErrorIs(t, err, ErrInvalidCSR)
}

func TestU_IssueLeaf_WrongSigner(t *testing.T) {
	forged, _ := newForgedCA(t)
	csr, _ := newCSR(t, "www.example.com")
	other := keyPair(t, pkicrypto.RoleCA, "unrelated")

	// Signing succeeds; the leaf just does not verify under the forged CA.
	leaf, err := IssueLeaf(rand.Reader, csr, forged, other.PrivateKey, time.Now())
	require.NoError(t, err)
	assert.Error(t, x509util.VerifyCertificateSignature(leaf, forged.PublicKey))
}
