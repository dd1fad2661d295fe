package forge

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"io"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	pkicrypto "github.com/RetendoNetwork/SSSL/internal/crypto"
	"github.com/RetendoNetwork/SSSL/internal/testutil"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// keyPair loads a cached test key through the key provider.
func keyPair(t *testing.T, role pkicrypto.Role, name string) *pkicrypto.KeyPair {
	t.Helper()
	key := testutil.RSAKey(t, name, role.Bits())
	kp, err := pkicrypto.NewKeyProvider(nil).Obtain(role, testutil.KeyPEM(key))
	require.NoError(t, err)
	return kp
}

// failingReader fails every read.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errFailingReader }

var errFailingReader = errors.New("random source exhausted")

// countingReader counts the bytes read from r.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// resignRoot re-signs the fixture root with a new serial and extra encoded
// extensions appended after its own.
func resignRoot(t *testing.T, root *testutil.RootCA, serial *big.Int, extra ...[]byte) *x509.Certificate {
	t.Helper()
	exts, err := x509util.CertificateExtensions(root.Cert)
	require.NoError(t, err)
	for _, raw := range extra {
		var ext pkix.Extension
		_, err := asn1.Unmarshal(raw, &ext)
		require.NoError(t, err)
		exts = append(exts, x509util.OpaqueExtension{Extension: ext, Raw: raw})
	}
	validity, err := x509util.RawValidity(root.Cert)
	require.NoError(t, err)

	cert, err := x509util.SignCertificate(rand.Reader, &x509util.CertificateTemplate{
		SerialNumber: serial,
		Issuer:       root.Cert.RawIssuer,
		Subject:      root.Cert.RawSubject,
		Validity:     validity,
		PublicKey:    root.Cert.RawSubjectPublicKeyInfo,
		Extensions:   exts,
	}, x509util.SHA256WithRSA, root.Key)
	require.NoError(t, err)
	return cert
}
