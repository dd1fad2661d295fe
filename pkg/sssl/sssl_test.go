package sssl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RetendoNetwork/SSSL/internal/testutil"
)

func TestF_ForgeAndWrite(t *testing.T) {
	root := testutil.NewRootCA(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.jsonl")

	auditLog, err := OpenAuditLog(logPath)
	require.NoError(t, err)

	format, err := ParseFormat("pem")
	require.NoError(t, err)

	res, err := New(WithAudit(auditLog)).ForgeCertificateChain(Config{
		RootCA:         root.PEM,
		RootCAFormat:   format,
		CAPrivateKey:   testutil.KeyPEM(testutil.RSAKey(t, "ca", 2048)),
		SitePrivateKey: testutil.KeyPEM(testutil.RSAKey(t, "site", 1024)),
		CommonName:     "*.example.com",
	})
	require.NoError(t, err)
	require.NoError(t, auditLog.Close())

	out := filepath.Join(dir, "out")
	require.NoError(t, res.Artifacts.WriteTo(NewDirSink(out)))
	for _, name := range []string{"forged-ca.pem", "forged-ca-private-key.pem", "ssl-cert.pem",
		"ssl-cert-private-key.pem", "csr.csr", "cert-chain.pem"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	count, err := VerifyAuditLog(logPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestU_ForgeCertificateChain_Malformed(t *testing.T) {
	_, err := ForgeCertificateChain(Config{RootCA: []byte{0x30, 0x00}, CommonName: "a.example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedCertificate))

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "decode", fe.Stage)
}
