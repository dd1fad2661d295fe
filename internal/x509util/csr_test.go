package x509util

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/RetendoNetwork/SSSL/internal/testutil"
)

func TestU_PrepareCSR_Fresh(t *testing.T) {
	siteKey := testutil.RSAKey(t, "site", 1024)

	csr, err := PrepareCSR(rand.Reader, nil, "*.example.com", &siteKey.PublicKey, siteKey)
	if err != nil {
		t.Fatalf("PrepareCSR() error = %v", err)
	}
	if csr.Subject.CommonName != "*.example.com" {
		t.Errorf("CommonName = %q, want *.example.com", csr.Subject.CommonName)
	}
	if len(csr.Subject.Names) != 1 {
		t.Errorf("subject has %d attributes, want only the common name", len(csr.Subject.Names))
	}
	if csr.SignatureAlgorithm != x509.SHA256WithRSA {
		t.Errorf("SignatureAlgorithm = %v, want SHA256-RSA", csr.SignatureAlgorithm)
	}
	if !siteKey.PublicKey.Equal(csr.PublicKey) {
		t.Error("CSR should carry the site public key")
	}
	if err := csr.CheckSignature(); err != nil {
		t.Errorf("CheckSignature() error = %v", err)
	}
}

func TestU_PrepareCSR_Supplied(t *testing.T) {
	siteKey := testutil.RSAKey(t, "site", 1024)
	requester := testutil.RSAKey(t, "requester", 1024)
	ext := pkix.Extension{Id: testutil.OIDPrivateTest, Value: []byte{0x05, 0x00}}
	supplied := testutil.NewCSRPEM(t, requester, "old.example.org", ext)

	csr, err := PrepareCSR(rand.Reader, supplied, "www.example.com", &siteKey.PublicKey, siteKey)
	if err != nil {
		t.Fatalf("PrepareCSR() error = %v", err)
	}
	if csr.Subject.CommonName != "www.example.com" {
		t.Errorf("CommonName = %q, want www.example.com", csr.Subject.CommonName)
	}
	if len(csr.Subject.Organization) != 0 {
		t.Errorf("Organization = %v, want the supplied subject replaced", csr.Subject.Organization)
	}
	if !siteKey.PublicKey.Equal(csr.PublicKey) {
		t.Error("supplied public key should be replaced by the site key")
	}
	if FindExtension(csr.Extensions, testutil.OIDPrivateTest) == nil {
		t.Error("requested extensions should be kept")
	}
}

func TestU_PrepareCSR_Errors(t *testing.T) {
	siteKey := testutil.RSAKey(t, "site", 1024)
	other := testutil.RSAKey(t, "other", 2048)
	root := testutil.NewRootCA(t)

	t.Run("[U] PrepareCSR: garbage", func(t *testing.T) {
		_, err := PrepareCSR(rand.Reader, []byte("nope"), "a.example.com", &siteKey.PublicKey, siteKey)
		if !errors.Is(err, ErrInvalidCSR) {
			t.Errorf("error = %v, want ErrInvalidCSR", err)
		}
	})

	t.Run("[U] PrepareCSR: certificate instead of CSR", func(t *testing.T) {
		_, err := PrepareCSR(rand.Reader, root.PEM, "a.example.com", &siteKey.PublicKey, siteKey)
		if !errors.Is(err, ErrInvalidCSR) {
			t.Errorf("error = %v, want ErrInvalidCSR", err)
		}
	})

	t.Run("[U] PrepareCSR: corrupt request body", func(t *testing.T) {
		bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: []byte{0x30, 0x00}})
		_, err := PrepareCSR(rand.Reader, bad, "a.example.com", &siteKey.PublicKey, siteKey)
		if !errors.Is(err, ErrInvalidCSR) {
			t.Errorf("error = %v, want ErrInvalidCSR", err)
		}
	})

	t.Run("[U] PrepareCSR: key mismatch", func(t *testing.T) {
		_, err := PrepareCSR(rand.Reader, nil, "a.example.com", &other.PublicKey, siteKey)
		if !errors.Is(err, ErrSigning) {
			t.Errorf("error = %v, want ErrSigning", err)
		}
	})
}

func TestU_ParseCSRPEM_LegacyType(t *testing.T) {
	key := testutil.RSAKey(t, "requester", 1024)
	block, _ := pem.Decode(testutil.NewCSRPEM(t, key, "legacy.example.com"))
	legacy := pem.EncodeToMemory(&pem.Block{Type: "NEW CERTIFICATE REQUEST", Bytes: block.Bytes})

	csr, err := ParseCSRPEM(legacy)
	if err != nil {
		t.Fatalf("ParseCSRPEM() error = %v", err)
	}
	if !bytes.Equal(EncodeCSRPEM(csr), pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: block.Bytes})) {
		t.Error("EncodeCSRPEM() should re-emit the request under the standard label")
	}
}
