package forge

import (
	"crypto/x509"
	"fmt"

	pkicrypto "github.com/RetendoNetwork/SSSL/internal/crypto"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// Artifact file names.
const (
	FileForgedCA    = "forged-ca.pem"
	FileForgedCAKey = "forged-ca-private-key.pem"
	FileSiteCert    = "ssl-cert.pem"
	FileSiteKey     = "ssl-cert-private-key.pem"
	FileCSR         = "csr.csr"
	FileChain       = "cert-chain.pem"
)

// Artifact is one named output of a forging run.
type Artifact struct {
	Name    string
	Data    []byte
	Private bool // holds private key material
}

// Artifacts holds the PEM outputs of a forging run.
type Artifacts struct {
	ForgedCA    []byte
	ForgedCAKey []byte
	SiteCert    []byte
	SiteKey     []byte
	CSR         []byte
	Chain       []byte
}

// List returns the artifacts in write order.
func (a *Artifacts) List() []Artifact {
	return []Artifact{
		{Name: FileForgedCA, Data: a.ForgedCA},
		{Name: FileForgedCAKey, Data: a.ForgedCAKey, Private: true},
		{Name: FileSiteCert, Data: a.SiteCert},
		{Name: FileSiteKey, Data: a.SiteKey, Private: true},
		{Name: FileCSR, Data: a.CSR},
		{Name: FileChain, Data: a.Chain},
	}
}

// Map returns the artifacts keyed by file name.
func (a *Artifacts) Map() map[string][]byte {
	out := make(map[string][]byte, 6)
	for _, art := range a.List() {
		out[art.Name] = art.Data
	}
	return out
}

// Sink persists artifacts.
type Sink interface {
	Write(name string, data []byte, private bool) error
}

// WriteTo hands every artifact to sink in order. It stops at the first
// failure; artifacts already written are left in place.
func (a *Artifacts) WriteTo(sink Sink) error {
	for _, art := range a.List() {
		if err := sink.Write(art.Name, art.Data, art.Private); err != nil {
			return stageError(StageWrite, fmt.Errorf("%w: %s: %v", ErrWrite, art.Name, err))
		}
	}
	return nil
}

// Assemble serializes the forged CA, the site certificate, both private keys
// and the CSR. The chain is the site certificate followed by the forged CA.
func Assemble(forgedCA *x509.Certificate, caKey *pkicrypto.KeyPair, siteCert *x509.Certificate, siteKey *pkicrypto.KeyPair, csr *x509.CertificateRequest) (*Artifacts, error) {
	if forgedCA == nil || siteCert == nil || csr == nil || caKey == nil || siteKey == nil {
		return nil, fmt.Errorf("%w: incomplete chain", ErrInvalidConfig)
	}

	caPEM := x509util.EncodeCertificatePEM(forgedCA)
	sitePEM := x509util.EncodeCertificatePEM(siteCert)

	chain := make([]byte, 0, len(sitePEM)+len(caPEM))
	chain = append(chain, sitePEM...)
	chain = append(chain, caPEM...)

	return &Artifacts{
		ForgedCA:    caPEM,
		ForgedCAKey: pkicrypto.MarshalPrivateKeyPEM(caKey.PrivateKey),
		SiteCert:    sitePEM,
		SiteKey:     pkicrypto.MarshalPrivateKeyPEM(siteKey.PrivateKey),
		CSR:         x509util.EncodeCSRPEM(csr),
		Chain:       chain,
	}, nil
}
