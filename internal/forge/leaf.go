package forge

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// LeafValidity is the lifetime of an issued site certificate.
const LeafValidity = 3650 * 24 * time.Hour

// IssueLeaf issues a minimal site certificate for csr under forgedCA.
//
// The serial number is now in Unix milliseconds, so it increases across
// runs but is predictable. The certificate carries no extensions and is
// signed by caKey with SHA-1, which the target client requires.
func IssueLeaf(random io.Reader, csr *x509.CertificateRequest, forgedCA *x509.Certificate, caKey crypto.Signer, now time.Time) (*x509.Certificate, error) {
	if err := csr.CheckSignature(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSR, err)
	}

	notBefore := now.UTC().Truncate(time.Second)
	validity, err := x509util.MarshalValidity(notBefore, notBefore.Add(LeafValidity))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal validity: %v", ErrSigning, err)
	}

	return x509util.SignCertificate(random, &x509util.CertificateTemplate{
		SerialNumber: big.NewInt(now.UnixMilli()),
		Issuer:       forgedCA.RawSubject,
		Subject:      csr.RawSubject,
		Validity:     validity,
		PublicKey:    csr.RawSubjectPublicKeyInfo,
	}, x509util.SHA1WithRSA, caKey)
}
