package forge

import (
	"crypto/x509"
	"fmt"
	"io"
	"math/big"

	pkicrypto "github.com/RetendoNetwork/SSSL/internal/crypto"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// KeyIDSize is the length of the random key identifier placed in the
// forged CA's authorityKeyIdentifier.
const KeyIDSize = 16

// ForgeCA clones root onto caKey.
//
// Serial number, validity, subject and extensions are copied from root
// byte for byte, and the issuer is root's subject. The authority key
// identifier is rebuilt with KeyIDSize random bytes read from random while
// its issuer and serial keep pointing at root's original issuer and serial.
// The result is signed by caKey with SHA-256. caKey is never compared with
// root's own key.
func ForgeCA(random io.Reader, root *x509.Certificate, caKey *pkicrypto.KeyPair) (*x509.Certificate, error) {
	keyID := make([]byte, KeyIDSize)
	if _, err := io.ReadFull(random, keyID); err != nil {
		return nil, fmt.Errorf("%w: failed to read key identifier: %v", ErrKeyGeneration, err)
	}

	aki := x509util.AuthorityKeyIdentifier{
		KeyID:        keyID,
		Issuer:       root.RawIssuer,
		SerialNumber: root.SerialNumber,
	}
	rootExts, err := x509util.CertificateExtensions(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}
	exts := x509util.ReplaceAuthorityKeyID(rootExts, aki)

	validity, err := x509util.RawValidity(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}

	spki, err := x509.MarshalPKIXPublicKey(caKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal CA public key: %v", ErrSigning, err)
	}

	return x509util.SignCertificate(random, &x509util.CertificateTemplate{
		SerialNumber: new(big.Int).Set(root.SerialNumber),
		Issuer:       root.RawSubject,
		Subject:      root.RawSubject,
		Validity:     validity,
		PublicKey:    spki,
		Extensions:   exts,
	}, x509util.SHA256WithRSA, caKey.PrivateKey)
}
