// Package crypto provides the RSA key material used by the forging engine.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	// ErrInvalidPrivateKey indicates a supplied private key does not parse
	// or is not an RSA key.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrKeyGeneration indicates the random source or RSA generation failed.
	ErrKeyGeneration = errors.New("key generation failed")
)

// Role identifies what a key pair is used for.
type Role string

const (
	RoleCA   Role = "ca"
	RoleSite Role = "site"
)

// Bits returns the RSA modulus size generated for the role.
func (r Role) Bits() int {
	switch r {
	case RoleCA:
		return 2048
	case RoleSite:
		return 1024
	default:
		return 0
	}
}

// KeyPair holds an RSA private key and the public key derived from it.
type KeyPair struct {
	Role       Role
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// KeyProvider loads or generates key pairs using an injected random source.
type KeyProvider struct {
	random io.Reader
}

// NewKeyProvider creates a KeyProvider. A nil random source selects
// crypto/rand.
func NewKeyProvider(random io.Reader) *KeyProvider {
	if random == nil {
		random = rand.Reader
	}
	return &KeyProvider{random: random}
}

// Obtain returns the key pair for role. When supplied is non-empty it must
// be a PEM-encoded RSA private key; otherwise a fresh key of role.Bits() is
// generated.
func (p *KeyProvider) Obtain(role Role, supplied []byte) (*KeyPair, error) {
	bits := role.Bits()
	if bits == 0 {
		return nil, fmt.Errorf("unknown key role %q", role)
	}

	if len(supplied) > 0 {
		priv, err := ParseRSAPrivateKeyPEM(supplied)
		if err != nil {
			return nil, err
		}
		return newKeyPair(role, priv), nil
	}

	priv, err := GenerateRSAKey(p.random, bits)
	if err != nil {
		return nil, err
	}
	return newKeyPair(role, priv), nil
}

// GenerateRSAKey generates an RSA private key with the given modulus size.
func GenerateRSAKey(random io.Reader, bits int) (*rsa.PrivateKey, error) {
	priv, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: rsa-%d: %v", ErrKeyGeneration, bits, err)
	}
	return priv, nil
}

// ParseRSAPrivateKeyPEM parses a PKCS#1 ("RSA PRIVATE KEY") or PKCS#8
// ("PRIVATE KEY") PEM block holding an RSA key.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPrivateKey)
	}

	var priv *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		priv = k
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		rsaKey, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected an RSA key, got %T", ErrInvalidPrivateKey, k)
		}
		priv = rsaKey
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrInvalidPrivateKey, block.Type)
	}

	if priv.N == nil || priv.N.Sign() <= 0 || priv.E < 2 {
		return nil, fmt.Errorf("%w: missing modulus or public exponent", ErrInvalidPrivateKey)
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return priv, nil
}

// newKeyPair derives the public half from the private key's modulus and
// exponent.
func newKeyPair(role Role, priv *rsa.PrivateKey) *KeyPair {
	return &KeyPair{
		Role:       role,
		PrivateKey: priv,
		PublicKey: &rsa.PublicKey{
			N: new(big.Int).Set(priv.N),
			E: priv.E,
		},
	}
}

// MarshalPrivateKeyPEM encodes an RSA private key as a PKCS#1 PEM block.
func MarshalPrivateKeyPEM(priv *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}
