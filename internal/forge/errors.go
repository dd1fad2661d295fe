// Package forge clones a root CA certificate onto new key material and
// issues a site certificate from the clone.
package forge

import (
	"errors"
	"fmt"

	"github.com/RetendoNetwork/SSSL/internal/config"
	pkicrypto "github.com/RetendoNetwork/SSSL/internal/crypto"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// Pipeline stages reported in Error.Stage.
const (
	StageDecode    = "decode"
	StageCAKey     = "ca-key"
	StageSiteKey   = "site-key"
	StageForgeCA   = "forge-ca"
	StageCSR       = "csr"
	StageIssueLeaf = "issue-leaf"
	StageAssemble  = "assemble"
	StageWrite     = "write"
	StageAudit     = "audit"
)

// Sentinel errors. Use errors.Is() to check for these through the chain.
var (
	// ErrMalformedCertificate indicates the root CA bytes do not decode.
	ErrMalformedCertificate = x509util.ErrMalformedCertificate

	// ErrInvalidPrivateKey indicates a supplied key is not a usable RSA key.
	ErrInvalidPrivateKey = pkicrypto.ErrInvalidPrivateKey

	// ErrInvalidCSR indicates a supplied CSR does not parse or verify.
	ErrInvalidCSR = x509util.ErrInvalidCSR

	// ErrKeyGeneration indicates the random source or RSA generation failed.
	ErrKeyGeneration = pkicrypto.ErrKeyGeneration

	// ErrSigning indicates a signature could not be produced.
	ErrSigning = x509util.ErrSigning

	// ErrWrite indicates an artifact could not be persisted.
	ErrWrite = errors.New("write failed")

	// ErrAudit indicates an audit event could not be recorded.
	ErrAudit = errors.New("audit write failed")

	// ErrInvalidConfig indicates the entry point received unusable input. It
	// is the same value as config.ErrInvalidConfig.
	ErrInvalidConfig = config.ErrInvalidConfig
)

// Error is a forging failure tagged with the stage that produced it.
type Error struct {
	Stage string // one of the Stage* constants
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("forge %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

func stageError(stage string, err error) *Error {
	return &Error{Stage: stage, Err: err}
}
