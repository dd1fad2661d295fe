// Package sssl provides the public API for the certificate chain forging
// engine in internal/forge.
//
// Roots with a negative serial number are rejected by crypto/x509 unless
// the x509negativeserial setting is enabled. Binaries that forge from such
// roots should declare
//
//	//go:debug x509negativeserial=1
//
// in their main package, or run with GODEBUG=x509negativeserial=1.
package sssl

import (
	"github.com/RetendoNetwork/SSSL/internal/audit"
	"github.com/RetendoNetwork/SSSL/internal/forge"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

type (
	// Config is the input of one forging run.
	Config = forge.Config
	// Result is everything produced by one forging run.
	Result = forge.Result
	// Artifacts holds the six PEM outputs of a run.
	Artifacts = forge.Artifacts
	// Engine runs the forging pipeline.
	Engine = forge.Engine
	// Option configures an Engine.
	Option = forge.Option
	// Sink persists artifacts.
	Sink = forge.Sink
	// Error is a failure tagged with the pipeline stage.
	Error = forge.Error
	// Format is the encoding of the root CA input.
	Format = x509util.Format
	// AuditWriter receives audit events of forging runs.
	AuditWriter = audit.Writer
	// AuditActor identifies who ran the engine in audit events.
	AuditActor = audit.Actor
)

// Root CA encodings.
const (
	FormatDER  = x509util.FormatDER
	FormatPEM  = x509util.FormatPEM
	FormatAuto = x509util.FormatAuto
)

// Sentinel errors.
var (
	ErrMalformedCertificate = forge.ErrMalformedCertificate
	ErrInvalidPrivateKey    = forge.ErrInvalidPrivateKey
	ErrInvalidCSR           = forge.ErrInvalidCSR
	ErrKeyGeneration        = forge.ErrKeyGeneration
	ErrSigning              = forge.ErrSigning
	ErrWrite                = forge.ErrWrite
	ErrInvalidConfig        = forge.ErrInvalidConfig
	ErrAudit                = forge.ErrAudit
)

// Engine options.
var (
	WithRand       = forge.WithRand
	WithClock      = forge.WithClock
	WithLogger     = forge.WithLogger
	WithAudit      = forge.WithAudit
	WithAuditActor = forge.WithAuditActor
)

// New creates an Engine.
func New(opts ...Option) *Engine {
	return forge.New(opts...)
}

// ForgeCertificateChain runs the pipeline with crypto/rand and the wall clock.
func ForgeCertificateChain(cfg Config) (*Result, error) {
	return forge.ForgeCertificateChain(cfg)
}

// NewDirSink returns a Sink writing files into dir.
func NewDirSink(dir string) Sink {
	return forge.NewDirSink(dir)
}

// ParseFormat parses "der", "pem" or "auto".
func ParseFormat(s string) (Format, error) {
	return x509util.ParseFormat(s)
}

// OpenAuditLog opens or creates a hash-chained JSONL audit log.
func OpenAuditLog(path string) (AuditWriter, error) {
	w, err := audit.NewFileWriter(path)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// VerifyAuditLog checks the hash chain of an audit log and returns the
// number of events that verified.
func VerifyAuditLog(path string) (int, error) {
	return audit.VerifyChain(path)
}
