package forge

import (
	"crypto/rand"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RetendoNetwork/SSSL/internal/audit"
	pkicrypto "github.com/RetendoNetwork/SSSL/internal/crypto"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// Config is the input of one forging run. Optional byte slices are left nil
// to have the engine generate the corresponding material.
type Config struct {
	RootCA         []byte
	RootCAFormat   x509util.Format
	CAPrivateKey   []byte
	SitePrivateKey []byte
	CSR            []byte
	CommonName     string
}

// Result is everything produced by one forging run.
type Result struct {
	Root      *x509.Certificate
	ForgedCA  *x509.Certificate
	CAKey     *pkicrypto.KeyPair
	SiteKey   *pkicrypto.KeyPair
	CSR       *x509.CertificateRequest
	SiteCert  *x509.Certificate
	Artifacts *Artifacts

	CAKeySupplied   bool
	SiteKeySupplied bool
}

// Engine runs the forging pipeline. It holds no per-run state and is safe
// for concurrent use.
type Engine struct {
	random io.Reader
	seeded bool
	now    func() time.Time
	logger *zap.Logger
	audit  audit.Writer
	actor  *audit.Actor
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for key generation, key
// identifiers and signatures. Keys are then generated one after the other,
// CA first, so a deterministic reader yields reproducible runs.
func WithRand(r io.Reader) Option {
	return func(e *Engine) {
		e.random = r
		e.seeded = r != nil
	}
}

// WithClock sets the time source used for the site certificate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithAudit records every run in w. The engine does not close w.
func WithAudit(w audit.Writer) Option {
	return func(e *Engine) { e.audit = w }
}

// WithAuditActor overrides the actor recorded in audit events.
func WithAuditActor(actor audit.Actor) Option {
	return func(e *Engine) { e.actor = &actor }
}

// New creates an Engine. Without options it uses crypto/rand, the wall
// clock, a no-op logger and no audit log.
func New(opts ...Option) *Engine {
	e := &Engine{
		random: rand.Reader,
		now:    time.Now,
		logger: zap.NewNop(),
		audit:  audit.NopWriter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.random == nil {
		e.random = rand.Reader
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.audit == nil {
		e.audit = audit.NopWriter{}
	}
	return e
}

// ForgeCertificateChain runs the pipeline with default settings.
func ForgeCertificateChain(cfg Config) (*Result, error) {
	return New().ForgeCertificateChain(cfg)
}

// ForgeCertificateChain decodes the root CA, obtains both key pairs, forges
// the CA, prepares the CSR, issues the site certificate and assembles the
// artifacts. Nothing is written; pass Result.Artifacts to a Sink.
func (e *Engine) ForgeCertificateChain(cfg Config) (*Result, error) {
	res, err := e.run(cfg)
	if err != nil {
		e.recordFailure(cfg.CommonName, err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) run(cfg Config) (*Result, error) {
	cn := strings.TrimSpace(cfg.CommonName)
	if cn == "" {
		return nil, stageError(StageDecode, fmt.Errorf("%w: common name is required", ErrInvalidConfig))
	}
	if len(cfg.RootCA) == 0 {
		return nil, stageError(StageDecode, fmt.Errorf("%w: root CA certificate is required", ErrInvalidConfig))
	}
	format := cfg.RootCAFormat
	if format == "" {
		format = x509util.FormatDER
	}

	log := e.logger.With(zap.String("common_name", cn))

	root, err := x509util.DecodeCertificate(cfg.RootCA, format)
	if err != nil {
		return nil, stageError(StageDecode, err)
	}
	log.Debug("decoded root CA",
		zap.String("subject", root.Subject.String()),
		zap.String("serial", root.SerialNumber.String()),
		zap.Int("extensions", len(root.Extensions)))

	random := &lockedReader{r: e.random}
	caKey, siteKey, err := e.obtainKeys(random, cfg)
	if err != nil {
		return nil, err
	}

	forged, err := ForgeCA(random, root, caKey)
	if err != nil {
		return nil, stageError(StageForgeCA, err)
	}
	log.Info("forged CA certificate",
		zap.String("subject", forged.Subject.String()),
		zap.String("serial", forged.SerialNumber.String()))
	if err := e.record(audit.EventCAForged, forged, audit.Context{
		CommonName:  cn,
		Algorithm:   x509util.SHA256WithRSA.Name,
		KeySupplied: len(cfg.CAPrivateKey) > 0,
	}); err != nil {
		return nil, err
	}

	csr, err := x509util.PrepareCSR(random, cfg.CSR, cn, siteKey.PublicKey, siteKey.PrivateKey)
	if err != nil {
		return nil, stageError(StageCSR, err)
	}

	site, err := IssueLeaf(random, csr, forged, caKey.PrivateKey, e.now())
	if err != nil {
		return nil, stageError(StageIssueLeaf, err)
	}
	log.Info("issued site certificate",
		zap.String("serial", site.SerialNumber.String()),
		zap.Time("not_after", site.NotAfter))
	if err := e.record(audit.EventSiteCertIssued, site, audit.Context{
		CommonName:  cn,
		Algorithm:   x509util.SHA1WithRSA.Name,
		KeySupplied: len(cfg.SitePrivateKey) > 0,
	}); err != nil {
		return nil, err
	}

	artifacts, err := Assemble(forged, caKey, site, siteKey, csr)
	if err != nil {
		return nil, stageError(StageAssemble, err)
	}

	return &Result{
		Root:      root,
		ForgedCA:  forged,
		CAKey:     caKey,
		SiteKey:   siteKey,
		CSR:       csr,
		SiteCert:  site,
		Artifacts: artifacts,

		CAKeySupplied:   len(cfg.CAPrivateKey) > 0,
		SiteKeySupplied: len(cfg.SitePrivateKey) > 0,
	}, nil
}

// record writes a success event for cert.
func (e *Engine) record(eventType audit.EventType, cert *x509.Certificate, ctx audit.Context) error {
	objType := "site_certificate"
	if eventType == audit.EventCAForged {
		objType = "ca_certificate"
	}
	event := e.newEvent(eventType, audit.ResultSuccess).
		WithObject(audit.Object{
			Type:    objType,
			Serial:  cert.SerialNumber.String(),
			Subject: cert.Subject.String(),
			Issuer:  cert.Issuer.String(),
		}).
		WithContext(ctx)
	if err := e.audit.Write(event); err != nil {
		return stageError(StageAudit, fmt.Errorf("%w: %v", ErrAudit, err))
	}
	return nil
}

// recordFailure writes a failure event. The run has already failed, so an
// audit error is only logged.
func (e *Engine) recordFailure(cn string, runErr error) {
	ctx := audit.Context{CommonName: strings.TrimSpace(cn), Reason: runErr.Error()}
	var fe *Error
	if errors.As(runErr, &fe) {
		ctx.Stage = fe.Stage
	}
	event := e.newEvent(audit.EventForgeFailed, audit.ResultFailure).WithContext(ctx)
	if err := e.audit.Write(event); err != nil {
		e.logger.Error("failed to record audit event", zap.Error(err))
	}
}

func (e *Engine) newEvent(eventType audit.EventType, result audit.Result) *audit.Event {
	event := audit.NewEvent(eventType, result, e.now())
	if e.actor != nil {
		event.WithActor(*e.actor)
	}
	return event
}

// obtainKeys loads or generates the CA and site key pairs. With the
// default random source both run concurrently.
func (e *Engine) obtainKeys(random io.Reader, cfg Config) (caKey, siteKey *pkicrypto.KeyPair, err error) {
	provider := pkicrypto.NewKeyProvider(random)
	obtainCA := func() (err error) {
		caKey, err = e.obtainKey(provider, pkicrypto.RoleCA, cfg.CAPrivateKey, StageCAKey)
		return err
	}
	obtainSite := func() (err error) {
		siteKey, err = e.obtainKey(provider, pkicrypto.RoleSite, cfg.SitePrivateKey, StageSiteKey)
		return err
	}

	if e.seeded {
		if err := obtainCA(); err != nil {
			return nil, nil, err
		}
		if err := obtainSite(); err != nil {
			return nil, nil, err
		}
		return caKey, siteKey, nil
	}

	var g errgroup.Group
	g.Go(obtainCA)
	g.Go(obtainSite)
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return caKey, siteKey, nil
}

func (e *Engine) obtainKey(provider *pkicrypto.KeyProvider, role pkicrypto.Role, supplied []byte, stage string) (*pkicrypto.KeyPair, error) {
	start := time.Now()
	kp, err := provider.Obtain(role, supplied)
	if err != nil {
		return nil, stageError(stage, err)
	}
	e.logger.Debug("obtained key pair",
		zap.String("role", string(role)),
		zap.Bool("supplied", len(supplied) > 0),
		zap.Int("bits", kp.PublicKey.N.BitLen()),
		zap.Duration("elapsed", time.Since(start)))
	return kp, nil
}

// lockedReader serializes reads from a random source shared by goroutines.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
