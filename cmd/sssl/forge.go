package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RetendoNetwork/SSSL/internal/cli"
	"github.com/RetendoNetwork/SSSL/internal/forge"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

func newForgeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forge",
		Short: "Forge a CA and site certificate chain",
		Long: `Clone the root CA onto a new key and issue a site certificate from the clone.

The forged CA keeps the root's subject, serial number, validity and
extensions; only its key and authority key identifier change. The site
certificate is signed with SHA-1 for the legacy client that consumes it.

Six files are written to the output directory:
  forged-ca.pem, forged-ca-private-key.pem, ssl-cert.pem,
  ssl-cert-private-key.pem, csr.csr, cert-chain.pem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForge(cmd, a)
		},
	}

	flags := cmd.Flags()
	flags.String("ca-cert", "", "root CA certificate file")
	flags.String("ca-format", "", "root CA encoding: der, pem or auto (default der)")
	flags.String("ca-key", "", "existing CA private key PEM (generated if omitted)")
	flags.String("site-key", "", "existing site private key PEM (generated if omitted)")
	flags.String("csr", "", "existing CSR PEM used as template (generated if omitted)")
	flags.String("cn", "", "site certificate common name")
	flags.StringP("out", "o", "", "output directory (default ./out)")
	return cmd
}

func runForge(cmd *cobra.Command, a *app) error {
	fc := a.cfg.Forge
	if err := fc.Validate(); err != nil {
		return err
	}

	format, err := x509util.ParseFormat(fc.CACertFormat)
	if err != nil {
		return err
	}

	in := forge.Config{
		RootCAFormat: format,
		CommonName:   fc.CommonName,
	}
	if in.RootCA, err = cli.ReadFile(fc.CACertPath); err != nil {
		return err
	}
	if in.CAPrivateKey, err = cli.ReadOptionalFile(fc.CAPrivateKeyPath); err != nil {
		return err
	}
	if in.SitePrivateKey, err = cli.ReadOptionalFile(fc.SitePrivateKeyPath); err != nil {
		return err
	}
	if in.CSR, err = cli.ReadOptionalFile(fc.CSRPath); err != nil {
		return err
	}

	auditLog, err := a.openAudit()
	if err != nil {
		return err
	}
	defer auditLog.Close()

	log := a.logger.Named("forge")
	res, err := forge.New(forge.WithLogger(log), forge.WithAudit(auditLog)).ForgeCertificateChain(in)
	if err != nil {
		var fe *forge.Error
		if errors.As(err, &fe) {
			log.Error("forging failed", zap.String("stage", fe.Stage), zap.Error(fe.Err))
		}
		return err
	}

	if err := res.Artifacts.WriteTo(forge.NewDirSink(fc.OutputDir)); err != nil {
		log.Error("writing artifacts failed", zap.Error(err))
		return err
	}
	log.Info("chain written", zap.String("output_dir", fc.OutputDir))

	cli.PrintForgeSummary(cmd.OutOrStdout(), res, fc.OutputDir, !a.noColor)
	return nil
}
