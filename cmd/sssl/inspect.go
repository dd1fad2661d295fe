package main

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RetendoNetwork/SSSL/internal/cli"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

type inspectOptions struct {
	format     string
	asn1       bool
	output     string
	issuerPath string
}

func newInspectCmd(a *app) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe a certificate, chain or CSR",
		Long: `Inspect a certificate, PEM chain or certificate request.

Signatures inside a chain are checked against the next certificate, so the
SHA-1 site certificate of a forged chain is verified against the forged CA.

Examples:
  # Inspect a forged chain
  sssl inspect out/cert-chain.pem

  # Dump the ASN.1 structure of a DER root
  sssl inspect root.der --asn1

  # Verify a site certificate against its CA
  sssl inspect out/ssl-cert.pem --issuer out/forged-ca.pem --output text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, a, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.format, "format", "auto", "input encoding: auto, der or pem")
	flags.BoolVar(&opts.asn1, "asn1", false, "dump the ASN.1 node tree instead of a summary")
	flags.StringVarP(&opts.output, "output", "o", "yaml", "output format: yaml or text")
	flags.StringVar(&opts.issuerPath, "issuer", "", "verify the certificate signature against this issuer")
	return cmd
}

func runInspect(cmd *cobra.Command, a *app, opts *inspectOptions, path string) error {
	format, err := x509util.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	data, err := cli.ReadFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if opts.asn1 {
		der := data
		if format == x509util.FormatPEM || (format == x509util.FormatAuto && x509util.DetectFormat(data) == x509util.FormatPEM) {
			block, _ := pem.Decode(data)
			if block == nil {
				return fmt.Errorf("%w: no PEM block found", x509util.ErrMalformedCertificate)
			}
			der = block.Bytes
		}
		tree, err := x509util.ParseDER(der)
		if err != nil {
			return err
		}
		return tree.Dump(out)
	}

	var issuer *x509.Certificate
	if opts.issuerPath != "" {
		if issuer, err = cli.LoadCertFromPath(opts.issuerPath); err != nil {
			return fmt.Errorf("failed to load issuer: %w", err)
		}
	}

	insp, err := x509util.Inspect(data, format, issuer)
	if err != nil {
		return err
	}

	switch opts.output {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(insp); err != nil {
			return fmt.Errorf("failed to encode inspection: %w", err)
		}
		return enc.Close()
	case "text":
		cli.PrintInspection(out, insp, !a.noColor)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want yaml or text)", opts.output)
	}
}
