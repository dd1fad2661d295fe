// Package cli holds helpers shared by the sssl commands.
package cli

import (
	"crypto/x509"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"

	"github.com/RetendoNetwork/SSSL/internal/forge"
	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// ReadFile reads path after expanding a leading ~.
func ReadFile(path string) ([]byte, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", expanded, err)
	}
	return data, nil
}

// ReadOptionalFile reads path, returning nil when path is empty.
func ReadOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return ReadFile(path)
}

// LoadCertFromPath loads a certificate in DER or PEM form.
func LoadCertFromPath(path string) (*x509.Certificate, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return x509util.DecodeCertificate(data, x509util.FormatAuto)
}

// PrintForgeSummary writes a short report of a forging run.
func PrintForgeSummary(w io.Writer, res *forge.Result, outDir string, color bool) {
	status := func(s string) string {
		if color {
			return FormatStatus(s)
		}
		return s
	}
	verified := func(err error) string {
		if err != nil {
			return status("failed")
		}
		return status("verified")
	}
	keySource := func(supplied bool) string {
		if supplied {
			return status("supplied")
		}
		return status("generated")
	}

	fmt.Fprintln(w, Colorize(color, ColorBlue, "Forged CA"))
	fmt.Fprintf(w, "  Subject:    %s\n", res.ForgedCA.Subject)
	fmt.Fprintf(w, "  Serial:     %s\n", res.ForgedCA.SerialNumber)
	fmt.Fprintf(w, "  Valid:      %s - %s\n",
		res.ForgedCA.NotBefore.UTC().Format("2006-01-02"), res.ForgedCA.NotAfter.UTC().Format("2006-01-02"))
	fmt.Fprintf(w, "  Signature:  %s\n", verified(x509util.VerifyCertificateSignature(res.ForgedCA, res.CAKey.PublicKey)))

	fmt.Fprintln(w, Colorize(color, ColorBlue, "Site certificate"))
	fmt.Fprintf(w, "  Subject:    %s\n", res.SiteCert.Subject)
	fmt.Fprintf(w, "  Serial:     %s\n", res.SiteCert.SerialNumber)
	fmt.Fprintf(w, "  Valid:      %s - %s\n",
		res.SiteCert.NotBefore.UTC().Format("2006-01-02"), res.SiteCert.NotAfter.UTC().Format("2006-01-02"))
	fmt.Fprintf(w, "  Signature:  %s\n", verified(x509util.VerifyCertificateSignature(res.SiteCert, res.CAKey.PublicKey)))
	fmt.Fprintf(w, "  Keys:       CA %s, site %s\n", keySource(res.CAKeySupplied), keySource(res.SiteKeySupplied))

	fmt.Fprintln(w, Colorize(color, ColorBlue, "Artifacts"))
	sink := forge.NewDirSink(outDir)
	for _, art := range res.Artifacts.List() {
		fmt.Fprintf(w, "  %s %s\n", status("written"), sink.Path(art.Name))
	}
}
