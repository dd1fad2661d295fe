package cli

import (
	"fmt"
	"io"

	"github.com/RetendoNetwork/SSSL/internal/x509util"
)

// PrintInspection writes a human-readable description of an inspection.
func PrintInspection(w io.Writer, insp *x509util.Inspection, color bool) {
	fmt.Fprintf(w, "Type:   %s\n", insp.Type)
	fmt.Fprintf(w, "Format: %s\n", insp.Format)

	for i, c := range insp.Certificates {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Colorize(color, ColorBlue, fmt.Sprintf("Certificate %d", i)))
		printCertificateSummary(w, &c, color)
	}

	if insp.CSR != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Colorize(color, ColorBlue, "Certificate request"))
		fmt.Fprintf(w, "  Subject:             %s\n", insp.CSR.Subject)
		fmt.Fprintf(w, "  Signature Algorithm: %s\n", insp.CSR.SignatureAlgorithm)
		if insp.CSR.PublicKeyBits > 0 {
			fmt.Fprintf(w, "  Public Key:          RSA %d bits\n", insp.CSR.PublicKeyBits)
		}
		fmt.Fprintf(w, "  Signature:           %s\n", verifiedStatus(insp.CSR.SignatureVerified, color))
		printExtensions(w, insp.CSR.Extensions)
	}
}

func printCertificateSummary(w io.Writer, c *x509util.CertificateSummary, color bool) {
	fmt.Fprintf(w, "  Subject:             %s\n", c.Subject)
	fmt.Fprintf(w, "  Issuer:              %s\n", c.Issuer)
	fmt.Fprintf(w, "  Serial:              %s\n", c.SerialNumber)
	fmt.Fprintf(w, "  Not Before:          %s\n", c.NotBefore.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Not After:           %s\n", c.NotAfter.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Signature Algorithm: %s\n", c.SignatureAlgorithm)
	if c.PublicKeyBits > 0 {
		fmt.Fprintf(w, "  Public Key:          RSA %d bits\n", c.PublicKeyBits)
	}
	fmt.Fprintf(w, "  CA:                  %t\n", c.IsCA)
	fmt.Fprintf(w, "  SHA-256 Fingerprint: %s\n", c.SHA256Fingerprint)
	if c.SignatureVerified != nil {
		fmt.Fprintf(w, "  Signature:           %s\n", verifiedStatus(*c.SignatureVerified, color))
	}
	if aki := c.AuthorityKeyID; aki != nil {
		fmt.Fprintln(w, "  Authority Key Identifier:")
		if aki.KeyID != "" {
			fmt.Fprintf(w, "    Key ID:  %s\n", aki.KeyID)
		}
		if aki.Issuer != "" {
			fmt.Fprintf(w, "    Issuer:  %s\n", aki.Issuer)
		}
		if aki.SerialNumber != "" {
			fmt.Fprintf(w, "    Serial:  %s\n", aki.SerialNumber)
		}
	}
	printExtensions(w, c.Extensions)
}

func printExtensions(w io.Writer, exts []x509util.ExtensionSummary) {
	if len(exts) == 0 {
		return
	}
	fmt.Fprintln(w, "  Extensions:")
	for _, e := range exts {
		critical := ""
		if e.Critical {
			critical = " (critical)"
		}
		fmt.Fprintf(w, "    %s [%s]%s\n", e.Name, e.OID, critical)
	}
}

func verifiedStatus(ok bool, color bool) string {
	s := "failed"
	if ok {
		s = "verified"
	}
	if color {
		return FormatStatus(s)
	}
	return s
}
