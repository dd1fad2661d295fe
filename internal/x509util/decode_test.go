package x509util

import (
	"bytes"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/RetendoNetwork/SSSL/internal/testutil"
)

func TestU_ParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"[U] ParseFormat: empty selects DER", "", FormatDER, false},
		{"[U] ParseFormat: der", "der", FormatDER, false},
		{"[U] ParseFormat: upper case PEM", "PEM", FormatPEM, false},
		{"[U] ParseFormat: auto with spaces", " auto ", FormatAuto, false},
		{"[U] ParseFormat: unknown", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestU_DetectFormat(t *testing.T) {
	root := testutil.NewRootCA(t)

	if got := DetectFormat(root.DER); got != FormatDER {
		t.Errorf("DetectFormat(DER) = %q, want der", got)
	}
	if got := DetectFormat(root.PEM); got != FormatPEM {
		t.Errorf("DetectFormat(PEM) = %q, want pem", got)
	}
	padded := append([]byte("\n\n  "), root.PEM...)
	if got := DetectFormat(padded); got != FormatPEM {
		t.Errorf("DetectFormat(padded PEM) = %q, want pem", got)
	}
}

func TestU_DecodeCertificate_EncodingInvariance(t *testing.T) {
	root := testutil.NewRootCA(t)

	fromDER, err := DecodeCertificate(root.DER, FormatDER)
	if err != nil {
		t.Fatalf("DecodeCertificate(DER) error = %v", err)
	}
	fromPEM, err := DecodeCertificate(root.PEM, FormatPEM)
	if err != nil {
		t.Fatalf("DecodeCertificate(PEM) error = %v", err)
	}
	fromAuto, err := DecodeCertificate(root.PEM, FormatAuto)
	if err != nil {
		t.Fatalf("DecodeCertificate(auto) error = %v", err)
	}

	if !bytes.Equal(fromDER.Raw, fromPEM.Raw) || !bytes.Equal(fromDER.Raw, fromAuto.Raw) {
		t.Error("DER, PEM and auto decoding should yield the same certificate")
	}
	if !bytes.Equal(fromDER.Raw, root.DER) {
		t.Error("decoded certificate should keep the input encoding")
	}
	if fromDER.SerialNumber.Cmp(root.Cert.SerialNumber) != 0 {
		t.Errorf("serial = %s, want %s", fromDER.SerialNumber, root.Cert.SerialNumber)
	}
}

func TestU_DecodeCertificate_Malformed(t *testing.T) {
	root := testutil.NewRootCA(t)
	keyPEM := testutil.KeyPEM(root.Key)
	notACert := []byte{0x30, 0x09, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x03}

	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"[U] Decode: empty input", nil, FormatDER},
		{"[U] Decode: garbage as DER", []byte("hello world"), FormatDER},
		{"[U] Decode: PEM declared as DER", root.PEM, FormatDER},
		{"[U] Decode: DER declared as PEM", root.DER, FormatPEM},
		{"[U] Decode: wrong PEM type", keyPEM, FormatPEM},
		{"[U] Decode: truncated DER", root.DER[:len(root.DER)/2], FormatDER},
		{"[U] Decode: trailing data", append(append([]byte{}, root.DER...), 0x05, 0x00), FormatDER},
		{"[U] Decode: wrong shape", notACert, FormatDER},
		{"[U] Decode: unsupported format", root.DER, Format("xml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCertificate(tt.data, tt.format)
			if err == nil {
				t.Fatal("DecodeCertificate() should fail")
			}
			if !errors.Is(err, ErrMalformedCertificate) {
				t.Errorf("error = %v, want ErrMalformedCertificate", err)
			}
		})
	}
}

func TestU_ParseCertificatesPEM(t *testing.T) {
	root := testutil.NewRootCA(t)
	leaf := newTestLeaf(t, root, "www.example.com")

	var chain bytes.Buffer
	chain.Write(EncodeCertificatePEM(leaf))
	chain.Write(pem.EncodeToMemory(&pem.Block{Type: "COMMENT", Bytes: []byte("skip me")}))
	chain.Write(root.PEM)

	certs, err := ParseCertificatesPEM(chain.Bytes())
	if err != nil {
		t.Fatalf("ParseCertificatesPEM() error = %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("got %d certificates, want 2", len(certs))
	}
	if !bytes.Equal(certs[0].Raw, leaf.Raw) || !bytes.Equal(certs[1].Raw, root.DER) {
		t.Error("certificates should be returned in file order")
	}

	if _, err := ParseCertificatesPEM(testutil.KeyPEM(root.Key)); !errors.Is(err, ErrMalformedCertificate) {
		t.Errorf("no CERTIFICATE block: error = %v, want ErrMalformedCertificate", err)
	}
}

func TestU_EncodeCertificatePEM(t *testing.T) {
	root := testutil.NewRootCA(t)

	if got := EncodeCertificatePEM(root.Cert); !bytes.Equal(got, root.PEM) {
		t.Error("EncodeCertificatePEM() should match the fixture PEM")
	}
}
