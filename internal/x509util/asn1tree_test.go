package x509util

import (
	"bytes"
	"strings"
	"testing"

	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/RetendoNetwork/SSSL/internal/testutil"
)

func TestU_ParseDER_Certificate(t *testing.T) {
	root := testutil.NewRootCA(t)

	tree, err := ParseDER(root.DER)
	if err != nil {
		t.Fatalf("ParseDER() error = %v", err)
	}
	if tree.Tag != cbasn1.SEQUENCE {
		t.Errorf("root tag = 0x%02x, want SEQUENCE", uint8(tree.Tag))
	}
	if !bytes.Equal(tree.Raw, root.DER) {
		t.Error("root Raw should span the whole input")
	}
	if len(tree.Children) != 3 {
		t.Fatalf("root has %d children, want 3", len(tree.Children))
	}
	if !bytes.Equal(tree.Children[0].Raw, root.Cert.RawTBSCertificate) {
		t.Error("first child Raw should equal RawTBSCertificate")
	}
	if err := checkCertificateShape(tree); err != nil {
		t.Errorf("checkCertificateShape() error = %v", err)
	}
}

func TestU_ParseDER_Errors(t *testing.T) {
	root := testutil.NewRootCA(t)

	tests := []struct {
		name string
		data []byte
	}{
		{"[U] ParseDER: empty input", nil},
		{"[U] ParseDER: truncated", root.DER[:len(root.DER)-10]},
		{"[U] ParseDER: trailing data", append(append([]byte{}, root.DER...), 0x00)},
		{"[U] ParseDER: bad length", []byte{0x30, 0x85, 0x01}},
		{"[U] ParseDER: text", []byte("not a certificate at all")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDER(tt.data); err == nil {
				t.Error("ParseDER() should fail")
			}
		})
	}
}

func TestU_ParseDER_DepthLimit(t *testing.T) {
	// maxTreeDepth+2 nested empty SEQUENCEs, built inside out with long-form
	// lengths where needed.
	inner := []byte{}
	for i := 0; i < maxTreeDepth+2; i++ {
		inner = wrapSequence(inner)
	}
	if _, err := ParseDER(inner); err == nil {
		t.Error("ParseDER() should reject excessive nesting")
	}
}

func wrapSequence(content []byte) []byte {
	n := len(content)
	switch {
	case n < 0x80:
		return append([]byte{0x30, byte(n)}, content...)
	case n < 0x100:
		return append([]byte{0x30, 0x81, byte(n)}, content...)
	default:
		return append([]byte{0x30, 0x82, byte(n >> 8), byte(n)}, content...)
	}
}

func TestU_CheckCertificateShape_Rejects(t *testing.T) {
	tests := []struct {
		name string
		der  []byte
	}{
		{"[U] Shape: not a sequence", []byte{0x02, 0x01, 0x05}},
		{"[U] Shape: empty sequence", []byte{0x30, 0x00}},
		{"[U] Shape: three integers", []byte{0x30, 0x09, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseDER(tt.der)
			if err != nil {
				t.Fatalf("ParseDER() error = %v", err)
			}
			if err := checkCertificateShape(tree); err == nil {
				t.Error("checkCertificateShape() should fail")
			}
		})
	}
}

func TestU_Node_TagName(t *testing.T) {
	tests := []struct {
		name string
		tag  cbasn1.Tag
		want string
	}{
		{"[U] TagName: sequence", cbasn1.SEQUENCE, "SEQUENCE"},
		{"[U] TagName: integer", cbasn1.INTEGER, "INTEGER"},
		{"[U] TagName: context constructed", cbasn1.Tag(3).Constructed().ContextSpecific(), "[3]"},
		{"[U] TagName: context primitive", cbasn1.Tag(2).ContextSpecific(), "[2]"},
		{"[U] TagName: application", cbasn1.Tag(1) | 0x40, "[APPLICATION 1]"},
		{"[U] TagName: unknown universal", cbasn1.Tag(0x1e), "UNIVERSAL 30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Node{Tag: tt.tag}
			if got := n.TagName(); got != tt.want {
				t.Errorf("TagName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestU_Node_Dump(t *testing.T) {
	root := testutil.NewRootCA(t)
	tree, err := ParseDER(root.DER)
	if err != nil {
		t.Fatalf("ParseDER() error = %v", err)
	}

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SEQUENCE", "  SEQUENCE", "OBJECT IDENTIFIER", "BIT STRING", "[3]"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output missing %q", want)
		}
	}
	if !strings.HasPrefix(out, "SEQUENCE (") {
		t.Errorf("Dump() should start with the outer SEQUENCE, got %q", out[:20])
	}
}
