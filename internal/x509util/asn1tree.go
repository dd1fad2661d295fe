package x509util

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// maxTreeDepth bounds recursion when walking untrusted DER.
const maxTreeDepth = 64

// Node is one element of a decoded DER structure.
//
// Constructed elements carry their children; primitive elements carry only
// their content bytes. Raw always holds the complete element including the
// identifier and length octets, so any subtree can be copied verbatim.
type Node struct {
	Tag      cbasn1.Tag
	Raw      []byte
	Content  []byte
	Children []*Node
}

// Constructed reports whether the element uses the constructed encoding.
func (n *Node) Constructed() bool {
	return n.Tag&0x20 != 0
}

// Class returns the tag class bits (universal, application, context, private).
func (n *Node) Class() int {
	return int(n.Tag) >> 6
}

// Number returns the tag number without class and constructed bits.
func (n *Node) Number() int {
	return int(n.Tag & 0x1f)
}

// ParseDER decodes a complete DER element into a node tree.
// Trailing bytes after the top-level element are rejected.
func ParseDER(der []byte) (*Node, error) {
	input := cryptobyte.String(der)
	node, err := readNode(&input, 0)
	if err != nil {
		return nil, err
	}
	if !input.Empty() {
		return nil, fmt.Errorf("trailing data after DER element (%d bytes)", len(input))
	}
	return node, nil
}

func readNode(input *cryptobyte.String, depth int) (*Node, error) {
	if depth > maxTreeDepth {
		return nil, fmt.Errorf("DER nesting exceeds %d levels", maxTreeDepth)
	}

	var element cryptobyte.String
	var tag cbasn1.Tag
	if !input.ReadAnyASN1Element(&element, &tag) {
		return nil, fmt.Errorf("invalid DER element at depth %d", depth)
	}

	node := &Node{Tag: tag, Raw: element}
	var content cryptobyte.String
	header := element
	if !header.ReadAnyASN1(&content, &tag) {
		return nil, fmt.Errorf("invalid DER element header at depth %d", depth)
	}
	node.Content = content

	if node.Constructed() {
		for !content.Empty() {
			child, err := readNode(&content, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

// checkCertificateShape verifies that a node tree has the outer layout of an
// X.509 Certificate:
//
//	Certificate ::= SEQUENCE {
//	    tbsCertificate       TBSCertificate,
//	    signatureAlgorithm   AlgorithmIdentifier,
//	    signatureValue       BIT STRING
//	}
func checkCertificateShape(root *Node) error {
	if root.Tag != cbasn1.SEQUENCE {
		return fmt.Errorf("certificate is not a SEQUENCE (tag 0x%02x)", uint8(root.Tag))
	}
	if len(root.Children) != 3 {
		return fmt.Errorf("certificate has %d elements, want 3", len(root.Children))
	}

	tbs, alg, sig := root.Children[0], root.Children[1], root.Children[2]
	if tbs.Tag != cbasn1.SEQUENCE {
		return fmt.Errorf("tbsCertificate is not a SEQUENCE")
	}
	// serial, signature, issuer, validity, subject, subjectPublicKeyInfo
	if len(tbs.Children) < 6 {
		return fmt.Errorf("tbsCertificate has %d elements, want at least 6", len(tbs.Children))
	}
	if alg.Tag != cbasn1.SEQUENCE || len(alg.Children) == 0 || alg.Children[0].Tag != cbasn1.OBJECT_IDENTIFIER {
		return fmt.Errorf("signatureAlgorithm is not an AlgorithmIdentifier")
	}
	if sig.Tag != cbasn1.BIT_STRING {
		return fmt.Errorf("signatureValue is not a BIT STRING")
	}
	return nil
}

var universalTagNames = map[cbasn1.Tag]string{
	cbasn1.BOOLEAN:           "BOOLEAN",
	cbasn1.INTEGER:           "INTEGER",
	cbasn1.BIT_STRING:        "BIT STRING",
	cbasn1.OCTET_STRING:      "OCTET STRING",
	cbasn1.NULL:              "NULL",
	cbasn1.OBJECT_IDENTIFIER: "OBJECT IDENTIFIER",
	cbasn1.ENUM:              "ENUMERATED",
	cbasn1.UTF8String:        "UTF8String",
	cbasn1.SEQUENCE:          "SEQUENCE",
	cbasn1.SET:               "SET",
	cbasn1.PrintableString:   "PrintableString",
	cbasn1.T61String:         "T61String",
	cbasn1.IA5String:         "IA5String",
	cbasn1.UTCTime:           "UTCTime",
	cbasn1.GeneralizedTime:   "GeneralizedTime",
	cbasn1.GeneralString:     "GeneralString",
}

// TagName returns a readable name for the node's tag.
func (n *Node) TagName() string {
	switch n.Class() {
	case 0:
		if name, ok := universalTagNames[n.Tag]; ok {
			return name
		}
		return fmt.Sprintf("UNIVERSAL %d", n.Number())
	case 1:
		return fmt.Sprintf("[APPLICATION %d]", n.Number())
	case 2:
		return fmt.Sprintf("[%d]", n.Number())
	default:
		return fmt.Sprintf("[PRIVATE %d]", n.Number())
	}
}

// Dump writes an indented listing of the tree, one element per line.
// Primitive contents are shown in hex, truncated to 32 bytes.
func (n *Node) Dump(w io.Writer) error {
	return n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	if n.Constructed() {
		if _, err := fmt.Fprintf(w, "%s%s (%d bytes)\n", indent, n.TagName(), len(n.Content)); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := c.dump(w, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	value := n.Content
	suffix := ""
	if len(value) > 32 {
		value = value[:32]
		suffix = "..."
	}
	_, err := fmt.Fprintf(w, "%s%s (%d bytes) %s%s\n", indent, n.TagName(), len(n.Content), hex.EncodeToString(value), suffix)
	return err
}
