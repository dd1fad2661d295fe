package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RetendoNetwork/SSSL/internal/testutil"
)

// executeCommand runs a fresh root command with args and returns stdout and
// stderr separately.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	root := newRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)

	err = root.Execute()
	return out.String(), errOut.String(), err
}

// testContext holds test resources.
type testContext struct {
	t       *testing.T
	tempDir string
}

func newTestContext(t *testing.T) *testContext {
	t.Helper()
	return &testContext{t: t, tempDir: t.TempDir()}
}

// path returns a path within the temp directory.
func (tc *testContext) path(name string) string {
	return filepath.Join(tc.tempDir, name)
}

// writeFile writes content to a file in the temp directory.
func (tc *testContext) writeFile(name string, content []byte) string {
	tc.t.Helper()
	path := tc.path(name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		tc.t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// forgeInputs writes a DER root and pre-generated keys, returning the flags
// of a forge invocation that reuses them.
func (tc *testContext) forgeInputs() []string {
	tc.t.Helper()
	root := testutil.NewRootCA(tc.t)
	return []string{
		"forge",
		"--no-color",
		"--ca-cert", tc.writeFile("root.der", root.DER),
		"--ca-key", tc.writeFile("ca.key", testutil.KeyPEM(testutil.RSAKey(tc.t, "ca", 2048))),
		"--site-key", tc.writeFile("site.key", testutil.KeyPEM(testutil.RSAKey(tc.t, "site", 1024))),
		"--out", tc.path("out"),
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("output does not contain %q:\n%s", substr, s)
	}
}

func assertFileMode(t *testing.T, path string, want os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if got := info.Mode().Perm(); got != want {
		t.Errorf("%s mode = %o, want %o", filepath.Base(path), got, want)
	}
}
