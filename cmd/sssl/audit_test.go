package main

import (
	"os"
	"strings"
	"testing"
)

func forgeWithAudit(t *testing.T, tc *testContext, logPath string) {
	t.Helper()
	_, _, err := executeCommand(append(tc.forgeInputs(), "--cn", "*.example.com", "--audit-log", logPath)...)
	assertNoError(t, err)
}

func TestF_Audit_ForgeAndVerify(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")
	forgeWithAudit(t, tc, logPath)
	forgeWithAudit(t, tc, logPath)

	assertFileMode(t, logPath, 0600)

	stdout, _, err := executeCommand("audit", "verify", "--no-color", logPath)
	assertNoError(t, err)
	assertContains(t, stdout, "VERIFICATION PASSED")
	assertContains(t, stdout, "Total events: 4")
}

func TestF_Audit_FailedRunIsRecorded(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")

	args := append(tc.forgeInputs(), "--cn", "*.example.com", "--audit-log", logPath,
		"--ca-cert", tc.writeFile("junk.der", []byte("junk")))
	_, _, err := executeCommand(args...)
	assertError(t, err)

	stdout, _, err := executeCommand("audit", "tail", "--no-color", logPath)
	assertNoError(t, err)
	assertContains(t, stdout, "FORGE_FAILED")
	assertContains(t, stdout, "stage=decode")
}

func TestF_Audit_Tail(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")
	forgeWithAudit(t, tc, logPath)

	stdout, _, err := executeCommand("audit", "tail", "--no-color", logPath)
	assertNoError(t, err)
	assertContains(t, stdout, "CA_FORGED")
	assertContains(t, stdout, "SITE_CERT_ISSUED")
	assertContains(t, stdout, "CN:      *.example.com")

	stdout, _, err = executeCommand("audit", "tail", "--no-color", "-n", "1", logPath)
	assertNoError(t, err)
	if strings.Contains(stdout, "CA_FORGED") {
		t.Errorf("tail -n 1 should only show the last event:\n%s", stdout)
	}
	assertContains(t, stdout, "SITE_CERT_ISSUED")
}

func TestF_Audit_VerifyTampered(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")
	forgeWithAudit(t, tc, logPath)

	data, err := os.ReadFile(logPath)
	assertNoError(t, err)
	tampered := strings.Replace(string(data), "*.example.com", "*.evil.example", 1)
	assertNoError(t, os.WriteFile(logPath, []byte(tampered), 0600))

	stdout, _, err := executeCommand("audit", "verify", "--no-color", logPath)
	assertError(t, err)
	assertContains(t, stdout, "VERIFICATION FAILED")
	assertContains(t, stdout, "Valid events: 0")
}

func TestF_Audit_EmptyAndMissing(t *testing.T) {
	tc := newTestContext(t)
	empty := tc.writeFile("empty.jsonl", nil)

	stdout, _, err := executeCommand("audit", "verify", empty)
	assertNoError(t, err)
	assertContains(t, stdout, "Total events: 0")

	stdout, _, err = executeCommand("audit", "tail", empty)
	assertNoError(t, err)
	assertContains(t, stdout, "Audit log is empty")

	_, _, err = executeCommand("audit", "tail", tc.path("missing.jsonl"))
	assertError(t, err)
}
