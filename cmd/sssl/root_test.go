package main

import (
	"testing"
)

func TestU_Version(t *testing.T) {
	stdout, _, err := executeCommand("version")
	assertNoError(t, err)
	assertContains(t, stdout, "sssl dev (commit: none, built: unknown)")
}

func TestU_InvalidLogLevel(t *testing.T) {
	_, _, err := executeCommand("version", "--log-level", "loud")
	assertError(t, err)
}

func TestU_InvalidConfigFile(t *testing.T) {
	tc := newTestContext(t)
	_, _, err := executeCommand("version", "--config", tc.writeFile("bad.yaml", []byte("logger: [")))
	assertError(t, err)
}

func TestU_JSONLogs(t *testing.T) {
	tc := newTestContext(t)
	_, stderr, err := executeCommand(append(tc.forgeInputs(), "--cn", "*.example.com", "--log-format", "json")...)
	assertNoError(t, err)
	assertContains(t, stderr, `"msg":"chain written"`)
	assertContains(t, stderr, `"logger":"sssl.forge"`)
}

func TestU_UnknownCommand(t *testing.T) {
	_, _, err := executeCommand("frobnicate")
	assertError(t, err)
}
