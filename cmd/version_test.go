package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Transcriber API") {
		t.Errorf("Expected version output to contain service name, got: %s", output)
	}
	if !strings.Contains(output, "Version:") {
		t.Errorf("Expected version output to contain version line, got: %s", output)
	}
}

func TestVersionCommandShort(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version", "--short"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(output, "v") {
		t.Errorf("Expected short output to start with v, got: %s", output)
	}
	if strings.Contains(output, "Git Commit") {
		t.Errorf("Short output should not contain details, got: %s", output)
	}
}
