package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewSelfUpdateCmd(t *testing.T) {
	c := newSelfUpdateCmd()

	if c.Use != "self-update" {
		t.Errorf("expected Use to be 'self-update', got %s", c.Use)
	}
	if c.Short == "" {
		t.Error("expected Short description to be set")
	}
	if c.Long == "" {
		t.Error("expected Long description to be set")
	}
	if c.RunE == nil {
		t.Error("expected RunE function to be set")
	}
}

func TestRunSelfUpdateWithDevVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	rootCmd.Version = "dev"

	c := newSelfUpdateCmd()
	var buf bytes.Buffer
	c.SetOut(&buf)

	err := runSelfUpdate(c, []string{})
	if err == nil {
		t.Fatal("expected error for dev version")
	}
	if !strings.Contains(err.Error(), "cannot self-update a development build") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestRunSelfUpdateWithEmptyVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	rootCmd.Version = ""

	c := newSelfUpdateCmd()
	var buf bytes.Buffer
	c.SetOut(&buf)

	err := runSelfUpdate(c, []string{})
	if err == nil {
		t.Fatal("expected error for empty version")
	}
	if !strings.Contains(err.Error(), "cannot self-update a development build") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSelfUpdateCommandHelp(t *testing.T) {
	c := newSelfUpdateCmd()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	c.SetArgs([]string{"--help"})

	if err := c.Execute(); err != nil {
		t.Fatalf("error executing self-update help: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Checks for the latest release") {
		t.Errorf("help output should contain long description, got: %q", output)
	}
}
