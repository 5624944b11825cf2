package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCandidatesExpandHome(t *testing.T) {
	candidates := configCandidates()
	for _, path := range candidates {
		if strings.Contains(path, "~") {
			t.Fatalf("candidate %q contains an unexpanded tilde", path)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	want := filepath.Join(home, ".config", "awgstream", "config.hcl")
	found := false
	for _, path := range candidates {
		if path == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("candidates %v miss the per-user config %q", candidates, want)
	}
}

func TestConfigPathFlagWins(t *testing.T) {
	old := cli.Config
	defer func() { cli.Config = old }()

	cli.Config = "/tmp/custom.hcl"
	if got := configPath(); got != "/tmp/custom.hcl" {
		t.Fatalf("configPath = %q, want the --config flag value", got)
	}
}
