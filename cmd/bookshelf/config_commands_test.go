package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/testsupport"
)

func TestConfigInitCreatesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	stdout, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to ")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}

	_, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected an error when the config already exists")
	}
	requireContains(t, err.Error(), "use --overwrite to replace it")

	_, _, err = runCLI(t, env, "config", "init", "--path", target, "--overwrite")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Configuration valid")
}

func TestConfigShowMasksAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithReadarr("http://127.0.0.1:8787", "super-secret-key"))

	stdout, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, "[readarr]")
	requireContains(t, stdout, "********")
	if strings.Contains(stdout, "super-secret-key") {
		t.Fatal("config show leaked the api key")
	}
	requireContains(t, stdout, "state_file")
}
