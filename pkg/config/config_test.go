package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config.yaml should fall back to defaults: %v", err)
	}
	if cfg.ThresholdSeconds == 0 {
		t.Error("expected a non-zero default threshold")
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("threshold_seconds: 600\nnot_a_real_field: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for an unknown top-level key")
	}
}

func TestLoadHostsRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.yaml")
	content := `
schema_version: 1
hosts:
  - id: linux-1
    platform: {os: linux, arch: amd64}
    connection: container-runner
  - id: linux-1
    platform: {os: linux, arch: arm64}
    connection: container-runner
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHosts(path); err == nil {
		t.Error("expected duplicate host id to be rejected")
	}
}

func TestLoadReposMergesDirectoryInOrder(t *testing.T) {
	dir := t.TempDir()
	reposDir := filepath.Join(dir, "repos.d")
	if err := os.Mkdir(reposDir, 0o755); err != nil {
		t.Fatal(err)
	}
	a := `
tools:
  - name: cass
    repo: owner/cass
    platforms: [{os: linux, arch: amd64}]
    workflow_file: .github/workflows/release.yml
    naming_pattern: "${name}-${version}-${os}_${arch}"
`
	b := `
tools:
  - name: zed
    repo: owner/zed
    platforms: [{os: darwin, arch: arm64}]
    workflow_file: .github/workflows/release.yml
    naming_pattern: "${name}-${version}-${os}_${arch}"
`
	if err := os.WriteFile(filepath.Join(reposDir, "a.yaml"), []byte(a), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(reposDir, "b.yaml"), []byte(b), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadRepos(reposDir)
	if err != nil {
		t.Fatalf("LoadRepos: %v", err)
	}
	if len(doc.Tools) != 2 || doc.Tools[0].Name != "cass" || doc.Tools[1].Name != "zed" {
		t.Errorf("expected merge in filename order, got %+v", doc.Tools)
	}
}

func TestLoadReposRejectsMissingPlatforms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repos.yaml")
	content := `
tools:
  - name: cass
    repo: owner/cass
    workflow_file: .github/workflows/release.yml
    naming_pattern: "${name}"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRepos(path); err == nil {
		t.Error("expected an error for a tool with no platforms")
	}
}
