package postprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func writeTempRawBinary(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cass")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessVersionedAndCompatShareDigest(t *testing.T) {
	raw := writeTempRawBinary(t, "fake binary contents")
	staging := t.TempDir()

	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${version}-${os}_${arch}",
		CompatPattern: "${name}-${os}-${arch}",
	}
	platform := model.Platform{OS: "darwin", Arch: "arm64"}

	artifact, compat, err := Process(tool, "v0.1.64", platform, raw, staging)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if artifact.Name != "cass-0.1.64-darwin_arm64.tar.gz" {
		t.Errorf("versioned name = %q", artifact.Name)
	}
	if compat == nil {
		t.Fatal("expected a compat alias")
	}
	if compat.Name != "cass-darwin-arm64.tar.gz" {
		t.Errorf("compat name = %q", compat.Name)
	}
	if artifact.SHA256 != compat.SHA256 {
		t.Errorf("versioned and compat digests differ: %s vs %s", artifact.SHA256, compat.SHA256)
	}
}

func TestProcessRawCompatAliasIsByteIdenticalToBinary(t *testing.T) {
	raw := writeTempRawBinary(t, "raw payload")
	staging := t.TempDir()

	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${version}-${os}_${arch}",
		CompatPattern: "${name}-${os}-${arch}-${ext}",
		ArchiveFormat: map[string]string{"linux": ""},
	}
	platform := model.Platform{OS: "linux", Arch: "amd64"}

	_, compat, err := Process(tool, "v1.0.0", platform, raw, staging)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if compat == nil {
		t.Fatal("expected a compat alias")
	}
	data, err := os.ReadFile(compat.SourcePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "raw payload" {
		t.Errorf("compat alias contents = %q, want byte-identical raw binary", data)
	}
}

func TestWriteChecksumsFileFormat(t *testing.T) {
	dir := t.TempDir()
	artifacts := []model.Artifact{
		{Name: "cass-darwin-arm64.tar.gz", SHA256: "aaaa"},
		{Name: "cass-0.1.64-darwin_arm64.tar.gz", SHA256: "bbbb"},
	}
	path, err := WriteChecksumsFile("cass", "v0.1.64", artifacts, dir)
	if err != nil {
		t.Fatalf("WriteChecksumsFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "bbbb  cass-0.1.64-darwin_arm64.tar.gz\naaaa  cass-darwin-arm64.tar.gz\n"
	if string(data) != want {
		t.Errorf("checksums file = %q, want %q", data, want)
	}
}

func TestSignDisabledReturnsEmpty(t *testing.T) {
	path, err := Sign(nil, SigningConfig{Enabled: false}, "/tmp/whatever")
	if err != nil || path != "" {
		t.Errorf("expected no-op when signing disabled, got path=%q err=%v", path, err)
	}
}
