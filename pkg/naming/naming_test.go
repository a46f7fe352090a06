package naming

import (
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func TestResolveVersionedAndCompatShareStem(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${version}-${os}_${arch}",
		CompatPattern: "${name}-${os}-${arch}",
	}
	res, err := Resolve(tool, "v0.1.64", model.Platform{OS: "darwin", Arch: "arm64"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.VersionedName != "cass-0.1.64-darwin_arm64.tar.gz" {
		t.Errorf("versioned name = %q", res.VersionedName)
	}
	if res.CompatName != "cass-darwin-arm64.tar.gz" {
		t.Errorf("compat name = %q", res.CompatName)
	}
	if res.ArchiveExt != "tar.gz" {
		t.Errorf("archive ext = %q, want tar.gz for non-windows", res.ArchiveExt)
	}
}

func TestResolveWindowsDefaultsToZip(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${version}-${os}_${arch}",
	}
	res, err := Resolve(tool, "v1.0.0", model.Platform{OS: "windows", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.ArchiveExt != "zip" {
		t.Errorf("archive ext = %q, want zip on windows", res.ArchiveExt)
	}
}

func TestResolveUndefinedVariableIsConfigError(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${bogus}",
	}
	_, err := Resolve(tool, "v1.0.0", model.Platform{OS: "linux", Arch: "amd64"})
	if err == nil {
		t.Fatal("expected an error for an undefined pattern variable")
	}
}

func TestResolveConflictingArchAlias(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${arch}",
		ArchAliases:   map[string]string{"amd64": "amd64"},
	}
	_, err := Resolve(tool, "v1.0.0", model.Platform{OS: "linux", Arch: "amd64"})
	if err == nil {
		t.Fatal("expected an error for a self-referential arch alias")
	}
}

func TestResolveArchAliasRemapsTarget(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${target}",
		ArchAliases:   map[string]string{"amd64": "x86_64"},
	}
	res, err := Resolve(tool, "v1.0.0", model.Platform{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.VersionedName != "cass-linux-x86_64.tar.gz" {
		t.Errorf("versioned name = %q", res.VersionedName)
	}
	if res.TargetTriples[0] != "linux-x86_64" {
		t.Errorf("target triple = %q", res.TargetTriples[0])
	}
}

func TestResolveCompatHeuristicStripsVersionToken(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${version}-${os}_${arch}",
	}
	res, err := Resolve(tool, "v2.3.4", model.Platform{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.CompatName != "cass-linux_amd64.tar.gz" {
		t.Errorf("heuristic compat name = %q", res.CompatName)
	}
}

func TestResolveExplicitTargetTripleOverride(t *testing.T) {
	tool := model.ToolDescriptor{
		Name:          "cass",
		NamingPattern: "${name}-${target_triple}",
		TargetTriples: map[string]string{"linux/amd64": "x86_64-unknown-linux-gnu"},
	}
	res, err := Resolve(tool, "v1.0.0", model.Platform{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.VersionedName != "cass-x86_64-unknown-linux-gnu.tar.gz" {
		t.Errorf("versioned name = %q", res.VersionedName)
	}
}

func TestSubstituteUnterminatedToken(t *testing.T) {
	_, err := substitute("${name", map[string]string{"name": "cass"})
	if err == nil {
		t.Fatal("expected an error for an unterminated ${ token")
	}
}

func TestTranslateShellPattern(t *testing.T) {
	got := translateShellPattern(`BINARY="${NAME}-${OS}-${ARCH}"`)
	if got != "${name}-${os}-${arch}" {
		t.Errorf("translateShellPattern = %q", got)
	}
}
