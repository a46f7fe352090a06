package hostregistry

import (
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func testHosts() []model.HostDescriptor {
	return []model.HostDescriptor{
		{ID: "linux-1", Platform: model.Platform{OS: "linux", Arch: "amd64"}, Conn: model.ConnContainerRunner},
		{ID: "linux-2", Platform: model.Platform{OS: "linux", Arch: "amd64"}, Conn: model.ConnSSH, SSHAlias: "builder2"},
		{ID: "mac-1", Platform: model.Platform{OS: "darwin", Arch: "arm64"}, Conn: model.ConnSSH, SSHAlias: "macmini"},
	}
}

func TestLookupFirstMatchWins(t *testing.T) {
	r, err := New(testHosts())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	host, err := r.Lookup(model.ToolDescriptor{Name: "cass"}, model.Platform{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if host.ID != "linux-1" {
		t.Errorf("expected first registered host linux-1, got %s", host.ID)
	}
}

func TestLookupHonorsToolOverride(t *testing.T) {
	r, err := New(testHosts())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tool := model.ToolDescriptor{Name: "cass", HostOverride: map[string]string{"linux/amd64": "linux-2"}}
	host, err := r.Lookup(tool, model.Platform{OS: "linux", Arch: "amd64"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if host.ID != "linux-2" {
		t.Errorf("expected override host linux-2, got %s", host.ID)
	}
}

func TestLookupUnknownOverrideErrors(t *testing.T) {
	r, err := New(testHosts())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tool := model.ToolDescriptor{Name: "cass", HostOverride: map[string]string{"linux/amd64": "does-not-exist"}}
	if _, err := r.Lookup(tool, model.Platform{OS: "linux", Arch: "amd64"}); err == nil {
		t.Fatal("expected an error for an override pointing at an unregistered host")
	}
}

func TestLookupNoHostForPlatform(t *testing.T) {
	r, err := New(testHosts())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Lookup(model.ToolDescriptor{Name: "cass"}, model.Platform{OS: "windows", Arch: "amd64"}); err == nil {
		t.Fatal("expected an error when no host is registered for the platform")
	}
}

func TestNewRejectsDuplicateID(t *testing.T) {
	hosts := append(testHosts(), model.HostDescriptor{ID: "linux-1", Platform: model.Platform{OS: "linux", Arch: "arm64"}})
	if _, err := New(hosts); err == nil {
		t.Fatal("expected an error for a duplicate host id")
	}
}
