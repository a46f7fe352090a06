package cli

import (
	"testing"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func TestStripLeadingV(t *testing.T) {
	cases := map[string]string{
		"v1.2.3": "1.2.3",
		"V1.2.3": "1.2.3",
		"1.2.3":  "1.2.3",
		"":       "",
	}
	for in, want := range cases {
		if got := stripLeadingV(in); got != want {
			t.Errorf("stripLeadingV(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimJSONSuffix(t *testing.T) {
	if got := trimJSONSuffix("v1.2.3.json"); got != "v1.2.3" {
		t.Errorf("trimJSONSuffix = %q, want %q", got, "v1.2.3")
	}
	if got := trimJSONSuffix("v1.2.3"); got != "v1.2.3" {
		t.Errorf("trimJSONSuffix should be a no-op without the suffix, got %q", got)
	}
}

func TestHasPort(t *testing.T) {
	cases := map[string]bool{
		"build-host":        false,
		"build-host:22":     true,
		"10.0.0.1":          false,
		"10.0.0.1:2222":     true,
		"[::1]:22":          true,
		"[::1]":             false,
	}
	for addr, want := range cases {
		if got := hasPort(addr); got != want {
			t.Errorf("hasPort(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestTimeoutForFallsBackToThirtyMinutes(t *testing.T) {
	if got := timeoutFor(model.ToolDescriptor{}); got != 30*time.Minute {
		t.Errorf("timeoutFor with no override = %s, want 30m", got)
	}
	tool := model.ToolDescriptor{BuildTimeoutSeconds: 90}
	if got := timeoutFor(tool); got != 90*time.Second {
		t.Errorf("timeoutFor(90s) = %s, want 90s", got)
	}
}

func TestAggregateManifestStatus(t *testing.T) {
	empty := model.Manifest{}
	if got := aggregateManifestStatus(empty); got != model.RunError {
		t.Errorf("empty manifest should be RunError, got %v", got)
	}

	allSuccess := model.Manifest{HostStatuses: []model.HostStatusRecord{
		{Status: model.StatusSuccess}, {Status: model.StatusSuccess},
	}}
	if got := aggregateManifestStatus(allSuccess); got != model.RunSuccess {
		t.Errorf("all-success manifest should be RunSuccess, got %v", got)
	}

	allFailure := model.Manifest{HostStatuses: []model.HostStatusRecord{
		{Status: model.StatusError}, {Status: model.StatusError},
	}}
	if got := aggregateManifestStatus(allFailure); got != model.RunError {
		t.Errorf("all-failure manifest should be RunError, got %v", got)
	}

	mixed := model.Manifest{HostStatuses: []model.HostStatusRecord{
		{Status: model.StatusSuccess}, {Status: model.StatusError},
	}}
	if got := aggregateManifestStatus(mixed); got != model.RunPartial {
		t.Errorf("mixed manifest should be RunPartial, got %v", got)
	}
}

func TestCountVersioned(t *testing.T) {
	manifest := model.Manifest{Artifacts: []model.Artifact{
		{Name: "tool-v1-linux_amd64.tar.gz"},
		{Name: "tool-v1-linux_amd64.tar.gz-alias", IsCompatAlias: true},
		{Name: "tool-v1-darwin_arm64.tar.gz"},
	}}
	if got := countVersioned(manifest); got != 2 {
		t.Errorf("countVersioned = %d, want 2", got)
	}
}
