package executor

import (
	"context"
	"testing"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func TestTimeoutOrPrefersRequestOverride(t *testing.T) {
	req := Request{BuildTimeout: 5 * time.Second, Tool: model.ToolDescriptor{BuildTimeoutSeconds: 99}}
	if got := timeoutOr(req, time.Minute); got != 5*time.Second {
		t.Errorf("timeoutOr = %v", got)
	}
}

func TestTimeoutOrFallsBackToToolDescriptor(t *testing.T) {
	req := Request{Tool: model.ToolDescriptor{BuildTimeoutSeconds: 30}}
	if got := timeoutOr(req, time.Minute); got != 30*time.Second {
		t.Errorf("timeoutOr = %v", got)
	}
}

func TestTimeoutOrFallsBackToDefault(t *testing.T) {
	req := Request{}
	if got := timeoutOr(req, time.Minute); got != time.Minute {
		t.Errorf("timeoutOr = %v", got)
	}
}

func TestHostLocksSerializeSameHost(t *testing.T) {
	locks := newHostLocks()
	a := locks.forHost("host-1")
	b := locks.forHost("host-1")
	if a != b {
		t.Error("expected the same mutex instance for the same host id")
	}
	c := locks.forHost("host-2")
	if a == c {
		t.Error("expected distinct mutexes for distinct host ids")
	}
}

func TestCrossCompileReachableRequiresRecipe(t *testing.T) {
	e := &CrossCompileExecutor{}
	if err := e.Reachable(context.Background(), Request{Tool: model.ToolDescriptor{Name: "cass"}}); err == nil {
		t.Error("expected an error when no cross-compile recipe is declared")
	}
}

func TestBuildRecipeCommandIncludesRevisionAndPlatform(t *testing.T) {
	req := Request{
		Tool:      model.ToolDescriptor{SourcePath: "/src/cass"},
		Platform:  model.Platform{OS: "linux", Arch: "amd64"},
		SourceRev: "abc123",
	}
	got := buildRecipeCommand(req)
	want := "cd /src/cass && git checkout abc123 && ./build.sh linux amd64"
	if got != want {
		t.Errorf("buildRecipeCommand = %q, want %q", got, want)
	}
}
