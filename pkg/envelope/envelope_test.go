package envelope

import (
	"bytes"
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func TestEnvelopeInvariants(t *testing.T) {
	e := New("check", "cass")
	e.Finish(model.RunSuccess, nil)

	if e.CompletedAt.Before(e.StartedAt) {
		t.Error("completed_at must not precede started_at")
	}
	if e.DurationMS < 0 {
		t.Error("duration_ms must be non-negative")
	}
	if e.ExitCode != 0 {
		t.Errorf("success must map to exit code 0, got %d", e.ExitCode)
	}
	if (e.ExitCode == 0) != (e.Status == model.RunSuccess) {
		t.Error("exit_code == 0 iff status == success must hold")
	}
}

func TestExitCodeForKind(t *testing.T) {
	cases := map[errs.Kind]int{
		errs.KindAuthentication: ExitDependencyMissing,
		errs.KindNetwork:        ExitNetworkError,
		errs.KindBuild:          ExitBuildFailed,
		errs.KindRelease:        ExitReleaseFailed,
		errs.KindConfiguration:  ExitInvalidArgsOrConfig,
		errs.KindSystem:         ExitDependencyMissing,
		errs.KindCancellation:   ExitInterruptedTimeout,
		errs.KindTimeout:        ExitInterruptedTimeout,
	}
	for kind, want := range cases {
		if got := ExitCodeForKind(kind); got != want {
			t.Errorf("ExitCodeForKind(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestWriteJSONIsSoleOutput(t *testing.T) {
	e := New("build", "cass")
	e.Finish(model.RunPartial, nil)
	var buf bytes.Buffer
	if err := e.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty JSON output")
	}
}
