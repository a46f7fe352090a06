package errs

import (
	"errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(KindConfiguration, CodeConfigInvalid, "undefined variable in pattern")
	if e.Error() != "E030: undefined variable in pattern" {
		t.Errorf("unexpected message: %s", e.Error())
	}
	e2 := e.WithTarget("darwin/arm64")
	if e2.Error() != "E030: undefined variable in pattern (darwin/arm64)" {
		t.Errorf("unexpected targeted message: %s", e2.Error())
	}
	// WithTarget must not mutate the receiver.
	if e.Target != "" {
		t.Error("WithTarget mutated the original error")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	e := Wrap(KindNetwork, CodeNetworkTimeout, cause, "hosted CI unreachable")
	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIsFatalBetweenStages(t *testing.T) {
	fatal := []Kind{KindAuthentication, KindConfiguration, KindSystem}
	for _, k := range fatal {
		if !IsFatalBetweenStages(k) {
			t.Errorf("%s should be fatal between stages", k)
		}
	}
	nonFatal := []Kind{KindBuild, KindRelease, KindNetwork, KindTimeout, KindCancellation}
	for _, k := range nonFatal {
		if IsFatalBetweenStages(k) {
			t.Errorf("%s should not be fatal between stages", k)
		}
	}
}
