package ghcli

import (
	"errors"
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
)

func TestClassifyAuthFailure(t *testing.T) {
	err := classify(errors.New("exit status 4"), "error: authentication failed, please run gh auth login", nil)
	var dsrErr *errs.Error
	if !errors.As(err, &dsrErr) || dsrErr.Kind != errs.KindAuthentication {
		t.Fatalf("expected authentication kind, got %v", err)
	}
}

func TestClassifyNetworkFailure(t *testing.T) {
	err := classify(errors.New("exit status 1"), "dial tcp: connection refused", nil)
	var dsrErr *errs.Error
	if !errors.As(err, &dsrErr) || dsrErr.Kind != errs.KindNetwork {
		t.Fatalf("expected network kind, got %v", err)
	}
}

func TestClassifyFallsBackToSystem(t *testing.T) {
	err := classify(errors.New("exit status 1"), "unknown flag --bogus", nil)
	var dsrErr *errs.Error
	if !errors.As(err, &dsrErr) || dsrErr.Kind != errs.KindSystem {
		t.Fatalf("expected system kind, got %v", err)
	}
}
