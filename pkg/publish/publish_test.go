package publish

import (
	"errors"
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
)

func TestIsTransientOnlyForNetworkKind(t *testing.T) {
	networkErr := errs.New(errs.KindNetwork, errs.CodeNetworkTimeout, "timed out")
	if !isTransient(networkErr) {
		t.Error("expected a network-kind error to be treated as transient")
	}

	authErr := errs.New(errs.KindAuthentication, errs.CodeAuthHostedCI, "bad creds")
	if isTransient(authErr) {
		t.Error("expected an authentication-kind error to be treated as permanent")
	}

	if isTransient(errors.New("plain error")) {
		t.Error("expected a non-dsr error to be treated as permanent")
	}
}

func TestExtractURL(t *testing.T) {
	got := extractURL(`{"url":"https://github.com/owner/repo/releases/tag/v1.0.0","other":1}`)
	want := "https://github.com/owner/repo/releases/tag/v1.0.0"
	if got != want {
		t.Errorf("extractURL = %q, want %q", got, want)
	}
}

func TestExtractURLMissing(t *testing.T) {
	if got := extractURL(`{"no_url_field":true}`); got != "" {
		t.Errorf("extractURL = %q, want empty", got)
	}
}

func TestWrapReleaseErrPreservesAuthKind(t *testing.T) {
	authErr := errs.New(errs.KindAuthentication, errs.CodeAuthHostedCI, "bad creds")
	wrapped := wrapReleaseErr(authErr, "uploading asset")
	var dsrErr *errs.Error
	if !errors.As(wrapped, &dsrErr) || dsrErr.Kind != errs.KindAuthentication {
		t.Errorf("expected authentication kind preserved, got %v", wrapped)
	}
}

func TestWrapReleaseErrDefaultsToReleaseKind(t *testing.T) {
	wrapped := wrapReleaseErr(errors.New("some failure"), "uploading asset")
	var dsrErr *errs.Error
	if !errors.As(wrapped, &dsrErr) || dsrErr.Kind != errs.KindRelease {
		t.Errorf("expected release kind, got %v", wrapped)
	}
}
