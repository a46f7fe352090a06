package cli

import (
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/config"
)

func TestConfigFieldSetAndGetRoundTrip(t *testing.T) {
	cfg := config.Defaults()

	if err := configFieldSet(&cfg, "threshold_seconds", "900"); err != nil {
		t.Fatalf("configFieldSet(threshold_seconds) error: %v", err)
	}
	got, err := configFieldGet(cfg, "threshold_seconds")
	if err != nil {
		t.Fatalf("configFieldGet(threshold_seconds) error: %v", err)
	}
	if got != 900 {
		t.Errorf("threshold_seconds = %v, want 900", got)
	}

	if err := configFieldSet(&cfg, "signing_enabled", "false"); err != nil {
		t.Fatalf("configFieldSet(signing_enabled) error: %v", err)
	}
	got, err = configFieldGet(cfg, "signing_enabled")
	if err != nil {
		t.Fatalf("configFieldGet(signing_enabled) error: %v", err)
	}
	if got != false {
		t.Errorf("signing_enabled = %v, want false", got)
	}
}

func TestConfigFieldSetRejectsBadValues(t *testing.T) {
	cfg := config.Defaults()
	if err := configFieldSet(&cfg, "threshold_seconds", "not-a-number"); err == nil {
		t.Error("expected an error setting threshold_seconds to a non-integer")
	}
	if err := configFieldSet(&cfg, "nonexistent_key", "x"); err == nil {
		t.Error("expected an error setting an unknown key")
	}
}

func TestConfigFieldGetUnknownKey(t *testing.T) {
	cfg := config.Defaults()
	if _, err := configFieldGet(cfg, "nonexistent_key"); err == nil {
		t.Error("expected an error getting an unknown key")
	}
}
