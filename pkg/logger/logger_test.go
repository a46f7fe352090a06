package logger

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		namespace, pattern string
		want               bool
	}{
		{"dsr:watch", "*", true},
		{"dsr:watch", "dsr:watch", true},
		{"dsr:watch", "dsr:*", true},
		{"dsr:watch:jitter", "dsr:watch:*", true},
		{"dsr:dispatch", "dsr:watch:*", false},
		{"dsr:dispatch", "*:dispatch", true},
	}
	for _, c := range cases {
		if got := matches(c.namespace, c.pattern); got != c.want {
			t.Errorf("matches(%q, %q) = %v, want %v", c.namespace, c.pattern, got, c.want)
		}
	}
}

func TestNamespaceEnabledExclusion(t *testing.T) {
	old := debugPatterns
	defer func() { debugPatterns = old }()

	debugPatterns = []string{"dsr:*", "-dsr:watch:jitter"}
	if !namespaceEnabled("dsr:watch") {
		t.Error("expected dsr:watch to be enabled")
	}
	if namespaceEnabled("dsr:watch:jitter") {
		t.Error("expected dsr:watch:jitter to be excluded")
	}
}

func TestElapsedString(t *testing.T) {
	if elapsedString(0) != "0ns" {
		t.Errorf("unexpected zero-duration format: %s", elapsedString(0))
	}
}
