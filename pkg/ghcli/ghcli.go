// Package ghcli wraps `gh` CLI invocations with the same token-resolution
// behavior as the teacher's pkg/workflow/github_cli.go: resolve a token via
// cli/go-gh/v2's pkg/auth, and only force-set GH_TOKEN in the child's
// environment when the resolved token didn't already come from GH_TOKEN.
package ghcli

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	gh "github.com/cli/go-gh/v2"
	"github.com/cli/go-gh/v2/pkg/auth"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
)

var ghLog = logger.New("ghcli")

const tokenSourceGHToken = "GH_TOKEN"

// ExecContext builds a *exec.Cmd for `gh <args...>` with a resolved token
// for github.com injected into the environment when needed.
func ExecContext(ctx context.Context, args ...string) *exec.Cmd {
	token, source := auth.TokenForHost("github.com")
	cmd := exec.CommandContext(ctx, "gh", args...)
	if token == "" {
		ghLog.Printf("no token available, using default gh CLI behavior for: gh %v", args)
		return cmd
	}
	ghLog.Printf("using gh CLI with token from %s for: gh %v", source, args)
	if source != tokenSourceGHToken {
		cmd.Env = append(os.Environ(), "GH_TOKEN="+token)
	}
	return cmd
}

// RunJSON runs `gh <args...>` and returns stdout/stderr, classifying
// failures into dsr's error taxonomy (§4.4: auth vs. network vs. other).
func RunJSON(ctx context.Context, args ...string) (stdout, stderr bytes.Buffer, err error) {
	cmd := ExecContext(ctx, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if runErr == nil {
		return stdout, stderr, nil
	}
	return stdout, stderr, classify(runErr, stderr.String(), args)
}

// Exec runs `gh <args...>` via go-gh/v2's own Exec helper, used where the
// caller needs the library's richer stdout/stderr capture rather than an
// *exec.Cmd to further configure.
func Exec(args ...string) (stdout, stderr bytes.Buffer, err error) {
	stdout, stderr, err = gh.Exec(args...)
	if err != nil {
		return stdout, stderr, classify(err, stderr.String(), args)
	}
	return stdout, stderr, nil
}

func classify(cause error, stderrText string, args []string) error {
	switch {
	case looksLikeAuthFailure(stderrText):
		return errs.Wrap(errs.KindAuthentication, errs.CodeAuthHostedCI, cause, "gh CLI authentication failed")
	case looksLikeNetworkFailure(stderrText):
		return errs.Wrap(errs.KindNetwork, errs.CodeNetworkUnreachable, cause, "gh CLI could not reach GitHub")
	default:
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, cause, "gh CLI command failed")
	}
}

func looksLikeAuthFailure(stderrText string) bool {
	for _, needle := range []string{"authentication", "not logged in", "401", "403", "bad credentials"} {
		if containsFold(stderrText, needle) {
			return true
		}
	}
	return false
}

func looksLikeNetworkFailure(stderrText string) bool {
	for _, needle := range []string{"connection refused", "no such host", "timeout", "timed out", "network is unreachable", "TLS handshake"} {
		if containsFold(stderrText, needle) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return bytes.Contains(bytes.ToLower([]byte(haystack)), bytes.ToLower([]byte(needle)))
}
