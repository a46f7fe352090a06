package envelope

import (
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// Exit codes per the stable contract in §6.
const (
	ExitSuccess             = 0
	ExitPartial             = 1
	ExitConflict            = 2
	ExitDependencyMissing   = 3
	ExitInvalidArgsOrConfig = 4
	ExitInterruptedTimeout  = 5
	ExitBuildFailed         = 6
	ExitReleaseFailed       = 7
	ExitNetworkError        = 8
)

// ExitCodeForStatus maps the coarse run status to its default exit code,
// used when no more specific error Kind narrows it further.
func ExitCodeForStatus(status model.RunStatus) int {
	switch status {
	case model.RunSuccess:
		return ExitSuccess
	case model.RunPartial:
		return ExitPartial
	default:
		return ExitInvalidArgsOrConfig
	}
}

// ExitCodeForKind maps an error Kind to its exit code (§6/§7). Cancellation
// maps to the interrupted/timeout class per §5's "Ctrl-C ... yields exit
// code 5" rule.
func ExitCodeForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindAuthentication:
		return ExitDependencyMissing
	case errs.KindNetwork:
		return ExitNetworkError
	case errs.KindBuild:
		return ExitBuildFailed
	case errs.KindRelease:
		return ExitReleaseFailed
	case errs.KindConfiguration:
		return ExitInvalidArgsOrConfig
	case errs.KindSystem:
		return ExitDependencyMissing
	case errs.KindCancellation, errs.KindTimeout:
		return ExitInterruptedTimeout
	default:
		return ExitInvalidArgsOrConfig
	}
}

// MostSevere picks the exit code for the single most severe Kind among a set
// of observed errors, per §7: "exit_code reflects the most severe class
// encountered." Severity order follows the numeric exit-code contract: a
// lower-numbered failure class (other than 0/1) is not inherently "worse"
// than a higher one, so dsr orders by the sequence errors were recorded and
// lets the last fatal stage's class win, matching the orchestrator's
// stage-sequential abort semantics (§4.9).
func MostSevere(kinds []errs.Kind) (int, bool) {
	if len(kinds) == 0 {
		return 0, false
	}
	return ExitCodeForKind(kinds[len(kinds)-1]), true
}
