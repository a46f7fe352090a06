// Package errs implements dsr's error taxonomy (§7, §9 of the spec): a
// closed set of Kinds, each with a family of stable string codes, that
// drives both the exit-code mapper (pkg/envelope) and the run envelope's
// structured errors[] field. Components never return bare errors.New for
// anything user-visible — they wrap the cause in an *Error carrying a Kind
// and a Code so downstream stages can classify without string matching.
package errs

import "fmt"

// Kind is the top-level classification of a failure.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindNetwork        Kind = "network"
	KindBuild          Kind = "build"
	KindRelease        Kind = "release"
	KindConfiguration  Kind = "configuration"
	KindSystem         Kind = "system"
	KindCancellation   Kind = "cancellation"
	KindTimeout        Kind = "timeout"
)

// Stable codes, grouped per §7.
const (
	CodeAuthHostedCI = "E001"
	CodeAuthSSH      = "E002"
	CodeNetworkTimeout     = "E003"
	CodeNetworkUnreachable = "E004"

	CodeBuildCompilation = "E010"
	CodeBuildDependency  = "E011"
	CodeBuildEmulator    = "E012"

	CodeReleaseUpload = "E020"
	CodeReleaseTagConflict = "E021"
	CodeReleaseSigning     = "E022"

	CodeConfigInvalid = "E030"
	CodeConfigMissing = "E031"

	CodeSystemContainerDaemon = "E040"
	CodeSystemRequiredTool    = "E041"
)

// Error is the structured error every component returns for user/machine
// visible failures. Target is an optional identifier (platform, host id,
// run id) pinpointing what the error is about.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Target  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error without an underlying cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap constructs an *Error around an underlying cause.
func Wrap(kind Kind, code string, cause error, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// WithTarget returns a copy of e with Target set, for attaching a
// platform/host/run identifier after the fact.
func (e *Error) WithTarget(target string) *Error {
	clone := *e
	clone.Target = target
	return &clone
}

// IsFatalBetweenStages reports whether, per §7's propagation policy, a stage
// producing this Kind of error should abort the remaining pipeline stages
// rather than letting the orchestrator continue with a partial result.
func IsFatalBetweenStages(kind Kind) bool {
	switch kind {
	case KindAuthentication, KindConfiguration, KindSystem:
		return true
	default:
		return false
	}
}
