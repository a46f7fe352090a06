// Package envelope implements the run envelope and exit-code mapper (§4.11,
// §6): every top-level invocation wraps its work in an Envelope and returns
// one of the fixed exit codes, so that both human and machine callers see a
// single, uniform result shape regardless of which command ran.
package envelope

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// ErrorEntry is a structured error as carried in Envelope.Errors.
type ErrorEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

// WarningEntry mirrors ErrorEntry for non-fatal findings.
type WarningEntry struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

// Envelope is the sole machine-readable output of a dsr invocation (§3, §6).
type Envelope struct {
	Command       string           `json:"command"`
	Status        model.RunStatus  `json:"status"`
	ExitCode      int              `json:"exit_code"`
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at"`
	CompletedAt   time.Time        `json:"completed_at"`
	DurationMS    int64            `json:"duration_ms"`
	Tool          string           `json:"tool"`
	Version       string           `json:"version,omitempty"`
	SchemaVersion int              `json:"schema_version"`
	Artifacts     []model.Artifact `json:"artifacts,omitempty"`
	Warnings      []WarningEntry   `json:"warnings,omitempty"`
	Errors        []ErrorEntry     `json:"errors,omitempty"`
	Details       map[string]any   `json:"details,omitempty"`
}

// New starts an envelope for command/tool with a fresh v4 run id.
func New(command, tool string) *Envelope {
	return &Envelope{
		Command:       command,
		Tool:          tool,
		RunID:         uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		SchemaVersion: constants.SchemaVersion,
		Details:       map[string]any{},
	}
}

// AddError appends a structured error entry.
func (e *Envelope) AddError(code, message, target string) {
	e.Errors = append(e.Errors, ErrorEntry{Code: code, Message: message, Target: target})
}

// AddWarning appends a structured warning entry.
func (e *Envelope) AddWarning(code, message, target string) {
	e.Warnings = append(e.Warnings, WarningEntry{Code: code, Message: message, Target: target})
}

// Finish stamps completion time/duration and sets Status. ExitCode is
// mostSevere when the caller supplies one (an exit code the caller derived
// from error Kinds), otherwise ExitCodeForStatus(status). It returns the
// envelope for chaining into the caller's os.Exit.
func (e *Envelope) Finish(status model.RunStatus, mostSevere *int) *Envelope {
	e.CompletedAt = time.Now().UTC()
	e.DurationMS = e.CompletedAt.Sub(e.StartedAt).Milliseconds()
	e.Status = status
	if mostSevere != nil {
		e.ExitCode = *mostSevere
	} else {
		e.ExitCode = ExitCodeForStatus(status)
	}
	return e
}

// WriteJSON writes the envelope as the single machine-mode JSON document (§6).
func (e *Envelope) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
