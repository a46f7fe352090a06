package cli

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// requiredTools lists the upstream dependencies invoked out of process (§6):
// a hosted-CI CLI, a container-based workflow emulator, an SSH client, a
// signing tool, a bill-of-materials generator, a YAML query tool, and a
// JSON query tool.
var requiredTools = []struct {
	Bin, Purpose string
}{
	{"gh", "hosted-CI CLI (listing runs, releases, uploads)"},
	{"act", "container-based workflow emulator"},
	{"ssh", "SSH client for remote builders"},
	{"minisign", "signing tool for sidecar signatures"},
	{"syft", "bill-of-materials generator"},
	{"yq", "YAML query tool"},
	{"jq", "JSON query tool"},
}

// NewDoctorCommand creates the doctor command: reports which upstream tools
// dsr depends on are present on PATH, without mutating anything.
func NewDoctorCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that dsr's upstream command-line dependencies are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), flags)
		},
	}
	return cmd
}

func runDoctor(_ context.Context, flags *GlobalFlags) error {
	env := envelope.New("doctor", "")

	type toolStatus struct {
		Bin     string `json:"bin"`
		Purpose string `json:"purpose"`
		Found   bool   `json:"found"`
		Path    string `json:"path,omitempty"`
	}
	var statuses []toolStatus
	missing := 0

	for _, t := range requiredTools {
		path, err := exec.LookPath(t.Bin)
		found := err == nil
		if !found {
			missing++
		}
		statuses = append(statuses, toolStatus{Bin: t.Bin, Purpose: t.Purpose, Found: found, Path: path})

		if !flags.Quiet {
			if found {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("%-10s %s (%s)", t.Bin, t.Purpose, path)))
			} else {
				console.Printf("%s", console.FormatWarningMessage(fmt.Sprintf("%-10s %s — not found on PATH", t.Bin, t.Purpose)))
			}
		}
	}

	env.Details["tools"] = statuses
	env.Details["missing_count"] = missing

	status := model.RunSuccess
	if missing > 0 {
		status = model.RunPartial
	}
	env.Finish(status, nil)
	return emit(env, flags)
}
