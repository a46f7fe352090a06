package executor

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// ContainerRunnerExecutor invokes a container-based CI emulator against the
// project's workflow file (§4.5: "container-runner"). EmulatorBin is the
// emulator binary (e.g. a local `act`-style runner); InvokingUID/GID are
// passed through so emitted artifacts are writable by the invoking user,
// addressing the user-mapping caveat in §9.
type ContainerRunnerExecutor struct {
	EmulatorBin   string
	InvokingUID   int
	InvokingGID   int
	DefaultTimeout time.Duration
}

func (e *ContainerRunnerExecutor) Reachable(ctx context.Context, req Request) error {
	if _, err := exec.LookPath(e.EmulatorBin); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "workflow emulator binary not found").WithTarget(e.EmulatorBin)
	}
	return nil
}

func (e *ContainerRunnerExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	args := []string{
		"-W", req.Tool.WorkflowFile,
		"-j", req.Strategy.JobID,
		"--artifact-server-path", req.StagingDir,
		"--container-options", e.userMappingFlag(),
	}
	for key, value := range req.Strategy.MatrixFilter {
		args = append(args, "--matrix", key+":"+value)
	}

	cmd := exec.CommandContext(ctx, e.EmulatorBin, args...)
	cmd.Dir = req.Tool.SourcePath

	start := time.Now()
	result, err := runWithTimeout(ctx, timeoutOr(req, e.DefaultTimeout), cmd)
	if err != nil || result.Status != model.StatusSuccess {
		return result, err
	}

	paths, scanErr := collectArtifacts(req.StagingDir, start)
	if scanErr != nil {
		return result, errs.Wrap(errs.KindBuild, errs.CodeBuildEmulator, scanErr, "scanning emulator artifact output").WithTarget(req.Tool.Name)
	}
	result.ArtifactPaths = paths
	return result, nil
}

// userMappingFlag renders the invoking user's numeric uid/gid as a
// container-options fragment so the emulator writes artifacts the
// orchestrator can read back (§9).
func (e *ContainerRunnerExecutor) userMappingFlag() string {
	if e.InvokingUID == 0 && e.InvokingGID == 0 {
		return ""
	}
	return "--user=" + strconv.Itoa(e.InvokingUID) + ":" + strconv.Itoa(e.InvokingGID)
}
