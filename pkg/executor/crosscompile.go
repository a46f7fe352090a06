package executor

import (
	"context"
	"os/exec"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// CrossCompileExecutor runs the tool's declared cross-compile recipe
// locally (§4.5: "cross-compile"). Recipe is the command and args to run,
// expanded by the caller from the tool descriptor before construction.
type CrossCompileExecutor struct {
	Recipe         []string
	DefaultTimeout time.Duration
}

func (e *CrossCompileExecutor) Reachable(ctx context.Context, req Request) error {
	if len(e.Recipe) == 0 {
		return errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "no cross-compile recipe declared").WithTarget(req.Tool.Name)
	}
	if _, err := exec.LookPath(e.Recipe[0]); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "cross-compile toolchain not found").WithTarget(e.Recipe[0])
	}
	return nil
}

func (e *CrossCompileExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, e.Recipe[0], e.Recipe[1:]...)
	cmd.Dir = req.Tool.SourcePath
	cmd.Env = append(cmd.Environ(), "GOOS="+req.Platform.OS, "GOARCH="+req.Platform.Arch)

	start := time.Now()
	result, err := runWithTimeout(ctx, timeoutOr(req, e.DefaultTimeout), cmd)
	if err != nil || result.Status != model.StatusSuccess {
		return result, err
	}

	paths, scanErr := collectArtifacts(req.StagingDir, start)
	if scanErr != nil {
		return result, errs.Wrap(errs.KindBuild, errs.CodeBuildCompilation, scanErr, "scanning cross-compile artifact output").WithTarget(req.Tool.Name)
	}
	result.ArtifactPaths = paths
	return result, nil
}
