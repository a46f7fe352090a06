// Package executor implements the host executor (§4.5): given a build
// strategy, it runs the actual build and returns the produced artifact
// paths plus captured output, duration, and exit status. Each strategy
// variant in model.StrategyKind gets its own Executor implementation; the
// dispatcher only ever calls through the interface (§9 "polymorphism over
// strategies").
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var executorLog = logger.New("executor")

// Request is everything one execution needs.
type Request struct {
	Tool         model.ToolDescriptor
	Strategy     model.BuildStrategy
	Platform     model.Platform
	SourceRev    string
	StagingDir   string // directory this execution must write artifacts into
	BuildTimeout time.Duration
}

// Result is what one execution produced.
type Result struct {
	ArtifactPaths []string
	Stdout        string
	Stderr        string
	Status        model.TerminalStatus
	Duration      time.Duration
}

// Executor runs one build target to completion.
type Executor interface {
	// Reachable checks whether the host/tooling this executor needs is
	// available, without consuming build compute (§4.5: "reachability
	// check happens first").
	Reachable(ctx context.Context, req Request) error
	Execute(ctx context.Context, req Request) (Result, error)
}

// hostLocks serializes concurrent target invocations against the same host
// (§5 "a per-host mutex serializes concurrent target invocations"). Only
// SSHExecutor takes these locks; the container-runner and cross-compile
// executors run without them.
type hostLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newHostLocks() *hostLocks {
	return &hostLocks{locks: make(map[string]*sync.Mutex)}
}

func (h *hostLocks) forHost(hostID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.locks[hostID]; ok {
		return l
	}
	l := &sync.Mutex{}
	h.locks[hostID] = l
	return l
}

var sharedHostLocks = newHostLocks()

// For builds execution with a timeout ceiling, turning a context deadline
// exceeded into model.StatusTimeout rather than a generic error (§5
// "exceeding it aborts that target as timeout ... not a network error").
func runWithTimeout(ctx context.Context, timeout time.Duration, cmd *exec.Cmd) (Result, error) {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return Result{}, errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "starting build command")
	}
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return Result{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Status:   model.StatusTimeout,
			Duration: time.Since(start),
		}, nil
	case err := <-done:
		duration := time.Since(start)
		if err != nil {
			return Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Status:   model.StatusError,
				Duration: duration,
			}, errs.Wrap(errs.KindBuild, errs.CodeBuildCompilation, err, "build command exited non-zero")
		}
		return Result{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Status:   model.StatusSuccess,
			Duration: duration,
		}, nil
	}
}

// collectArtifacts scans dir for regular files written at or after since,
// the "known path" artifact discovery §4.5 requires for executors whose
// underlying tool (a container-based CI emulator, a cross-compile recipe)
// writes its output to a staging directory instead of reporting paths back
// directly. since excludes anything left over from an earlier build sharing
// the same staging directory.
func collectArtifacts(dir string, since time.Time) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || info.ModTime().Before(since) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func timeoutOr(req Request, fallback time.Duration) time.Duration {
	if req.BuildTimeout > 0 {
		return req.BuildTimeout
	}
	if req.Tool.BuildTimeoutSeconds > 0 {
		return time.Duration(req.Tool.BuildTimeoutSeconds) * time.Second
	}
	return fallback
}

func fmtTarget(req Request) string {
	return fmt.Sprintf("%s@%s/%s", req.Tool.Name, req.Platform.OS, req.Platform.Arch)
}
