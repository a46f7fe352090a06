// Package dispatcher implements the build dispatcher (§4.6): it builds one
// BuildTarget per requested platform, fans out to host executors with a
// bounded worker pool, and aggregates the per-target outcomes into a run
// status. Concurrency uses sourcegraph/conc/pool the same way the teacher's
// pkg/cli/logs.go bounds concurrent artifact downloads.
package dispatcher

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/executor"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var dispatchLog = logger.New("dispatcher")

// TargetResult is one build target's outcome, joined with its declared
// position so the manifest can report declared order (§4.6 "tie-break").
type TargetResult struct {
	Target model.BuildTarget
	Result executor.Result
	Err    error
}

// Dispatch runs one target per platform, respecting the concurrency
// ceiling, and returns per-target results in declared platform order
// together with the aggregate run status (§4.6).
func Dispatch(ctx context.Context, targets []model.BuildTarget, concurrency int, resolve func(model.BuildTarget) executor.Executor, buildReq func(model.BuildTarget) executor.Request) ([]TargetResult, model.RunStatus) {
	if concurrency <= 0 {
		concurrency = 1
	}

	p := pool.NewWithResults[TargetResult]().WithMaxGoroutines(concurrency)

	for _, target := range targets {
		target := target // capture loop variable
		p.Go(func() TargetResult {
			if target.Strategy.Kind == model.StrategyNullPlatform {
				if target.HostID == "" {
					dispatchLog.Printf("platform %s maps to no job (job_map=none) and has no native-ssh host configured; recording as unresolved", target.Platform)
					return TargetResult{Target: target, Result: executor.Result{Status: model.StatusError}, Err: nil}
				}
				dispatchLog.Printf("platform %s maps to no job (job_map=none); falling back to native-ssh host %s", target.Platform, target.HostID)
				target.Strategy = model.BuildStrategy{Kind: model.StrategyNativeSSH, HostID: target.HostID, MatrixFilter: target.Strategy.MatrixFilter}
			}
			if target.Strategy.Unresolved {
				dispatchLog.Printf("platform %s is unresolved: %s", target.Platform, target.Strategy.Warning)
				return TargetResult{Target: target, Result: executor.Result{Status: model.StatusError}, Err: nil}
			}

			exec := resolve(target)
			req := buildReq(target)

			if err := exec.Reachable(ctx, req); err != nil {
				dispatchLog.Printf("host for platform %s unreachable: %v", target.Platform, err)
				return TargetResult{Target: target, Result: executor.Result{Status: model.StatusError}, Err: err}
			}

			start := time.Now()
			result, err := exec.Execute(ctx, req)
			result.Duration = time.Since(start)
			return TargetResult{Target: target, Result: result, Err: err}
		})
	}

	unordered := p.Wait()

	// Re-sort into declared order: wall-clock completion order is
	// non-deterministic, but the manifest records declared order (§4.6).
	ordered := make([]TargetResult, len(targets))
	byIdx := make(map[int]TargetResult, len(unordered))
	for _, r := range unordered {
		byIdx[r.Target.DeclaredIdx] = r
	}
	for i, target := range targets {
		if r, ok := byIdx[target.DeclaredIdx]; ok {
			ordered[i] = r
		}
	}

	return ordered, aggregateStatus(ordered)
}

func aggregateStatus(results []TargetResult) model.RunStatus {
	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Result.Status == model.StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}
	switch {
	case failed == 0:
		return model.RunSuccess
	case succeeded == 0:
		return model.RunError
	default:
		return model.RunPartial
	}
}

// BuildTargets constructs exactly one BuildTarget per platform the tool
// descriptor declares (§3 "exactly one target per requested platform").
func BuildTargets(tool model.ToolDescriptor, strategyFor func(model.Platform) model.BuildStrategy, hostFor func(model.Platform) string) []model.BuildTarget {
	targets := make([]model.BuildTarget, 0, len(tool.Platforms))
	for i, platform := range tool.Platforms {
		strategy := strategyFor(platform)
		hostID := strategy.HostID
		if hostID == "" {
			hostID = hostFor(platform)
		}
		targets = append(targets, model.BuildTarget{
			Platform:    platform,
			Strategy:    strategy,
			HostID:      hostID,
			DeclaredIdx: i,
		})
	}
	return targets
}
