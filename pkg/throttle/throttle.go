// Package throttle implements the throttle probe (§4.4): it asks hosted CI
// whether a repository's queued/in-progress runs have been waiting longer
// than a threshold, which is dsr's signal that hosted CI is backed up and a
// local fallback build should run.
package throttle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/ghcli"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
)

var throttleLog = logger.New("throttle")

// QueuedRun is one in-flight hosted CI run as reported by `gh run list`.
type QueuedRun struct {
	DatabaseID int64     `json:"databaseId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	WorkflowID int64     `json:"workflowDatabaseId"`
}

// Result is the probe's verdict for one repository.
type Result struct {
	Throttled  bool
	QueuedRuns []QueuedRun
}

// Probe lists the repo's queued/in_progress runs and classifies the repo as
// throttled iff at least one run's age is strictly greater than threshold.
// now is injected so callers (and tests) control the comparison point.
func Probe(ctx context.Context, repo string, thresholdSeconds int, now time.Time) (Result, error) {
	stdout, _, err := ghcli.RunJSON(ctx, "run", "list",
		"--repo", repo,
		"--json", "databaseId,status,createdAt,workflowDatabaseId",
		"--limit", "50")
	if err != nil {
		var dsrErr *errs.Error
		if errors.As(err, &dsrErr) {
			return Result{}, dsrErr
		}
		return Result{}, errs.Wrap(errs.KindNetwork, errs.CodeNetworkUnreachable, err, "listing workflow runs").WithTarget(repo)
	}

	var all []QueuedRun
	if err := json.Unmarshal(stdout.Bytes(), &all); err != nil {
		return Result{}, errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "parsing gh run list output").WithTarget(repo)
	}

	var queued []QueuedRun
	throttled := false
	for _, run := range all {
		if run.Status != "queued" && run.Status != "in_progress" {
			continue
		}
		queued = append(queued, run)
		age := now.Sub(run.CreatedAt)
		if age.Seconds() > float64(thresholdSeconds) {
			throttled = true
		}
	}

	throttleLog.Printf("repo %s: %d queued/in_progress runs, throttled=%v (threshold=%ds)", repo, len(queued), throttled, thresholdSeconds)
	return Result{Throttled: throttled, QueuedRuns: queued}, nil
}
