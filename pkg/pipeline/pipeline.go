// Package pipeline implements the pipeline orchestrator (§4.9): it
// sequences check → build → sign → release, recording one stage record per
// stage in the run envelope's details.steps, and applies the fatal-vs-
// partial continuation policy from §7.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var pipelineLog = logger.New("pipeline")

// StageName identifies one of the four fixed stages (§4.9).
type StageName string

const (
	StageCheck   StageName = "check"
	StageBuild   StageName = "build"
	StageSign    StageName = "sign"
	StageRelease StageName = "release"
)

// StageRecord is one row of the envelope's details.steps array.
type StageRecord struct {
	Name       StageName     `json:"name"`
	Status     model.RunStatus `json:"status"`
	ExitCode   int           `json:"exit_code"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}

// Stage is one unit of work the orchestrator runs in sequence. It returns
// the stage's run status and, on failure, the error Kind driving the
// fatal/non-fatal decision for the *next* stage.
type Stage struct {
	Name StageName
	Run  func(ctx context.Context) (model.RunStatus, error)
}

// Outcome is the orchestrator's final verdict across every stage run.
type Outcome struct {
	Stages []StageRecord
	Status model.RunStatus
	Kinds  []errs.Kind // one entry per stage that produced an error, in run order
}

// Run executes stages in strict sequence (§5 "stage N never starts before
// stage N−1 completes"), stopping early when a stage's error Kind is fatal
// between stages per §7, and otherwise downgrading the overall status to
// partial and continuing.
func Run(ctx context.Context, stages []Stage) Outcome {
	var outcome Outcome
	overall := model.RunSuccess

	for _, stage := range stages {
		start := time.Now()
		status, err := stage.Run(ctx)
		duration := time.Since(start)

		record := StageRecord{
			Name:       stage.Name,
			Status:     status,
			DurationMS: duration.Milliseconds(),
		}

		if err != nil {
			kind := kindOf(err)
			outcome.Kinds = append(outcome.Kinds, kind)
			record.Error = err.Error()
			pipelineLog.Printf("stage %s failed: %v", stage.Name, err)

			if errs.IsFatalBetweenStages(kind) {
				record.Status = model.RunError
				outcome.Stages = append(outcome.Stages, record)
				outcome.Status = model.RunError
				return outcome
			}

			// Build/release errors are stage-terminal but non-fatal to the
			// pipeline: downgrade overall status and continue (§7).
			if overall == model.RunSuccess {
				overall = model.RunPartial
			}
		} else if status != model.RunSuccess {
			if overall == model.RunSuccess {
				overall = status
			} else if status == model.RunError && overall == model.RunPartial {
				// leave as partial: at least one earlier stage succeeded
			}
		}

		outcome.Stages = append(outcome.Stages, record)
	}

	outcome.Status = overall
	return outcome
}

func kindOf(err error) errs.Kind {
	var dsrErr *errs.Error
	if errors.As(err, &dsrErr) {
		return dsrErr.Kind
	}
	return errs.KindSystem
}
