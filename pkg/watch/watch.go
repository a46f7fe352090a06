// Package watch implements the watch-mode loop (§4.10): a polling state
// machine that checks hosted CI for queued runs at a jittered interval,
// fires the fallback pipeline once per stuck run, and backs off when the
// pipeline itself is failing rather than hammering hosted CI or the build
// hosts.
package watch

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/throttle"
)

var watchLog = logger.New("watch")

// jitterFraction is the ± proportion of the base interval applied to each
// sleep (§4.10: "interval ± 20%").
const jitterFraction = constants.DefaultWatchJitterFraction

// minSleep is the floor under which jitter must never push a sleep (§4.10).
const minSleep = time.Duration(constants.MinWatchSleepSeconds) * time.Second

// backoffSteps is the failure-backoff progression in seconds: doubling,
// capped at one hour (§4.10).
var backoffSteps = buildBackoffSteps()

func buildBackoffSteps() []time.Duration {
	var steps []time.Duration
	step := time.Duration(constants.BaseBackoffSeconds) * time.Second
	cap := time.Duration(constants.MaxBackoffSeconds) * time.Second
	for {
		steps = append(steps, step)
		if step >= cap {
			break
		}
		step *= 2
		if step > cap {
			step = cap
		}
	}
	return steps
}

// jitteredSleep returns interval adjusted by a uniform random amount in
// [-jitterFraction*interval, +jitterFraction*interval], never below minSleep.
func jitteredSleep(interval time.Duration, rnd *rand.Rand) time.Duration {
	delta := float64(interval) * jitterFraction
	offset := (rnd.Float64()*2 - 1) * delta
	sleep := time.Duration(float64(interval) + offset)
	if sleep < minSleep {
		return minSleep
	}
	return sleep
}

// backoffFor returns the sleep duration for the given number of consecutive
// pipeline failures (0 means no prior failure, i.e. use the normal interval).
func backoffFor(consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return 0
	}
	idx := consecutiveFailures - 1
	if idx >= len(backoffSteps) {
		idx = len(backoffSteps) - 1
	}
	return backoffSteps[idx]
}

// Config parameterizes one watch loop.
type Config struct {
	Repo             string
	Interval         time.Duration
	ThresholdSeconds int
	StatePath        string
}

// Hooks lets the caller supply the check/fire behavior without pkg/watch
// depending on pkg/pipeline or pkg/cli directly.
type Hooks struct {
	// FireBuild runs the fallback pipeline for one hosted-CI run. It
	// returns whether the pipeline succeeded (used for backoff).
	FireBuild func(ctx context.Context, run throttle.QueuedRun) bool
}

// Loop runs the IDLE → CHECK → (SLEEP | FILTER) → (FIRE | SLEEP) state
// machine until ctx is canceled. It persists the triggered set after every
// cycle that mutates it.
func Loop(ctx context.Context, cfg Config, hooks Hooks) {
	rnd := rand.New(rand.NewSource(1))
	consecutiveFailures := 0

	for {
		if ctx.Err() != nil {
			return
		}

		set := LoadTriggeredSet(cfg.StatePath)
		now := time.Now()
		set = GC(set, now)

		result, err := throttle.Probe(ctx, cfg.Repo, cfg.ThresholdSeconds, now)
		if err != nil {
			watchLog.Printf("throttle probe failed: %v", err)
			consecutiveFailures++
			if !sleepOrDone(ctx, backoffFor(consecutiveFailures)) {
				return
			}
			continue
		}

		for _, run := range result.QueuedRuns {
			runID := runKey(run)
			if IsTriggered(set, runID) {
				continue
			}
			age := now.Sub(run.CreatedAt)
			if age.Seconds() <= float64(cfg.ThresholdSeconds) {
				continue
			}

			watchLog.Printf("queued run %s exceeds threshold, firing fallback pipeline", runID)
			ok := hooks.FireBuild(ctx, run)
			set = Mark(set, runID, now)
			if ok {
				consecutiveFailures = 0
			} else {
				consecutiveFailures++
			}
		}

		if err := SaveTriggeredSet(cfg.StatePath, set); err != nil {
			watchLog.Printf("failed to persist triggered set: %v", err)
		}

		sleep := jitteredSleep(cfg.Interval, rnd)
		if consecutiveFailures > 0 {
			if backoff := backoffFor(consecutiveFailures); backoff > sleep {
				sleep = backoff
			}
		}
		if !sleepOrDone(ctx, sleep) {
			return
		}
	}
}

func runKey(run throttle.QueuedRun) string {
	return strconv.FormatInt(run.DatabaseID, 10)
}

// sleepOrDone blocks for d or until ctx is canceled, reporting which.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
