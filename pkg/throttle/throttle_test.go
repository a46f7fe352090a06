package throttle

import (
	"encoding/json"
	"testing"
	"time"
)

func TestThrottleBoundaryIsStrictlyGreaterThan(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	threshold := 600

	exactlyAtThreshold := QueuedRun{Status: "queued", CreatedAt: now.Add(-600 * time.Second)}
	overThreshold := QueuedRun{Status: "queued", CreatedAt: now.Add(-601 * time.Second)}

	runs := []QueuedRun{exactlyAtThreshold}
	if classify(runs, threshold, now) {
		t.Error("age exactly equal to threshold must not be throttled")
	}

	runs = []QueuedRun{overThreshold}
	if !classify(runs, threshold, now) {
		t.Error("age strictly greater than threshold must be throttled")
	}
}

func TestThrottleIgnoresCompletedRuns(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []QueuedRun{{Status: "completed", CreatedAt: now.Add(-10000 * time.Second)}}
	if classify(runs, 600, now) {
		t.Error("a completed run must never trigger throttling")
	}
}

func TestQueuedRunJSONShape(t *testing.T) {
	raw := `[{"databaseId":1,"status":"queued","createdAt":"2026-01-01T00:00:00Z","workflowDatabaseId":2}]`
	var runs []QueuedRun
	if err := json.Unmarshal([]byte(raw), &runs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(runs) != 1 || runs[0].DatabaseID != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

// classify mirrors Probe's inner loop without the gh CLI round trip, so the
// boundary condition can be tested directly.
func classify(runs []QueuedRun, thresholdSeconds int, now time.Time) bool {
	for _, run := range runs {
		if run.Status != "queued" && run.Status != "in_progress" {
			continue
		}
		if now.Sub(run.CreatedAt).Seconds() > float64(thresholdSeconds) {
			return true
		}
	}
	return false
}
