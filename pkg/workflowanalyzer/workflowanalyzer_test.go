package workflowanalyzer

import (
	"testing"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func noHost(string) (string, bool) { return "", false }

func macHost(os string) (string, bool) {
	if os == "darwin" {
		return "mac-1", true
	}
	return "", false
}

func TestClassifyUbuntuRunnerIsContainerRunner(t *testing.T) {
	jobs := []model.WorkflowJob{{ID: "build-linux", RuntimeLabels: []string{"ubuntu-latest"}}}
	strategy := Classify(model.Platform{OS: "linux", Arch: "amd64"}, nil, nil, jobs, noHost)
	if strategy.Kind != model.StrategyContainerRunner {
		t.Errorf("kind = %v, want container-runner", strategy.Kind)
	}
	if strategy.JobID != "build-linux" {
		t.Errorf("job id = %q", strategy.JobID)
	}
}

func TestClassifyMacosRunnerIsNativeSSH(t *testing.T) {
	jobs := []model.WorkflowJob{{ID: "build-mac", RuntimeLabels: []string{"macos-14"}}}
	strategy := Classify(model.Platform{OS: "darwin", Arch: "arm64"}, nil, nil, jobs, macHost)
	if strategy.Kind != model.StrategyNativeSSH || strategy.HostID != "mac-1" {
		t.Errorf("strategy = %+v", strategy)
	}
}

func TestClassifyNullPlatformFromJobMap(t *testing.T) {
	jobMap := map[string]string{"windows/amd64": "none"}
	strategy := Classify(model.Platform{OS: "windows", Arch: "amd64"}, jobMap, nil, nil, noHost)
	if strategy.Kind != model.StrategyNullPlatform {
		t.Errorf("kind = %v, want null-platform", strategy.Kind)
	}
}

func TestClassifyUnknownRunnerLabelIsUnresolved(t *testing.T) {
	jobs := []model.WorkflowJob{{ID: "build-exotic", RuntimeLabels: []string{"exotic-arm-farm"}}}
	strategy := Classify(model.Platform{OS: "linux", Arch: "arm"}, nil, nil, jobs, noHost)
	if !strategy.Unresolved {
		t.Error("expected an unclassifiable runner label to mark the platform unresolved")
	}
}

func TestClassifyNoMatchingJobIsUnresolved(t *testing.T) {
	jobs := []model.WorkflowJob{{ID: "build-linux", RuntimeLabels: []string{"ubuntu-latest"}}}
	strategy := Classify(model.Platform{OS: "darwin", Arch: "arm64"}, nil, nil, jobs, noHost)
	if !strategy.Unresolved {
		t.Error("expected no matching job for the platform to mark it unresolved")
	}
}

func TestClassifyMatrixFilterIsAttached(t *testing.T) {
	jobs := []model.WorkflowJob{{ID: "build-linux", RuntimeLabels: []string{"ubuntu-latest"}}}
	filters := map[string]map[string]string{"linux/amd64": {"libc": "musl"}}
	strategy := Classify(model.Platform{OS: "linux", Arch: "amd64"}, nil, filters, jobs, noHost)
	if strategy.MatrixFilter["libc"] != "musl" {
		t.Errorf("matrix filter = %+v", strategy.MatrixFilter)
	}
}
