// Package workflowanalyzer implements the workflow analyzer (§4.3): it reads
// the target project's CI workflow file and classifies each job's declared
// runner into a build strategy, so the dispatcher never has to understand
// GitHub Actions YAML itself.
//
// The teacher only ever shells out to `rhysd/actionlint` through a Docker
// image (pkg/cli/actionlint.go) to lint workflows it generates. dsr instead
// imports actionlint as a real Go library to parse the *target* project's
// existing workflow file — a more direct use of a dependency the teacher
// already carries, not a new one (see DESIGN.md).
package workflowanalyzer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rhysd/actionlint"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var analyzerLog = logger.New("workflowanalyzer")

// Analyze reads the workflow file at path and extracts dsr's view of its
// jobs (§3 "workflow descriptor").
func Analyze(path string) (model.WorkflowDescriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.WorkflowDescriptor{}, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "reading workflow file").WithTarget(path)
	}

	wf, parseErrs := actionlint.Parse(content)
	if len(parseErrs) > 0 {
		return model.WorkflowDescriptor{}, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid,
			fmt.Sprintf("parsing workflow file: %s", parseErrs[0].Error())).WithTarget(path)
	}
	if wf == nil {
		return model.WorkflowDescriptor{}, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "empty workflow document").WithTarget(path)
	}

	var desc model.WorkflowDescriptor
	for id, job := range wf.Jobs {
		if job == nil {
			continue
		}
		desc.Jobs = append(desc.Jobs, extractJob(id, job))
	}
	return desc, nil
}

func extractJob(id string, job *actionlint.Job) model.WorkflowJob {
	wj := model.WorkflowJob{ID: id}

	if job.RunsOn != nil {
		for _, label := range job.RunsOn.Labels {
			if label != nil {
				wj.RuntimeLabels = append(wj.RuntimeLabels, label.Value)
			}
		}
		wj.RunsOnLabels = append([]string(nil), wj.RuntimeLabels...)
		for _, label := range wj.RuntimeLabels {
			if strings.EqualFold(label, "self-hosted") {
				wj.SelfHosted = true
			}
		}
	}

	if job.Strategy != nil && job.Strategy.Matrix != nil {
		for key, row := range job.Strategy.Matrix.Rows {
			if row == nil {
				continue
			}
			for _, v := range row.Values {
				wj.MatrixEntries = append(wj.MatrixEntries, map[string]string{key: fmt.Sprintf("%v", v)})
			}
		}
	}

	return wj
}

// Classify maps one workflow job's runner labels to a build strategy for
// the given platform, per §4.3's rules. jobMap and matrixFilters come from
// the tool descriptor; hostForOS resolves the native-ssh host id for a
// platform's OS once a "macos"/"windows"/self-hosted label is recognized.
func Classify(platform model.Platform, jobMap map[string]string, matrixFilters map[string]map[string]string, jobs []model.WorkflowJob, hostForOS func(os string) (string, bool)) model.BuildStrategy {
	key := platform.String()

	if mapped, ok := jobMap[key]; ok && mapped == "none" {
		return model.BuildStrategy{Kind: model.StrategyNullPlatform, MatrixFilter: matrixFilters[key]}
	}

	var job *model.WorkflowJob
	if mapped, ok := jobMap[key]; ok {
		for i := range jobs {
			if jobs[i].ID == mapped {
				job = &jobs[i]
				break
			}
		}
		if job == nil {
			return unresolved(key, fmt.Sprintf("job_map for %s names unknown job %q", key, mapped))
		}
	} else {
		job = findJobByRunner(jobs, platform.OS)
		if job == nil {
			return unresolved(key, fmt.Sprintf("no job in the workflow declares a runner matching platform %s", key))
		}
	}

	strategy := classifyLabels(job, platform, hostForOS)
	if strategy.Unresolved {
		return strategy
	}
	strategy.JobID = job.ID
	strategy.MatrixFilter = matrixFilters[key]
	return strategy
}

func findJobByRunner(jobs []model.WorkflowJob, osName string) *model.WorkflowJob {
	for i := range jobs {
		for _, label := range jobs[i].RuntimeLabels {
			if runnerMatchesOS(label, osName) {
				return &jobs[i]
			}
		}
	}
	return nil
}

func runnerMatchesOS(label, osName string) bool {
	switch osName {
	case "linux":
		return strings.HasPrefix(label, "ubuntu-") || strings.EqualFold(label, "self-hosted")
	case "darwin":
		return strings.HasPrefix(label, "macos-")
	case "windows":
		return strings.HasPrefix(label, "windows-")
	default:
		return false
	}
}

func classifyLabels(job *model.WorkflowJob, platform model.Platform, hostForOS func(os string) (string, bool)) model.BuildStrategy {
	for _, label := range job.RuntimeLabels {
		switch {
		case strings.HasPrefix(label, "ubuntu-"):
			return model.BuildStrategy{Kind: model.StrategyContainerRunner}
		case strings.HasPrefix(label, "macos-"), strings.HasPrefix(label, "windows-"):
			host, ok := hostForOS(platform.OS)
			if !ok {
				return unresolved(platform.String(), fmt.Sprintf("no configured host for native-ssh runner %q", label))
			}
			return model.BuildStrategy{Kind: model.StrategyNativeSSH, HostID: host}
		case strings.EqualFold(label, "self-hosted"):
			host, ok := hostForOS(platform.OS)
			if !ok {
				// self-hosted with a linux label maps to the container runner
				// when no native host is configured for this OS (§4.3).
				linuxLabel := false
				for _, l := range job.RuntimeLabels {
					if strings.EqualFold(l, "linux") {
						linuxLabel = true
					}
				}
				if platform.OS == "linux" && linuxLabel {
					return model.BuildStrategy{Kind: model.StrategyContainerRunner}
				}
				return unresolved(platform.String(), "self-hosted runner with no host mapping for this platform")
			}
			return model.BuildStrategy{Kind: model.StrategyNativeSSH, HostID: host}
		}
	}
	analyzerLog.Printf("could not classify runner labels %v for platform %s", job.RuntimeLabels, platform)
	return unresolved(platform.String(), fmt.Sprintf("unclassifiable runner label set %v", job.RuntimeLabels))
}

func unresolved(target, warning string) model.BuildStrategy {
	return model.BuildStrategy{Unresolved: true, Warning: warning}
}
