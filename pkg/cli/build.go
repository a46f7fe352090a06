package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/dispatcher"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/executor"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/postprocess"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/workflowanalyzer"
)

// NewBuildCommand creates the build command (§4.6, §4.7): analyze the
// project's CI workflow into per-platform strategies, dispatch one build
// per declared platform, then post-process the first artifact path each
// target reports.
func NewBuildCommand(flags *GlobalFlags) *cobra.Command {
	var version, rev string

	cmd := &cobra.Command{
		Use:   "build <tool>",
		Short: "Build release artifacts for every declared platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags, args[0], version, rev)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to stamp into artifact names (required)")
	cmd.Flags().StringVar(&rev, "rev", "HEAD", "Source revision to build from")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func runBuild(ctx context.Context, flags *GlobalFlags, toolName, version, rev string) error {
	env := envelope.New("build", toolName)
	env.Version = version

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}
	tool, err := rt.FindTool(toolName)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	manifest, err := buildTool(ctx, rt, tool, version, rev, flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}
	if !flags.DryRun {
		if err := saveManifest(rt, manifest); err != nil {
			return finishWithError(env, flags, err)
		}
	}

	env.Details["manifest"] = manifest
	for _, a := range manifest.Artifacts {
		env.Artifacts = append(env.Artifacts, a)
	}
	status := aggregateManifestStatus(manifest)
	for _, hs := range manifest.HostStatuses {
		if hs.Status == model.StatusError && !flags.Quiet {
			env.AddWarning(errs.CodeBuildCompilation, fmt.Sprintf("platform %s failed: %s", hs.Platform, hs.Error), hs.Platform.String())
		}
	}
	if !flags.Quiet {
		for _, a := range manifest.Artifacts {
			if !a.IsCompatAlias {
				console.Printf("%s", console.FormatListItem(a.Name))
			}
		}
	}

	env.Finish(status, nil)
	return emit(env, flags)
}

// buildTool runs the full analyze -> dispatch -> post-process sequence for
// one tool, returning the manifest pipeline.Run's build stage would record.
func buildTool(ctx context.Context, rt *Runtime, tool model.ToolDescriptor, version, rev string, flags *GlobalFlags) (model.Manifest, error) {
	manifest := model.Manifest{
		SchemaVersion:  1,
		Tool:           tool.Name,
		Version:        version,
		Revision:       rev,
		BuildStartedAt: nowUTC(),
		BuilderID:      "dsr",
		Trigger:        "manual",
	}

	workflowPath := filepath.Join(tool.SourcePath, tool.WorkflowFile)
	descriptor, err := workflowanalyzer.Analyze(workflowPath)
	if err != nil {
		return manifest, err
	}

	strategyFor := func(platform model.Platform) model.BuildStrategy {
		hostForOS := func(os string) (string, bool) {
			for _, h := range rt.HostsDoc.Hosts {
				if h.Platform.OS == os {
					return h.ID, true
				}
			}
			return "", false
		}
		return workflowanalyzer.Classify(platform, tool.JobMap, tool.MatrixFilters, descriptor.Jobs, hostForOS)
	}
	hostFor := func(platform model.Platform) string {
		host, err := rt.Hosts.Lookup(tool, platform)
		if err != nil {
			return ""
		}
		return host.ID
	}

	targets := dispatcher.BuildTargets(tool, strategyFor, hostFor)

	stagingDir := filepath.Join(rt.Config.CacheDir, "staging", tool.Name, version)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return manifest, errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "creating staging directory")
	}

	buildTimeout := timeoutFor(tool)
	resolve := func(target model.BuildTarget) executor.Executor {
		return rt.ExecutorFor(target.Strategy.Kind, buildTimeout)
	}
	buildReq := func(target model.BuildTarget) executor.Request {
		return executor.Request{
			Tool:         tool,
			Strategy:     target.Strategy,
			Platform:     target.Platform,
			SourceRev:    rev,
			StagingDir:   stagingDir,
			BuildTimeout: buildTimeout,
		}
	}

	if flags.DryRun {
		for _, t := range targets {
			manifest.HostStatuses = append(manifest.HostStatuses, model.HostStatusRecord{
				Host: t.HostID, Platform: t.Platform, Strategy: t.Strategy.Kind, Status: model.StatusSuccess, JobRef: t.Strategy.JobID,
			})
		}
		manifest.BuildDuration = 0
		return manifest, nil
	}

	results, _ := dispatcher.Dispatch(ctx, targets, concurrencyFor(rt, tool), resolve, buildReq)

	var signingCfg postprocess.SigningConfig
	if rt.Config.SigningEnabled {
		signingCfg = postprocess.SigningConfig{Enabled: true, KeyPath: rt.Config.SigningKeyPath, Bin: "minisign"}
	}
	var bomCfg postprocess.BOMConfig
	if rt.Config.BOMFormat != "" {
		bomCfg = postprocess.BOMConfig{Enabled: true, Format: rt.Config.BOMFormat, Bin: "syft"}
	}

	var signatureFiles []string
	for _, result := range results {
		record := model.HostStatusRecord{
			Host:     result.Target.HostID,
			Platform: result.Target.Platform,
			Strategy: result.Target.Strategy.Kind,
			Duration: result.Result.Duration,
			JobRef:   result.Target.Strategy.JobID,
			Status:   result.Result.Status,
		}
		if result.Err != nil {
			record.Error = result.Err.Error()
			manifest.HostStatuses = append(manifest.HostStatuses, record)
			continue
		}
		if len(result.Result.ArtifactPaths) == 0 {
			record.Status = model.StatusError
			record.Error = "no artifacts produced"
			manifest.HostStatuses = append(manifest.HostStatuses, record)
			continue
		}

		versioned, compat, ppErr := postprocess.Process(tool, version, result.Target.Platform, result.Result.ArtifactPaths[0], stagingDir)
		if ppErr != nil {
			record.Status = model.StatusError
			record.Error = ppErr.Error()
			manifest.HostStatuses = append(manifest.HostStatuses, record)
			continue
		}

		if sigPath, sigErr := postprocess.Sign(ctx, signingCfg, versioned.SourcePath); sigErr == nil && sigPath != "" {
			versioned.SignaturePath = sigPath
			signatureFiles = append(signatureFiles, sigPath)
		}

		manifest.Artifacts = append(manifest.Artifacts, versioned)
		if compat != nil {
			manifest.Artifacts = append(manifest.Artifacts, *compat)
		}
		manifest.HostStatuses = append(manifest.HostStatuses, record)
	}

	if len(manifest.Artifacts) > 0 {
		checksumsFile, csErr := postprocess.WriteChecksumsFile(tool.Name, version, manifest.Artifacts, stagingDir)
		if csErr == nil {
			manifest.ChecksumsFile = checksumsFile
		}
	}
	manifest.SignaturesFiles = signatureFiles
	manifest.SigningSkipped = !rt.Config.SigningEnabled

	if bomCfg.Enabled && len(manifest.Artifacts) > 0 {
		bomOut := filepath.Join(stagingDir, fmt.Sprintf("%s-%s.bom.json", tool.Name, version))
		if bomPath, bomErr := postprocess.GenerateBOM(ctx, bomCfg, tool.SourcePath, bomOut); bomErr == nil {
			manifest.BOMFile = bomPath
		}
	}

	manifest.BuildDuration = nowUTC().Sub(manifest.BuildStartedAt)
	return manifest, nil
}

func timeoutFor(tool model.ToolDescriptor) time.Duration {
	if tool.BuildTimeoutSeconds <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(tool.BuildTimeoutSeconds) * time.Second
}

func concurrencyFor(rt *Runtime, tool model.ToolDescriptor) int {
	if rt.Config.BuildConcurrency > 0 {
		return rt.Config.BuildConcurrency
	}
	return 4
}

func aggregateManifestStatus(manifest model.Manifest) model.RunStatus {
	if len(manifest.HostStatuses) == 0 {
		return model.RunError
	}
	success, failure := 0, 0
	for _, hs := range manifest.HostStatuses {
		if hs.Status == model.StatusSuccess {
			success++
		} else {
			failure++
		}
	}
	switch {
	case failure == 0:
		return model.RunSuccess
	case success == 0:
		return model.RunError
	default:
		return model.RunPartial
	}
}
