package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/pipeline"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/publish"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/throttle"
)

// NewFallbackCommand creates the fallback command (§4.9): check, then build,
// then release, run strictly in sequence through the pipeline orchestrator.
func NewFallbackCommand(flags *GlobalFlags) *cobra.Command {
	var version, rev string
	var draft, prerelease, force bool

	cmd := &cobra.Command{
		Use:   "fallback <tool>",
		Short: "Run check, build, and release as one pipeline",
		Long: `Fallback is the full local release pipeline: it checks whether hosted CI
looks throttled, and if so (or if --force is given) builds every declared
platform and publishes the result, recording one stage record per stage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFallback(cmd.Context(), flags, args[0], version, rev, draft, prerelease, force)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to build and release (required)")
	cmd.Flags().StringVar(&rev, "rev", "HEAD", "Source revision to build from")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create the release as a draft")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Mark the release as a prerelease")
	cmd.Flags().BoolVar(&force, "force", false, "Run build and release even if check reports hosted CI healthy")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func runFallback(ctx context.Context, flags *GlobalFlags, toolName, version, rev string, draft, prerelease, force bool) error {
	env := envelope.New("fallback", toolName)
	env.Version = version

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}
	tool, err := rt.FindTool(toolName)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	var manifest model.Manifest
	var publishResult publish.Result
	proceed := force

	stages := []pipeline.Stage{
		{Name: pipeline.StageCheck, Run: func(ctx context.Context) (model.RunStatus, error) {
			threshold := tool.ThrottleThresholdS
			if threshold <= 0 {
				threshold = rt.Config.ThresholdSeconds
			}
			result, err := throttle.Probe(ctx, tool.Repo, threshold, nowUTC())
			if err != nil {
				return model.RunError, err
			}
			if !result.Throttled && !force {
				return model.RunSuccess, nil
			}
			proceed = true
			return model.RunPartial, nil
		}},
		{Name: pipeline.StageBuild, Run: func(ctx context.Context) (model.RunStatus, error) {
			if !proceed {
				return model.RunSuccess, nil
			}
			m, err := buildTool(ctx, rt, tool, version, rev, flags)
			manifest = m
			if err == nil && !flags.DryRun {
				_ = saveManifest(rt, manifest)
			}
			if err != nil {
				return model.RunError, err
			}
			return aggregateManifestStatus(manifest), nil
		}},
		{Name: pipeline.StageSign, Run: func(ctx context.Context) (model.RunStatus, error) {
			if rt.Config.SigningEnabled && len(manifest.SignaturesFiles) < countVersioned(manifest) {
				return model.RunPartial, nil
			}
			return model.RunSuccess, nil
		}},
		{Name: pipeline.StageRelease, Run: func(ctx context.Context) (model.RunStatus, error) {
			if !proceed || flags.DryRun {
				return model.RunSuccess, nil
			}
			opts := publish.Options{Repo: tool.Repo, Tag: "v" + stripLeadingV(version), Rev: rev, Draft: draft, Prerelease: prerelease, MaxRetries: 5}
			result, err := publish.Publish(ctx, opts, manifest.Artifacts, manifest.ChecksumsFile, manifest.SignaturesFiles, manifest.BOMFile)
			publishResult = result
			if err != nil {
				return model.RunError, err
			}
			return model.RunSuccess, nil
		}},
	}

	outcome := pipeline.Run(ctx, stages)

	stepDetails := make([]map[string]any, 0, len(outcome.Stages))
	for _, s := range outcome.Stages {
		stepDetails = append(stepDetails, map[string]any{
			"name": s.Name, "status": s.Status, "duration_ms": s.DurationMS, "error": s.Error,
		})
	}
	env.Details["steps"] = stepDetails
	env.Details["manifest"] = manifest
	env.Details["release_url"] = publishResult.ReleaseURL
	env.Artifacts = manifest.Artifacts

	kindIdx := 0
	for _, s := range outcome.Stages {
		if s.Error == "" {
			continue
		}
		code := ""
		if kindIdx < len(outcome.Kinds) {
			code = string(outcome.Kinds[kindIdx])
		}
		env.AddError(code, s.Error, string(s.Name))
		kindIdx++
	}

	exitCode, hasKind := envelope.MostSevere(outcome.Kinds)
	if hasKind {
		env.Finish(outcome.Status, &exitCode)
	} else {
		env.Finish(outcome.Status, nil)
	}

	if !flags.Quiet {
		reportFallbackOutcome(outcome, tool.Name)
	}
	return emit(env, flags)
}

func countVersioned(manifest model.Manifest) int {
	n := 0
	for _, a := range manifest.Artifacts {
		if !a.IsCompatAlias {
			n++
		}
	}
	return n
}

func reportFallbackOutcome(outcome pipeline.Outcome, toolName string) {
	for _, s := range outcome.Stages {
		line := fmt.Sprintf("%s: %s (%s)", toolName, s.Name, s.Status)
		switch s.Status {
		case model.RunSuccess:
			console.Printf("%s", console.FormatSuccessMessage(line))
		case model.RunPartial:
			console.Printf("%s", console.FormatWarningMessage(line))
		default:
			console.Printf("%s", console.FormatErrorMessage(line))
		}
	}
}
