package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/publish"
)

// NewReleaseCommand creates the release command (§4.8): publish a manifest's
// artifacts, checksums file, signatures, and BOM to a hosted release.
func NewReleaseCommand(flags *GlobalFlags) *cobra.Command {
	var version string
	var draft, prerelease bool

	cmd := &cobra.Command{
		Use:   "release <tool>",
		Short: "Publish previously built artifacts as a hosted release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd.Context(), flags, args[0], version, draft, prerelease)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version tag to publish (required)")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create the release as a draft")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Mark the release as a prerelease")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func runRelease(ctx context.Context, flags *GlobalFlags, toolName, version string, draft, prerelease bool) error {
	env := envelope.New("release", toolName)
	env.Version = version

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}
	tool, err := rt.FindTool(toolName)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	manifest, err := loadManifest(rt, tool.Name, version)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	if flags.DryRun {
		if !flags.Quiet {
			console.Printf("%s", console.FormatInfoMessage(fmt.Sprintf("dry-run: would publish %d artifact(s) for %s %s", len(manifest.Artifacts), tool.Name, version)))
		}
		env.Finish(model.RunSuccess, nil)
		return emit(env, flags)
	}

	opts := publish.Options{Repo: tool.Repo, Tag: "v" + stripLeadingV(version), Rev: manifest.Revision, Draft: draft, Prerelease: prerelease, MaxRetries: 5}
	result, pubErr := publish.Publish(ctx, opts, manifest.Artifacts, manifest.ChecksumsFile, manifest.SignaturesFiles, manifest.BOMFile)
	if pubErr != nil {
		return finishWithError(env, flags, pubErr)
	}

	env.Details["release_url"] = result.ReleaseURL
	env.Details["upload_count"] = result.UploadCount
	env.Artifacts = manifest.Artifacts
	if !flags.Quiet {
		console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("published %d asset(s): %s", result.UploadCount, result.ReleaseURL)))
	}

	env.Finish(model.RunSuccess, nil)
	return emit(env, flags)
}

func stripLeadingV(version string) string {
	if len(version) > 0 && (version[0] == 'v' || version[0] == 'V') {
		return version[1:]
	}
	return version
}
