package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/publish"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/throttle"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/watch"
)

// NewWatchCommand creates the watch command (§4.10): poll a tool's repo
// indefinitely, firing the fallback pipeline the first time a queued run
// crosses the throttle threshold, until interrupted.
func NewWatchCommand(flags *GlobalFlags) *cobra.Command {
	var version string
	var intervalSeconds int

	cmd := &cobra.Command{
		Use:   "watch <tool>",
		Short: "Poll hosted CI and fire the fallback pipeline when it looks throttled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), flags, args[0], version, intervalSeconds)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to build when the pipeline fires (required)")
	cmd.Flags().IntVar(&intervalSeconds, "interval-seconds", 0, "Override the configured base poll interval")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func runWatch(ctx context.Context, flags *GlobalFlags, toolName, version string, intervalOverride int) error {
	env := envelope.New("watch", toolName)
	env.Version = version

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}
	tool, err := rt.FindTool(toolName)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	interval := time.Duration(rt.Config.WatchIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if intervalOverride > 0 {
		interval = time.Duration(intervalOverride) * time.Second
	}

	threshold := tool.ThrottleThresholdS
	if threshold <= 0 {
		threshold = rt.Config.ThresholdSeconds
	}

	statePath := filepath.Join(rt.Config.StateDir, "watch", tool.Name+".json")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !flags.Quiet {
		console.Printf("%s", console.FormatInfoMessage(fmt.Sprintf("watching %s every ~%s (threshold %ds)", tool.Repo, interval, threshold)))
	}

	cfg := watch.Config{Repo: tool.Repo, Interval: interval, ThresholdSeconds: threshold, StatePath: statePath}
	fireCount := 0
	hooks := watch.Hooks{
		FireBuild: func(ctx context.Context, run throttle.QueuedRun) bool {
			fireCount++
			if !flags.Quiet {
				console.Printf("%s", console.FormatWarningMessage(fmt.Sprintf("run %d overdue, firing fallback for %s", run.DatabaseID, tool.Name)))
			}
			manifest, buildErr := buildTool(ctx, rt, tool, version, "HEAD", flags)
			if buildErr != nil {
				if !flags.Quiet {
					console.Printf("%s", console.FormatErrorMessage(buildErr.Error()))
				}
				return false
			}
			_ = saveManifest(rt, manifest)
			if flags.DryRun {
				return true
			}
			opts := publish.Options{Repo: tool.Repo, Tag: "v" + stripLeadingV(version), Rev: "HEAD", MaxRetries: 5}
			_, pubErr := publish.Publish(ctx, opts, manifest.Artifacts, manifest.ChecksumsFile, manifest.SignaturesFiles, manifest.BOMFile)
			if pubErr != nil {
				if !flags.Quiet {
					console.Printf("%s", console.FormatErrorMessage(pubErr.Error()))
				}
				return false
			}
			return aggregateManifestStatus(manifest) == model.RunSuccess
		},
	}

	watch.Loop(ctx, cfg, hooks)

	env.Details["fire_count"] = fireCount
	env.Finish(model.RunSuccess, nil)
	return emit(env, flags)
}
