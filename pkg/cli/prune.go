package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// NewPruneCommand creates the prune command: removes top-level entries of
// the cache directory (builder working trees, per-build staging trees) older
// than a retention window. The state directory is not pruned.
func NewPruneCommand(flags *GlobalFlags) *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached builder working trees and stale per-run artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd.Context(), flags, olderThanDays)
		},
	}
	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 14, "Remove cache entries older than this many days")
	return cmd
}

func runPrune(_ context.Context, flags *GlobalFlags, olderThanDays int) error {
	env := envelope.New("prune", "")

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	cutoff := nowUTC().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	removed, bytesFreed, err := pruneOlderThan(rt.Config.CacheDir, cutoff, flags.DryRun)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	env.Details["removed_entries"] = removed
	env.Details["bytes_freed"] = bytesFreed
	env.Details["dry_run"] = flags.DryRun

	if !flags.Quiet {
		verb := "removed"
		if flags.DryRun {
			verb = "would remove"
		}
		console.Printf("%s", console.FormatInfoMessage(fmt.Sprintf("%s %d entries (%s) from %s", verb, removed, console.FormatFileSize(bytesFreed), rt.Config.CacheDir)))
	}

	env.Finish(model.RunSuccess, nil)
	return emit(env, flags)
}

// pruneOlderThan removes top-level entries of dir whose modification time is
// before cutoff, returning the count removed and total bytes freed.
func pruneOlderThan(dir string, cutoff time.Time, dryRun bool) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "reading cache directory")
	}

	removed := 0
	var bytesFreed int64
	for _, e := range entries {
		info, infoErr := e.Info()
		if infoErr != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		size, sizeErr := dirSize(path)
		if sizeErr == nil {
			bytesFreed += size
		}
		if !dryRun {
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return removed, bytesFreed, errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, rmErr, "removing "+path)
			}
		}
		removed++
	}
	return removed, bytesFreed, nil
}

func dirSize(path string) (int64, error) {
	var total int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
