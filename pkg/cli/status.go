package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// NewStatusCommand creates the status command: a read-only summary of the
// persisted manifest for a tool and version, of a tool's latest manifest
// when no version is given, or of every declared tool's latest manifest when
// no tool is given.
func NewStatusCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [tool] [version]",
		Short: "Show the status of the most recent local builds",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags, args)
		},
	}
	return cmd
}

func runStatus(_ context.Context, flags *GlobalFlags, args []string) error {
	env := envelope.New("status", "")

	rt, err := NewRuntime(flags)
	if err != nil {
		return finishWithError(env, flags, err)
	}

	var manifests []model.Manifest
	switch len(args) {
	case 2:
		m, loadErr := loadManifest(rt, args[0], args[1])
		if loadErr != nil {
			return finishWithError(env, flags, loadErr)
		}
		manifests = []model.Manifest{m}
	case 1:
		ms, listErr := latestManifestsForTool(rt, args[0])
		if listErr != nil {
			return finishWithError(env, flags, listErr)
		}
		manifests = ms
	default:
		for _, tool := range rt.Repos.Tools {
			ms, _ := latestManifestsForTool(rt, tool.Name)
			manifests = append(manifests, ms...)
		}
	}

	env.Details["manifests"] = manifests
	if !flags.Quiet {
		for _, m := range manifests {
			console.Printf("%s", console.FormatListItem(fmt.Sprintf("%s %s — %d artifact(s), %d host record(s)", m.Tool, m.Version, len(m.Artifacts), len(m.HostStatuses))))
		}
	}

	env.Finish(model.RunSuccess, nil)
	return emit(env, flags)
}

// latestManifestsForTool returns the single most recently built manifest for
// tool, by the filename (version string) sort order, or none if the tool has
// never been built locally.
func latestManifestsForTool(rt *Runtime, tool string) ([]model.Manifest, error) {
	dir := filepath.Join(rt.Config.StateDir, "manifests", tool)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			versions = append(versions, trimJSONSuffix(e.Name()))
		}
	}
	if len(versions) == 0 {
		return nil, nil
	}
	sort.Strings(versions)
	latest := versions[len(versions)-1]
	m, err := loadManifest(rt, tool, latest)
	if err != nil {
		return nil, err
	}
	return []model.Manifest{m}, nil
}

func trimJSONSuffix(name string) string {
	const suffix = ".json"
	if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
		return name[:len(name)-len(suffix)]
	}
	return name
}
