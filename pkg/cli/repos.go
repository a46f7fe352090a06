package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/config"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// NewReposCommand creates the repos command group (§6): CRUD and discovery
// over the tool descriptors in repos.yaml / repos.d/.
func NewReposCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage the tool descriptors dsr builds releases for",
	}
	cmd.AddCommand(
		newReposListCommand(flags),
		newReposAddCommand(flags),
		newReposRemoveCommand(flags),
		newReposValidateCommand(flags),
		newReposInfoCommand(flags),
		newReposDiscoverCommand(flags),
		newReposSyncCommand(flags),
	)
	return cmd
}

func reposPath(rt *Runtime) string {
	base := defaultConfigDir()
	return filepath.Join(base, "repos.yaml")
}

func newReposListCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every declared tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.list", "")
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			names := make([]string, 0, len(rt.Repos.Tools))
			for _, t := range rt.Repos.Tools {
				names = append(names, t.Name)
				if !flags.Quiet {
					console.Printf("%s", console.FormatListItem(fmt.Sprintf("%s (%s)", t.Name, t.Repo)))
				}
			}
			env.Details["tools"] = names
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newReposAddCommand(flags *GlobalFlags) *cobra.Command {
	var repo, sourcePath, language, workflowFile, namingPattern string
	var platforms []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new tool descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.add", args[0])
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			for _, t := range rt.Repos.Tools {
				if t.Name == args[0] {
					return finishWithError(env, flags, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("tool %q already exists", args[0])))
				}
			}
			tool := model.ToolDescriptor{
				Name:          args[0],
				Repo:          repo,
				SourcePath:    sourcePath,
				Language:      language,
				WorkflowFile:  workflowFile,
				NamingPattern: namingPattern,
			}
			for _, p := range platforms {
				parts := strings.SplitN(p, "/", 2)
				if len(parts) != 2 {
					return finishWithError(env, flags, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("platform %q must be os/arch", p)))
				}
				tool.Platforms = append(tool.Platforms, model.Platform{OS: parts[0], Arch: parts[1]})
			}
			rt.Repos.Tools = append(rt.Repos.Tools, tool)
			if err := writeReposDocument(rt, rt.Repos); err != nil {
				return finishWithError(env, flags, err)
			}
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("added tool %q", tool.Name)))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "owner/name of the hosted repository")
	cmd.Flags().StringVar(&sourcePath, "source-path", "", "local checkout path")
	cmd.Flags().StringVar(&language, "language", "", "primary language")
	cmd.Flags().StringVar(&workflowFile, "workflow-file", ".github/workflows/ci.yml", "CI workflow file path relative to source-path")
	cmd.Flags().StringVar(&namingPattern, "naming-pattern", "${name}-${version}-${os}_${arch}", "versioned asset naming pattern")
	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "platform to build, as os/arch (repeatable)")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func newReposRemoveCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a tool descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.remove", args[0])
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			kept := rt.Repos.Tools[:0]
			found := false
			for _, t := range rt.Repos.Tools {
				if t.Name == args[0] {
					found = true
					continue
				}
				kept = append(kept, t)
			}
			if !found {
				return finishWithError(env, flags, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("no tool named %q", args[0])))
			}
			rt.Repos.Tools = kept
			if err := writeReposDocument(rt, rt.Repos); err != nil {
				return finishWithError(env, flags, err)
			}
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("removed tool %q", args[0])))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newReposValidateCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate repos.yaml / repos.d/ without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.validate", "")
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			env.Details["tool_count"] = len(rt.Repos.Tools)
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("%d tool descriptor(s) valid", len(rt.Repos.Tools))))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newReposInfoCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show one tool's full descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.info", args[0])
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			tool, err := rt.FindTool(args[0])
			if err != nil {
				return finishWithError(env, flags, err)
			}
			env.Details["tool"] = tool
			if !flags.Quiet {
				console.Printf("%s", console.FormatInfoMessage(fmt.Sprintf("%s: repo=%s source=%s platforms=%v", tool.Name, tool.Repo, tool.SourcePath, tool.Platforms)))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newReposDiscoverCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <name>",
		Short: "Detect a tool's CI workflow file and job runner labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.discover", args[0])
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			tool, err := rt.FindTool(args[0])
			if err != nil {
				return finishWithError(env, flags, err)
			}
			candidates := []string{".github/workflows/release.yml", ".github/workflows/ci.yml", ".github/workflows/build.yml"}
			found := ""
			for _, c := range candidates {
				if _, statErr := os.Stat(filepath.Join(tool.SourcePath, c)); statErr == nil {
					found = c
					break
				}
			}
			env.Details["discovered_workflow_file"] = found
			if found == "" && !flags.Quiet {
				console.Printf("%s", console.FormatWarningMessage(fmt.Sprintf("%s: no workflow file found among %v", tool.Name, candidates)))
			} else if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("%s: discovered %s", tool.Name, found)))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newReposSyncCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rewrite repos.yaml from the merged repos.d/ fragments",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("repos.sync", "")
			rt, err := NewRuntime(flags)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			if flags.DryRun {
				env.Details["would_write_tool_count"] = len(rt.Repos.Tools)
				env.Finish(model.RunSuccess, nil)
				return emit(env, flags)
			}
			if err := writeReposDocument(rt, rt.Repos); err != nil {
				return finishWithError(env, flags, err)
			}
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("synced %d tool descriptor(s) into repos.yaml", len(rt.Repos.Tools))))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func writeReposDocument(rt *Runtime, doc config.ReposDocument) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "encoding repos.yaml")
	}
	path := reposPath(rt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "creating config directory")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "writing repos.yaml")
	}
	return nil
}
