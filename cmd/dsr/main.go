package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/cli"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
)

// version is set at build time by GoReleaser.
var version = "dev"

var globalFlags = &cli.GlobalFlags{}

var rootCmd = &cobra.Command{
	Use:   constants.CLIName,
	Short: "Reproduce a project's hosted release pipeline locally when hosted CI is throttled",
	Version: version,
	Long: `dsr is a fallback release pipeline: it watches a project's hosted CI queue
and, when it looks backed up, reruns that project's own build/sign/release
steps on local or directly-reachable infrastructure instead of waiting.

Common Tasks:
  dsr check myapp                      # Is hosted CI currently throttled?
  dsr fallback myapp --version v1.2.3  # Check, build, sign, and release in one pass
  dsr watch myapp --version v1.2.3     # Poll indefinitely and fire fallback automatically
  dsr status myapp                     # See the most recent local build/release

For detailed help on any command, use:
  dsr [command] --help`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "pipeline", Title: "Pipeline Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspection", Title: "Inspection Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "maintenance", Title: "Maintenance Commands:"})

	cli.RegisterGlobalFlags(rootCmd, globalFlags)

	// Side-channel discipline (§6): cobra's own usage/error text goes to
	// stderr too, so a scripted caller piping stdout never sees it mixed in.
	rootCmd.SetOut(os.Stderr)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n",
		console.FormatInfoMessage(fmt.Sprintf("%s version {{.Version}}", constants.CLIName))))

	originalHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		for _, subCmd := range cmd.Commands() {
			if subCmd.Name() == "completion" {
				subCmd.Hidden = true
			}
		}
		originalHelpFunc(cmd, args)
	})

	checkCmd := cli.NewCheckCommand(globalFlags)
	buildCmd := cli.NewBuildCommand(globalFlags)
	releaseCmd := cli.NewReleaseCommand(globalFlags)
	fallbackCmd := cli.NewFallbackCommand(globalFlags)
	watchCmd := cli.NewWatchCommand(globalFlags)
	statusCmd := cli.NewStatusCommand(globalFlags)
	doctorCmd := cli.NewDoctorCommand(globalFlags)
	pruneCmd := cli.NewPruneCommand(globalFlags)
	reposCmd := cli.NewReposCommand(globalFlags)
	configCmd := cli.NewConfigCommand(globalFlags)

	checkCmd.GroupID = "pipeline"
	buildCmd.GroupID = "pipeline"
	releaseCmd.GroupID = "pipeline"
	fallbackCmd.GroupID = "pipeline"
	watchCmd.GroupID = "pipeline"

	statusCmd.GroupID = "inspection"
	doctorCmd.GroupID = "inspection"

	pruneCmd.GroupID = "maintenance"
	reposCmd.GroupID = "maintenance"
	configCmd.GroupID = "maintenance"

	rootCmd.AddCommand(
		checkCmd,
		buildCmd,
		releaseCmd,
		fallbackCmd,
		watchCmd,
		statusCmd,
		doctorCmd,
		pruneCmd,
		reposCmd,
		configCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
