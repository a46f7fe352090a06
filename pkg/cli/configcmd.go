package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/config"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/console"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/envelope"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// NewConfigCommand creates the config command group (§6): inspect and edit
// config.yaml without touching hosts.yaml or repos.yaml.
func NewConfigCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit dsr's top-level configuration",
	}
	cmd.AddCommand(
		newConfigShowCommand(flags),
		newConfigGetCommand(flags),
		newConfigSetCommand(flags),
		newConfigInitCommand(flags),
		newConfigValidateCommand(flags),
		newConfigMigrateCommand(flags),
		newConfigEditCommand(flags),
	)
	return cmd
}

func configFilePath(flags *GlobalFlags) string {
	return flags.ResolveConfigPath(filepath.Join(defaultConfigDir(), "config.yaml"))
}

func newConfigShowCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.show", "")
			cfg, err := config.LoadConfig(configFilePath(flags))
			if err != nil {
				return finishWithError(env, flags, err)
			}
			env.Details["config"] = cfg
			if !flags.Quiet {
				raw, _ := yaml.Marshal(cfg)
				console.Printf("%s", string(raw))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newConfigGetCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.get", "")
			cfg, err := config.LoadConfig(configFilePath(flags))
			if err != nil {
				return finishWithError(env, flags, err)
			}
			value, err := configFieldGet(cfg, args[0])
			if err != nil {
				return finishWithError(env, flags, err)
			}
			env.Details["value"] = value
			if !flags.Quiet {
				console.Printf("%v", value)
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newConfigSetCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration field and persist it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.set", "")
			path := configFilePath(flags)
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			if err := configFieldSet(&cfg, args[0], args[1]); err != nil {
				return finishWithError(env, flags, err)
			}
			if !flags.DryRun {
				if err := writeConfig(path, cfg); err != nil {
					return finishWithError(env, flags, err)
				}
			}
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage(fmt.Sprintf("%s = %s", args[0], args[1])))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newConfigInitCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml if one does not already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.init", "")
			path := configFilePath(flags)
			if _, err := os.Stat(path); err == nil {
				return finishWithError(env, flags, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "config.yaml already exists at "+path))
			}
			if err := writeConfig(path, config.Defaults()); err != nil {
				return finishWithError(env, flags, err)
			}
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage("wrote default config to "+path))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newConfigValidateCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate config.yaml without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.validate", "")
			if _, err := config.LoadConfig(configFilePath(flags)); err != nil {
				return finishWithError(env, flags, err)
			}
			if !flags.Quiet {
				console.Printf("%s", console.FormatSuccessMessage("config.yaml is valid"))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newConfigMigrateCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite config.yaml at the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.migrate", "")
			path := configFilePath(flags)
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return finishWithError(env, flags, err)
			}
			from := cfg.SchemaVersion
			cfg.SchemaVersion = constants.SchemaVersion
			if !flags.DryRun {
				if err := writeConfig(path, cfg); err != nil {
					return finishWithError(env, flags, err)
				}
			}
			env.Details["from_schema_version"] = from
			env.Details["to_schema_version"] = cfg.SchemaVersion
			if !flags.Quiet {
				console.Printf("%s", console.FormatInfoMessage(fmt.Sprintf("migrated schema_version %d -> %d", from, cfg.SchemaVersion)))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func newConfigEditCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open config.yaml in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envelope.New("config.edit", "")
			if flags.NonInteractive {
				return finishWithError(env, flags, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "edit requires an interactive terminal"))
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			path := configFilePath(flags)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := writeConfig(path, config.Defaults()); err != nil {
					return finishWithError(env, flags, err)
				}
			}
			editCmd := exec.Command(editor, path)
			editCmd.Stdin, editCmd.Stdout, editCmd.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := editCmd.Run(); err != nil {
				return finishWithError(env, flags, errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "running $EDITOR"))
			}
			env.Finish(model.RunSuccess, nil)
			return emit(env, flags)
		},
	}
}

func writeConfig(path string, cfg config.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "encoding config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "creating config directory")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "writing config.yaml")
	}
	return nil
}

// configFieldGet and configFieldSet cover the known scalar fields of
// config.Config; unlike repos/hosts there is no dynamic schema here, so a
// small switch is clearer than reflection.
func configFieldGet(cfg config.Config, key string) (any, error) {
	switch key {
	case "threshold_seconds":
		return cfg.ThresholdSeconds, nil
	case "signing_enabled":
		return cfg.SigningEnabled, nil
	case "signing_key_path":
		return cfg.SigningKeyPath, nil
	case "bom_format":
		return cfg.BOMFormat, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "watch_interval_seconds":
		return cfg.WatchIntervalSecs, nil
	case "build_concurrency":
		return cfg.BuildConcurrency, nil
	case "state_dir":
		return cfg.StateDir, nil
	case "cache_dir":
		return cfg.CacheDir, nil
	default:
		return nil, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "unknown config key "+key)
	}
}

func configFieldSet(cfg *config.Config, key, value string) error {
	switch key {
	case "threshold_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "threshold_seconds must be an integer")
		}
		cfg.ThresholdSeconds = n
	case "signing_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "signing_enabled must be a boolean")
		}
		cfg.SigningEnabled = b
	case "signing_key_path":
		cfg.SigningKeyPath = value
	case "bom_format":
		cfg.BOMFormat = value
	case "log_level":
		cfg.LogLevel = value
	case "watch_interval_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "watch_interval_seconds must be an integer")
		}
		cfg.WatchIntervalSecs = n
	case "build_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "build_concurrency must be an integer")
		}
		cfg.BuildConcurrency = n
	case "state_dir":
		cfg.StateDir = value
	case "cache_dir":
		cfg.CacheDir = value
	default:
		return errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "unknown config key "+key)
	}
	return nil
}
