package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
)

// GlobalFlags holds the flags shared by every dsr subcommand (§6). They are
// registered once on the root command as persistent flags.
type GlobalFlags struct {
	JSON           bool
	NonInteractive bool
	DryRun         bool
	Verbose        bool
	Quiet          bool
	LogLevel       string
	ConfigFile     string
	StateDir       string
	CacheDir       string
	Color          string // "auto", "always", "never"
}

// RegisterGlobalFlags attaches the global flag set to cmd as persistent
// flags, so every subcommand inherits them without redeclaring anything.
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.JSON, "json", false, "Emit the run envelope as machine-readable JSON instead of human-readable text")
	pf.BoolVar(&flags.NonInteractive, "non-interactive", false, "Never prompt; fail instead of waiting for input")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Report what would happen without executing builds, signing, or publishing")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose side-channel output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-error side-channel output")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config.yaml (overrides "+constants.EnvPrefix+"_CONFIG and the default location)")
	pf.StringVar(&flags.StateDir, "state-dir", "", "Path to the state directory (overrides "+constants.EnvPrefix+"_STATE_DIR)")
	pf.StringVar(&flags.CacheDir, "cache-dir", "", "Path to the cache directory (overrides "+constants.EnvPrefix+"_CACHE_DIR)")
	pf.StringVar(&flags.Color, "color", "auto", "Color mode for human output: auto, always, never")
}

// envOr resolves the <toolname>_<KEY> environment variable named key,
// falling back to fallback when unset, per §6's flag > env > file > default
// precedence (each caller checks its flag first and only falls back to this
// when the flag is unset).
func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(constants.EnvPrefix + "_" + key); ok {
		return v
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(constants.EnvPrefix + "_" + key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// ResolveConfigPath applies flag > env > default precedence for config.yaml.
func (g *GlobalFlags) ResolveConfigPath(defaultPath string) string {
	if g.ConfigFile != "" {
		return g.ConfigFile
	}
	return envOr("CONFIG", defaultPath)
}

// ResolveStateDir applies flag > env > default precedence for the state dir.
func (g *GlobalFlags) ResolveStateDir(defaultPath string) string {
	if g.StateDir != "" {
		return g.StateDir
	}
	return envOr("STATE_DIR", defaultPath)
}

// ResolveCacheDir applies flag > env > default precedence for the cache dir.
func (g *GlobalFlags) ResolveCacheDir(defaultPath string) string {
	if g.CacheDir != "" {
		return g.CacheDir
	}
	return envOr("CACHE_DIR", defaultPath)
}

// ColorEnabled reports whether human-mode output should apply styling,
// honoring the explicit --color override before falling back to TTY
// detection (done downstream in pkg/console).
func (g *GlobalFlags) ColorEnabled() (forced bool, enabled bool) {
	switch strings.ToLower(g.Color) {
	case "always":
		return true, true
	case "never":
		return true, false
	default:
		return false, false
	}
}
