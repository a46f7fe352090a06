// Package constants centralizes names and defaults shared across dsr's packages.
package constants

// CLIName is the prefix used in user-facing output to refer to the binary.
const CLIName = "dsr"

// EnvPrefix is the prefix for the <toolname>_<KEY> environment variables
// that sit between flags and config-file values in §6's precedence order.
const EnvPrefix = "DSR"

// SchemaVersion is the schema version stamped on run envelopes and written
// into config.yaml and merged repos documents. Bump it whenever one of
// those shapes changes.
const SchemaVersion = 1

// DefaultThrottleThresholdSeconds is used when a tool descriptor or
// config.yaml does not declare one.
const DefaultThrottleThresholdSeconds = 600

// DefaultWatchIntervalSeconds is the base poll interval for watch mode.
const DefaultWatchIntervalSeconds = 300

// DefaultWatchJitterFraction is the +/- fraction of the interval applied as jitter.
const DefaultWatchJitterFraction = 0.20

// MinWatchSleepSeconds is the floor applied after jitter.
const MinWatchSleepSeconds = 10

// TriggeredSetTTLHours is how long a watch-mode triggered entry survives
// before garbage collection.
const TriggeredSetTTLHours = 24

// MaxBackoffSeconds is the cap the watch loop's exponential backoff saturates at.
const MaxBackoffSeconds = 3600

// BaseBackoffSeconds is the first (non-zero) backoff step on pipeline failure.
const BaseBackoffSeconds = 60

// DefaultBuildConcurrency bounds how many build targets run in parallel
// within one dispatch when the tool/config doesn't override it.
const DefaultBuildConcurrency = 4

// DefaultArchiveFormatNonWindows and DefaultArchiveFormatWindows are the
// per-OS archive extension defaults from the naming contract (§6).
const (
	DefaultArchiveFormatNonWindows = "tar.gz"
	DefaultArchiveFormatWindows    = "zip"
)
