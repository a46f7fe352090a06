// Package model holds dsr's core data types (§3 of the spec): the tool
// descriptor, host descriptor, workflow descriptor, build target, artifact,
// manifest, and triggered set (the run envelope lives in pkg/envelope).
// These are plain structs with
// no behavior of their own — every operation that creates or mutates one
// lives in the component package that owns that stage of the pipeline.
package model

import "time"

// Platform is an (os, arch) pair, e.g. {"linux", "amd64"}.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// String renders the platform as "os/arch".
func (p Platform) String() string { return p.OS + "/" + p.Arch }

// ToolDescriptor is immutable for the duration of one run (§3).
type ToolDescriptor struct {
	Name                string            `yaml:"name"`
	Repo                string            `yaml:"repo"` // owner/name
	SourcePath          string            `yaml:"source_path"`
	Language            string            `yaml:"language"`
	Platforms           []Platform        `yaml:"platforms"`
	WorkflowFile        string            `yaml:"workflow_file"`
	HostOverride        map[string]string `yaml:"host_override,omitempty"`        // "os/arch" -> host id
	NamingPattern       string            `yaml:"naming_pattern"`
	CompatPattern       string            `yaml:"install_script_compat,omitempty"`
	InstallScriptPath   string            `yaml:"install_script_path,omitempty"`
	ArchiveFormat       map[string]string `yaml:"archive_format,omitempty"`        // os -> "tar.gz"|"zip"|""
	TargetTriples       map[string]string `yaml:"target_triples,omitempty"`        // "os/arch" -> triple
	ArchAliases         map[string]string `yaml:"arch_aliases,omitempty"`          // "amd64" -> "x86_64"
	JobMap              map[string]string `yaml:"job_map,omitempty"`               // "os/arch" -> job id, or "none"
	MatrixFilters       map[string]map[string]string `yaml:"matrix_filters,omitempty"` // "os/arch" -> {key: value}
	ThrottleThresholdS  int               `yaml:"throttle_threshold_seconds,omitempty"`
	BuildTimeoutSeconds int               `yaml:"build_timeout_seconds,omitempty"`
}

// ConnectionKind enumerates how a host is reached.
type ConnectionKind string

const (
	ConnLocal           ConnectionKind = "local"
	ConnContainerRunner ConnectionKind = "container-runner"
	ConnSSH             ConnectionKind = "ssh"
)

// HostDescriptor is read once at run start and never mutated (§3).
type HostDescriptor struct {
	ID       string         `yaml:"id"`
	Platform Platform       `yaml:"platform"`
	Conn     ConnectionKind `yaml:"connection"`
	SSHAlias string         `yaml:"ssh_alias,omitempty"`
}

// Strategy is the tagged union of build mechanisms (§4.3, §9 "polymorphism
// over strategies"). The dispatcher and executor consume Kind, never a
// concrete implementation type.
type StrategyKind string

const (
	StrategyContainerRunner StrategyKind = "container-runner"
	StrategyNativeSSH       StrategyKind = "native-ssh"
	StrategyCrossCompile    StrategyKind = "cross-compile"
	StrategyNullPlatform    StrategyKind = "null-platform"
)

// BuildStrategy is what the workflow analyzer produces per requested platform.
type BuildStrategy struct {
	Kind         StrategyKind
	JobID        string
	HostID       string            // populated for native-ssh
	MatrixFilter map[string]string // passed to the container runner
	Unresolved   bool              // analyzer couldn't classify the runner label
	Warning      string
}

// WorkflowJob is one job extracted from the project's CI workflow file.
type WorkflowJob struct {
	ID             string
	RunsOnLabels   []string
	SelfHosted     bool
	MatrixEntries  []map[string]string
	RuntimeLabels  []string
}

// WorkflowDescriptor is the analyzer's view of the project's CI file (§3).
type WorkflowDescriptor struct {
	Jobs []WorkflowJob
}

// BuildTarget is one (platform, strategy, host, job, matrix-filter) tuple (§3).
type BuildTarget struct {
	Platform     Platform
	Strategy     BuildStrategy
	HostID       string
	DeclaredIdx  int // position in the tool descriptor's declared platform order
}

// Artifact describes one produced file, before or after post-processing (§3).
type Artifact struct {
	Name          string // logical/versioned name
	CompatName    string `json:",omitempty"`
	SourcePath    string `json:"-"`
	Platform      Platform
	ArchiveFormat string // "", "tar.gz", "zip"
	Size          int64
	SHA256        string
	SignaturePath string `json:"-"`
	IsCompatAlias bool   `json:"-"`
}

// TerminalStatus is the per-host outcome of one build target.
type TerminalStatus string

const (
	StatusSuccess TerminalStatus = "success"
	StatusError   TerminalStatus = "error"
	StatusTimeout TerminalStatus = "timeout"
)

// HostStatusRecord is one row of the manifest's per-host status set (§3).
type HostStatusRecord struct {
	Host     string         `json:"host"`
	Platform Platform       `json:"platform"`
	Strategy StrategyKind   `json:"strategy"`
	Duration time.Duration  `json:"duration_ns"`
	JobRef   string         `json:"job_ref,omitempty"`
	Status   TerminalStatus `json:"status"`
	Error    string         `json:"error,omitempty"`
}

// Manifest is the schema-versioned per-build JSON document (§3).
type Manifest struct {
	SchemaVersion   int                `json:"schema_version"`
	Tool            string             `json:"tool"`
	Version         string             `json:"version"`
	RunID           string             `json:"run_id"`
	Revision        string             `json:"revision"`
	BuildStartedAt  time.Time          `json:"build_started_at"`
	BuildDuration   time.Duration      `json:"build_duration_ns"`
	BuilderID       string             `json:"builder_id"`
	BuilderVersion  string             `json:"builder_version"`
	Trigger         string             `json:"trigger"` // "throttle" | "manual" | "watch"
	Artifacts       []Artifact         `json:"artifacts"`
	HostStatuses    []HostStatusRecord `json:"host_statuses"`
	ChecksumsFile   string             `json:"checksums_file"`
	SignaturesFiles []string           `json:"signature_files,omitempty"`
	SigningSkipped  bool               `json:"signing_skipped,omitempty"`
	BOMFile         string             `json:"bom_file,omitempty"`
}

// TriggeredSet is the persistent watch-mode dedupe state (§3).
type TriggeredSet struct {
	Entries   map[string]time.Time `json:"entries"` // hosted-CI run id -> fired-at
	LastCheck time.Time            `json:"last_check"`
}

// RunStatus is the top-level outcome of any invocation.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
)
