package cli

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/config"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/executor"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/hostregistry"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var runtimeLog = logger.New("cli:runtime")

// Runtime is the fully-wired set of collaborators every pipeline-facing
// command needs: loaded config, the host registry, the parsed tool
// descriptors, and ready-to-use executors keyed by strategy kind.
type Runtime struct {
	Flags    *GlobalFlags
	Config   config.Config
	Hosts    *hostregistry.Registry
	HostsDoc config.HostsDocument
	Repos    config.ReposDocument
}

// defaultConfigDir is where dsr looks for its three YAML documents absent
// any override, following XDG-style conventions.
func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dsr")
	}
	return ".dsr"
}

// NewRuntime loads config.yaml, hosts.yaml, and repos.yaml/repos.d/ honoring
// the flag > env > file > default precedence from §6, and builds the host
// registry from the result.
func NewRuntime(flags *GlobalFlags) (*Runtime, error) {
	base := defaultConfigDir()

	cfgPath := flags.ResolveConfigPath(filepath.Join(base, "config.yaml"))
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(base, "state")
	}
	cfg.StateDir = flags.ResolveStateDir(cfg.StateDir)
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(base, "cache")
	}
	cfg.CacheDir = flags.ResolveCacheDir(cfg.CacheDir)

	hostsDoc, err := config.LoadHosts(filepath.Join(base, "hosts.yaml"))
	if err != nil {
		return nil, err
	}
	registry, err := hostregistry.New(hostsDoc.Hosts)
	if err != nil {
		return nil, err
	}

	reposPath := filepath.Join(base, "repos.yaml")
	if _, statErr := os.Stat(reposPath); os.IsNotExist(statErr) {
		reposPath = filepath.Join(base, "repos.d")
	}
	repos, err := config.LoadRepos(reposPath)
	if err != nil {
		return nil, err
	}

	runtimeLog.Printf("loaded config from %s: %d hosts, %d tools", cfgPath, len(hostsDoc.Hosts), len(repos.Tools))
	return &Runtime{Flags: flags, Config: cfg, Hosts: registry, HostsDoc: hostsDoc, Repos: repos}, nil
}

// FindTool locates a tool descriptor by name, or an error with a stable
// configuration code if no such tool is declared in repos.yaml.
func (rt *Runtime) FindTool(name string) (model.ToolDescriptor, error) {
	for _, tool := range rt.Repos.Tools {
		if tool.Name == name {
			return tool, nil
		}
	}
	return model.ToolDescriptor{}, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("no tool named %q in repos configuration", name))
}

// ExecutorFor returns the Executor implementation for a strategy kind,
// wiring in the shared SSH host resolver for native-ssh targets.
func (rt *Runtime) ExecutorFor(kind model.StrategyKind, buildTimeout time.Duration) executor.Executor {
	switch kind {
	case model.StrategyContainerRunner:
		return &executor.ContainerRunnerExecutor{
			EmulatorBin:    "act",
			InvokingUID:    os.Getuid(),
			InvokingGID:    os.Getgid(),
			DefaultTimeout: buildTimeout,
		}
	case model.StrategyNativeSSH:
		resolver := executor.NewHostAddressResolver(func(hostID string) (string, *ssh.ClientConfig, bool) {
			host, ok := rt.Hosts.ByID(hostID)
			if !ok || host.SSHAlias == "" {
				return "", nil, false
			}
			addr := host.SSHAlias
			if !hasPort(addr) {
				addr = addr + ":22"
			}
			var authMethods []ssh.AuthMethod
			if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
				if conn, err := agentDial(sock); err == nil {
					authMethods = append(authMethods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
				}
			}
			cfg := &ssh.ClientConfig{
				User:            currentUser(),
				Auth:            authMethods,
				HostKeyCallback: ssh.InsecureIgnoreHostKey(),
				Timeout:         10 * time.Second,
			}
			return addr, cfg, true
		})
		return &executor.SSHExecutor{
			Hosts:          resolver,
			DefaultTimeout: buildTimeout,
		}
	case model.StrategyCrossCompile:
		return &executor.CrossCompileExecutor{
			Recipe:         []string{"./build.sh"},
			DefaultTimeout: buildTimeout,
		}
	default:
		return nil
	}
}

func hasPort(addr string) bool {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return true
		}
		if addr[i] == ']' {
			return false
		}
	}
	return false
}

func agentDial(sock string) (net.Conn, error) {
	return net.Dial("unix", sock)
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "dsr"
}

// nowUTC is the single place run commands read wall-clock time, so that a
// future "frozen clock for scenario replay" mode only needs one seam.
func nowUTC() time.Time { return time.Now().UTC() }
