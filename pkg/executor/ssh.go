package executor

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var sshLog = logger.New("executor:ssh")

// SSHExecutor opens a channel to the configured host and runs the project's
// build recipe there: it checks out the target revision in the tool's
// source path and runs ./build.sh for the target platform (§4.5:
// "native-ssh"). It does not clean the working copy and does not copy
// anything back over the connection; on success it reports the path
// <staging>/<tool>-<os>-<arch>, which it does not create.
// ClientConfig and host address resolution are supplied by the caller
// (pkg/cli's Runtime.ExecutorFor), which owns the hosts.yaml lookup.
type SSHExecutor struct {
	Hosts          *hostAddressResolver
	DefaultTimeout time.Duration
}

// hostAddressResolver maps a host id to a dial address and client config.
// Kept as a small indirection so the executor package doesn't need to know
// about hosts.yaml parsing or private-key loading directly.
type hostAddressResolver struct {
	lookup func(hostID string) (addr string, config *ssh.ClientConfig, ok bool)
}

// NewHostAddressResolver builds a resolver from a lookup function, typically
// backed by pkg/hostregistry plus the user's SSH agent/known_hosts config.
func NewHostAddressResolver(lookup func(hostID string) (string, *ssh.ClientConfig, bool)) *hostAddressResolver {
	return &hostAddressResolver{lookup: lookup}
}

func (e *SSHExecutor) Reachable(ctx context.Context, req Request) error {
	addr, config, ok := e.Hosts.lookup(req.Strategy.HostID)
	if !ok {
		return errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "no SSH connection configured for host").WithTarget(req.Strategy.HostID)
	}
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errs.Wrap(errs.KindNetwork, errs.CodeNetworkUnreachable, err, "SSH host unreachable").WithTarget(req.Strategy.HostID)
	}
	_ = conn.Close()
	_ = config
	return nil
}

func (e *SSHExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	lock := sharedHostLocks.forHost(req.Strategy.HostID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	addr, config, ok := e.Hosts.lookup(req.Strategy.HostID)
	if !ok {
		return Result{}, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "no SSH connection configured for host").WithTarget(req.Strategy.HostID)
	}

	client, err := dialWithContext(ctx, addr, config)
	if err != nil {
		return Result{}, errs.Wrap(errs.KindNetwork, errs.CodeNetworkUnreachable, err, "dialing SSH host").WithTarget(req.Strategy.HostID)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{}, errs.Wrap(errs.KindAuthentication, errs.CodeAuthSSH, err, "opening SSH session").WithTarget(req.Strategy.HostID)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	cmd := buildRecipeCommand(req)
	sshLog.Printf("running on %s: %s", req.Strategy.HostID, cmd)

	runErr := session.Run(cmd)
	duration := time.Since(start)

	if ctx.Err() != nil {
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: model.StatusTimeout, Duration: duration}, nil
	}
	if runErr != nil {
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: model.StatusError, Duration: duration},
			errs.Wrap(errs.KindBuild, errs.CodeBuildCompilation, runErr, "remote build recipe failed").WithTarget(req.Strategy.HostID)
	}

	artifactPath := filepath.Join(req.StagingDir, fmt.Sprintf("%s-%s-%s", req.Tool.Name, req.Platform.OS, req.Platform.Arch))
	return Result{ArtifactPaths: []string{artifactPath}, Stdout: stdout.String(), Stderr: stderr.String(), Status: model.StatusSuccess, Duration: duration}, nil
}

func dialWithContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func buildRecipeCommand(req Request) string {
	return fmt.Sprintf("cd %s && git checkout %s && ./build.sh %s %s", req.Tool.SourcePath, req.SourceRev, req.Platform.OS, req.Platform.Arch)
}
