// Package bridge implements the privilege bridge described in spec
// §4.1: the only code path that reaches across the container/host
// boundary to run programs. Everything else in yoinkc reads the host
// through the read-only mount.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// ProbeResult is the outcome of [Bridge.Probe].
type ProbeResult string

const (
	ProbeOK                    ProbeResult = "ok"
	ProbeRootless              ProbeResult = "rootless"
	ProbeMissingPIDNamespace   ProbeResult = "missing-pid-namespace"
	ProbeMissingCapability     ProbeResult = "missing-capability"
	ProbeNoRuntime             ProbeResult = "no-runtime"
)

// DefaultTimeout bounds every call through the bridge (spec §5,
// configurable, default 120s).
const DefaultTimeout = 120 * time.Second

// hostNamespaces are entered, in order, via nsenter's corresponding flags.
var hostNSFiles = []string{"mnt", "uts", "ipc", "net"}

// Bridge is the privilege bridge. The zero value is usable; Probe
// memoizes its result on first call.
type Bridge struct {
	Runner  adapter.Runner
	Timeout time.Duration

	once   sync.Once
	result ProbeResult
	reason error
}

// PrivilegeError is returned by RunInHostNamespaces when the probe is
// not ok.
type PrivilegeError struct {
	Result ProbeResult
	Reason error
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("bridge: not usable (%s): %v", e.Result, e.Reason)
}
func (e *PrivilegeError) Unwrap() error { return e.Reason }

// Probe attempts a minimal namespace-enter call against PID 1 and
// reports a structured reason on failure. The result is memoized for
// the lifetime of the Bridge.
func (b *Bridge) Probe(ctx context.Context) (ProbeResult, error) {
	b.once.Do(func() {
		b.result, b.reason = probe(ctx)
	})
	return b.result, b.reason
}

func probe(ctx context.Context) (ProbeResult, error) {
	if unix.Geteuid() != 0 {
		return ProbeRootless, fmt.Errorf("effective uid %d, need 0", unix.Geteuid())
	}
	for _, ns := range hostNSFiles {
		p := fmt.Sprintf("/proc/1/ns/%s", ns)
		f, err := os.Open(p)
		if err != nil {
			return ProbeMissingPIDNamespace, fmt.Errorf("opening %s: %w", p, err)
		}
		f.Close()
	}
	caps, err := readCapEff()
	if err != nil {
		return ProbeMissingCapability, fmt.Errorf("reading capability set: %w", err)
	}
	const capSysAdmin = 21 // CAP_SYS_ADMIN, per capability.h
	if caps&(1<<capSysAdmin) == 0 {
		return ProbeMissingCapability, fmt.Errorf("missing CAP_SYS_ADMIN")
	}
	if _, err := exec.LookPath("nsenter"); err != nil {
		return ProbeNoRuntime, fmt.Errorf("nsenter not found: %w", err)
	}
	if _, err := exec.LookPath("podman"); err != nil {
		if _, err2 := exec.LookPath("docker"); err2 != nil {
			return ProbeNoRuntime, fmt.Errorf("no container runtime on PATH: %w", err)
		}
	}
	return ProbeOK, nil
}

// readCapEff reads the effective capability bitmask for the current
// process out of /proc/self/status, avoiding a cgo dependency on
// libcap.
func readCapEff() (uint64, error) {
	b, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return 0, err
	}
	const key = "CapEff:\t"
	i := bytes.Index(b, []byte(key))
	if i < 0 {
		return 0, fmt.Errorf("CapEff not found in /proc/self/status")
	}
	line := b[i+len(key):]
	if j := bytes.IndexByte(line, '\n'); j >= 0 {
		line = line[:j]
	}
	var caps uint64
	_, err = fmt.Sscanf(string(bytes.TrimSpace(line)), "%x", &caps)
	return caps, err
}

// RunInHostNamespaces executes argv[0] with argv[1:] inside PID 1's
// mount, UTS, IPC, and network namespaces, via nsenter(1). It fails
// with a *PrivilegeError when Probe is not ok, and with an
// [snapshot.Error] of kind ErrTransient when the call exceeds Timeout
// (default DefaultTimeout).
func (b *Bridge) RunInHostNamespaces(ctx context.Context, argv []string) (exitStatus int, stdout, stderr []byte, err error) {
	result, reason := b.Probe(ctx)
	if result != ProbeOK {
		return -1, nil, nil, &PrivilegeError{Result: result, Reason: reason}
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	nsArgs := []string{"--target", "1", "--mount", "--uts", "--ipc", "--net", "--"}
	nsArgs = append(nsArgs, argv...)

	runner := b.Runner
	if runner == nil {
		runner = adapter.Exec{}
	}
	out, runErr := runner.Run(cctx, "nsenter", nsArgs...)
	if cctx.Err() != nil {
		return -1, nil, nil, &snapshot.Error{Op: "bridge.RunInHostNamespaces", Kind: snapshot.ErrTransient, Message: "timed out", Inner: cctx.Err()}
	}
	if runErr != nil {
		if ee, ok := runErr.(*adapter.ExitError); ok {
			return 1, out, ee.Stderr, nil
		}
		return -1, out, nil, fmt.Errorf("bridge: nsenter: %w", runErr)
	}
	return 0, out, nil, nil
}

// Runner adapts a Bridge to [adapter.Runner], so the package-manager and
// systemd adapters can run their tools inside the host's namespaces
// without knowing anything about nsenter. It is the only bridge
// wiring cmd/yoinkc needs: construct one Runner per Bridge and hand it
// to every adapter that must reach the host rather than the inspection
// container.
type Runner struct {
	Bridge *Bridge
}

// Run implements [adapter.Runner].
func (r Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	argv := append([]string{name}, args...)
	status, stdout, stderr, err := r.Bridge.RunInHostNamespaces(ctx, argv)
	if err != nil {
		return stdout, err
	}
	if status != 0 {
		return stdout, &adapter.ExitError{Name: name, Args: args, Stderr: stderr, Err: fmt.Errorf("exit status %d", status)}
	}
	return stdout, nil
}
