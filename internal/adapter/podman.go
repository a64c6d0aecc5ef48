package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/containers/podman/v5/pkg/bindings"
	"github.com/containers/podman/v5/pkg/bindings/containers"
)

// Podman is the host container runtime adapter. Image pulls/runs that
// need to execute inside the host's namespaces go through the exec
// path (run_in_host_namespaces); live container enumeration
// (--query-podman) uses the bindings client directly against the host's
// podman socket, which the privilege bridge arranges to be reachable.
type Podman struct {
	Runner Runner
}

// ImagePackages runs the target image and asks rpm for its installed
// package-name list, by way of the exec adapter so the call can be
// routed through run_in_host_namespaces.
func (p Podman) ImagePackages(ctx context.Context, image string) ([]string, error) {
	out, err := p.Runner.Run(ctx, "podman", "run", "--rm", "--entrypoint", "rpm", image, "-qa", "--qf", "%{NAME}\n")
	if err != nil {
		return nil, fmt.Errorf("adapter: podman run rpm -qa: %w", err)
	}
	return splitLines(out), nil
}

// ImagePresets runs the target image and lists its systemd preset
// files, one relative path per line.
func (p Podman) ImagePresets(ctx context.Context, image string) ([]string, error) {
	out, err := p.Runner.Run(ctx, "podman", "run", "--rm", "--entrypoint", "find", image,
		"/usr/lib/systemd/system-preset", "-name", "*.preset")
	if err != nil {
		return nil, fmt.Errorf("adapter: podman run find presets: %w", err)
	}
	return splitLines(out), nil
}

// LiveContainers enumerates running containers through the podman
// bindings client over sockPath, used only when --query-podman is set.
func LiveContainers(ctx context.Context, sockPath string) ([]ContainerInfo, error) {
	conn, err := bindings.NewConnection(ctx, "unix://"+sockPath)
	if err != nil {
		return nil, fmt.Errorf("adapter: connecting to podman socket: %w", err)
	}
	opts := new(containers.ListOptions).WithAll(true)
	list, err := containers.List(conn, opts)
	if err != nil {
		return nil, fmt.Errorf("adapter: podman container list: %w", err)
	}
	out := make([]ContainerInfo, 0, len(list))
	for _, c := range list {
		name := ""
		if len(c.Names) > 0 {
			name = c.Names[0]
		}
		out = append(out, ContainerInfo{ID: c.ID, Name: name, Image: c.Image, State: c.State})
	}
	return out, nil
}

// ContainerInfo is the subset of podman's container listing used by the
// containers inspector's live-enumeration record.
type ContainerInfo struct {
	ID    string
	Name  string
	Image string
	State string
}

// MarshalCanned renders v as the JSON a [Fake] Runner would return for
// bindings-shaped tests.
func MarshalCanned(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func splitLines(b []byte) []string {
	var out []string
	start := 0
	for i, c := range b {
		if c == '\n' {
			if i > start {
				out = append(out, string(b[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, string(b[start:]))
	}
	return out
}
