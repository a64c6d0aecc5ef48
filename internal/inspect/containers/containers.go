// Package containers implements the containers inspector (spec §4.2):
// quadlet unit files under /etc/containers/systemd, docker-compose
// workloads found on disk, and, when --query-podman is set, the
// running container engine's own live container list.
package containers

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "containers"

var quadletRoots = []string{"etc/containers/systemd", "usr/share/containers/systemd"}

// composeSearchRoots are scanned for compose files; this is
// necessarily a heuristic since compose has no canonical install
// location the way quadlet units do.
var composeSearchRoots = []string{"opt", "srv", "root", "home"}

var composeFilenames = map[string]bool{
	"docker-compose.yml": true, "docker-compose.yaml": true,
	"compose.yml": true, "compose.yaml": true,
}

// PodmanSocket is the default rootful podman API socket path used when
// --query-podman is set and the privilege bridge has made it reachable.
const PodmanSocket = "/run/podman/podman.sock"

type Inspector struct{}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (Inspector) Run(ctx context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	snap.Containers.Quadlets = parseQuadlets(ictx)
	snap.Containers.Compose = parseCompose(ictx)
	if ictx.Config.QueryPodman {
		live, err := adapter.LiveContainers(ctx, PodmanSocket)
		if err != nil {
			ictx.Sink.Warnf(Name, PodmanSocket, "live container enumeration failed: %v", err)
		} else {
			snap.Containers.Live = toLiveContainers(live)
		}
	}
	return nil
}

func toLiveContainers(in []adapter.ContainerInfo) []snapshot.LiveContainer {
	out := make([]snapshot.LiveContainer, 0, len(in))
	for _, c := range in {
		out = append(out, snapshot.LiveContainer{ID: c.ID, Name: c.Name, Image: c.Image, State: c.State})
	}
	return out
}

func parseQuadlets(ictx *pipeline.Context) []snapshot.QuadletUnit {
	var out []snapshot.QuadletUnit
	for _, root := range quadletRoots {
		entries, err := fs.ReadDir(ictx.FS, root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".container") {
				continue
			}
			p := path.Join(root, e.Name())
			b, err := fs.ReadFile(ictx.FS, p)
			if err != nil {
				continue
			}
			out = append(out, snapshot.QuadletUnit{Path: p, Image: iniValue(b, "Image")})
		}
	}
	return out
}

func iniValue(b []byte, key string) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, key+"="); ok {
			return v
		}
	}
	return ""
}

type composeFile struct {
	Services map[string]struct {
		Image string `yaml:"image"`
	} `yaml:"services"`
}

func parseCompose(ictx *pipeline.Context) []snapshot.ComposeService {
	var out []snapshot.ComposeService
	for _, root := range composeSearchRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil //nolint:nilerr
			}
			if !composeFilenames[filepath.Base(p)] {
				return nil
			}
			b, err := fs.ReadFile(ictx.FS, p)
			if err != nil {
				return nil //nolint:nilerr
			}
			var cf composeFile
			if err := yaml.Unmarshal(b, &cf); err != nil {
				ictx.Sink.Infof(Name, p, "could not parse compose file: %v", err)
				return nil
			}
			for name, svc := range cf.Services {
				out = append(out, snapshot.ComposeService{File: p, Service: name, Image: svc.Image})
			}
			return nil
		})
	}
	return out
}
