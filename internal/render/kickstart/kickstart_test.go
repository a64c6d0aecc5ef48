package kickstart

import (
	"strings"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRenderEmitsPartitionAndNetworkLines(t *testing.T) {
	snap := &snapshot.Snapshot{
		Host:   snapshot.HostInfo{Hostname: "web01"},
		Target: snapshot.TargetInfo{Image: "registry.redhat.io/rhel9/rhel-bootc:9.4"},
		Storage: snapshot.StorageSection{
			Mounts: []snapshot.Mount{
				{Target: "/data", FSType: "xfs", Strategy: snapshot.StrategyDeployTimeMount, SizeBytes: 10 * 1024 * 1024 * 1024},
			},
		},
		Network: snapshot.NetworkSection{
			Connections: []snapshot.Connection{
				{Name: "eth0", Interface: "eth0", Method: snapshot.ConnectionStatic},
				{Name: "eth1", Interface: "eth1", Method: snapshot.ConnectionDynamic},
			},
		},
	}
	out := Render(snap)
	if !strings.Contains(out, "ostreecontainer --url=registry.redhat.io/rhel9/rhel-bootc:9.4") {
		t.Errorf("expected ostreecontainer line, got:\n%s", out)
	}
	if !strings.Contains(out, "part /data --fstype=xfs --size=10240") {
		t.Errorf("expected partition line, got:\n%s", out)
	}
	if !strings.Contains(out, "network --device=eth0 --bootproto=static") {
		t.Errorf("expected static network line, got:\n%s", out)
	}
	if strings.Contains(out, "eth1") {
		t.Errorf("did not expect dynamic connection to appear, got:\n%s", out)
	}
}

func TestRenderFallsBackToAutopartWithoutNonDefaultMounts(t *testing.T) {
	snap := &snapshot.Snapshot{Host: snapshot.HostInfo{Hostname: "web01"}}
	out := Render(snap)
	if !strings.Contains(out, "autopart") {
		t.Errorf("expected autopart fallback, got:\n%s", out)
	}
}
