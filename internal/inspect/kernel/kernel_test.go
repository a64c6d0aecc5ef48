package kernel

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunFiltersDefaultModulesAndParsesSysctl(t *testing.T) {
	memFS := fstest.MapFS{
		"proc/cmdline":                         {Data: []byte("BOOT_IMAGE=/vmlinuz ro quiet\n")},
		"etc/modules-load.d/custom.conf":       {Data: []byte("ext4\nnf_conntrack\n")},
		"etc/sysctl.d/99-custom.conf":          {Data: []byte("net.ipv4.ip_forward = 1\n")},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	var snap snapshot.Snapshot
	if err := (Inspector{}).Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Kernel.CmdLine != "BOOT_IMAGE=/vmlinuz ro quiet" {
		t.Errorf("unexpected cmdline: %q", snap.Kernel.CmdLine)
	}
	if len(snap.Kernel.Modules) != 1 || snap.Kernel.Modules[0] != "nf_conntrack" {
		t.Errorf("expected only nf_conntrack to survive default filtering, got %v", snap.Kernel.Modules)
	}
	if len(snap.Kernel.Sysctl) != 1 || snap.Kernel.Sysctl[0].Key != "net.ipv4.ip_forward" {
		t.Errorf("unexpected sysctl values: %+v", snap.Kernel.Sysctl)
	}
}
