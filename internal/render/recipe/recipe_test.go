package recipe

import (
	"strings"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func sampleSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Target: snapshot.TargetInfo{Image: "quay.io/centos-bootc/centos-bootc:stream9"},
		Packages: snapshot.PackagesSection{
			Added:   []snapshot.Package{{Name: "htop"}, {Name: "tmux"}},
			Removed: []snapshot.Package{{Name: "cockpit"}},
		},
		Services: []snapshot.ServiceRecord{
			{Unit: "nginx.service", Action: snapshot.ActionEnable},
			{Unit: "telnet.socket", Action: snapshot.ActionMask},
		},
		Scheduled: snapshot.ScheduledSection{
			Cron: []snapshot.CronEntry{{User: "root", Schedule: "0 3 * * *", Command: "/usr/local/bin/backup.sh"}},
			AtJobs: []snapshot.AtJob{{ID: "3", RunAt: "2026-08-01T00:00:00Z", Command: "/bin/echo hi"}},
		},
		NonPackage: []snapshot.NonPackageEntry{
			{Path: "/opt/widget/bin/widget", Provenance: snapshot.ProvenanceUnknown, Detail: "unrecognized ELF"},
		},
		Kernel: snapshot.KernelSection{
			CmdLine: "console=ttyS0",
			Sysctl:  []snapshot.SysctlValue{{Key: "net.ipv4.ip_forward", Value: "1"}},
		},
	}
}

func TestRenderIncludesPackageAndServiceDirectives(t *testing.T) {
	out := Render(sampleSnapshot())

	for _, want := range []string{
		"FROM quay.io/centos-bootc/centos-bootc:stream9",
		"dnf install -y htop tmux",
		"dnf remove -y cockpit",
		"systemctl enable nginx.service",
		"systemctl mask telnet.socket",
		"cron-0.timer",
		unresolvedMarker + " at-job",
		unresolvedMarker + " unidentified binary",
		"net.ipv4.ip_forward = 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected Containerfile to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderOmitsBuildStageWithoutNativeExtensions(t *testing.T) {
	out := Render(sampleSnapshot())
	if strings.Contains(out, "AS pybuild") {
		t.Errorf("did not expect a build stage, got:\n%s", out)
	}
}

func TestRenderAddsBuildStageForNativeExtensionPip(t *testing.T) {
	snap := sampleSnapshot()
	snap.NonPackage = append(snap.NonPackage, snapshot.NonPackageEntry{
		Path: "/usr/lib/python3.11/site-packages/numpy", Provenance: snapshot.ProvenancePip, Detail: "numpy", Version: "1.26.0",
	})
	out := Render(snap)
	if !strings.Contains(out, "AS pybuild") {
		t.Errorf("expected a build stage for numpy, got:\n%s", out)
	}
	if !strings.Contains(out, "pip install --target=/pybuild-out") {
		t.Errorf("expected pip install line, got:\n%s", out)
	}
}
