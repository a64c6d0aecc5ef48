package security

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunReadsEnforcingModeAndBooleans(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/selinux/config":                      {Data: []byte("SELINUX=enforcing\nSELINUXTYPE=targeted\n")},
		"etc/selinux/targeted/booleans.local":      {Data: []byte("httpd_can_network_connect 1\n")},
		"etc/selinux/targeted/active/modules/400/mycustom/cil": {Data: []byte("(block)")},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	var snap snapshot.Snapshot
	if err := (Inspector{}).Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Security.Mode != snapshot.SELinuxEnforcing {
		t.Errorf("expected enforcing mode, got %v", snap.Security.Mode)
	}
	if len(snap.Security.Booleans) != 1 || !snap.Security.Booleans[0].Value {
		t.Errorf("unexpected booleans: %+v", snap.Security.Booleans)
	}
	if len(snap.Security.Modules) != 1 || snap.Security.Modules[0].Name != "mycustom" {
		t.Errorf("unexpected modules: %+v", snap.Security.Modules)
	}
}
