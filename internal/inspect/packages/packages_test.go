package packages

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunCapturesCustomRepoFiles(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/yum.repos.d/custom.repo": {Data: []byte("[custom]\nname=custom\nbaseurl=https://example.com/repo\n")},
	}
	ictx := &pipeline.Context{HostRoot: "/host", FS: memFS, Sink: &pipeline.Sink{}}
	insp := Inspector{Runner: &adapter.Fake{}, Gate: redact.NewGate()}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Packages.Repos) != 1 {
		t.Fatalf("expected 1 repo file, got %+v", snap.Packages.Repos)
	}
	r := snap.Packages.Repos[0]
	if r.Path != "/etc/yum.repos.d/custom.repo" {
		t.Errorf("Path = %q, want /etc/yum.repos.d/custom.repo", r.Path)
	}
	if len(r.Content) == 0 {
		t.Errorf("expected repo file content to be captured, got empty")
	}
}

func TestRunWithNoCustomReposLeavesReposEmpty(t *testing.T) {
	ictx := &pipeline.Context{HostRoot: "/host", FS: fstest.MapFS{}, Sink: &pipeline.Sink{}}
	insp := Inspector{Runner: &adapter.Fake{}, Gate: redact.NewGate()}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Packages.Repos) != 0 {
		t.Errorf("expected no repo files, got %+v", snap.Packages.Repos)
	}
}
