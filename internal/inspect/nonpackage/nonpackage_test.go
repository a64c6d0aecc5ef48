package nonpackage

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunFindsPipNpmAndGit(t *testing.T) {
	memFS := fstest.MapFS{
		"opt/app/lib/requests-2.31.0.dist-info/METADATA": {Data: []byte("Name: requests\n")},
		"opt/app/node_modules/lodash/package.json":       {Data: []byte(`{"name":"lodash","version":"4.17.21"}`)},
		"srv/checkout/.git/HEAD":                          {Data: []byte("ref: refs/heads/main\n")},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	insp := Inspector{Readelf: adapter.Readelf{Runner: &adapter.Fake{}}, File: adapter.File{Runner: &adapter.Fake{}}}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var sawPip, sawNpm, sawGit bool
	for _, e := range snap.NonPackage {
		switch e.Provenance {
		case snapshot.ProvenancePip:
			sawPip = e.Version == "2.31.0"
		case snapshot.ProvenanceNpm:
			sawNpm = e.Version == "4.17.21"
		case snapshot.ProvenanceGit:
			sawGit = true
		}
	}
	if !sawPip || !sawNpm || !sawGit {
		t.Fatalf("expected pip, npm, and git entries, got %+v", snap.NonPackage)
	}
}

func TestClassifyBinaryWithNoSignalIsUnknown(t *testing.T) {
	memFS := fstest.MapFS{
		"usr/local/bin/mytool": {Data: []byte("whatever")},
	}
	ictx := &pipeline.Context{HostRoot: "/host", FS: memFS, Sink: &pipeline.Sink{}}
	insp := Inspector{Readelf: adapter.Readelf{Runner: &adapter.Fake{}}, File: adapter.File{Runner: &adapter.Fake{}}}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var found bool
	for _, e := range snap.NonPackage {
		if e.Path == "usr/local/bin/mytool" {
			found = true
			if e.Provenance != snapshot.ProvenanceUnknown || e.Confidence != snapshot.ConfidenceUnknown {
				t.Errorf("entry = %+v, want provenance/confidence both %q", e, snapshot.ProvenanceUnknown)
			}
		}
	}
	if !found {
		t.Fatalf("expected an entry for usr/local/bin/mytool, got %+v", snap.NonPackage)
	}
}

func TestSearchRootsExcludeUserHomes(t *testing.T) {
	for _, root := range searchRoots {
		if root == "root" || root == "home" {
			t.Errorf("searchRoots must not scan user homes, found %q", root)
		}
	}
}

func TestDedupeByNameKeepsNewest(t *testing.T) {
	entries := []snapshot.NonPackageEntry{
		{Detail: "requests", Version: "2.20.0"},
		{Detail: "requests", Version: "2.31.0"},
	}
	out := dedupeByNameKeepNewest(entries)
	if len(out) != 1 || out[0].Version != "2.31.0" {
		t.Fatalf("expected single newest entry, got %+v", out)
	}
}
