package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSealSortsPackageListsByName(t *testing.T) {
	s := &Snapshot{
		Packages: PackagesSection{
			Added:     []Package{{Name: "zlib"}, {Name: "bash"}, {Name: "curl"}},
			Unchanged: []Package{{Name: "glibc"}, {Name: "coreutils"}},
		},
	}
	s.Seal(nil, nil)

	wantAdded := []Package{{Name: "bash"}, {Name: "curl"}, {Name: "zlib"}}
	if diff := cmp.Diff(wantAdded, s.Packages.Added); diff != "" {
		t.Errorf("Packages.Added not sorted (-want +got):\n%s", diff)
	}
	wantUnchanged := []Package{{Name: "coreutils"}, {Name: "glibc"}}
	if diff := cmp.Diff(wantUnchanged, s.Packages.Unchanged); diff != "" {
		t.Errorf("Packages.Unchanged not sorted (-want +got):\n%s", diff)
	}
	if !s.IsSealed() {
		t.Error("Seal did not mark the snapshot sealed")
	}
}

func TestSaveRejectsUnsealedSnapshot(t *testing.T) {
	s := &Snapshot{}
	err := s.Save(filepath.Join(t.TempDir(), "snapshot.json"))
	var se *Error
	if err == nil {
		t.Fatal("Save on an unsealed snapshot returned nil error")
	}
	if !errors.As(err, &se) || se.Kind != ErrPrecondition {
		t.Errorf("Save error = %v, want ErrPrecondition", err)
	}
}

func TestSaveLoadRoundTrips(t *testing.T) {
	s := &Snapshot{
		Host:   HostInfo{Hostname: "web-01", Distribution: "rhel"},
		Target: TargetInfo{Image: "registry.redhat.io/rhel9/rhel-bootc:9.4", Source: TargetSourceAuto},
		Packages: PackagesSection{
			Added: []Package{{Name: "htop", Version: "3.2.2"}},
		},
		Warnings: []Warning{{Source: "packages", Severity: SeverityInfo, Message: "no baseline override supplied"}},
	}
	s.Seal(s.Warnings, nil)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.IsSealed() {
		t.Error("loaded snapshot reports unsealed")
	}

	opts := cmp.Options{cmpopts.IgnoreUnexported(Snapshot{})}
	if diff := cmp.Diff(s, loaded, opts); diff != "" {
		t.Errorf("round-tripped snapshot differs (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	_, err := Load(path)
	var se *Error
	if !errors.As(err, &se) || se.Kind != ErrInvalid {
		t.Errorf("Load error = %v, want ErrInvalid", err)
	}
}
