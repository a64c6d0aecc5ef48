package configs

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestExcludedIsMonotone(t *testing.T) {
	literal, globs := LiteralExclusions(), GlobExclusions()
	cases := []struct {
		path string
		want bool
	}{
		{"etc/hostname", true},
		{"etc/ssh/ssh_host_rsa_key", true},
		{"etc/foo.rpmnew", true},
		{"etc/myapp/app.conf", false},
	}
	for _, c := range cases {
		if got := Excluded(c.path, literal, globs); got != c.want {
			t.Errorf("Excluded(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestRunOwnedModifiedIsRedacted(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/app/secrets.conf": {Data: []byte("password: hunter2345\n")},
	}
	runner := &adapter.Fake{Responses: map[string][]byte{
		"rpm": []byte("S.5....T /etc/app/secrets.conf\n"),
	}}
	ictx := &pipeline.Context{
		HostRoot: "/",
		FS:       memFS,
		Sink:     &pipeline.Sink{},
	}
	insp := Inspector{Runner: runner, Gate: redact.NewGate()}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Configs.OwnedModified) != 1 {
		t.Fatalf("expected 1 owned-modified file, got %d", len(snap.Configs.OwnedModified))
	}
	cf := snap.Configs.OwnedModified[0]
	if cf.Path != "/etc/app/secrets.conf" {
		t.Errorf("unexpected path %q", cf.Path)
	}
	if string(cf.Content) == "password: hunter2345\n" {
		t.Fatalf("secret survived redaction: %q", cf.Content)
	}
	if cf.VerifyFlags == nil || !cf.VerifyFlags.Checksum {
		t.Errorf("expected checksum flag set, got %+v", cf.VerifyFlags)
	}
	if len(ictx.Sink.SecretsReview()) == 0 {
		t.Error("expected a secrets-review entry for the redacted password")
	}
}

func TestRunUnownedFileExcludesOwnedAndFiltered(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/hostname":         {Data: []byte("host.example.com\n")},
		"etc/myapp/app.conf":   {Data: []byte("listen=0.0.0.0:8080\n")},
		"etc/ssh/ssh_host_key": {Data: []byte("BEGIN KEY\n")},
	}
	runner := &adapter.Fake{Responses: map[string][]byte{
		"rpm": nil,
	}}
	ictx := &pipeline.Context{
		HostRoot: "/",
		FS:       memFS,
		Sink:     &pipeline.Sink{},
	}
	insp := Inspector{Runner: runner, Gate: redact.NewGate()}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Configs.Unowned) != 1 || snap.Configs.Unowned[0].Path != "etc/myapp/app.conf" {
		t.Fatalf("expected only etc/myapp/app.conf to survive exclusion, got %+v", snap.Configs.Unowned)
	}
}
