package network

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunParsesStaticConnectionAndStripsLoopbackHosts(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/NetworkManager/system-connections/eth0.nmconnection": {Data: []byte(
			"[connection]\ninterface-name=eth0\n[ipv4]\naddress1=192.0.2.10/24,192.0.2.1\nmethod=manual\n",
		)},
		"etc/hosts": {Data: []byte("127.0.0.1 localhost\n::1 localhost\n10.0.0.5 db.internal\n")},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	insp := Inspector{Gate: redact.NewGate()}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Network.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(snap.Network.Connections))
	}
	c := snap.Network.Connections[0]
	if c.Method != snapshot.ConnectionStatic || c.Interface != "eth0" {
		t.Errorf("unexpected connection: %+v", c)
	}
	if len(snap.Network.HostsAdditions) != 1 || snap.Network.HostsAdditions[0] != "10.0.0.5 db.internal" {
		t.Errorf("unexpected hosts additions: %v", snap.Network.HostsAdditions)
	}
}

func TestDNSProvenanceHandEditedResolverEmitsWarning(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/resolv.conf": {Data: []byte("nameserver 192.0.2.53\nsearch example.com\n")},
	}
	sink := &pipeline.Sink{}
	ictx := &pipeline.Context{FS: memFS, Sink: sink}
	insp := Inspector{Gate: redact.NewGate()}
	var snap snapshot.Snapshot
	if err := insp.Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Network.DNSProvenance != snapshot.DNSHandEdited {
		t.Errorf("DNSProvenance = %q, want %q", snap.Network.DNSProvenance, snapshot.DNSHandEdited)
	}
	var found bool
	for _, w := range sink.Warnings() {
		if w.Severity == snapshot.SeverityWarn && w.Source == Name && w.Resource == "etc/resolv.conf" {
			found = true
		}
	}
	if !found {
		t.Error("expected a warn-severity warning for the hand-edited resolver file, found none")
	}
}

func TestDNSProvenanceRecognizesManagerSignatures(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    snapshot.DNSProvenance
	}{
		{"network-manager", "# Generated by NetworkManager\nnameserver 192.0.2.53\n", snapshot.DNSManagedByNetworkManager},
		{"resolved", "# This file is managed by man:systemd-resolved(8). Do not edit.\nnameserver 127.0.0.53\n", snapshot.DNSManagedByResolved},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			memFS := fstest.MapFS{"etc/resolv.conf": {Data: []byte(c.content)}}
			ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
			insp := Inspector{Gate: redact.NewGate()}
			var snap snapshot.Snapshot
			if err := insp.Run(context.Background(), ictx, &snap); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if snap.Network.DNSProvenance != c.want {
				t.Errorf("DNSProvenance = %q, want %q", snap.Network.DNSProvenance, c.want)
			}
		})
	}
}
