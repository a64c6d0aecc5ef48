// Package network implements the network inspector (spec §4.2):
// NetworkManager connection profiles, firewalld zones and direct rules,
// non-default routes, and the provenance of /etc/resolv.conf.
package network

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "network"

const connectionsRoot = "etc/NetworkManager/system-connections"

type Inspector struct {
	Gate *redact.Gate
}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (i Inspector) Run(_ context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	snap.Network.Connections = i.connections(ictx)
	snap.Network.FirewallZones = i.firewallZones(ictx)
	snap.Network.DirectRules = i.directRules(ictx)
	snap.Network.Routes = i.routes(ictx)
	snap.Network.DNSProvenance = i.dnsProvenance(ictx)
	snap.Network.HostsAdditions = i.hostsAdditions(ictx)
	snap.Network.Proxy = i.proxyEnv(ictx)
	return nil
}

// connections reads every NetworkManager keyfile profile, classifying
// each as static or dynamic by the presence of an "addresses" key.
func (i Inspector) connections(ictx *pipeline.Context) []snapshot.Connection {
	entries, err := fs.ReadDir(ictx.FS, connectionsRoot)
	if err != nil {
		ictx.Sink.Infof(Name, connectionsRoot, "no NetworkManager profiles found: %v", err)
		return nil
	}
	var out []snapshot.Connection
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := path.Join(connectionsRoot, e.Name())
		b, err := fs.ReadFile(ictx.FS, p)
		if err != nil {
			continue
		}
		method := snapshot.ConnectionDynamic
		iface := ""
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			switch {
			case strings.HasPrefix(line, "address1="), strings.Contains(line, "method=manual"):
				method = snapshot.ConnectionStatic
			case strings.HasPrefix(line, "interface-name="):
				iface = strings.TrimPrefix(line, "interface-name=")
			}
		}
		redacted, secrets := i.Gate.Redact(p, b)
		ictx.Sink.AppendSecretsReview(secrets...)
		out = append(out, snapshot.Connection{
			Name:      strings.TrimSuffix(e.Name(), ".nmconnection"),
			Interface: iface,
			Method:    method,
			Content:   redacted,
		})
	}
	return out
}

// firewallZones parses each zone XML document under firewalld's config
// directory only for the fields the recipe renderer needs: the
// services, ports, and rich rules a zone grants. It is a tolerant,
// line-oriented scan rather than a full XML decode, because firewalld's
// zone schema is small and stable.
func (i Inspector) firewallZones(ictx *pipeline.Context) []snapshot.FirewallZone {
	const root = "etc/firewalld/zones"
	entries, err := fs.ReadDir(ictx.FS, root)
	if err != nil {
		ictx.Sink.Infof(Name, root, "no custom firewalld zones found: %v", err)
		return nil
	}
	var zones []snapshot.FirewallZone
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".xml") {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join(root, e.Name()))
		if err != nil {
			continue
		}
		zones = append(zones, parseZoneXML(strings.TrimSuffix(e.Name(), ".xml"), b))
	}
	return zones
}

func parseZoneXML(name string, b []byte) snapshot.FirewallZone {
	z := snapshot.FirewallZone{Name: name}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "<service name="):
			z.Services = append(z.Services, attrValue(line, "name"))
		case strings.HasPrefix(line, "<port "):
			z.Ports = append(z.Ports, attrValue(line, "port")+"/"+attrValue(line, "protocol"))
		case strings.HasPrefix(line, "<rule"):
			z.Rules = append(z.Rules, line)
		}
	}
	return z
}

func attrValue(line, attr string) string {
	key := attr + "=\""
	idx := strings.Index(line, key)
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(key):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// directRules surfaces any firewalld direct-rules file, which bypasses
// zones entirely and so needs its own surfaced section.
func (i Inspector) directRules(ictx *pipeline.Context) []string {
	b, err := fs.ReadFile(ictx.FS, "etc/firewalld/direct.xml")
	if err != nil {
		return nil
	}
	var rules []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "<rule ") {
			rules = append(rules, line)
		}
	}
	return rules
}

// routes reads the static route files NetworkManager keeps per
// interface; live route-table enumeration isn't available from a
// read-only filesystem view, so only the persisted configuration is
// captured.
func (i Inspector) routes(ictx *pipeline.Context) []snapshot.Route {
	entries, err := fs.ReadDir(ictx.FS, "etc/sysconfig/network-scripts")
	if err != nil {
		return nil
	}
	var routes []snapshot.Route
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "route-") {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join("etc/sysconfig/network-scripts", e.Name()))
		if err != nil {
			continue
		}
		device := strings.TrimPrefix(e.Name(), "route-")
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 1 {
				continue
			}
			r := snapshot.Route{Destination: fields[0], Device: device, Table: "main"}
			for idx, f := range fields {
				if f == "via" && idx+1 < len(fields) {
					r.Gateway = fields[idx+1]
				}
			}
			routes = append(routes, r)
		}
	}
	return routes
}

// resolvConfPath is the resolver configuration file whose provenance is
// classified below.
const resolvConfPath = "etc/resolv.conf"

// networkManagerSignature and resolvedSignature are the header comments
// each manager stamps at the top of the file it owns. The read-only
// host view this inspector runs against is a plain directory tree
// (os.DirFS), which collapses symlinks to their target's content rather
// than exposing the link itself, so the header signature in the body
// is the only provenance signal actually available — not a fallback
// for a symlink check, the only check.
var (
	networkManagerSignature = []byte("Generated by NetworkManager")
	resolvedSignature       = []byte("This file is managed by man:systemd-resolved")
)

// dnsProvenance distinguishes a resolv.conf managed by NetworkManager or
// systemd-resolved, identified by the header comment each stamps into
// the file it writes, from one the operator hand-edited directly. A
// hand-edited file is worth flagging: once migrated, nothing will
// regenerate it automatically (spec §8 scenario 4).
func (i Inspector) dnsProvenance(ictx *pipeline.Context) snapshot.DNSProvenance {
	b, err := fs.ReadFile(ictx.FS, resolvConfPath)
	if err != nil {
		ictx.Sink.Infof(Name, resolvConfPath, "no resolver configuration found: %v", err)
		return snapshot.DNSHandEdited
	}
	switch {
	case bytes.Contains(b, networkManagerSignature):
		return snapshot.DNSManagedByNetworkManager
	case bytes.Contains(b, resolvedSignature):
		return snapshot.DNSManagedByResolved
	}
	ictx.Sink.Warnf(Name, resolvConfPath, "resolver configuration has no recognized header signature; treating as hand-edited")
	return snapshot.DNSHandEdited
}

// hostsAdditions returns every /etc/hosts line beyond the standard
// loopback/localhost entries systemd-sysusers and anaconda always seed.
func (i Inspector) hostsAdditions(ictx *pipeline.Context) []string {
	b, err := fs.ReadFile(ictx.FS, "etc/hosts")
	if err != nil {
		return nil
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "127.0.0.1") || strings.HasPrefix(line, "::1") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// proxyEnv captures any proxy variables set system-wide, which a
// bootc-built image needs reproduced explicitly since it won't inherit
// the host's environment.
func (i Inspector) proxyEnv(ictx *pipeline.Context) map[string]string {
	b, err := fs.ReadFile(ictx.FS, "etc/environment")
	if err != nil {
		return nil
	}
	out := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(k), "proxy") {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
