package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marrusl/yoinkc/internal/inspect/scheduled"
	"github.com/marrusl/yoinkc/internal/render/audit"
	"github.com/marrusl/yoinkc/internal/render/html"
	"github.com/marrusl/yoinkc/internal/render/kickstart"
	"github.com/marrusl/yoinkc/internal/render/layout"
	"github.com/marrusl/yoinkc/internal/render/readme"
	"github.com/marrusl/yoinkc/internal/render/recipe"
	"github.com/marrusl/yoinkc/internal/render/sbom"
	"github.com/marrusl/yoinkc/internal/render/secretsreview"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// renderAll writes every artifact in the §6 layout under cfg.OutputDir.
// The snapshot must already be sealed.
func renderAll(snap *snapshot.Snapshot, cfg config) error {
	if !snap.IsSealed() {
		return fmt.Errorf("render: snapshot is not sealed")
	}

	if err := put(layout.Join(cfg.OutputDir, layout.Containerfile), []byte(recipe.Render(snap))); err != nil {
		return err
	}
	if err := materializeConfigTree(snap, cfg.OutputDir); err != nil {
		return err
	}

	auditText, err := audit.Render(snap)
	if err != nil {
		return fmt.Errorf("rendering audit report: %w", err)
	}
	if err := put(layout.Join(cfg.OutputDir, layout.AuditReport), []byte(auditText)); err != nil {
		return err
	}

	htmlText, err := html.Render(snap)
	if err != nil {
		return fmt.Errorf("rendering html dashboard: %w", err)
	}
	if err := put(layout.Join(cfg.OutputDir, layout.ReportHTML), []byte(htmlText)); err != nil {
		return err
	}

	readmeText, err := readme.Render(snap, true)
	if err != nil {
		return fmt.Errorf("rendering readme: %w", err)
	}
	if err := put(layout.Join(cfg.OutputDir, layout.README), []byte(readmeText)); err != nil {
		return err
	}

	if err := put(layout.Join(cfg.OutputDir, layout.KickstartFrag), []byte(kickstart.Render(snap))); err != nil {
		return err
	}
	if err := put(layout.Join(cfg.OutputDir, layout.SecretsReview), []byte(secretsreview.Render(snap))); err != nil {
		return err
	}

	sbomBytes, err := sbom.Render(snap, time.Now())
	if err != nil {
		return fmt.Errorf("rendering sbom: %w", err)
	}
	return put(layout.Join(cfg.OutputDir, layout.SBOM), sbomBytes)
}

// materializeConfigTree writes the mirrored configuration tree the
// Containerfile's COPY directives expect: captured config content,
// static network profiles, synthesized firewalld zone documents,
// converted cron timer/service units, regenerated quadlet units, and
// the append-fragment staging files for user/group provisioning.
func materializeConfigTree(snap *snapshot.Snapshot, outputDir string) error {
	for _, group := range [][]snapshot.ConfigFile{snap.Configs.OwnedModified, snap.Configs.Unowned, snap.Configs.Orphaned} {
		for _, cf := range group {
			if err := put(layout.ConfigEtcPath(outputDir, trimLeadingSlash(cf.Path)), cf.Content); err != nil {
				return err
			}
		}
	}

	for _, r := range snap.Packages.Repos {
		rel := filepath.Join("yum.repos.d", filepath.Base(r.Path))
		if err := put(layout.ConfigEtcPath(outputDir, rel), r.Content); err != nil {
			return err
		}
	}

	for _, c := range snap.Network.Connections {
		if c.Method != snapshot.ConnectionStatic {
			continue
		}
		rel := filepath.Join("NetworkManager/system-connections", c.Name+".nmconnection")
		if err := put(layout.ConfigEtcPath(outputDir, rel), c.Content); err != nil {
			return err
		}
	}

	for _, z := range snap.Network.FirewallZones {
		rel := filepath.Join("firewalld/zones", z.Name+".xml")
		if err := put(layout.ConfigEtcPath(outputDir, rel), []byte(firewallZoneXML(z))); err != nil {
			return err
		}
	}

	for i, c := range snap.Scheduled.Cron {
		name := recipe.CronUnitName(i)
		timerUnit, serviceUnit := scheduled.ConvertToTimer(name, c)
		if err := put(layout.ConfigEtcPath(outputDir, filepath.Join("systemd/system", name+".timer")), []byte(timerUnit)); err != nil {
			return err
		}
		if err := put(layout.ConfigEtcPath(outputDir, filepath.Join("systemd/system", name+".service")), []byte(serviceUnit)); err != nil {
			return err
		}
	}

	// Quadlet units carry no raw content in the snapshot (only Path and
	// Image survive inspection), so the copied unit is a regeneration,
	// not a byte-for-byte original. Good enough to round-trip the image
	// reference; anything more exotic in the original unit is called out
	// by the audit report's non-package-software section instead.
	for _, q := range snap.Containers.Quadlets {
		content := []byte(fmt.Sprintf("[Container]\nImage=%s\n", q.Image))
		if err := put(layout.QuadletPath(outputDir, filepath.Base(q.Path)), content); err != nil {
			return err
		}
	}

	passwd, group, shadow := userAppendFragments(snap)
	if len(passwd) == 0 {
		return nil
	}
	if err := put(layout.ConfigTmpPath(outputDir, "passwd.append"), passwd); err != nil {
		return err
	}
	if err := put(layout.ConfigTmpPath(outputDir, "group.append"), group); err != nil {
		return err
	}
	return put(layout.ConfigTmpPath(outputDir, "shadow.append"), shadow)
}

func userAppendFragments(snap *snapshot.Snapshot) (passwd, group, shadow []byte) {
	return joinLines(snap.Users.Users), joinLines(snap.Users.Groups), joinLines(snap.Users.Shadow)
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return []byte(out)
}

// firewallZoneXML re-synthesizes a firewalld zone document from the
// structured fields captured at inspection time. The snapshot never
// keeps the raw zone XML, only its parsed services/ports/rich rules.
func firewallZoneXML(z snapshot.FirewallZone) string {
	s := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<zone>\n  <short>%s</short>\n", z.Name)
	for _, svc := range z.Services {
		s += fmt.Sprintf("  <service name=%q/>\n", svc)
	}
	for _, p := range z.Ports {
		s += fmt.Sprintf("  <port %s/>\n", p)
	}
	for _, r := range z.Rules {
		s += fmt.Sprintf("  <rule>%s</rule>\n", r)
	}
	s += "</zone>\n"
	return s
}

func trimLeadingSlash(p string) string {
	return filepath.Clean("/" + p)[1:]
}

func put(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
