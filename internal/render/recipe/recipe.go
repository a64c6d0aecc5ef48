// Package recipe renders the layered Containerfile (spec §4.5): the
// fifteen-step build document ordered so the least-volatile layers come
// first, each directive carrying a comment explaining what it's for and
// every unresolved item prefixed with a conspicuous marker.
package recipe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// CronUnitName is the unit basename assigned to the i'th crontab entry
// during conversion; the config-tree materializer that actually writes
// the timer/service unit content (via scheduled.ConvertToTimer) and this
// renderer must agree on it.
func CronUnitName(i int) string {
	return fmt.Sprintf("cron-%d", i)
}

// unresolvedMarker prefixes any directive the renderer could not
// confidently automate, per spec §4.5 ("conspicuous marker").
const unresolvedMarker = "FIXME(yoinkc):"

// nativeExtensionMarkers are Python packages whose presence implies a
// compiled extension needs a build stage (a C toolchain) the final
// image shouldn't carry.
var nativeExtensionMarkers = []string{"numpy", "psycopg2", "pyyaml", "cryptography", "lxml"}

// Render produces the complete Containerfile text for snap.
func Render(snap *snapshot.Snapshot) string {
	var b strings.Builder
	step1BuildStage(&b, snap)
	step2BaseImage(&b, snap)
	step3Repos(&b, snap)
	step4Packages(&b, snap)
	step5Services(&b, snap)
	step6Firewall(&b, snap)
	step7Scheduled(&b, snap)
	step8Configs(&b)
	step9NonPackage(&b, snap)
	step10Containers(&b, snap)
	step11Users(&b)
	step12Kernel(&b, snap)
	step13Security(&b, snap)
	step14Network(&b, snap)
	step15Transient(&b, snap)
	return b.String()
}

func needsBuildStage(snap *snapshot.Snapshot) bool {
	for _, e := range snap.NonPackage {
		if e.Provenance != snapshot.ProvenancePip {
			continue
		}
		for _, marker := range nativeExtensionMarkers {
			if strings.EqualFold(e.Detail, marker) {
				return true
			}
		}
	}
	return false
}

// step1BuildStage emits an optional builder stage for pip packages that
// need compilation (spec §4.5 step 1); this stage is dropped from the
// final image entirely, so it costs nothing at runtime.
func step1BuildStage(b *strings.Builder, snap *snapshot.Snapshot) {
	if !needsBuildStage(snap) {
		return
	}
	fmt.Fprintf(b, "# Step 1: build stage for Python packages with compiled extensions\n")
	fmt.Fprintf(b, "FROM %s AS pybuild\n", snap.Target.Image)
	fmt.Fprintf(b, "RUN dnf install -y gcc python3-devel && \\\n")
	fmt.Fprintf(b, "    pip install --target=/pybuild-out --no-cache-dir \\\n")
	var names []string
	for _, e := range snap.NonPackage {
		if e.Provenance == snapshot.ProvenancePip {
			names = append(names, e.Detail)
		}
	}
	sort.Strings(names)
	for i, n := range names {
		sep := " \\\n"
		if i == len(names)-1 {
			sep = "\n"
		}
		fmt.Fprintf(b, "        %s%s", n, sep)
	}
	b.WriteString("\n")
}

func step2BaseImage(b *strings.Builder, snap *snapshot.Snapshot) {
	fmt.Fprintf(b, "# Step 2: base image (resolved %s)\n", snap.Target.Source)
	if snap.Target.CrossMajor {
		fmt.Fprintf(b, "# %s target major version differs from the inspected host; review before building\n", unresolvedMarker)
	}
	fmt.Fprintf(b, "FROM %s\n\n", snap.Target.Image)
}

func step3Repos(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Packages.Repos) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 3: custom package repository definitions\n")
	for _, r := range snap.Packages.Repos {
		fmt.Fprintf(b, "COPY config/etc/%s /etc/yum.repos.d/\n", trimEtc(r.Path))
	}
	b.WriteString("\n")
}

func step4Packages(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Packages.Added) == 0 && len(snap.Packages.Removed) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 4: package install/remove relative to the base image\n")
	if len(snap.Packages.Added) > 0 {
		names := packageNames(snap.Packages.Added)
		fmt.Fprintf(b, "RUN dnf install -y %s && dnf clean all\n", strings.Join(names, " "))
	}
	if len(snap.Packages.Removed) > 0 {
		names := packageNames(snap.Packages.Removed)
		fmt.Fprintf(b, "RUN dnf remove -y %s\n", strings.Join(names, " "))
	}
	b.WriteString("\n")
}

func packageNames(pkgs []snapshot.Package) []string {
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name
	}
	return names
}

func step5Services(b *strings.Builder, snap *snapshot.Snapshot) {
	var lines []string
	for _, s := range snap.Services {
		switch s.Action {
		case snapshot.ActionEnable:
			lines = append(lines, fmt.Sprintf("systemctl enable %s", s.Unit))
		case snapshot.ActionDisable:
			lines = append(lines, fmt.Sprintf("systemctl disable %s", s.Unit))
		case snapshot.ActionMask:
			lines = append(lines, fmt.Sprintf("systemctl mask %s", s.Unit))
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 5: service enablement relative to the target image's presets\n")
	fmt.Fprintf(b, "RUN %s\n\n", strings.Join(lines, " && \\\n    "))
}

func step6Firewall(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Network.FirewallZones) == 0 && len(snap.Network.DirectRules) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 6: firewall zone files and direct rules\n")
	for _, z := range snap.Network.FirewallZones {
		fmt.Fprintf(b, "COPY config/etc/firewalld/zones/%s.xml /etc/firewalld/zones/\n", z.Name)
	}
	if len(snap.Network.DirectRules) > 0 {
		fmt.Fprintf(b, "COPY config/etc/firewalld/direct.xml /etc/firewalld/\n")
	}
	b.WriteString("\n")
}

// step7Scheduled converts every crontab entry to a timer/service unit
// pair per spec §4.5 step 7 and §8 scenario 6, and leaves at-jobs and
// non-convertible entries behind a manual-intervention marker.
func step7Scheduled(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Scheduled.Cron) == 0 && len(snap.Scheduled.Timers) == 0 && len(snap.Scheduled.AtJobs) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 7: scheduled work converted to systemd timers\n")
	for i := range snap.Scheduled.Cron {
		name := CronUnitName(i)
		fmt.Fprintf(b, "COPY config/etc/systemd/system/%s.timer /etc/systemd/system/\n", name)
		fmt.Fprintf(b, "COPY config/etc/systemd/system/%s.service /etc/systemd/system/\n", name)
		fmt.Fprintf(b, "RUN systemctl enable %s.timer\n", name)
	}
	for _, t := range snap.Scheduled.Timers {
		if t.Origin != snapshot.TimerLocal {
			// vendor timers ship with their owning package; nothing to copy
			continue
		}
		fmt.Fprintf(b, "COPY config/etc/systemd/system/%s /etc/systemd/system/\n", t.Unit)
		fmt.Fprintf(b, "RUN systemctl enable %s\n", t.Unit)
	}
	for _, a := range snap.Scheduled.AtJobs {
		fmt.Fprintf(b, "# %s at-job %q runs %q; at(1) has no systemd equivalent, recreate manually\n", unresolvedMarker, a.ID, a.Command)
	}
	b.WriteString("\n")
}

func step8Configs(b *strings.Builder) {
	fmt.Fprintf(b, "# Step 8: consolidated configuration-tree copy\n")
	fmt.Fprintf(b, "COPY config/etc/ /etc/\n\n")
}

func step9NonPackage(b *strings.Builder, snap *snapshot.Snapshot) {
	var pip, npm, unknown []snapshot.NonPackageEntry
	for _, e := range snap.NonPackage {
		switch e.Provenance {
		case snapshot.ProvenancePip:
			pip = append(pip, e)
		case snapshot.ProvenanceNpm:
			npm = append(npm, e)
		case snapshot.ProvenanceUnknown:
			unknown = append(unknown, e)
		}
	}
	if len(pip) == 0 && len(npm) == 0 && len(unknown) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 9: non-package software\n")
	if len(pip) > 0 {
		fmt.Fprintf(b, "COPY --from=pybuild /pybuild-out /usr/local/lib/python3/site-packages\n")
	}
	for _, n := range npm {
		fmt.Fprintf(b, "# npm package %s@%s detected at %s; install from lockfile at build time\n", n.Detail, n.Version, n.Path)
		fmt.Fprintf(b, "RUN npm install --prefix %s %s@%s\n", npmPrefix(n.Path), n.Detail, n.Version)
	}
	for _, u := range unknown {
		fmt.Fprintf(b, "# %s unidentified binary at %s (%s); confirm provenance before shipping\n", unresolvedMarker, u.Path, u.Detail)
		fmt.Fprintf(b, "COPY %s %s\n", u.Path, u.Path)
	}
	b.WriteString("\n")
}

func npmPrefix(pkgJSONPath string) string {
	i := strings.Index(pkgJSONPath, "/node_modules/")
	if i < 0 {
		return "/opt/app"
	}
	return pkgJSONPath[:i]
}

func step10Containers(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Containers.Quadlets) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 10: container-workload quadlet units\n")
	for _, q := range snap.Containers.Quadlets {
		fmt.Fprintf(b, "COPY quadlet/%s /etc/containers/systemd/\n", trimBase(q.Path))
	}
	b.WriteString("\n")
}

func step11Users(b *strings.Builder) {
	fmt.Fprintf(b, "# Step 11: user/group provisioning via append fragments\n")
	fmt.Fprintf(b, "COPY config/tmp/passwd.append config/tmp/group.append config/tmp/shadow.append /tmp/\n")
	fmt.Fprintf(b, "RUN cat /tmp/passwd.append >> /etc/passwd && \\\n")
	fmt.Fprintf(b, "    cat /tmp/group.append >> /etc/group && \\\n")
	fmt.Fprintf(b, "    cat /tmp/shadow.append >> /etc/shadow && \\\n")
	fmt.Fprintf(b, "    rm -rf /tmp/*.append && \\\n")
	fmt.Fprintf(b, "    for home in /home/*; do chown -R \"$(stat -c %%U \"$home\")\" \"$home\"; done\n\n")
}

func step12Kernel(b *strings.Builder, snap *snapshot.Snapshot) {
	if snap.Kernel.CmdLine == "" && len(snap.Kernel.Sysctl) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 12: kernel tuning\n")
	for _, s := range snap.Kernel.Sysctl {
		fmt.Fprintf(b, "RUN echo '%s = %s' >> /etc/sysctl.d/99-yoinkc.conf\n", s.Key, s.Value)
	}
	if snap.Kernel.CmdLine != "" {
		fmt.Fprintf(b, "# %s boot command line on the host was: %s; bootc images set kargs via the install, not the image\n",
			unresolvedMarker, snap.Kernel.CmdLine)
	}
	b.WriteString("\n")
}

func step13Security(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Security.Modules) == 0 && len(snap.Security.Booleans) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 13: SELinux policy modules and booleans\n")
	for _, m := range snap.Security.Modules {
		fmt.Fprintf(b, "COPY config/etc/selinux/modules/%s.cil /tmp/\n", m.Name)
		fmt.Fprintf(b, "RUN semodule -i /tmp/%s.cil\n", m.Name)
	}
	for _, bv := range snap.Security.Booleans {
		state := "0"
		if bv.Value {
			state = "1"
		}
		fmt.Fprintf(b, "RUN setsebool -P %s %s\n", bv.Name, state)
	}
	b.WriteString("\n")
}

func step14Network(b *strings.Builder, snap *snapshot.Snapshot) {
	if len(snap.Network.Connections) == 0 {
		return
	}
	fmt.Fprintf(b, "# Step 14: network profiles\n")
	for _, c := range snap.Network.Connections {
		if c.Method == snapshot.ConnectionDynamic {
			fmt.Fprintf(b, "# %s connection %q uses DHCP; no action needed at image build time\n", unresolvedMarker, c.Name)
			continue
		}
		fmt.Fprintf(b, "COPY config/etc/NetworkManager/system-connections/%s.nmconnection /etc/NetworkManager/system-connections/\n", c.Name)
	}
	b.WriteString("\n")
}

func step15Transient(b *strings.Builder, snap *snapshot.Snapshot) {
	fmt.Fprintf(b, "# Step 15: transient-file declarations for the mutable state root\n")
	for _, m := range snap.Storage.Mounts {
		switch m.Strategy {
		case snapshot.StrategyTmpfilesSeed:
			fmt.Fprintf(b, "RUN echo 'd %s 0755 root root -' >> /usr/lib/tmpfiles.d/yoinkc.conf\n", m.Target)
		case snapshot.StrategyManualMigration:
			fmt.Fprintf(b, "# %s mount %s (%s) needs a manual migration plan\n", unresolvedMarker, m.Target, m.FSType)
		}
	}
}

func trimEtc(p string) string {
	return strings.TrimPrefix(p, "/etc/")
}

func trimBase(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return p
	}
	return p[i+1:]
}
