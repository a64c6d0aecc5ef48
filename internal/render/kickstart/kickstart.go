// Package kickstart renders kickstart-suggestion.ks: a fragment covering
// the parts of an unattended install a bootc image can't carry itself —
// disk layout for the mounts the storage inspector flagged
// deploy-time-mount, network profiles for static connections, and the
// resolved container image reference (spec §4.6).
package kickstart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Render produces the kickstart-suggestion.ks text for snap.
func Render(snap *snapshot.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Kickstart fragment suggested by yoinkc for %s\n", snap.Host.Hostname)
	fmt.Fprintf(&b, "# Review and merge into a complete kickstart before use.\n\n")

	fmt.Fprintf(&b, "ostreecontainer --url=%s\n\n", snap.Target.Image)

	part := partitionLines(snap)
	if len(part) > 0 {
		b.WriteString("# Partition layout carried over from the inspected host\n")
		b.WriteString("clearpart --all --initlabel\n")
		for _, l := range part {
			b.WriteString(l + "\n")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("# No non-default mounts found; autopart is sufficient\n")
		b.WriteString("autopart\n\n")
	}

	var netLines []string
	for _, c := range snap.Network.Connections {
		if c.Method != snapshot.ConnectionStatic {
			continue
		}
		netLines = append(netLines, fmt.Sprintf("network --device=%s --bootproto=static --activate", c.Interface))
	}
	sort.Strings(netLines)
	if len(netLines) > 0 {
		b.WriteString("# Static network profiles found on the host; fill in address/netmask/gateway\n")
		for _, l := range netLines {
			b.WriteString(l + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("reboot\n")
	return b.String()
}

// partitionLines emits one `part` directive per mount the storage
// inspector recommends migrating at deploy time, since those are the
// ones a kickstart's partition table needs to reserve space for.
func partitionLines(snap *snapshot.Snapshot) []string {
	var lines []string
	for _, m := range snap.Storage.Mounts {
		if m.Strategy != snapshot.StrategyDeployTimeMount {
			continue
		}
		size := "--grow"
		if m.SizeBytes > 0 {
			size = fmt.Sprintf("--size=%d", m.SizeBytes/(1024*1024))
		}
		lines = append(lines, fmt.Sprintf("part %s --fstype=%s %s", m.Target, orDefault(m.FSType, "xfs"), size))
	}
	sort.Strings(lines)
	return lines
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
