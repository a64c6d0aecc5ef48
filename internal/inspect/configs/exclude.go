package configs

import "path"

// LiteralExclusions and GlobExclusions are the two exclusion layers
// named in spec §9's open question. Per the documented decision
// (DESIGN.md), exclusion is treated as monotone: a path excluded by
// either list is excluded, full stop.
func LiteralExclusions() map[string]bool {
	return map[string]bool{
		"etc/mtab":            true,
		"etc/machine-id":      true,
		"etc/hostname":        true,
		"etc/resolv.conf":     true,
		"etc/localtime":       true,
		"etc/.updated":        true,
		"etc/.pwd.lock":       true,
	}
}

func GlobExclusions() []string {
	return []string{
		"etc/*/.*",
		"etc/selinux/targeted/*",
		"etc/udev/hwdb.bin",
		"etc/ssh/ssh_host_*",
		"*.rpmsave",
		"*.rpmnew",
		"*.rpmorig",
	}
}

// Excluded reports whether relPath should be dropped from the unowned
// set, applying both layers monotonically.
func Excluded(relPath string, literal map[string]bool, globs []string) bool {
	if literal[relPath] {
		return true
	}
	for _, g := range globs {
		if ok, _ := path.Match(g, relPath); ok {
			return true
		}
	}
	return false
}
