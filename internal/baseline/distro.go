package baseline

import "fmt"

// Entry is one distribution's base-image resolution rule.
type Entry struct {
	// ImageTemplate is formatted with the resolved major version, e.g.
	// "quay.io/centos-bootc/centos-bootc:stream%s".
	ImageTemplate string
	// MinMajor is the oldest major version this distribution family
	// ships a bootable-container image for; hosts older than this are
	// clamped up to it.
	MinMajor int
}

// Table maps a distribution ID (/etc/os-release ID field) to its Entry.
type Table map[string]Entry

// DefaultTable is the built-in RHEL/CentOS Stream/Fedora mapping.
func DefaultTable() Table {
	return Table{
		"rhel":    {ImageTemplate: "registry.redhat.io/rhel%s/rhel-bootc:latest", MinMajor: 9},
		"centos":  {ImageTemplate: "quay.io/centos-bootc/centos-bootc:stream%s", MinMajor: 9},
		"fedora":  {ImageTemplate: "quay.io/fedora/fedora-bootc:%s", MinMajor: 39},
	}
}

// Image resolves t's image reference for the given major version,
// clamping to MinMajor.
func (e Entry) Image(major int) string {
	if major < e.MinMajor {
		major = e.MinMajor
	}
	return fmt.Sprintf(e.ImageTemplate, fmt.Sprintf("%d", major))
}
