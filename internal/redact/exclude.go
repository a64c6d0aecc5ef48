package redact

import "path"

// ExcludedPaths is the allowlist of paths whose entire contents are
// suppressed (spec §4.4 stage 1). Paths are matched relative to the
// host root with [path.Match], so "etc/ssh/ssh_host_*_key" matches
// every host key regardless of algorithm.
func ExcludedPaths() []string {
	return []string{
		"etc/shadow",
		"etc/shadow-",
		"etc/gshadow",
		"etc/gshadow-",
		"etc/ssh/ssh_host_*_key",
		"etc/pki/tls/private/*",
		"etc/pki/tls/private/*.key",
		"etc/pki/tls/private/*.pem",
		"var/lib/krb5kdc/*.keytab",
		"etc/krb5.keytab",
		"*.keytab",
	}
}

// MatchesExcludedPath reports whether relPath matches any of patterns.
func MatchesExcludedPath(relPath string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, relPath); ok {
			return true
		}
	}
	return false
}
