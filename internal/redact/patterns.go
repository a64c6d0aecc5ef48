package redact

import "regexp"

// Pattern is one regex-matched secret class (spec §4.4 stage 2).
type Pattern struct {
	Class string
	Re    *regexp.Regexp
}

// DefaultPatterns is the conservative set of credential-bearing string
// shapes redacted from every captured content blob.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Class: "aws-access-key", Re: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
		{Class: "aws-secret-key", Re: regexp.MustCompile(`(?i)aws_secret_access_key\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}['"]?`)},
		{Class: "gcp-service-account-key", Re: regexp.MustCompile(`"private_key_id"\s*:\s*"[0-9a-f]{40}"`)},
		{Class: "github-token", Re: regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
		{Class: "slack-token", Re: regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`)},
		{Class: "pem-private-key", Re: regexp.MustCompile(`(?s)-----BEGIN (?:RSA |EC |OPENSSH |DSA |ENCRYPTED )?PRIVATE KEY-----.*?-----END (?:RSA |EC |OPENSSH |DSA |ENCRYPTED )?PRIVATE KEY-----`)},
		{Class: "password-assignment", Re: regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret)\s*[:=]\s*['"]?[^\s'"]{4,}['"]?`)},
		{Class: "credential-uri", Re: regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9+.-]*://[^\s:/@]+:[^\s:/@]+@[^\s'"]+`)},
		{Class: "generic-api-key", Re: regexp.MustCompile(`(?i)\b(api[_-]?key|token)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{20,}['"]?`)},
	}
}
