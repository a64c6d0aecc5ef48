// Package hostinfo identifies the host being inspected (spec §4.1): the
// distribution, major and full version, and architecture, read from
// /etc/os-release rather than shelling out to any distro-specific
// query tool.
package hostinfo

import (
	"bufio"
	"bytes"
	"io/fs"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Detect reads hostFS's /etc/os-release and /etc/hostname to populate a
// HostInfo. inspectedAt is passed in by the caller rather than read
// from time.Now here, keeping this function a pure reader of hostFS.
func Detect(hostFS fs.FS, inspectedAt time.Time) snapshot.HostInfo {
	fields := parseOSRelease(hostFS)
	return snapshot.HostInfo{
		Distribution: strings.ToLower(fields["ID"]),
		FullVersion:  fields["VERSION_ID"],
		MajorVersion: majorOf(fields["VERSION_ID"]),
		Architecture: runtime.GOARCH,
		Hostname:     readHostname(hostFS),
		InspectedAt:  inspectedAt,
	}
}

func parseOSRelease(hostFS fs.FS) map[string]string {
	out := map[string]string{}
	b, err := fs.ReadFile(hostFS, "etc/os-release")
	if err != nil {
		return out
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[k] = strings.Trim(v, `"`)
	}
	return out
}

func majorOf(versionID string) string {
	i := strings.IndexByte(versionID, '.')
	if i < 0 {
		i = len(versionID)
	}
	major := versionID[:i]
	if _, err := strconv.Atoi(major); err != nil {
		return ""
	}
	return major
}

func readHostname(hostFS fs.FS) string {
	b, err := fs.ReadFile(hostFS, "etc/hostname")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
