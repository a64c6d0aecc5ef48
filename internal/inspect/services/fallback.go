package services

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
)

// wantsRoots are scanned for ".wants" link farms when systemctl itself
// is unavailable (spec §4.2 fallback path).
var wantsRoots = []string{
	"etc/systemd/system",
	"usr/lib/systemd/system",
}

// scanWantsFallback walks the .wants directories, classifying masks as
// symlinks to /dev/null and distinguishing static from disabled by
// parsing each unit's [Install] stanza.
func scanWantsFallback(ictx *pipeline.Context) ([]adapter.UnitState, error) {
	seen := make(map[string]adapter.UnitState)
	for _, root := range wantsRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // missing dirs are expected
			}
			if !strings.HasSuffix(p, ".wants") || !d.IsDir() {
				return nil
			}
			entries, err := fs.ReadDir(ictx.FS, p)
			if err != nil {
				return nil //nolint:nilerr
			}
			for _, e := range entries {
				unit := e.Name()
				link := path.Join(p, unit)
				target, err := readLink(ictx, link)
				if err != nil {
					continue
				}
				if target == "/dev/null" {
					seen[unit] = adapter.UnitState{Unit: unit, State: "masked"}
					continue
				}
				if _, ok := seen[unit]; !ok {
					seen[unit] = adapter.UnitState{Unit: unit, State: "enabled"}
				}
			}
			return nil
		})
	}

	for _, root := range wantsRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil //nolint:nilerr
			}
			if !strings.HasSuffix(p, ".service") && !strings.HasSuffix(p, ".timer") {
				return nil
			}
			unit := filepath.Base(p)
			if _, ok := seen[unit]; ok {
				return nil
			}
			if hasInstallStanza(ictx, p) {
				seen[unit] = adapter.UnitState{Unit: unit, State: "disabled"}
			} else {
				seen[unit] = adapter.UnitState{Unit: unit, State: "static"}
			}
			return nil
		})
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("no unit files found under %v", wantsRoots)
	}
	out := make([]adapter.UnitState, 0, len(seen))
	for _, u := range seen {
		out = append(out, u)
	}
	return out, nil
}

func readLink(ictx *pipeline.Context, p string) (string, error) {
	rl, ok := ictx.FS.(interface{ ReadLink(string) (string, error) })
	if ok {
		return rl.ReadLink(p)
	}
	return os.Readlink(path.Join(ictx.HostRoot, p))
}

func hasInstallStanza(ictx *pipeline.Context, p string) bool {
	b, err := fs.ReadFile(ictx.FS, p)
	if err != nil {
		return false
	}
	return strings.Contains(string(b), "[Install]")
}
