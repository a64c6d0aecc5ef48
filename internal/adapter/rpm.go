package adapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// rpmQueryFormat separates fields with a control character unlikely to
// appear in package metadata, and records with newlines, so a single
// `rpm -qa` invocation can be parsed unambiguously.
const rpmQueryFormat = `%{NAME}` + "\x01" + `%|EPOCH?{%{EPOCH}}:{}|` + "\x01" + `%{VERSION}` + "\x01" + `%{RELEASE}` + "\x01" + `%{ARCH}\n`

// RPM is the rpm(8) adapter: low-level queries against the host's rpm
// database through the read-only mount, with no daemon required.
type RPM struct {
	Runner Runner
	Root   string // host root prefix, passed as --root
}

// InstalledPackages lists every installed package with a single bulk
// query (spec §4.2: "one bulk query plus set subtraction, not N
// individual queries").
func (r RPM) InstalledPackages(ctx context.Context) ([]snapshot.Package, error) {
	out, err := r.Runner.Run(ctx, "rpm", "--root", r.Root, "-qa", "--qf", rpmQueryFormat)
	if err != nil {
		return nil, fmt.Errorf("adapter: rpm -qa: %w", err)
	}
	var pkgs []snapshot.Package
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		f := strings.Split(line, "\x01")
		if len(f) != 5 {
			continue
		}
		pkgs = append(pkgs, snapshot.Package{
			Name:         f[0],
			Epoch:        f[1],
			Version:      f[2],
			Release:      f[3],
			Architecture: f[4],
		})
	}
	return pkgs, sc.Err()
}

// OwnedPaths returns the complete set of paths owned by any installed
// package, built with one `rpm -qal` call rather than a per-package
// query.
func (r RPM) OwnedPaths(ctx context.Context) (map[string]bool, error) {
	out, err := r.Runner.Run(ctx, "rpm", "--root", r.Root, "-qal")
	if err != nil {
		return nil, fmt.Errorf("adapter: rpm -qal: %w", err)
	}
	paths := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if p := strings.TrimSpace(sc.Text()); p != "" {
			paths[p] = true
		}
	}
	return paths, sc.Err()
}

// Verify runs the package manager's own verify pass (`rpm -Va`) and
// returns the files it flags as modified. Per-file verify queries are
// forbidden by spec §4.2; this is the single bulk call.
func (r RPM) Verify(ctx context.Context) ([]snapshot.ModifiedFile, error) {
	out, err := r.Runner.Run(ctx, "rpm", "--root", r.Root, "-Va")
	// rpm -Va exits non-zero when it finds any discrepancy; that's
	// expected and not itself a failure.
	if err != nil {
		if _, ok := err.(*ExitError); !ok {
			return nil, fmt.Errorf("adapter: rpm -Va: %w", err)
		}
	}
	var mods []snapshot.ModifiedFile
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		flags, path := fields[0], fields[len(fields)-1]
		if strings.HasPrefix(flags, "missing") {
			continue
		}
		mods = append(mods, snapshot.ModifiedFile{
			Path:  path,
			Flags: parseVerifyFlags(flags),
		})
	}
	return mods, nil
}

// parseVerifyFlags decodes the fixed 8/9-character flag string `rpm -Va`
// prints, where '.' means "no discrepancy" and each position is a fixed
// check (S size, M mode, 5 checksum, ... T mtime per rpm(8)).
func parseVerifyFlags(flags string) snapshot.VerifyFlag {
	at := func(i int) bool { return i < len(flags) && flags[i] != '.' && flags[i] != '?' }
	return snapshot.VerifyFlag{
		Size:     at(0),
		Mode:     at(1),
		Checksum: at(2),
		Owner:    at(6),
		Group:    at(7),
		Mtime:    len(flags) > 8 && at(8),
	}
}

// EVR formats a package's epoch:version-release for display and
// ordering, in the canonical rpm form.
func EVR(p snapshot.Package) string {
	if p.Epoch == "" || p.Epoch == "0" {
		return p.Version + "-" + p.Release
	}
	return p.Epoch + ":" + p.Version + "-" + p.Release
}

// ParseEpoch is a small helper used where a numeric epoch is needed
// (e.g. comparison clamps); rpm's %|EPOCH?{}:{}| leaves it empty rather
// than "0" when unset.
func ParseEpoch(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
