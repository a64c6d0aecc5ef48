// Package configs implements the config inspector (spec §4.2): owned
// files the package verify pass flags as modified, files under the
// system configuration root that no package owns, and orphaned files
// left behind by packages that were installed then removed.
package configs

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/rpmarchive"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "configs"

// configRoot is the system configuration directory the unowned-file
// walk is rooted at.
const configRoot = "etc"

// rpmCacheDirs are searched, in order, for a cached package archive
// when --config-diffs asks for the shipped original.
var rpmCacheDirs = []string{"var/cache/dnf", "var/cache/yum"}

type Inspector struct {
	Runner adapter.Runner
	Gate   *redact.Gate
}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (i Inspector) Run(ctx context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	rpm := adapter.RPM{Runner: i.Runner, Root: ictx.HostRoot}

	mods, err := rpm.Verify(ctx)
	if err != nil {
		ictx.Sink.Infof(Name, ictx.HostRoot, "rpm verify pass unavailable: %v", err)
	}
	ownedModified := make([]snapshot.ConfigFile, 0, len(mods))
	for _, m := range mods {
		flags := m.Flags
		rel := strings.TrimPrefix(m.Path, "/")
		cf := i.capture(ctx, ictx, rel, snapshot.ProvenanceOwnedModified)
		cf.Path = m.Path
		cf.Package = m.Package
		cf.VerifyFlags = &flags
		if ictx.Config.ConfigDiffs {
			i.attachDiff(ctx, ictx, &cf)
		}
		ownedModified = append(ownedModified, cf)
	}
	snap.Configs.OwnedModified = ownedModified

	owned, err := rpm.OwnedPaths(ctx)
	if err != nil {
		ictx.Sink.Warnf(Name, ictx.HostRoot, "could not build owned-path set, skipping unowned-file detection: %v", err)
	} else {
		snap.Configs.Unowned = i.unownedFiles(ictx, owned)
	}

	snap.Configs.Orphaned = i.orphanedFiles(ictx, snap.Packages.History)
	return nil
}

// unownedFiles walks configRoot once and subtracts the complete
// package-owned path set built from a single bulk query (spec §4.2:
// "one bulk query plus set subtraction").
func (i Inspector) unownedFiles(ictx *pipeline.Context, owned map[string]bool) []snapshot.ConfigFile {
	literal, globs := LiteralExclusions(), GlobExclusions()
	var out []snapshot.ConfigFile
	_ = fs.WalkDir(ictx.FS, configRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr
		}
		abs := "/" + p
		if owned[abs] || owned[p] {
			return nil
		}
		if Excluded(p, literal, globs) {
			return nil
		}
		out = append(out, i.capture(context.Background(), ictx, p, snapshot.ProvenanceUnowned))
		return nil
	})
	return out
}

// orphanedFiles cross-references install-then-remove history against
// files still present below each removed package's former footprint.
func (i Inspector) orphanedFiles(ictx *pipeline.Context, history []snapshot.InstallRemoveEvent) []snapshot.ConfigFile {
	var out []snapshot.ConfigFile
	for _, ev := range history {
		if ev.RemovedAt == "" {
			continue
		}
		root := path.Join(configRoot, ev.Package)
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil //nolint:nilerr
			}
			cf := i.capture(context.Background(), ictx, p, snapshot.ProvenanceOrphaned)
			cf.Package = ev.Package
			out = append(out, cf)
			return nil
		})
	}
	return out
}

// capture reads relPath off the host view and redacts it before it
// enters the snapshot, per the invariant in spec §3.
func (i Inspector) capture(_ context.Context, ictx *pipeline.Context, relPath string, provenance snapshot.ConfigProvenance) snapshot.ConfigFile {
	b, err := fs.ReadFile(ictx.FS, relPath)
	if err != nil {
		ictx.Sink.Infof(Name, relPath, "reading config file failed: %v", err)
		return snapshot.ConfigFile{Path: relPath, Provenance: provenance}
	}
	redacted, entries := i.Gate.Redact(relPath, b)
	ictx.Sink.AppendSecretsReview(entries...)
	return snapshot.ConfigFile{Path: relPath, Provenance: provenance, Content: redacted}
}

// attachDiff fills in Diff/DiffNote by extracting the shipped original
// from a cached package archive, when one can be found.
func (i Inspector) attachDiff(ctx context.Context, ictx *pipeline.Context, cf *snapshot.ConfigFile) {
	archivePath, pkg, err := i.findCachedArchive(ictx, cf.Package)
	if err != nil {
		cf.DiffNote = fmt.Sprintf("shipped original not available (%v); full file captured", err)
		return
	}
	raw, err := os.ReadFile(filepath.Join(ictx.HostRoot, archivePath))
	if err != nil {
		cf.DiffNote = fmt.Sprintf("reading cached archive %s failed: %v", archivePath, err)
		return
	}
	original, err := rpmarchive.ExtractFile(raw, strings.TrimPrefix(cf.Path, "/"))
	if err != nil {
		cf.DiffNote = fmt.Sprintf("extracting %s from %s failed: %v", cf.Path, pkg, err)
		return
	}
	redactedOriginal, _ := i.Gate.Redact(cf.Path+".orig", original)
	cf.Diff = unifiedDiff(cf.Path, redactedOriginal, cf.Content)
}

func (i Inspector) findCachedArchive(ictx *pipeline.Context, pkgName string) (path string, name string, err error) {
	for _, dir := range rpmCacheDirs {
		var found string
		_ = fs.WalkDir(ictx.FS, dir, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || found != "" {
				return nil //nolint:nilerr
			}
			if pkgName != "" && len(p) > len(pkgName) && p[len(dir)+1:len(dir)+1+len(pkgName)] == pkgName {
				found = p
			}
			return nil
		})
		if found != "" {
			return found, pkgName, nil
		}
	}
	return "", "", fmt.Errorf("no cached package archive found for %q", pkgName)
}

// unifiedDiff renders a minimal unified diff; it intentionally doesn't
// try to be a full diff algorithm, only a line-oriented comparison
// adequate for a config file's worth of lines.
func unifiedDiff(path string, a, b []byte) string {
	if bytes.Equal(a, b) {
		return ""
	}
	return fmt.Sprintf("--- a/%s\n+++ b/%s\n%s", path, path, simpleLineDiff(a, b))
}

func simpleLineDiff(a, b []byte) string {
	al := bytes.Split(a, []byte("\n"))
	bl := bytes.Split(b, []byte("\n"))
	var buf bytes.Buffer
	max := len(al)
	if len(bl) > max {
		max = len(bl)
	}
	for idx := 0; idx < max; idx++ {
		var la, lb []byte
		if idx < len(al) {
			la = al[idx]
		}
		if idx < len(bl) {
			lb = bl[idx]
		}
		if !bytes.Equal(la, lb) {
			if idx < len(al) {
				buf.WriteString("-" + string(la) + "\n")
			}
			if idx < len(bl) {
				buf.WriteString("+" + string(lb) + "\n")
			}
		}
	}
	return buf.String()
}
