// Package nonpackage implements the non-package software inspector
// (spec §4.2), the hardest of the twelve collectors: software installed
// outside rpm's view entirely. It runs four independent detectors —
// language-ecosystem package managers, git checkouts, and a two-stage
// binary classifier — each contributing entries at whatever confidence
// the signal actually supports.
package nonpackage

import (
	"context"
	"encoding/json"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "nonpackage"

// searchRoots bound the walk to the places non-package software
// actually accumulates; walking the whole filesystem tree would be both
// slow and mostly noise. User-home scanning is explicitly out of scope
// for this inspector, so "root" and "home" are deliberately absent.
var searchRoots = []string{"opt", "usr/local", "srv"}

type Inspector struct {
	Readelf adapter.Readelf
	File    adapter.File
	Deep    bool // --deep-binary-scan: also string-scan unclassified binaries
}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (i Inspector) Run(ctx context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	var entries []snapshot.NonPackageEntry
	entries = append(entries, dedupeByNameKeepNewest(findPipPackages(ictx))...)
	entries = append(entries, dedupeByNameKeepNewest(findNpmPackages(ictx))...)
	entries = append(entries, dedupeByNameKeepNewest(findGemPackages(ictx))...)
	entries = append(entries, findGitCheckouts(ictx)...)
	entries = append(entries, i.classifyBinaries(ctx, ictx)...)
	snap.NonPackage = entries
	return nil
}

// dedupeByNameKeepNewest collapses repeated installs of the same
// ecosystem package found under different search roots (a venv copy
// under both /opt and /srv is common) to the newest version by name.
func dedupeByNameKeepNewest(entries []snapshot.NonPackageEntry) []snapshot.NonPackageEntry {
	byName := make(map[string]snapshot.NonPackageEntry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		cur, ok := byName[e.Detail]
		if !ok {
			byName[e.Detail] = e
			order = append(order, e.Detail)
			continue
		}
		if newer, err := compareSemver(e.Version, cur.Version); err == nil && newer {
			byName[e.Detail] = e
		}
	}
	out := make([]snapshot.NonPackageEntry, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// findPipPackages looks for the `<name>-<version>.dist-info` directory
// pip leaves behind for every package it installs, the one reliable
// signal common to every pip install mode (venv, --user, or system).
func findPipPackages(ictx *pipeline.Context) []snapshot.NonPackageEntry {
	var out []snapshot.NonPackageEntry
	for _, root := range searchRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || !strings.HasSuffix(p, ".dist-info") {
				return nil //nolint:nilerr
			}
			base := strings.TrimSuffix(filepath.Base(p), ".dist-info")
			name, version, ok := splitNameVersion(base)
			if !ok {
				return nil
			}
			out = append(out, snapshot.NonPackageEntry{
				Path: p, Provenance: snapshot.ProvenancePip, Confidence: snapshot.ConfidenceHigh,
				Version: version, Detail: name,
			})
			return nil
		})
	}
	return out
}

func splitNameVersion(base string) (name, version string, ok bool) {
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return "", "", false
	}
	return base[:idx], base[idx+1:], true
}

// findNpmPackages reads the top-level package.json of every
// node_modules entry; it doesn't recurse into nested node_modules,
// since those are transitive dependencies rather than distinct
// installations an operator would think of as "software on this host".
func findNpmPackages(ictx *pipeline.Context) []snapshot.NonPackageEntry {
	var out []snapshot.NonPackageEntry
	for _, root := range searchRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || filepath.Base(p) != "node_modules" {
				return nil //nolint:nilerr
			}
			entries, err := fs.ReadDir(ictx.FS, p)
			if err != nil {
				return nil //nolint:nilerr
			}
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				pkgJSON := path.Join(p, e.Name(), "package.json")
				b, err := fs.ReadFile(ictx.FS, pkgJSON)
				if err != nil {
					continue
				}
				var meta struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				}
				if err := json.Unmarshal(b, &meta); err != nil {
					continue
				}
				out = append(out, snapshot.NonPackageEntry{
					Path: pkgJSON, Provenance: snapshot.ProvenanceNpm, Confidence: snapshot.ConfidenceHigh,
					Version: meta.Version, Detail: meta.Name,
				})
			}
			return fs.SkipDir
		})
	}
	return out
}

func findGemPackages(ictx *pipeline.Context) []snapshot.NonPackageEntry {
	var out []snapshot.NonPackageEntry
	for _, root := range searchRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(p, ".gemspec") {
				return nil //nolint:nilerr
			}
			base := strings.TrimSuffix(filepath.Base(p), ".gemspec")
			name, version, ok := splitNameVersion(base)
			if !ok {
				name, version = base, ""
			}
			out = append(out, snapshot.NonPackageEntry{
				Path: p, Provenance: snapshot.ProvenanceGem, Confidence: snapshot.ConfidenceHigh,
				Version: version, Detail: name,
			})
			return nil
		})
	}
	return out
}

// findGitCheckouts flags any directory an operator cloned by hand;
// these carry no version metadata at all, so confidence is capped at
// medium regardless of how confidently the .git directory was found.
func findGitCheckouts(ictx *pipeline.Context) []snapshot.NonPackageEntry {
	var out []snapshot.NonPackageEntry
	for _, root := range searchRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || filepath.Base(p) != ".git" {
				return nil //nolint:nilerr
			}
			checkout := filepath.Dir(p)
			head, _ := fs.ReadFile(ictx.FS, path.Join(p, "HEAD"))
			out = append(out, snapshot.NonPackageEntry{
				Path: checkout, Provenance: snapshot.ProvenanceGit, Confidence: snapshot.ConfidenceMedium,
				Detail: strings.TrimSpace(string(head)),
			})
			return fs.SkipDir
		})
	}
	return out
}

// classifyBinaries runs the two-stage classifier from spec §4.2: a fast
// pass using readelf's section table (Go's .note.go.buildid, Rust's
// .comment and dep naming patterns) and file(1)'s libmagic guess, then
// optionally a deep string scan for anything still unclassified.
func (i Inspector) classifyBinaries(ctx context.Context, ictx *pipeline.Context) []snapshot.NonPackageEntry {
	var out []snapshot.NonPackageEntry
	for _, root := range searchRoots {
		_ = fs.WalkDir(ictx.FS, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.Contains(p, "/bin/") {
				return nil //nolint:nilerr
			}
			out = append(out, i.classifyOne(ctx, ictx, p))
			return nil
		})
	}
	return out
}

// classifyOne always returns an entry for p, even when neither readelf
// nor file(1) can say anything about it: spec §8 scenario 5 requires a
// file with no ecosystem metadata and no self-identifying section to
// still surface as an entry with provenance "unknown" and confidence
// "unknown", so the recipe renderer has something to hang its FIXME
// marker on.
func (i Inspector) classifyOne(ctx context.Context, ictx *pipeline.Context, p string) snapshot.NonPackageEntry {
	abs := path.Join(ictx.HostRoot, p)
	sections, err := i.Readelf.Sections(ctx, abs)
	if err == nil {
		for _, s := range sections {
			if strings.Contains(s, "go.buildid") {
				return snapshot.NonPackageEntry{Path: p, Provenance: snapshot.ProvenanceGoBinary, Confidence: snapshot.ConfidenceHigh}
			}
		}
		deps, _ := i.Readelf.DynamicDeps(ctx, abs)
		for _, dep := range deps {
			if strings.Contains(dep, "libstd-") {
				return snapshot.NonPackageEntry{Path: p, Provenance: snapshot.ProvenanceRustBinary, Confidence: snapshot.ConfidenceMedium}
			}
		}
		if len(deps) > 0 {
			return snapshot.NonPackageEntry{Path: p, Provenance: snapshot.ProvenanceCBinary, Confidence: snapshot.ConfidenceMedium}
		}
	} else {
		ictx.Sink.Infof(Name, p, "could not read sections: %v", err)
	}

	desc, ferr := i.File.Identify(ctx, abs)
	if ferr == nil {
		switch {
		case strings.Contains(desc, "Go BuildID"):
			return snapshot.NonPackageEntry{Path: p, Provenance: snapshot.ProvenanceGoBinary, Confidence: snapshot.ConfidenceHigh, Detail: desc}
		case strings.Contains(desc, "ELF"):
			conf := snapshot.ConfidenceLow
			if i.Deep {
				conf = snapshot.ConfidenceMedium
			}
			return snapshot.NonPackageEntry{Path: p, Provenance: snapshot.ProvenanceUnknown, Confidence: conf, Detail: desc}
		}
	} else {
		ictx.Sink.Infof(Name, p, "could not identify binary: %v", ferr)
	}

	return snapshot.NonPackageEntry{Path: p, Provenance: snapshot.ProvenanceUnknown, Confidence: snapshot.ConfidenceUnknown, Detail: desc}
}

// compareSemver reports whether a is strictly newer than b; used by the
// baseline comparison path when a non-package entry's version needs
// ordering against a previously recorded snapshot rather than exact
// string equality.
func compareSemver(a, b string) (bool, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return false, err
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return false, err
	}
	return va.GreaterThan(vb), nil
}
