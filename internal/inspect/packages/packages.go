// Package packages implements the package inspector (spec §4.2): it
// enumerates installed packages through a bulk rpm query, diffs them
// against the resolved baseline with pure set arithmetic, and surfaces
// the package manager's own verify output as the modified-file list.
package packages

import (
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "packages"

// repoDir is where dnf/yum keep custom repository definitions; the base
// image ships its own, so only this directory's contents are captured.
const repoDir = "etc/yum.repos.d"

// Inspector is the [pipeline.Inspector] implementation.
type Inspector struct {
	Runner adapter.Runner
	Gate   *redact.Gate
}

func (Inspector) Name() string             { return Name }
func (Inspector) DependsOnBaseline() bool   { return true }

// Run implements [pipeline.Inspector].
func (i Inspector) Run(ctx context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	rpm := adapter.RPM{Runner: i.Runner, Root: ictx.HostRoot}

	installed, err := rpm.InstalledPackages(ctx)
	if err != nil {
		ictx.Sink.Warnf(Name, ictx.HostRoot, "listing installed packages failed: %v", err)
		snap.Packages.Partial = true
		return nil
	}
	for idx := range installed {
		installed[idx].PURL = purlFor(installed[idx], snap.Host.Distribution)
	}

	added, removed, unchanged := Diff(installed, ictx.Baseline.Packages)
	snap.Packages.Added = added
	snap.Packages.Removed = removed
	snap.Packages.Unchanged = unchanged

	mods, err := rpm.Verify(ctx)
	if err != nil {
		ictx.Sink.Infof(Name, ictx.HostRoot, "rpm verify pass unavailable: %v", err)
		snap.Packages.Partial = true
	} else {
		snap.Packages.Modified = mods
	}

	snap.Packages.Repos = i.findRepoFiles(ictx)

	return nil
}

// findRepoFiles captures every custom .repo definition under
// /etc/yum.repos.d (spec §3's "repo file snapshots"); the base image
// already ships its own defaults, so only third-party additions need
// reproducing on the target.
func (i Inspector) findRepoFiles(ictx *pipeline.Context) []snapshot.RepoFile {
	entries, err := fs.ReadDir(ictx.FS, repoDir)
	if err != nil {
		ictx.Sink.Infof(Name, repoDir, "no custom repository definitions found: %v", err)
		return nil
	}
	var out []snapshot.RepoFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".repo") {
			continue
		}
		p := path.Join(repoDir, e.Name())
		b, err := fs.ReadFile(ictx.FS, p)
		if err != nil {
			continue
		}
		redacted, secrets := i.Gate.Redact(p, b)
		ictx.Sink.AppendSecretsReview(secrets...)
		out = append(out, snapshot.RepoFile{Path: "/" + p, Content: redacted})
	}
	return out
}

func purlFor(p snapshot.Package, distro string) string {
	qualifiers := packageurl.Qualifiers{
		{Key: "arch", Value: p.Architecture},
		{Key: "distro", Value: distro},
	}
	evr := adapter.EVR(p)
	purl := packageurl.NewPackageURL(packageurl.TypeRPM, distro, p.Name, evr, qualifiers, "")
	return purl.ToString()
}
