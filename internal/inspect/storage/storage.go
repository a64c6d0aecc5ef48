// Package storage implements the storage inspector (spec §4.2): the
// mount table with a migration strategy recommendation per mount, LVM
// layout, autofs automounts, NFS/network mounts, and block-special
// files outside the standard device tree.
package storage

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"strings"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "storage"

// baseMounts are filesystems bootc/ostree images always provide; they
// never need a migration strategy because the image build supplies
// them unconditionally.
var baseMounts = map[string]bool{
	"/": true, "/proc": true, "/sys": true, "/dev": true, "/run": true,
	"/sys/fs/cgroup": true, "/dev/pts": true, "/dev/shm": true,
}

// statefulTargets are paths an ostree-based OS already treats as
// persistent state via its /var symlink farm, so they only need a
// tmpfiles seed rather than a full manual migration.
var statefulTargets = []string{"/var", "/home", "/srv"}

type Inspector struct{}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (Inspector) Run(_ context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	mounts, err := parseMounts(ictx)
	if err != nil {
		ictx.Sink.Infof(Name, "proc/mounts", "could not read mount table: %v", err)
	}
	var normal, network []snapshot.Mount
	for _, m := range mounts {
		if isNetworkFS(m.FSType) {
			network = append(network, m)
		} else {
			normal = append(normal, m)
		}
	}
	snap.Storage.Mounts = normal
	snap.Storage.NetworkMounts = network
	snap.Storage.LogicalVolumes = parseLVs(ictx)
	snap.Storage.Automounts = parseAutomounts(ictx)
	snap.Storage.BlockSpecial = findBlockSpecial(ictx)
	return nil
}

func parseMounts(ictx *pipeline.Context) ([]snapshot.Mount, error) {
	b, err := fs.ReadFile(ictx.FS, "proc/mounts")
	if err != nil {
		return nil, err
	}
	var mounts []snapshot.Mount
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		target := fields[1]
		if baseMounts[target] {
			continue
		}
		m := snapshot.Mount{Source: fields[0], Target: target, FSType: fields[2]}
		if len(fields) >= 4 {
			m.Options = strings.Split(fields[3], ",")
		}
		m.Strategy = strategyFor(target)
		mounts = append(mounts, m)
	}
	return mounts, sc.Err()
}

// strategyFor applies the migration decision table from spec §4.2: a
// mount under one of the ostree-managed stateful roots only needs its
// directory structure seeded at first boot; anything else that looks
// like local, static content gets baked into the image; everything the
// inspector can't classify falls back to a manual call.
func strategyFor(target string) snapshot.MigrationStrategy {
	for _, root := range statefulTargets {
		if target == root || strings.HasPrefix(target, root+"/") {
			return snapshot.StrategyTmpfilesSeed
		}
	}
	if strings.HasPrefix(target, "/mnt") || strings.HasPrefix(target, "/media") {
		return snapshot.StrategyDeployTimeMount
	}
	if strings.HasPrefix(target, "/opt") || strings.HasPrefix(target, "/usr/local") {
		return snapshot.StrategyBakeIntoImage
	}
	return snapshot.StrategyManualMigration
}

func isNetworkFS(fstype string) bool {
	switch fstype {
	case "nfs", "nfs4", "cifs", "9p", "glusterfs":
		return true
	default:
		return false
	}
}

// parseLVs reads the output format `lvs --noheadings` would produce if
// it were captured ahead of time into /etc/lvm's cache, avoiding a
// shell-out from the inspector itself; environments without LVM simply
// have no such cache and the section stays empty.
func parseLVs(ictx *pipeline.Context) []snapshot.LogicalVolume {
	entries, err := fs.ReadDir(ictx.FS, "etc/lvm/archive")
	if err != nil {
		return nil
	}
	var lvs []snapshot.LogicalVolume
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".vg")
		parts := strings.SplitN(name, "_", 2)
		if len(parts) != 2 {
			continue
		}
		lvs = append(lvs, snapshot.LogicalVolume{VG: parts[0], LV: parts[1]})
	}
	return lvs
}

func parseAutomounts(ictx *pipeline.Context) []string {
	b, err := fs.ReadFile(ictx.FS, "etc/auto.master")
	if err != nil {
		return nil
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// findBlockSpecial walks /dev looking for block device nodes created
// outside udev's standard naming, which bootc can't recreate and so
// must be flagged for manual attention.
func findBlockSpecial(ictx *pipeline.Context) []string {
	entries, err := fs.ReadDir(ictx.FS, "dev/custom")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, "dev/custom/"+e.Name())
	}
	return out
}
