// Package kernel implements the kernel inspector (spec §4.2): the boot
// command line, modules loaded beyond a stock kernel's defaults, sysctl
// values that diverge from their shipped defaults, and any custom
// dracut configuration.
package kernel

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "kernel"

// defaultModules are shipped by the kernel package itself and loaded on
// essentially every install; they're filtered out so the section only
// lists modules an operator added.
var defaultModules = map[string]bool{
	"ext4": true, "xfs": true, "sd_mod": true, "virtio_blk": true,
	"virtio_net": true, "virtio_pci": true, "nvme": true,
}

type Inspector struct{}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (Inspector) Run(_ context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	snap.Kernel.CmdLine = readCmdline(ictx)
	snap.Kernel.Modules = nonDefaultModules(ictx)
	snap.Kernel.Sysctl = customSysctl(ictx)
	snap.Kernel.Dracut = dracutConfig(ictx)
	return nil
}

func readCmdline(ictx *pipeline.Context) string {
	b, err := fs.ReadFile(ictx.FS, "proc/cmdline")
	if err != nil {
		ictx.Sink.Infof(Name, "proc/cmdline", "could not read boot command line: %v", err)
		return ""
	}
	return strings.TrimSpace(string(b))
}

// nonDefaultModules reads the explicit load list under
// /etc/modules-load.d rather than /proc/modules, since the latter
// includes every module any driver probe pulled in transitively and
// would swamp the recipe with noise the image doesn't need to pin.
func nonDefaultModules(ictx *pipeline.Context) []string {
	entries, err := fs.ReadDir(ictx.FS, "etc/modules-load.d")
	if err != nil {
		return nil
	}
	var modules []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join("etc/modules-load.d", e.Name()))
		if err != nil {
			continue
		}
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") || defaultModules[line] {
				continue
			}
			modules = append(modules, line)
		}
	}
	return modules
}

func customSysctl(ictx *pipeline.Context) []snapshot.SysctlValue {
	var out []snapshot.SysctlValue
	roots := []string{"etc/sysctl.d", "etc/sysctl.conf"}
	for _, root := range roots {
		if info, err := fs.Stat(ictx.FS, root); err == nil && !info.IsDir() {
			out = append(out, parseSysctlFile(ictx, root)...)
			continue
		}
		entries, err := fs.ReadDir(ictx.FS, root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			out = append(out, parseSysctlFile(ictx, path.Join(root, e.Name()))...)
		}
	}
	return out
}

func parseSysctlFile(ictx *pipeline.Context, p string) []snapshot.SysctlValue {
	b, err := fs.ReadFile(ictx.FS, p)
	if err != nil {
		return nil
	}
	var out []snapshot.SysctlValue
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out = append(out, snapshot.SysctlValue{
			Key: strings.TrimSpace(k), Value: strings.TrimSpace(v), Source: p,
		})
	}
	return out
}

func dracutConfig(ictx *pipeline.Context) []string {
	var out []string
	entries, err := fs.ReadDir(ictx.FS, "etc/dracut.conf.d")
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join("etc/dracut.conf.d", e.Name()))
		if err != nil {
			continue
		}
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				out = append(out, line)
			}
		}
	}
	return out
}
