// Package baseline implements the baseline resolver (spec §4.3): it
// decides what base image to diff the host against, and what packages
// and systemd presets that image already contains.
package baseline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/bridge"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Options carries the CLI flags that affect resolution.
type Options struct {
	TargetImageOverride   string // --target-image
	TargetVersionOverride string // --target-version
	FallbackPackagesPath  string // --baseline-packages
}

// Resolver resolves the target image reference and the baseline it
// contains, per the algorithm in spec §4.3.
type Resolver struct {
	Bridge *bridge.Bridge
	Podman adapter.Podman
	Table  Table
}

// Resolve implements the five-step algorithm in spec §4.3. sink
// receives the warnings the algorithm is required to raise (baseline
// unobtainable, cross-major transition).
func (r Resolver) Resolve(ctx context.Context, host snapshot.HostInfo, opts Options, sink *pipeline.Sink) (snapshot.TargetInfo, snapshot.Baseline) {
	target := r.resolveImage(host, opts)

	hostMajor, _ := strconv.Atoi(host.MajorVersion)
	targetMajor := majorFromImage(target.Image)
	if targetMajor != 0 && hostMajor != 0 && targetMajor != hostMajor {
		target.CrossMajor = true
		sink.Warnf("baseline", target.Image, "target image major version %d differs from host major version %d", targetMajor, hostMajor)
	}

	if _, err := r.Bridge.Probe(ctx); err == nil {
		if bl, err := r.queryImage(ctx, target.Image); err == nil {
			return target, bl
		} else {
			sink.Warnf("baseline", target.Image, "querying target image failed, falling back: %v", err)
		}
	}

	if opts.FallbackPackagesPath != "" {
		if bl, err := loadFallback(opts.FallbackPackagesPath); err == nil {
			return target, bl
		} else {
			sink.Warnf("baseline", opts.FallbackPackagesPath, "loading fallback package list failed: %v", err)
		}
	}

	sink.Append(snapshot.Warning{
		Severity:        snapshot.SeverityWarn,
		Source:          "baseline",
		Resource:        target.Image,
		Message:         "no baseline available; every installed package will be treated as operator-added (all-packages mode)",
		SuggestedAction: "configure --baseline-packages for air-gapped runs, or ensure the privilege bridge can reach the host container runtime",
	})
	return target, snapshot.Baseline{Mode: snapshot.BaselineModeAllPackages}
}

func (r Resolver) resolveImage(host snapshot.HostInfo, opts Options) snapshot.TargetInfo {
	if opts.TargetImageOverride != "" {
		return snapshot.TargetInfo{Image: opts.TargetImageOverride, Source: snapshot.TargetSourceOverride}
	}
	entry, ok := r.Table[strings.ToLower(host.Distribution)]
	if !ok {
		entry = Entry{ImageTemplate: "quay.io/fedora/fedora-bootc:%s", MinMajor: 0}
	}
	if opts.TargetVersionOverride != "" {
		major, _ := strconv.Atoi(opts.TargetVersionOverride)
		return snapshot.TargetInfo{Image: entry.Image(major), Source: snapshot.TargetSourceFlag}
	}
	major, _ := strconv.Atoi(host.MajorVersion)
	return snapshot.TargetInfo{Image: entry.Image(major), Source: snapshot.TargetSourceAuto}
}

func (r Resolver) queryImage(ctx context.Context, image string) (snapshot.Baseline, error) {
	pkgs, err := r.Podman.ImagePackages(ctx, image)
	if err != nil {
		return snapshot.Baseline{}, fmt.Errorf("baseline: %w", err)
	}
	presets, err := r.Podman.ImagePresets(ctx, image)
	if err != nil {
		return snapshot.Baseline{}, fmt.Errorf("baseline: %w", err)
	}
	bl := snapshot.Baseline{
		Mode:           snapshot.BaselineModeQueried,
		Packages:       toSet(pkgs),
		PresetEnabled:  make(map[string]bool),
		PresetDisabled: make(map[string]bool),
	}
	for _, line := range presets {
		unit, enabled := parsePresetLine(line)
		if unit == "" {
			continue
		}
		if enabled {
			bl.PresetEnabled[unit] = true
		} else {
			bl.PresetDisabled[unit] = true
		}
	}
	return bl, nil
}

func loadFallback(path string) (snapshot.Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return snapshot.Baseline{}, err
	}
	defer f.Close()
	set := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" && !strings.HasPrefix(name, "#") {
			set[name] = true
		}
	}
	if err := sc.Err(); err != nil {
		return snapshot.Baseline{}, err
	}
	return snapshot.Baseline{Mode: snapshot.BaselineModeSupplied, Packages: set}, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = true
		}
	}
	return set
}

// parsePresetLine parses one line of a systemd .preset file, e.g.
// "enable sshd.service" or "disable *".
func parsePresetLine(line string) (unit string, enabled bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	switch fields[0] {
	case "enable":
		return fields[1], true
	case "disable":
		return fields[1], false
	default:
		return "", false
	}
}

func majorFromImage(image string) int {
	i := strings.LastIndexByte(image, ':')
	if i < 0 {
		return 0
	}
	tag := image[i+1:]
	tag = strings.TrimPrefix(tag, "stream")
	var major int
	for _, c := range tag {
		if c < '0' || c > '9' {
			break
		}
		major = major*10 + int(c-'0')
	}
	return major
}
