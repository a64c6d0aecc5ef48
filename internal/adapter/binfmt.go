package adapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Readelf is the readelf(1) adapter used by the non-package software
// inspector's fast classification pass (spec §4.2) to read an ELF
// binary's section table and dynamic dependency list without resolving
// them.
type Readelf struct{ Runner Runner }

// Sections returns the section names present in path (e.g. ".note.go.buildid").
func (r Readelf) Sections(ctx context.Context, path string) ([]string, error) {
	out, err := r.Runner.Run(ctx, "readelf", "-S", "-W", path)
	if err != nil {
		return nil, fmt.Errorf("adapter: readelf -S %s: %w", path, err)
	}
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		i := strings.Index(line, "] ")
		if i < 0 {
			continue
		}
		rest := strings.Fields(line[i+2:])
		if len(rest) > 0 && strings.HasPrefix(rest[0], ".") {
			names = append(names, rest[0])
		}
	}
	return names, sc.Err()
}

// DynamicDeps returns the library names listed in path's dynamic
// section (readelf -d), without attempting to resolve them on disk.
func (r Readelf) DynamicDeps(ctx context.Context, path string) ([]string, error) {
	out, err := r.Runner.Run(ctx, "readelf", "-d", "-W", path)
	if err != nil {
		return nil, fmt.Errorf("adapter: readelf -d %s: %w", path, err)
	}
	var deps []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "(NEEDED)") {
			continue
		}
		if i := strings.Index(line, "[" ); i >= 0 {
			if j := strings.Index(line[i:], "]"); j >= 0 {
				deps = append(deps, line[i+1:i+j])
			}
		}
	}
	return deps, sc.Err()
}

// File is the file(1) adapter, used for a quick libmagic-based identity
// guess as a fallback signal alongside readelf.
type File struct{ Runner Runner }

// Identify returns file(1)'s one-line description of path.
func (f File) Identify(ctx context.Context, path string) (string, error) {
	out, err := f.Runner.Run(ctx, "file", "-b", path)
	if err != nil {
		return "", fmt.Errorf("adapter: file -b %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
