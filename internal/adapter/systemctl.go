package adapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Systemctl is the systemctl(1) adapter used by the primary path of the
// service inspector (spec §4.2).
type Systemctl struct {
	Runner Runner
	Root   string // passed as --root
}

// UnitState is one line of `systemctl list-unit-files`.
type UnitState struct {
	Unit  string
	State string // enabled, disabled, masked, static, ...
}

// ListUnitFiles enumerates every unit file and its enablement state
// with a single call.
func (s Systemctl) ListUnitFiles(ctx context.Context) ([]UnitState, error) {
	out, err := s.Runner.Run(ctx, "systemctl", "--root", s.Root, "list-unit-files", "--no-legend", "--no-pager")
	if err != nil {
		return nil, fmt.Errorf("adapter: systemctl list-unit-files: %w", err)
	}
	var units []UnitState
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		units = append(units, UnitState{Unit: fields[0], State: fields[1]})
	}
	return units, sc.Err()
}

// Preset lists the enable/disable preset directive that would apply to
// unit if it had no explicit state, used by the baseline resolver
// against the target image's preset files.
func (s Systemctl) Preset(ctx context.Context, unit string) (string, error) {
	out, err := s.Runner.Run(ctx, "systemctl", "--root", s.Root, "preset", "--dry-run", unit)
	if err != nil {
		return "", fmt.Errorf("adapter: systemctl preset %s: %w", unit, err)
	}
	line := strings.TrimSpace(string(out))
	switch {
	case strings.Contains(line, "Executing: enable"), strings.Contains(line, "/enable "):
		return "enabled", nil
	case strings.Contains(line, "Executing: disable"), strings.Contains(line, "/disable "):
		return "disabled", nil
	default:
		return "", nil
	}
}
