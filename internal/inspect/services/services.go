// Package services implements the service inspector (spec §4.2): it
// classifies every systemd unit's enablement state and derives the
// recipe action from (current, baseline default) via a pure state
// machine.
package services

import (
	"context"
	"strings"

	"github.com/marrusl/yoinkc/internal/adapter"
	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "services"

type Inspector struct {
	Runner adapter.Runner
}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return true }

func (i Inspector) Run(ctx context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	sc := adapter.Systemctl{Runner: i.Runner, Root: ictx.HostRoot}
	units, err := sc.ListUnitFiles(ctx)
	if err != nil {
		ictx.Sink.Infof(Name, ictx.HostRoot, "systemctl list-unit-files unavailable, falling back to .wants scan: %v", err)
		units, err = scanWantsFallback(ictx)
		if err != nil {
			ictx.Sink.Warnf(Name, ictx.HostRoot, "service inspection unavailable: %v", err)
			return nil
		}
	}

	records := make([]snapshot.ServiceRecord, 0, len(units))
	for _, u := range units {
		current := currentState(u.State)
		def := defaultState(u.Unit, ictx.Baseline)
		records = append(records, snapshot.ServiceRecord{
			Unit:    u.Unit,
			Current: current,
			Default: def,
			Action:  Action(current, def),
		})
	}
	snap.Services = records
	return nil
}

func currentState(raw string) snapshot.ServiceState {
	switch strings.ToLower(raw) {
	case "enabled", "enabled-runtime", "linked":
		return snapshot.ServiceEnabled
	case "disabled":
		return snapshot.ServiceDisabled
	case "masked", "masked-runtime":
		return snapshot.ServiceMasked
	case "static", "generated", "indirect":
		return snapshot.ServiceStatic
	default:
		return snapshot.ServiceStatic
	}
}

func defaultState(unit string, bl snapshot.Baseline) snapshot.ServiceState {
	switch {
	case bl.PresetEnabled[unit]:
		return snapshot.ServiceEnabled
	case bl.PresetDisabled[unit]:
		return snapshot.ServiceDisabled
	default:
		return snapshot.ServiceAbsent
	}
}

// Action implements the state-machine table in spec §4.2. Masked
// always overrides enable/disable; an absent-in-baseline default for a
// host-enabled unit implies the operator added it, so it must be
// enabled in the image.
func Action(current, def snapshot.ServiceState) snapshot.ServiceAction {
	if current == snapshot.ServiceMasked {
		return snapshot.ActionMask
	}
	if current == snapshot.ServiceStatic {
		return snapshot.ActionNone
	}
	switch current {
	case snapshot.ServiceEnabled:
		if def == snapshot.ServiceEnabled {
			return snapshot.ActionNone
		}
		return snapshot.ActionEnable // default disabled or absent
	case snapshot.ServiceDisabled:
		if def == snapshot.ServiceDisabled || def == snapshot.ServiceAbsent {
			return snapshot.ActionNone
		}
		return snapshot.ActionDisable // default enabled
	default:
		return snapshot.ActionNone
	}
}
