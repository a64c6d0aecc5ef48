package services

import (
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestActionStateMachine(t *testing.T) {
	cases := []struct {
		current, def snapshot.ServiceState
		want         snapshot.ServiceAction
	}{
		{snapshot.ServiceEnabled, snapshot.ServiceEnabled, snapshot.ActionNone},
		{snapshot.ServiceEnabled, snapshot.ServiceDisabled, snapshot.ActionEnable},
		{snapshot.ServiceEnabled, snapshot.ServiceAbsent, snapshot.ActionEnable},
		{snapshot.ServiceDisabled, snapshot.ServiceEnabled, snapshot.ActionDisable},
		{snapshot.ServiceDisabled, snapshot.ServiceDisabled, snapshot.ActionNone},
		{snapshot.ServiceDisabled, snapshot.ServiceAbsent, snapshot.ActionNone},
		{snapshot.ServiceMasked, snapshot.ServiceEnabled, snapshot.ActionMask},
		{snapshot.ServiceMasked, snapshot.ServiceDisabled, snapshot.ActionMask},
		{snapshot.ServiceMasked, snapshot.ServiceAbsent, snapshot.ActionMask},
		{snapshot.ServiceStatic, snapshot.ServiceEnabled, snapshot.ActionNone},
		{snapshot.ServiceStatic, snapshot.ServiceDisabled, snapshot.ActionNone},
	}
	for _, c := range cases {
		got := Action(c.current, c.def)
		if got != c.want {
			t.Errorf("Action(%s, %s) = %s, want %s", c.current, c.def, got, c.want)
		}
	}
}
