package pipeline

import (
	"context"
	"testing"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// fakeInspector optionally waits on a channel before appending to the
// sink, and optionally signals a channel once it has appended — used to
// force a completion order that disagrees with registration order.
type fakeInspector struct {
	name   string
	before <-chan struct{}
	after  chan struct{}
}

func (f fakeInspector) Name() string           { return f.name }
func (f fakeInspector) DependsOnBaseline() bool { return false }

func (f fakeInspector) Run(_ context.Context, ictx *Context, _ *snapshot.Snapshot) error {
	if f.before != nil {
		<-f.before
	}
	ictx.Sink.Infof(f.name, "", "done")
	if f.after != nil {
		close(f.after)
	}
	return nil
}

func TestRunMergesInRegistrationOrderRegardlessOfCompletionOrder(t *testing.T) {
	secondDone := make(chan struct{})
	// "first" is registered first but can't append until "second" has
	// already appended and finished, so completion order is reversed.
	first := fakeInspector{name: "first", before: secondDone}
	second := fakeInspector{name: "second", after: secondDone}

	ictx := &Context{Sink: &Sink{}}
	var snap snapshot.Snapshot
	if err := Run(context.Background(), ictx, &snap, []Inspector{first, second}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	warnings := ictx.Sink.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %+v", len(warnings), warnings)
	}
	if warnings[0].Source != "first" || warnings[1].Source != "second" {
		t.Errorf("warnings out of registration order: %+v", warnings)
	}
}
