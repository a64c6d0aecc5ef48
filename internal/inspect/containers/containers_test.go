package containers

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunParsesQuadletAndCompose(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/containers/systemd/app.container": {Data: []byte(
			"[Container]\nImage=quay.io/example/app:latest\nExec=/bin/app\n",
		)},
		"opt/stack/compose.yaml": {Data: []byte(
			"services:\n  web:\n    image: nginx:1.27\n  db:\n    image: postgres:16\n",
		)},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	var snap snapshot.Snapshot
	if err := (Inspector{}).Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Containers.Quadlets) != 1 || snap.Containers.Quadlets[0].Image != "quay.io/example/app:latest" {
		t.Fatalf("unexpected quadlets: %+v", snap.Containers.Quadlets)
	}
	if len(snap.Containers.Compose) != 2 {
		t.Fatalf("expected 2 compose services, got %d: %+v", len(snap.Containers.Compose), snap.Containers.Compose)
	}
}
