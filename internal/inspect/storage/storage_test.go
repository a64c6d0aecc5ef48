package storage

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunClassifiesMountsAndNetworkFS(t *testing.T) {
	memFS := fstest.MapFS{
		"proc/mounts": {Data: []byte(
			"/dev/sda1 / xfs rw,relatime 0 0\n" +
				"/dev/sdb1 /data xfs rw,relatime 0 0\n" +
				"nas:/export /mnt/nas nfs4 rw 0 0\n" +
				"/dev/sdc1 /opt/vendor xfs rw 0 0\n",
		)},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	var snap snapshot.Snapshot
	if err := (Inspector{}).Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Storage.NetworkMounts) != 1 || snap.Storage.NetworkMounts[0].Target != "/mnt/nas" {
		t.Fatalf("expected nfs4 mount classified as network, got %+v", snap.Storage.NetworkMounts)
	}
	var data, opt *snapshot.Mount
	for idx := range snap.Storage.Mounts {
		m := &snap.Storage.Mounts[idx]
		switch m.Target {
		case "/data":
			data = m
		case "/opt/vendor":
			opt = m
		}
	}
	if data == nil || data.Strategy != snapshot.StrategyManualMigration {
		t.Errorf("expected /data to fall back to manual migration, got %+v", data)
	}
	if opt == nil || opt.Strategy != snapshot.StrategyBakeIntoImage {
		t.Errorf("expected /opt/vendor to be baked into the image, got %+v", opt)
	}
}
