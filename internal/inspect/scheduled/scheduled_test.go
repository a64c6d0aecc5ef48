package scheduled

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunParsesSystemCrontab(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/cron.d/backup": {Data: []byte("0 3 * * * root /usr/local/bin/backup.sh\n")},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	var snap snapshot.Snapshot
	if err := (Inspector{}).Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Scheduled.Cron) != 1 {
		t.Fatalf("expected 1 cron entry, got %d", len(snap.Scheduled.Cron))
	}
	e := snap.Scheduled.Cron[0]
	if e.User != "root" || e.Command != "/usr/local/bin/backup.sh" || e.Schedule != "0 3 * * *" {
		t.Fatalf("unexpected cron entry: %+v", e)
	}
}

func TestConvertToTimerDailyAtThreeAM(t *testing.T) {
	entry := snapshot.CronEntry{User: "root", Schedule: "0 3 * * *", Command: "/usr/local/bin/backup.sh"}
	timerUnit, serviceUnit := ConvertToTimer("backup", entry)
	if !strings.Contains(timerUnit, "OnCalendar=*-*-* 03:00:00") {
		t.Errorf("expected OnCalendar=*-*-* 03:00:00 in timer unit, got:\n%s", timerUnit)
	}
	if !strings.Contains(serviceUnit, "ExecStart=/usr/local/bin/backup.sh") {
		t.Errorf("expected ExecStart line in service unit, got:\n%s", serviceUnit)
	}
}
