package hostinfo

import (
	"testing"
	"testing/fstest"
	"time"
)

func TestDetectParsesOSRelease(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/os-release": {Data: []byte("ID=\"centos\"\nVERSION_ID=\"9\"\nNAME=\"CentOS Stream\"\n")},
		"etc/hostname":    {Data: []byte("web01.example.com\n")},
	}
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	h := Detect(memFS, now)
	if h.Distribution != "centos" || h.MajorVersion != "9" || h.Hostname != "web01.example.com" {
		t.Fatalf("unexpected host info: %+v", h)
	}
	if !h.InspectedAt.Equal(now) {
		t.Errorf("expected InspectedAt to be passed through, got %v", h.InspectedAt)
	}
}
