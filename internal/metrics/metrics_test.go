package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.PackagesTotal.Set(842)
	r.Warnings.WithLabelValues("warn").Inc()

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(b), "yoinkc_packages_total 842") {
		t.Errorf("expected packages_total in output, got:\n%s", b)
	}
}
