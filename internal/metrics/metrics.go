// Package metrics exposes a small prometheus registry tracking a
// yoinkc run's own cost (inspector durations, redaction counts, warning
// counts) and writes it to metrics.prom alongside the rest of the
// output bundle (spec §4.6's supplemental artifacts), in the node
// exporter textfile-collector format so it can be scraped without a
// running process.
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry bundles the instruments a single yoinkc run updates.
type Registry struct {
	reg *prometheus.Registry

	InspectorDuration *prometheus.HistogramVec
	Warnings          *prometheus.CounterVec
	Redactions        *prometheus.CounterVec
	PackagesTotal     prometheus.Gauge
}

// New constructs a Registry with every instrument registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		InspectorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "yoinkc",
			Name:      "inspector_duration_seconds",
			Help:      "Wall time each inspector took to run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"inspector"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yoinkc",
			Name:      "warnings_total",
			Help:      "Warnings raised during inspection, by severity.",
		}, []string{"severity"}),
		Redactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yoinkc",
			Name:      "redactions_total",
			Help:      "Secret-shaped values redacted during inspection, by class.",
		}, []string{"class"}),
		PackagesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yoinkc",
			Name:      "packages_total",
			Help:      "Installed packages found on the inspected host.",
		}),
	}
	reg.MustRegister(r.InspectorDuration, r.Warnings, r.Redactions, r.PackagesTotal)
	return r
}

// WriteTextfile renders the registry's current state to path in the
// Prometheus text exposition format.
func (r *Registry) WriteTextfile(path string) error {
	mfs, err := r.reg.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
