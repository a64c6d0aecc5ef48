// Package audit renders audit-report.md: a plain-Markdown accounting of
// every warning and divergence the inspection pipeline recorded, grouped
// the way the dashboard groups them so the two never disagree (spec
// §4.6). Rendering goes through text/template, the same tool the
// teacher's report command uses for its tabwriter/jUnit output.
package audit

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

const reportTmpl = `# Audit report

Host: {{.Host.Hostname}} ({{.Host.Distribution}} {{.Host.FullVersion}})
Target image: {{.Target.Image}}
Baseline mode: {{.Baseline.Mode}}

## Summary

- {{len .ErrorWarnings}} error(s)
- {{len .WarnWarnings}} warning(s)
- {{len .InfoWarnings}} informational note(s)
- {{.PackagesAdded}} package(s) to install, {{.PackagesRemoved}} to remove
- {{.ConfigCount}} configuration file(s) captured
- {{.SecretsRedacted}} value(s) redacted before this report was written

{{if .ErrorWarnings}}## Errors

{{range .ErrorWarnings}}- **{{.Resource}}**: {{.Message}}{{if .SuggestedAction}} — {{.SuggestedAction}}{{end}}
{{end}}
{{end -}}
{{if .WarnWarnings}}## Warnings

{{range .WarnWarnings}}- **{{.Resource}}**: {{.Message}}{{if .SuggestedAction}} — {{.SuggestedAction}}{{end}}
{{end}}
{{end -}}
{{if .InfoWarnings}}## Notes

{{range .InfoWarnings}}- {{.Resource}}: {{.Message}}
{{end}}
{{end -}}
## Packages

{{if .Snapshot.Packages.Added}}Added:
{{range .Snapshot.Packages.Added}}- {{.Name}}-{{.Version}}-{{.Release}}.{{.Architecture}}
{{end}}{{end}}
{{if .Snapshot.Packages.Removed}}Removed:
{{range .Snapshot.Packages.Removed}}- {{.Name}}-{{.Version}}-{{.Release}}.{{.Architecture}}
{{end}}{{end}}
## Services

{{range .Snapshot.Services}}{{if ne .Action "no-op"}}- {{.Unit}}: {{.Current}} → {{.Action}} (target default: {{.Default}})
{{end}}{{end}}
`

type viewData struct {
	Snapshot *snapshot.Snapshot
	Host     snapshot.HostInfo
	Target   snapshot.TargetInfo
	Baseline snapshot.Baseline

	ErrorWarnings []snapshot.Warning
	WarnWarnings  []snapshot.Warning
	InfoWarnings  []snapshot.Warning

	PackagesAdded   int
	PackagesRemoved int
	ConfigCount     int
	SecretsRedacted int
}

var tmpl = template.Must(template.New("audit-report").Parse(reportTmpl))

// Render produces the audit-report.md text for snap.
func Render(snap *snapshot.Snapshot) (string, error) {
	data := viewData{
		Snapshot:        snap,
		Host:            snap.Host,
		Target:          snap.Target,
		Baseline:        snap.Baseline,
		PackagesAdded:   len(snap.Packages.Added),
		PackagesRemoved: len(snap.Packages.Removed),
		ConfigCount:     len(snap.Configs.OwnedModified) + len(snap.Configs.Unowned) + len(snap.Configs.Orphaned),
		SecretsRedacted: len(snap.SecretsReview),
	}
	for _, w := range snap.Warnings {
		switch w.Severity {
		case snapshot.SeverityError:
			data.ErrorWarnings = append(data.ErrorWarnings, w)
		case snapshot.SeverityWarn:
			data.WarnWarnings = append(data.WarnWarnings, w)
		default:
			data.InfoWarnings = append(data.InfoWarnings, w)
		}
	}
	// snap.Warnings already carries the (inspector, first-discovery
	// index) order Seal recorded (spec §5); grouping by severity above
	// is a stable partition, so each group keeps that relative order.

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return collapseBlankRuns(buf.String()), nil
}

// collapseBlankRuns folds runs of 3+ blank lines the template's
// conditional blocks tend to leave behind down to a single blank line.
func collapseBlankRuns(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
