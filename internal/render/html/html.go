// Package html renders report.html: a self-contained dashboard with
// inlined CSS and a small amount of inlined JavaScript for the
// dismissible warning panel, so it opens correctly from a filesystem
// path with no external fetches (spec §4.6). Built on html/template for
// its contextual auto-escaping; no third-party templating library
// appeared anywhere in the reference corpus, so the standard library is
// the right tool here rather than a gap to fill.
package html

import (
	"bytes"
	"html/template"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

const pageTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Host.Hostname}} bootc recipe report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #1a1a1a; background: #fafafa; }
h1, h2 { margin-top: 2rem; }
.banner { padding: 1rem; border-radius: 6px; margin-bottom: 1.5rem; }
.banner.ok { background: #e6f4ea; border: 1px solid #34a853; }
.banner.attention { background: #fef7e0; border: 1px solid #f9ab00; }
.banner.blocked { background: #fce8e6; border: 1px solid #d93025; }
.card { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
.card h3 { margin-top: 0; }
.warning { border-left: 4px solid #f9ab00; padding-left: 0.75rem; margin-bottom: 0.5rem; }
.warning.error { border-color: #d93025; }
.warning.dismissed { opacity: 0.4; text-decoration: line-through; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: 0.25rem 0.5rem; border-bottom: 1px solid #eee; font-size: 0.9rem; }
details summary { cursor: pointer; font-weight: 600; }
</style>
</head>
<body>
<h1>{{.Host.Hostname}} &mdash; bootc recipe report</h1>
<p>{{.Host.Distribution}} {{.Host.FullVersion}} ({{.Host.Architecture}}) &rarr; {{.Target.Image}}</p>

<div class="banner {{.BannerClass}}">
<strong>{{.BannerHeadline}}</strong><br>
{{.ErrorCount}} error(s), {{.WarnCount}} warning(s), {{.InfoCount}} note(s).
</div>

{{if .Warnings}}
<div class="card">
<h3>Warnings</h3>
{{range $i, $w := .Warnings}}
<div class="warning {{$w.Severity}}" id="warning-{{$i}}">
<button onclick="dismiss({{$i}})" {{if not $w.Dismissible}}disabled{{end}}>dismiss</button>
<strong>{{$w.Resource}}</strong>: {{$w.Message}}{{if $w.SuggestedAction}} &mdash; {{$w.SuggestedAction}}{{end}}
</div>
{{end}}
</div>
{{end}}

<h2>Categories</h2>

<div class="card">
<details><summary>Packages ({{len .Snapshot.Packages.Added}} added, {{len .Snapshot.Packages.Removed}} removed)</summary>
<table>
<tr><th>Name</th><th>Version</th><th>Change</th></tr>
{{range .Snapshot.Packages.Added}}<tr><td>{{.Name}}</td><td>{{.Version}}-{{.Release}}</td><td>add</td></tr>
{{end}}{{range .Snapshot.Packages.Removed}}<tr><td>{{.Name}}</td><td>{{.Version}}-{{.Release}}</td><td>remove</td></tr>
{{end}}
</table>
</details>
</div>

<div class="card">
<details><summary>Services ({{.ChangedServiceCount}} changed)</summary>
<table>
<tr><th>Unit</th><th>Current</th><th>Action</th></tr>
{{range .Snapshot.Services}}{{if ne .Action "no-op"}}<tr><td>{{.Unit}}</td><td>{{.Current}}</td><td>{{.Action}}</td></tr>
{{end}}{{end}}
</table>
</details>
</div>

<div class="card">
<details><summary>Configuration files ({{.ConfigCount}} captured)</summary>
<table>
<tr><th>Path</th><th>Provenance</th><th>Package</th></tr>
{{range .Snapshot.Configs.OwnedModified}}<tr><td>{{.Path}}</td><td>{{.Provenance}}</td><td>{{.Package}}</td></tr>
{{end}}{{range .Snapshot.Configs.Unowned}}<tr><td>{{.Path}}</td><td>{{.Provenance}}</td><td>{{.Package}}</td></tr>
{{end}}{{range .Snapshot.Configs.Orphaned}}<tr><td>{{.Path}}</td><td>{{.Provenance}}</td><td>{{.Package}}</td></tr>
{{end}}
</table>
</details>
</div>

<div class="card">
<details><summary>Non-package software ({{len .Snapshot.NonPackage}} found)</summary>
<table>
<tr><th>Path</th><th>Provenance</th><th>Confidence</th><th>Detail</th></tr>
{{range .Snapshot.NonPackage}}<tr><td>{{.Path}}</td><td>{{.Provenance}}</td><td>{{.Confidence}}</td><td>{{.Detail}} {{.Version}}</td></tr>
{{end}}
</table>
</details>
</div>

<script>
function dismiss(i) {
  var el = document.getElementById("warning-" + i);
  if (el) { el.classList.add("dismissed"); }
}
</script>
</body>
</html>
`

var tmpl = template.Must(template.New("report").Parse(pageTmpl))

type viewData struct {
	Snapshot *snapshot.Snapshot
	Host     snapshot.HostInfo
	Target   snapshot.TargetInfo

	Warnings   []snapshot.Warning
	ErrorCount int
	WarnCount  int
	InfoCount  int

	BannerClass         string
	BannerHeadline      string
	ConfigCount         int
	ChangedServiceCount int
}

// Render produces the self-contained report.html text for snap.
func Render(snap *snapshot.Snapshot) (string, error) {
	data := viewData{
		Snapshot: snap,
		Host:     snap.Host,
		Target:   snap.Target,
		// snap.Warnings already carries the (inspector, first-discovery
		// index) order Seal recorded (spec §5); the dashboard relies on
		// that order instead of re-deriving its own.
		Warnings: append([]snapshot.Warning(nil), snap.Warnings...),
	}
	for _, w := range data.Warnings {
		switch w.Severity {
		case snapshot.SeverityError:
			data.ErrorCount++
		case snapshot.SeverityWarn:
			data.WarnCount++
		default:
			data.InfoCount++
		}
	}
	data.ConfigCount = len(snap.Configs.OwnedModified) + len(snap.Configs.Unowned) + len(snap.Configs.Orphaned)
	for _, s := range snap.Services {
		if s.Action != snapshot.ActionNone {
			data.ChangedServiceCount++
		}
	}

	switch {
	case data.ErrorCount > 0:
		data.BannerClass = "blocked"
		data.BannerHeadline = "Review required before building"
	case data.WarnCount > 0:
		data.BannerClass = "attention"
		data.BannerHeadline = "Build ready, some items need attention"
	default:
		data.BannerClass = "ok"
		data.BannerHeadline = "Build ready"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
