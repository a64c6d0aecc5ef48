// Package readme renders README.md: the human-facing build/review guide
// dropped alongside the Containerfile (spec §4.6), pointing at the other
// artifacts in the bundle and naming the command that reproduces the run.
package readme

import (
	"bytes"
	"text/template"

	"github.com/marrusl/yoinkc/internal/render/layout"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const tmplText = `# {{.Host.Hostname}} bootc recipe

Generated from a live inspection of {{.Host.Distribution}} {{.Host.FullVersion}}
({{.Host.Architecture}}), targeting {{.Target.Image}}.

## Review first

- ` + "`" + layout.AuditReport + "`" + ` — every warning and divergence found during inspection.
- ` + "`" + layout.SecretsReview + "`" + ` — every value this tool redacted; confirm nothing sensitive leaked.
{{if .HasHTML}}- ` + "`" + layout.ReportHTML + "`" + ` — the same information as a self-contained dashboard; open it in a browser.
{{end -}}

## Build

` + "```" + `
podman build -t {{.Host.Hostname}}-bootc -f ` + layout.Containerfile + ` .
` + "```" + `

## Files in this bundle

- ` + "`" + layout.Containerfile + "`" + ` — the layered build recipe.
- ` + "`" + layout.ConfigDir + "/`" + ` — the mirrored configuration tree the Containerfile copies in.
{{if .HasQuadlets}}- ` + "`" + layout.QuadletDir + "/`" + ` — container-workload unit files.
{{end -}}
{{if .HasKickstart}}- ` + "`" + layout.KickstartFrag + "`" + ` — a kickstart fragment for unattended installs.
{{end -}}
- ` + "`" + layout.SnapshotJSON + "`" + ` — the structured inspection data everything else was rendered from.
{{if .HasSBOM}}- ` + "`" + layout.SBOM + "`" + ` — a software bill of materials for the resulting image.
{{end -}}
`

var tmpl = template.Must(template.New("readme").Parse(tmplText))

type viewData struct {
	Host         snapshot.HostInfo
	Target       snapshot.TargetInfo
	HasHTML      bool
	HasQuadlets  bool
	HasKickstart bool
	HasSBOM      bool
}

// Render produces the README.md text for snap. includeSBOM reflects
// whether the caller will also write an SBOM artifact (the SBOM itself
// isn't derivable from the snapshot alone).
func Render(snap *snapshot.Snapshot, includeSBOM bool) (string, error) {
	data := viewData{
		Host:         snap.Host,
		Target:       snap.Target,
		HasHTML:      true,
		HasQuadlets:  len(snap.Containers.Quadlets) > 0,
		HasKickstart: true,
		HasSBOM:      includeSBOM,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
