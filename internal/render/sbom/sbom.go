// Package sbom renders sbom.spdx.json: an SPDX v2.3 document describing
// every package the recipe installs, using the same
// github.com/spdx/tools-golang v2_3 document model and JSON writer the
// teacher's own sbom/spdx encoder builds (spec §4.6's supplemental
// artifacts).
package sbom

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	spdxjson "github.com/spdx/tools-golang/json"
	v2common "github.com/spdx/tools-golang/spdx/v2/common"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/marrusl/yoinkc/internal/snapshot"
)

// Render produces the sbom.spdx.json bytes for snap's resolved package
// set (the base image's unchanged packages plus whatever the recipe
// adds; removed packages never make it into the built image).
func Render(snap *snapshot.Snapshot, createdAt time.Time) ([]byte, error) {
	doc := &v2_3.Document{
		SPDXVersion:       v2_3.Version,
		DataLicense:       v2_3.DataLicense,
		SPDXIdentifier:    "DOCUMENT",
		DocumentName:      snap.Host.Hostname + "-bootc",
		DocumentNamespace: fmt.Sprintf("https://yoinkc.local/spdx/%s-%d", snap.Host.Hostname, createdAt.Unix()),
		CreationInfo: &v2_3.CreationInfo{
			Creators: []v2common.Creator{
				{Creator: "yoinkc", CreatorType: "Tool"},
			},
			Created: createdAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
	}

	all := make([]snapshot.Package, 0, len(snap.Packages.Unchanged)+len(snap.Packages.Added))
	all = append(all, snap.Packages.Unchanged...)
	all = append(all, snap.Packages.Added...)
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	for _, p := range all {
		doc.Packages = append(doc.Packages, &v2_3.Package{
			PackageName:             p.Name,
			PackageSPDXIdentifier:   v2common.ElementID("Package-" + packageID(p)),
			PackageVersion:          fmt.Sprintf("%s-%s", p.Version, p.Release),
			PackageDownloadLocation: "NOASSERTION",
			FilesAnalyzed:           false,
			PrimaryPackagePurpose:   "APPLICATION",
		})
	}

	var buf bytes.Buffer
	if err := spdxjson.Write(doc, io.Writer(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// packageID builds a document-unique, SPDX-identifier-safe element ID
// out of a package's name and architecture (rpm allows the same name to
// appear once per architecture, e.g. glibc.x86_64 and glibc.i686).
func packageID(p snapshot.Package) string {
	id := p.Name + "-" + p.Architecture
	out := make([]byte, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			out = append(out, byte(r))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
