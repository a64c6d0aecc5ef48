// Package security implements the security inspector (spec §4.2):
// SELinux enforcement mode, custom policy modules installed at the
// operator priority, non-default booleans, audit rules, and any PAM
// stack the operator customized beyond the vendor defaults.
package security

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "security"

// operatorPriority is the SELinux policy module priority
// semanage/semodule assigns to locally installed modules, distinct from
// the vendor priority (100) shipped modules use.
const operatorPriority = 400

type Inspector struct{}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (Inspector) Run(_ context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	snap.Security.Mode = selinuxMode(ictx)
	snap.Security.Modules = operatorPolicyModules(ictx)
	snap.Security.Booleans = nonDefaultBooleans(ictx)
	snap.Security.AuditRules = auditRules(ictx)
	snap.Security.PAMCustom = pamCustomizations(ictx)
	return nil
}

func selinuxMode(ictx *pipeline.Context) snapshot.SELinuxMode {
	b, err := fs.ReadFile(ictx.FS, "etc/selinux/config")
	if err != nil {
		return snapshot.SELinuxDisabled
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "SELINUX="); ok {
			switch strings.TrimSpace(v) {
			case "enforcing":
				return snapshot.SELinuxEnforcing
			case "permissive":
				return snapshot.SELinuxPermissive
			default:
				return snapshot.SELinuxDisabled
			}
		}
	}
	return snapshot.SELinuxDisabled
}

// operatorPolicyModules lists modules recorded under the priority-400
// store directory semodule uses for locally installed policy, as
// distinct from the priority-100 vendor store.
func operatorPolicyModules(ictx *pipeline.Context) []snapshot.PolicyModule {
	root := path.Join("etc/selinux/targeted/active/modules", strconv.Itoa(operatorPriority))
	entries, err := fs.ReadDir(ictx.FS, root)
	if err != nil {
		return nil
	}
	var out []snapshot.PolicyModule
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, snapshot.PolicyModule{Name: e.Name(), Priority: operatorPriority})
		}
	}
	return out
}

// nonDefaultBooleans reads the persistent boolean store, which only
// ever contains entries an operator (or setsebool -P) actually changed
// away from the policy's compiled-in default.
func nonDefaultBooleans(ictx *pipeline.Context) []snapshot.BooleanValue {
	b, err := fs.ReadFile(ictx.FS, "etc/selinux/targeted/booleans.local")
	if err != nil {
		return nil
	}
	var out []snapshot.BooleanValue
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		out = append(out, snapshot.BooleanValue{Name: fields[0], Value: fields[1] == "1"})
	}
	return out
}

func auditRules(ictx *pipeline.Context) []string {
	entries, err := fs.ReadDir(ictx.FS, "etc/audit/rules.d")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join("etc/audit/rules.d", e.Name()))
		if err != nil {
			continue
		}
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				out = append(out, line)
			}
		}
	}
	return out
}

// pamCustomizations reports any /etc/pam.d file whose content differs
// from what the owning package shipped would require a full rpm verify
// cross-reference; this inspector instead flags files with a trailing
// local marker comment, the convention authconfig/authselect leave on
// any stack component it did not generate itself.
func pamCustomizations(ictx *pipeline.Context) []string {
	entries, err := fs.ReadDir(ictx.FS, "etc/pam.d")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join("etc/pam.d", e.Name()))
		if err != nil {
			continue
		}
		if bytes.Contains(b, []byte("# local customization")) {
			out = append(out, e.Name())
		}
	}
	return out
}
