// Package users implements the users inspector (spec §4.2): the raw
// account-database lines for non-system accounts, with shadow entries
// field-redacted so the password hash never leaves the host.
package users

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"strconv"
	"strings"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "users"

// systemUIDCeiling is the highest UID useradd treats as a system
// account by default (login.defs SYS_UID_MAX); accounts above it are
// the human/service accounts an image rebuild actually needs to carry.
const systemUIDCeiling = 999

type Inspector struct{}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (Inspector) Run(_ context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	users, names := nonSystemUsers(ictx)
	snap.Users.Users = users
	snap.Users.Groups = groupsFor(ictx, names)
	snap.Users.Shadow = redactedShadow(ictx, names)
	return nil
}

// nonSystemUsers returns every /etc/passwd line whose UID exceeds
// systemUIDCeiling, and the set of usernames it kept, so the group and
// shadow passes can stay limited to the same accounts.
func nonSystemUsers(ictx *pipeline.Context) ([]string, map[string]bool) {
	b, err := fs.ReadFile(ictx.FS, "etc/passwd")
	if err != nil {
		ictx.Sink.Infof(Name, "etc/passwd", "could not read account database: %v", err)
		return nil, nil
	}
	var lines []string
	names := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil || uid <= systemUIDCeiling {
			continue
		}
		lines = append(lines, line)
		names[fields[0]] = true
	}
	return lines, names
}

// groupsFor returns every /etc/group line for a group whose name
// matches a kept user, plus any group whose member list names one.
func groupsFor(ictx *pipeline.Context, names map[string]bool) []string {
	b, err := fs.ReadFile(ictx.FS, "etc/group")
	if err != nil {
		return nil
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Split(line, ":")
		if len(fields) < 4 {
			continue
		}
		if names[fields[0]] {
			lines = append(lines, line)
			continue
		}
		for _, m := range strings.Split(fields[3], ",") {
			if names[m] {
				lines = append(lines, line)
				break
			}
		}
	}
	return lines
}

// redactedShadow returns /etc/shadow lines for the kept accounts with
// the password-hash field blanked; the hash is excluded rather than
// passed through the general redaction gate because it never belongs
// in a build recipe under any circumstance, secrets-review included.
func redactedShadow(ictx *pipeline.Context, names map[string]bool) []string {
	b, err := fs.ReadFile(ictx.FS, "etc/shadow")
	if err != nil {
		return nil
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Split(line, ":")
		if len(fields) < 2 || !names[fields[0]] {
			continue
		}
		fields[1] = "REDACTED"
		out = append(out, strings.Join(fields, ":"))
	}
	return out
}
