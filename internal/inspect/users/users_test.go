package users

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/marrusl/yoinkc/internal/pipeline"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

func TestRunFiltersSystemAccountsAndRedactsShadow(t *testing.T) {
	memFS := fstest.MapFS{
		"etc/passwd": {Data: []byte(
			"root:x:0:0:root:/root:/bin/bash\n" +
				"nginx:x:992:992:nginx user:/var/lib/nginx:/sbin/nologin\n" +
				"alice:x:1001:1001:Alice:/home/alice:/bin/bash\n",
		)},
		"etc/group": {Data: []byte(
			"alice:x:1001:\nwheel:x:10:alice\n",
		)},
		"etc/shadow": {Data: []byte(
			"root:$6$abc:19000:0:99999:7:::\n" +
				"alice:$6$def:19000:0:99999:7:::\n",
		)},
	}
	ictx := &pipeline.Context{FS: memFS, Sink: &pipeline.Sink{}}
	var snap snapshot.Snapshot
	if err := (Inspector{}).Run(context.Background(), ictx, &snap); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snap.Users.Users) != 1 || !strings.HasPrefix(snap.Users.Users[0], "alice:") {
		t.Fatalf("expected only alice to survive system-UID filtering, got %v", snap.Users.Users)
	}
	if len(snap.Users.Groups) != 2 {
		t.Fatalf("expected alice's own group and wheel membership, got %v", snap.Users.Groups)
	}
	if len(snap.Users.Shadow) != 1 || !strings.Contains(snap.Users.Shadow[0], "alice:REDACTED:") {
		t.Fatalf("expected redacted shadow hash, got %v", snap.Users.Shadow)
	}
}
