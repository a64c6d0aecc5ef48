// Package push implements the --push-to-github path (spec §4.7):
// creating (or reusing) a GitHub repository with go-github, then
// committing and pushing the rendered bundle with go-git. Every file is
// scanned one more time with the redaction gate immediately before the
// push commits, so a pattern the inspection-time gate missed still
// cannot leave the machine.
package push

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/go-github/v66/github"

	"github.com/marrusl/yoinkc/internal/redact"
)

// Finding is one file that still matched a secret-shaped pattern on the
// pre-push scan.
type Finding struct {
	Path    string
	Classes []string
}

// Scan re-runs the redaction gate's pattern set over every rendered
// artifact without rewriting anything (spec §4.4's belt-and-braces
// pass). A non-empty result means the push must be aborted: something
// already wrote a secret shape into the bundle despite the inspection-
// time gate.
func Scan(gate *redact.Gate, artifacts map[string][]byte) []Finding {
	var findings []Finding
	for path, content := range artifacts {
		classes := gate.ScanBytes(content)
		if len(classes) > 0 {
			findings = append(findings, Finding{Path: path, Classes: classes})
		}
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].Path < findings[j].Path })
	return findings
}

// EnsureRepo creates the named repository under owner (an org or the
// authenticated user) if it doesn't already exist, and returns its
// clone URL either way.
func EnsureRepo(ctx context.Context, client *github.Client, owner, name string, public bool) (cloneURL string, err error) {
	repo, resp, err := client.Repositories.Get(ctx, owner, name)
	switch {
	case err == nil:
		return repo.GetCloneURL(), nil
	case resp != nil && resp.StatusCode == 404:
		// fall through to create
	default:
		return "", fmt.Errorf("checking for existing repository: %w", err)
	}

	newRepo := &github.Repository{
		Name:    github.String(name),
		Private: github.Bool(!public),
	}
	created, _, err := client.Repositories.Create(ctx, ownerOrgArg(owner), newRepo)
	if err != nil {
		return "", fmt.Errorf("creating repository %s/%s: %w", owner, name, err)
	}
	return created.GetCloneURL(), nil
}

// ownerOrgArg follows the go-github convention that an empty org string
// means "create under the authenticated user".
func ownerOrgArg(owner string) string {
	return owner
}

// CommitAndPush initializes (or reuses) a git repository at dir, stages
// every file in it, commits with message, and pushes to remote using
// token for HTTPS basic auth. dir must contain nothing but the rendered
// bundle: everything under it is staged.
func CommitAndPush(dir, remote, token, message string, at time.Time) error {
	repo, err := openOrInit(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.AddGlob("*"); err != nil {
		return fmt.Errorf("staging bundle: %w", err)
	}

	sig := &object.Signature{Name: "yoinkc", Email: "yoinkc@localhost", When: at}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("committing bundle: %w", err)
	}

	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remote}}); err != nil && err != git.ErrRemoteExists {
		return fmt.Errorf("configuring remote: %w", err)
	}
	err = repo.Push(&git.PushOptions{
		RemoteName: "origin",
		Auth:       &http.BasicAuth{Username: "yoinkc", Password: token},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pushing bundle: %w", err)
	}
	return nil
}

func openOrInit(dir string) (*git.Repository, error) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return git.PlainOpen(dir)
	}
	return git.PlainInit(dir, false)
}
