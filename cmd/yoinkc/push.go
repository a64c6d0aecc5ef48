package main

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/marrusl/yoinkc/internal/push"
	"github.com/marrusl/yoinkc/internal/redact"
	"github.com/marrusl/yoinkc/internal/snapshot"
)

// pushBundle implements --push-to-github (spec §4.7 / §6): load every
// rendered artifact back off disk, run the belt-and-braces redaction
// scan, confirm with the operator, then create-or-reuse the remote and
// push. The token comes from GITHUB_TOKEN; yoinkc never accepts
// credentials as a flag value, since flags end up in shell history and
// /proc/<pid>/cmdline.
func pushBundle(ctx context.Context, snap *snapshot.Snapshot, cfg config) error {
	owner, name, err := splitOwnerRepo(cfg.PushToGithub)
	if err != nil {
		return &snapshot.Error{Op: "push", Kind: snapshot.ErrInvalid, Message: "invalid -push-to-github value", Inner: err}
	}

	artifacts, err := readBundle(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("reading rendered bundle: %w", err)
	}

	if findings := push.Scan(redact.NewGate(), artifacts); len(findings) > 0 {
		return &snapshot.Error{
			Op:      "push",
			Kind:    snapshot.ErrConflict,
			Message: fmt.Sprintf("residual secret shapes in %d file(s), aborting push", len(findings)),
		}
	}

	if !cfg.Yes {
		ok, err := confirm(fmt.Sprintf("push %s to %s/%s? [y/N] ", cfg.OutputDir, owner, name))
		if err != nil {
			return err
		}
		if !ok {
			return &snapshot.Error{Op: "push", Kind: snapshot.ErrPrecondition, Message: "push declined by operator"}
		}
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return &snapshot.Error{Op: "push", Kind: snapshot.ErrPrecondition, Message: "GITHUB_TOKEN is not set"}
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client := github.NewClient(httpClient)

	cloneURL, err := push.EnsureRepo(ctx, client, owner, name, cfg.Public)
	if err != nil {
		return fmt.Errorf("ensuring remote repository: %w", err)
	}

	message := fmt.Sprintf("yoinkc recipe for %s (%s)", snap.Host.Hostname, snap.Target.Image)
	if err := push.CommitAndPush(cfg.OutputDir, cloneURL, token, message, time.Now()); err != nil {
		return fmt.Errorf("pushing bundle: %w", err)
	}
	return nil
}

func splitOwnerRepo(s string) (owner, name string, err error) {
	owner, name, found := strings.Cut(s, "/")
	if !found || owner == "" || name == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", s)
	}
	return owner, name, nil
}

// readBundle reads back every file yoinkc itself wrote under dir,
// keyed by path relative to dir, for the pre-push scan.
func readBundle(dir string) (map[string][]byte, error) {
	artifacts := map[string][]byte{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		artifacts[rel] = b
		return nil
	})
	return artifacts, err
}

func confirm(prompt string) (bool, error) {
	fmt.Fprint(os.Stdout, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, nil
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}
