// Package vcs queries the version control system of a checkout.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultRemote is the remote whose URL identifies the repository.
const DefaultRemote = "origin"

// RemoteURL returns the URL of remote in the git checkout at dir.
func RemoteURL(ctx context.Context, dir, remote string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", remote)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git remote get-url %s in %s: %s: %w", remote, dir, msg, err)
		}
		return "", fmt.Errorf("git remote get-url %s in %s: %w", remote, dir, err)
	}

	url := strings.TrimSpace(stdout.String())
	if url == "" {
		return "", fmt.Errorf("git remote get-url %s in %s: empty output", remote, dir)
	}
	return url, nil
}
