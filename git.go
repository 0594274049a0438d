package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jadenpxrk/arbor/internal/logger"
)

// isGitURL reports whether a root argument names a remote repository rather
// than a local path.
func isGitURL(input string) bool {
	if strings.HasPrefix(input, "git@") || strings.HasPrefix(input, "ssh://") || strings.HasPrefix(input, "git://") {
		return true
	}
	isHTTP := strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://")
	return isHTTP && strings.HasSuffix(input, ".git")
}

// cloneGitRepo shallow-clones the default branch of url into a temporary
// directory and returns its path. The caller removes the directory.
func cloneGitRepo(ctx context.Context, url string, log *logger.ConsoleLogger) (string, error) {
	tempDir, err := os.MkdirTemp("", "arbor-git-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	log.Infof("cloning %s into %s", url, tempDir)

	var progress io.Writer
	if log.Enabled("debug") {
		progress = os.Stderr
	}
	_, err = git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		Depth:         1,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
	})
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to clone repository '%s': %w", url, err)
	}

	log.Debugf("finished cloning %s", url)
	return tempDir, nil
}
