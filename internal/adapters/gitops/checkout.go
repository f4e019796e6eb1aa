// Package gitops maintains the local repository checkouts the pipeline
// samples files from. All git work shells out to the git binary; any
// subprocess failure is Transient.
package gitops

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	apperrors "github.com/apphub/tagging-service/internal/errors"
)

// DefaultBranch is used when the catalog reports none.
const DefaultBranch = "main"

// outputExcerptLimit bounds how much subprocess output ends up in errors.
const outputExcerptLimit = 512

// Config configures the checkout manager.
type Config struct {
	WorkspaceRoot string
	Logger        *slog.Logger
}

// Checkout clones and refreshes per-repository working trees under the
// workspace root. Checkouts are keyed by repository id; the queue's per-job
// exclusivity means no two runs touch the same checkout concurrently.
type Checkout struct {
	root   string
	logger *slog.Logger
}

// NewCheckout creates a checkout manager.
func NewCheckout(cfg Config) *Checkout {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{
		root:   cfg.WorkspaceRoot,
		logger: logger.With("component", "gitops"),
	}
}

// Dir returns the checkout directory for a repository id.
func (c *Checkout) Dir(repositoryID string) string {
	return filepath.Join(c.root, repositoryID)
}

// Ensure makes the repository's checkout exist and match the remote: a
// shallow clone on first sight, otherwise fetch and hard-reset to the remote
// branch, falling back to a fast-forward pull when the remote ref is not
// resolvable. Returns the checkout directory.
func (c *Checkout) Ensure(ctx context.Context, repositoryID, repoURL, branch string) (string, error) {
	if branch == "" {
		branch = DefaultBranch
	}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return "", apperrors.WrapTransient(err, "create workspace root")
	}

	dir := c.Dir(repositoryID)
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		c.logger.InfoContext(ctx, "cloning repository", "repository_id", repositoryID, "branch", branch)
		if err := c.run(ctx, c.root, "clone", "--depth", "1", "--branch", branch, repoURL, dir); err != nil {
			return "", err
		}
		return dir, nil
	}

	if err := c.run(ctx, dir, "fetch", "--all", "--prune"); err != nil {
		return "", err
	}
	remoteRef := "origin/" + branch
	if err := c.run(ctx, dir, "rev-parse", "--verify", remoteRef); err == nil {
		if err := c.run(ctx, dir, "reset", "--hard", remoteRef); err != nil {
			return "", err
		}
		return dir, nil
	}
	if err := c.run(ctx, dir, "pull", "--ff-only"); err != nil {
		return "", err
	}
	return dir, nil
}

func (c *Checkout) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return apperrors.Transientf("git %s: %v: %s", args[0], err, excerpt(output))
	}
	return nil
}

func excerpt(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > outputExcerptLimit {
		s = s[:outputExcerptLimit] + "..."
	}
	return s
}
