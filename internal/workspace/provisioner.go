// Package workspace materializes and destroys isolated filesystem checkouts
// for agents. It owns no live state beyond the filesystem: every
// operation either succeeds against disk and the VCS, or fails and leaves
// nothing behind for the reducer to reconcile.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/groveterm/grove/internal/git"
	"github.com/groveterm/grove/internal/log"
)

// Symlink describes one relative-path symlink created inside a new worktree,
// pointing back at the corresponding path in the main repository.
type Symlink struct {
	// RelPath is the path, relative to both the worktree root and the
	// repository root, that should be symlinked (e.g. "node_modules").
	RelPath string
}

// Provisioner creates and tears down per-agent worktrees.
type Provisioner struct {
	repoRoot string
	executor git.GitExecutor
}

// New constructs a Provisioner rooted at repoRoot using executor for all VCS
// operations.
func New(repoRoot string, executor git.GitExecutor) *Provisioner {
	return &Provisioner{repoRoot: repoRoot, executor: executor}
}

// Create takes the worktree path from the executor's DetermineWorktreePath
// for name (the configured worktree base directory is not consulted, and
// the path is not checked for uniqueness beforehand),
// creates a branched checkout of branch (creating it if it does not exist),
// and symlinks the configured relative paths from the worktree into the main
// repository. Fails if branch is already checked out elsewhere, the path
// exists, or the repository is not a repository.
func (p *Provisioner) Create(name, branch string, symlinks []Symlink) (worktreePath string, err error) {
	if !p.executor.IsGitRepo() {
		return "", fmt.Errorf("workspace create %q: %w", name, git.ErrNotGitRepo)
	}

	worktreePath, err = p.executor.DetermineWorktreePath(name)
	if err != nil {
		return "", fmt.Errorf("workspace create %q: determine path: %w", name, err)
	}

	if p.executor.BranchExists(branch) {
		// Refuse early with the typed error when the branch already has a
		// checkout, rather than relying on git's stderr after the fact.
		if other := p.checkoutPathFor(branch); other != "" {
			return "", fmt.Errorf("workspace create %q: %w: %s", name, git.ErrBranchAlreadyCheckedOut, other)
		}
		if err := p.executor.CheckoutWorktree(worktreePath, branch); err != nil {
			return "", fmt.Errorf("workspace create %q: %w", name, err)
		}
	} else {
		base, branchErr := p.executor.GetCurrentBranch()
		if branchErr != nil {
			// Detached HEAD (CI, mid-rebase): branch the new agent off the
			// repository's primary branch instead.
			base, _ = p.executor.GetMainBranch()
		}
		if err := p.executor.CheckoutWorktreeNewBranch(worktreePath, branch, base); err != nil {
			return "", fmt.Errorf("workspace create %q: %w", name, err)
		}
	}

	if err := p.linkSymlinks(worktreePath, symlinks); err != nil {
		// Best-effort teardown of the half-created worktree so a failed
		// symlink step does not leave an orphaned checkout behind.
		_ = p.executor.RemoveWorktree(worktreePath)
		return "", fmt.Errorf("workspace create %q: %w", name, err)
	}

	log.Info(log.CatWorkspace, "worktree created", "name", name, "branch", branch, "path", worktreePath)
	return worktreePath, nil
}

// checkoutPathFor returns the path of the worktree that currently has
// branch checked out, or "" when none does (or the listing fails, in which
// case git itself is left to reject the collision).
func (p *Provisioner) checkoutPathFor(branch string) string {
	worktrees, err := p.executor.ListWorktrees()
	if err != nil {
		return ""
	}
	for _, wt := range worktrees {
		if wt.Branch == branch {
			return wt.Path
		}
	}
	return ""
}

// Remove force-removes the checkout at worktreePath and prunes dangling
// metadata. Idempotent: removing an absent worktree is not an error.
func (p *Provisioner) Remove(worktreePath string) error {
	if err := p.executor.RemoveWorktree(worktreePath); err != nil {
		return fmt.Errorf("workspace remove %q: %w", worktreePath, err)
	}
	if err := p.executor.PruneWorktrees(); err != nil {
		log.Warn(log.CatWorkspace, "prune after remove failed", "path", worktreePath, "error", err.Error())
	}
	return nil
}

// SnapshotHead returns the current commit id checked out in worktreePath,
// used during pause to record a checkout-able reference.
func (p *Provisioner) SnapshotHead(worktreePath string) (string, error) {
	sha, err := p.executor.HeadCommit(worktreePath)
	if err != nil {
		return "", fmt.Errorf("workspace snapshot head %q: %w", worktreePath, err)
	}
	return sha, nil
}

// CommitAll stages every change in worktreePath and commits with message.
// Best-effort: a clean working tree is not an error, so work is never lost
// during pause even if there is nothing new to record.
func (p *Provisioner) CommitAll(worktreePath, message string) error {
	if err := p.executor.CommitAll(worktreePath, message); err != nil {
		log.Warn(log.CatWorkspace, "commit_all failed", "path", worktreePath, "error", err.Error())
		return fmt.Errorf("workspace commit_all %q: %w", worktreePath, err)
	}
	return nil
}

// linkSymlinks creates each configured relative-path symlink from worktreePath
// into the corresponding path under the main repository. A missing source
// path is skipped rather than treated as fatal, since shared directories
// (node_modules, vendor) are not guaranteed to exist in every repository.
func (p *Provisioner) linkSymlinks(worktreePath string, symlinks []Symlink) error {
	for _, s := range symlinks {
		src := filepath.Join(p.repoRoot, s.RelPath)
		if _, err := os.Lstat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(worktreePath, s.RelPath)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("symlink %s: prepare parent: %w", s.RelPath, err)
		}
		if err := os.Symlink(src, dst); err != nil && !os.IsExist(err) {
			return fmt.Errorf("symlink %s: %w", s.RelPath, err)
		}
	}
	return nil
}
