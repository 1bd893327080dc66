package git

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scratchRepo initializes a throwaway git repository with one commit and
// returns its path. Tests needing a live git binary skip when absent.
func scratchRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not on PATH")
	}

	dir := t.TempDir()
	mustGit(t, dir, "init", "-b", "main")
	mustGit(t, dir, "config", "user.email", "test@example.com")
	mustGit(t, dir, "config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("scratch\n"), 0o644))
	mustGit(t, dir, "add", "-A")
	mustGit(t, dir, "commit", "-m", "initial")
	return dir
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func TestParseGitError(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"branch checked out", "fatal: 'agent-1' is already checked out at '/tmp/wt'", ErrBranchAlreadyCheckedOut},
		{"path exists", "fatal: '/tmp/wt' already exists", ErrPathAlreadyExists},
		{"locked", "fatal: '/tmp/wt' is locked", ErrWorktreeLocked},
		{"not a repo", "fatal: not a git repository (or any of the parent directories): .git", ErrNotGitRepo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseGitError(tt.stderr, errors.New("exit status 128"))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unrecognized stderr keeps original error", func(t *testing.T) {
		orig := errors.New("exit status 1")
		err := parseGitError("fatal: something novel", orig)
		assert.ErrorIs(t, err, orig)
	})
}

func TestParseWorktreeList(t *testing.T) {
	output := `worktree /home/user/repo
HEAD 1111111111111111111111111111111111111111
branch refs/heads/main

worktree /home/user/repo-worktree-abc12345
HEAD 2222222222222222222222222222222222222222
branch refs/heads/agent-1

worktree /home/user/detached
HEAD 3333333333333333333333333333333333333333
detached
`
	got := parseWorktreeList(output)
	require.Len(t, got, 3)
	assert.Equal(t, "/home/user/repo", got[0].Path)
	assert.Equal(t, "main", got[0].Branch)
	assert.Equal(t, "agent-1", got[1].Branch)
	assert.Equal(t, "2222222222222222222222222222222222222222", got[1].HEAD)
	assert.Empty(t, got[2].Branch)
}

func TestParseWorktreeList_Empty(t *testing.T) {
	assert.Nil(t, parseWorktreeList(""))
}

func TestIsGitRepo(t *testing.T) {
	repo := scratchRepo(t)
	assert.True(t, NewRealExecutor(repo).IsGitRepo())
	assert.False(t, NewRealExecutor(t.TempDir()).IsGitRepo())
}

func TestGetRepoRoot(t *testing.T) {
	repo := scratchRepo(t)
	root, err := NewRealExecutor(repo).GetRepoRoot()
	require.NoError(t, err)
	// macOS tempdirs resolve through /private, compare resolved paths.
	wantResolved, _ := filepath.EvalSymlinks(repo)
	gotResolved, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, wantResolved, gotResolved)
}

func TestGetCurrentBranch(t *testing.T) {
	repo := scratchRepo(t)
	e := NewRealExecutor(repo)

	branch, err := e.GetCurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	t.Run("detached HEAD", func(t *testing.T) {
		sha, err := gitOutput(repo, "rev-parse", "HEAD")
		require.NoError(t, err)
		mustGit(t, repo, "checkout", "--detach", sha)
		defer mustGit(t, repo, "checkout", "main")

		_, err = e.GetCurrentBranch()
		assert.ErrorIs(t, err, ErrDetachedHead)
	})
}

func TestGetMainBranch(t *testing.T) {
	repo := scratchRepo(t)
	branch, err := NewRealExecutor(repo).GetMainBranch()
	require.NoError(t, err)
	assert.NotEmpty(t, branch)
}

func TestBranchExists(t *testing.T) {
	repo := scratchRepo(t)
	e := NewRealExecutor(repo)

	assert.True(t, e.BranchExists("main"))
	assert.False(t, e.BranchExists("no-such-branch"))
}

func TestWorktreeLifecycle(t *testing.T) {
	repo := scratchRepo(t)
	e := NewRealExecutor(repo)

	wtPath := filepath.Join(t.TempDir(), "agent-wt")
	require.NoError(t, e.CheckoutWorktreeNewBranch(wtPath, "agent-1", "main"))
	assert.True(t, e.BranchExists("agent-1"))

	worktrees, err := e.ListWorktrees()
	require.NoError(t, err)
	require.Len(t, worktrees, 2)
	assert.Equal(t, "agent-1", worktrees[1].Branch)

	t.Run("head commit matches main before new work", func(t *testing.T) {
		mainHead, err := gitOutput(repo, "rev-parse", "HEAD")
		require.NoError(t, err)
		wtHead, err := e.HeadCommit(wtPath)
		require.NoError(t, err)
		assert.Equal(t, mainHead, wtHead)
	})

	t.Run("commit all records dirty state", func(t *testing.T) {
		before, err := e.HeadCommit(wtPath)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(wtPath, "work.txt"), []byte("wip\n"), 0o644))
		require.NoError(t, e.CommitAll(wtPath, "agent checkpoint"))

		after, err := e.HeadCommit(wtPath)
		require.NoError(t, err)
		assert.NotEqual(t, before, after)
	})

	t.Run("commit all is a no-op on a clean tree", func(t *testing.T) {
		before, err := e.HeadCommit(wtPath)
		require.NoError(t, err)
		require.NoError(t, e.CommitAll(wtPath, "nothing to record"))
		after, err := e.HeadCommit(wtPath)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("same branch cannot be checked out twice", func(t *testing.T) {
		err := e.CheckoutWorktree(filepath.Join(t.TempDir(), "dup"), "agent-1")
		assert.ErrorIs(t, err, ErrBranchAlreadyCheckedOut)
	})

	t.Run("remove and prune", func(t *testing.T) {
		require.NoError(t, e.RemoveWorktree(wtPath))
		require.NoError(t, e.PruneWorktrees())

		worktrees, err := e.ListWorktrees()
		require.NoError(t, err)
		assert.Len(t, worktrees, 1)
		// The branch survives removal; only the checkout is gone.
		assert.True(t, e.BranchExists("agent-1"))
	})
}

func TestCheckoutWorktree_ExistingBranch(t *testing.T) {
	repo := scratchRepo(t)
	e := NewRealExecutor(repo)
	mustGit(t, repo, "branch", "resumable")

	wtPath := filepath.Join(t.TempDir(), "resume-wt")
	require.NoError(t, e.CheckoutWorktree(wtPath, "resumable"))
	t.Cleanup(func() { _ = e.RemoveWorktree(wtPath) })

	head, err := e.HeadCommit(wtPath)
	require.NoError(t, err)
	assert.NotEmpty(t, head)
}

func TestDetermineWorktreePath(t *testing.T) {
	repo := scratchRepo(t)
	e := NewRealExecutor(repo)

	path, err := e.DetermineWorktreePath("0123456789abcdef")
	require.NoError(t, err)
	assert.Contains(t, path, "worktree")
	// The short id, not the full agent id, lands in a sibling path.
	if filepath.Dir(path) != filepath.Join(repo, ".grove", "worktrees") {
		assert.Contains(t, filepath.Base(path), "01234567")
		assert.NotContains(t, filepath.Base(path), "89abcdef")
	}
}

func TestDetermineWorktreePath_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not on PATH")
	}
	_, err := NewRealExecutor(t.TempDir()).DetermineWorktreePath("abc")
	assert.Error(t, err)
}

func TestIsSafeWorktreeParent(t *testing.T) {
	assert.False(t, isSafeWorktreeParent("/"))
	assert.False(t, isSafeWorktreeParent("/usr/local"))
	assert.False(t, isSafeWorktreeParent("/etc/something"))
	assert.True(t, isSafeWorktreeParent(t.TempDir()))
}
