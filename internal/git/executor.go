package git

// WorktreeInfo describes one entry of `git worktree list`.
type WorktreeInfo struct {
	Path   string
	Branch string
	HEAD   string
}

// GitExecutor is the VCS surface the workspace provisioner runs on. The
// abstraction exists so provisioner tests can run without a git binary.
type GitExecutor interface {
	// IsGitRepo reports whether the executor's working directory is inside
	// a git repository.
	IsGitRepo() bool

	// GetRepoRoot returns the repository's top-level directory.
	GetRepoRoot() (string, error)

	// GetCurrentBranch returns the checked-out branch name, or
	// ErrDetachedHead when HEAD is not on a branch.
	GetCurrentBranch() (string, error)

	// GetMainBranch resolves the repository's primary branch name
	// (config, remote HEAD, then main/master existence, then "main").
	GetMainBranch() (string, error)

	// BranchExists reports whether a local branch of that name exists.
	BranchExists(name string) bool

	// CheckoutWorktree adds a worktree at path on an existing branch.
	CheckoutWorktree(path, branch string) error

	// CheckoutWorktreeNewBranch adds a worktree at path, creating branch
	// from base. An empty base starts the branch from current HEAD.
	CheckoutWorktreeNewBranch(path, branch, base string) error

	// RemoveWorktree force-removes the worktree at path.
	RemoveWorktree(path string) error

	// PruneWorktrees drops stale worktree metadata.
	PruneWorktrees() error

	// ListWorktrees returns every worktree the repository knows about,
	// including the main checkout.
	ListWorktrees() ([]WorktreeInfo, error)

	// DetermineWorktreePath picks the path for a new agent worktree. The
	// path is derived from agentID alone; whether it already exists is not
	// checked.
	DetermineWorktreePath(agentID string) (string, error)

	// HeadCommit returns the full SHA of HEAD in the given worktree.
	HeadCommit(worktreePath string) (string, error)

	// CommitAll stages every change in the given worktree and commits with
	// message. A clean working tree is not an error.
	CommitAll(worktreePath, message string) error
}
