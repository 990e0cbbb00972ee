package ports

// WorktreeWatcher tracks session worktrees on disk
type WorktreeWatcher interface {
	Unwatch(path string)
	Watch(path string) error
}
