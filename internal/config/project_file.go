package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFileName is the optional per-repository defaults file
const ProjectFileName = ".grove.toml"

// ProjectFile holds defaults a repository can declare for itself
type ProjectFile struct {
	BaseBranch     string `toml:"base_branch"`
	BuildScript    string `toml:"build_script"`
	IDECommand     string `toml:"ide_command"`
	RunScript      string `toml:"run_script"`
	WorktreeFolder string `toml:"worktree_folder"`
}

// LoadProjectFile reads <repoPath>/.grove.toml.
// Returns an empty ProjectFile when the file does not exist.
func LoadProjectFile(repoPath string) (*ProjectFile, error) {
	path := filepath.Join(repoPath, ProjectFileName)

	var pf ProjectFile
	meta, err := toml.DecodeFile(path, &pf)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ProjectFile{}, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	return &pf, nil
}
