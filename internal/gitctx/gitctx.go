package gitctx

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// RepoContext captures a minimal view of the repository holding a
// configuration root.
type RepoContext struct {
	// Root is the repository work tree root.
	Root   string `json:"root"`
	Branch string `json:"branch,omitempty"`
	GitSHA string `json:"git_sha,omitempty"`
	// Dirty lists uncommitted paths below the inspected directory, relative
	// to it, using forward slashes.
	Dirty []string `json:"dirty,omitempty"`
}

// Inspect opens the repository enclosing dir. Returns nil without error when
// dir is not inside a git repository.
func Inspect(dir string) (*RepoContext, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree to protect.
		return nil, nil
	}
	ctx := &RepoContext{Root: wt.Filesystem.Root()}

	// A fresh repository has no HEAD yet.
	if head, err := repo.Head(); err == nil {
		ctx.Branch = head.Name().Short()
		ctx.GitSHA = head.Hash().String()
	}

	st, err := wt.Status()
	if err != nil {
		return nil, err
	}
	prefix, err := filepath.Rel(ctx.Root, abs)
	if err != nil {
		return nil, err
	}
	prefix = filepath.ToSlash(prefix)

	for path, s := range st {
		// Consider both staged and unstaged changes
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		path = filepath.ToSlash(path)
		if prefix != "." {
			if !strings.HasPrefix(path, prefix+"/") {
				continue
			}
			path = strings.TrimPrefix(path, prefix+"/")
		}
		ctx.Dirty = append(ctx.Dirty, path)
	}
	sort.Strings(ctx.Dirty)
	return ctx, nil
}

// DirtyIn returns the uncommitted paths that live in any of the named
// top-level directories.
func (c *RepoContext) DirtyIn(dirs ...string) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, p := range c.Dirty {
		for _, d := range dirs {
			if strings.HasPrefix(p, d+"/") {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Scope buckets the number of uncommitted paths.
func (c *RepoContext) Scope() string {
	if c == nil {
		return "none"
	}
	return classifyByFileCount(len(c.Dirty))
}

func classifyByFileCount(n int) string {
	switch {
	case n == 0:
		return "none"
	case n <= 5:
		return "small"
	case n <= 20:
		return "medium"
	default:
		return "large"
	}
}
