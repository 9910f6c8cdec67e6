// Package ignore provides gitignore-style item filtering for configuration trees
package ignore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the ignore file read from the configuration root.
const FileName = ".splitmergeignore"

// Matcher filters tree items using gitignore patterns
type Matcher struct {
	matcher  gitignore.Matcher
	patterns []string
}

// New builds a matcher from gitignore pattern lines. Blank lines and
// comments are skipped.
func New(lines []string) *Matcher {
	m := &Matcher{}
	var parsed []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
		parsed = append(parsed, gitignore.ParsePattern(line, nil))
	}
	m.matcher = gitignore.NewMatcher(parsed)
	return m
}

// Load reads FileName from the root of fs. A missing file yields an empty
// matcher.
func Load(fs billy.Filesystem) (*Matcher, error) {
	data, err := util.ReadFile(fs, FileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	return New(strings.Split(string(data), "\n")), nil
}

// Patterns returns the active pattern lines in file order.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.patterns...)
}

// IsIgnored reports whether file inside tree is excluded. Patterns see the
// path relative to the configuration root, so "child1/*.tmp.yml" and
// "system.*.yml" both work.
func (m *Matcher) IsIgnored(tree, file string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	return m.matcher.Match(splitPath(tree+"/"+file), false)
}

// IsIgnoredTree reports whether a whole tree directory is excluded.
func (m *Matcher) IsIgnoredTree(tree string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	return m.matcher.Match(splitPath(tree), true)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
