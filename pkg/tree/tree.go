// Package tree reads configuration trees: named directories below a
// configuration root that hold one item file per configuration name.
package tree

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/splitmerge/pkg/document"
	"github.com/fulmenhq/splitmerge/pkg/ignore"
	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sahilm/fuzzy"
)

// Role is the part a tree plays in a reconciliation run.
type Role string

const (
	RoleParent  Role = "parent"
	RoleSibling Role = "sibling"
	RoleDefault Role = "default"
)

const maxSuggestions = 3

// Snapshot is the item listing of one tree taken at a single point in time.
// Later file operations do not change it.
type Snapshot struct {
	Name string
	Role Role
	// Missing is only ever true for the default role; the directory is
	// created by the first copy into it.
	Missing bool

	items map[string]string
}

// Names returns the item names in ascending order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the tree holds an item with this name.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// Path returns the item's file path relative to the configuration root.
func (s *Snapshot) Path(name string) string {
	return s.items[name]
}

// Len returns the number of items.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Reader lists and decodes trees on a filesystem rooted at the configuration root.
type Reader struct {
	fs        billy.Filesystem
	extension string
	ignore    []string
	matcher   *ignore.Matcher
	codec     document.Codec
}

// NewReader builds a reader for items with the given extension (e.g. ".yml").
// Item file names matching any ignore pattern (doublestar syntax) are skipped.
func NewReader(fs billy.Filesystem, extension string, ignore []string) (*Reader, error) {
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	codec, err := document.CodecFor(extension)
	if err != nil {
		return nil, err
	}
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return &Reader{fs: fs, extension: extension, ignore: ignore, codec: codec}, nil
}

// UseIgnoreFile adds the patterns of an ignore file on top of the
// reader's own ignore patterns.
func (r *Reader) UseIgnoreFile(m *ignore.Matcher) {
	r.matcher = m
}

// FS returns the underlying filesystem.
func (r *Reader) FS() billy.Filesystem { return r.fs }

// Extension returns the item file extension including the leading dot.
func (r *Reader) Extension() string { return r.extension }

// Codec returns the codec used for items.
func (r *Reader) Codec() document.Codec { return r.codec }

// ItemPath returns where an item named name lives in tree.
func (r *Reader) ItemPath(tree, name string) string {
	return r.fs.Join(tree, name+r.extension)
}

// Snapshot lists the items of a tree. A missing parent or sibling tree is a
// MissingTreeError; a missing default tree yields an empty snapshot.
func (r *Reader) Snapshot(name string, role Role) (*Snapshot, error) {
	snap := &Snapshot{Name: name, Role: role, items: make(map[string]string)}

	info, err := r.fs.Stat(name)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s tree %q: %w", role, name, err)
		}
		if role == RoleDefault {
			logger.Debug("Default tree does not exist yet", logger.String("tree", name))
			snap.Missing = true
			return snap, nil
		}
		return nil, &MissingTreeError{
			Name:        name,
			Role:        role,
			Path:        r.fs.Join(r.fs.Root(), name),
			Suggestions: r.suggest(name),
		}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s tree %q is not a directory", role, name)
	}

	entries, err := r.fs.ReadDir(name)
	if err != nil {
		return nil, fmt.Errorf("list %s tree %q: %w", role, name, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), r.extension) {
			continue
		}
		if r.ignored(name, entry.Name()) {
			logger.Trace("Ignoring item", logger.String("tree", name), logger.String("file", entry.Name()))
			continue
		}
		item := strings.TrimSuffix(entry.Name(), r.extension)
		if item == "" {
			continue
		}
		snap.items[item] = r.fs.Join(name, entry.Name())
	}

	logger.Debug("Snapshot taken", logger.String("tree", name), logger.String("role", string(role)), logger.Int("items", snap.Len()))
	return snap, nil
}

// Load reads and decodes one item of a snapshot.
func (r *Reader) Load(s *Snapshot, name string) (document.Document, error) {
	p, ok := s.items[name]
	if !ok {
		return nil, fmt.Errorf("item %q not in %s tree %q", name, s.Role, s.Name)
	}
	data, err := util.ReadFile(r.fs, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	doc, err := r.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return doc, nil
}

// Trees lists the directories directly below the configuration root.
func (r *Reader) Trees() ([]string, error) {
	entries, err := r.fs.ReadDir("/")
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") && !r.matcher.IsIgnoredTree(e.Name()) {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (r *Reader) ignored(tree, file string) bool {
	if r.matcher.IsIgnored(tree, file) {
		return true
	}
	for _, pattern := range r.ignore {
		if ok, _ := doublestar.Match(pattern, file); ok {
			return true
		}
	}
	return false
}

func (r *Reader) suggest(name string) []string {
	dirs, err := r.Trees()
	if err != nil || len(dirs) == 0 {
		return nil
	}
	var out []string
	for _, m := range fuzzy.Find(name, dirs) {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
