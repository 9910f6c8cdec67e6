package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/splitmerge/pkg/document"
	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// DefaultPrefix is the file name prefix of split manifests.
const DefaultPrefix = "config_split.config_split"

// Store reads and writes split manifests kept in the default tree as
// <dir>/<prefix>.<tree><ext>.
type Store struct {
	fs            billy.Filesystem
	dir           string
	prefix        string
	extension     string
	codec         document.Codec
	createMissing bool
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets the manifest file name prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		prefix = strings.Trim(prefix, ".")
		if prefix == "" {
			return errors.New("manifest prefix cannot be empty")
		}
		s.prefix = prefix
		return nil
	}
}

// WithExtension sets the manifest file extension and codec.
func WithExtension(ext string) Option {
	return func(s *Store) error {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		codec, err := document.CodecFor(ext)
		if err != nil {
			return err
		}
		s.extension = ext
		s.codec = codec
		return nil
	}
}

// WithCreateMissing lets Load synthesize a manifest for trees that have none.
func WithCreateMissing(enabled bool) Option {
	return func(s *Store) error {
		s.createMissing = enabled
		return nil
	}
}

// NewStore returns a store for manifests in dir (the default tree).
func NewStore(fs billy.Filesystem, dir string, opts ...Option) (*Store, error) {
	s := &Store{
		fs:        fs,
		dir:       dir,
		prefix:    DefaultPrefix,
		extension: ".yml",
		codec:     document.YAMLCodec{Indent: 2},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns where the manifest for tree lives.
func (s *Store) Path(tree string) string {
	return s.fs.Join(s.dir, s.prefix+"."+tree+s.extension)
}

// ItemName returns the configuration name of tree's manifest, which is how
// the manifest shows up when the default tree is listed.
func (s *Store) ItemName(tree string) string {
	return s.prefix + "." + tree
}

// Load reads the manifest of tree. A missing file is a MissingManifestError
// unless the store was built WithCreateMissing.
func (s *Store) Load(tree string) (*Manifest, error) {
	path := s.Path(tree)
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read split manifest %s: %w", path, err)
		}
		if !s.createMissing {
			return nil, &MissingManifestError{Tree: tree, Path: path}
		}
		logger.Info("Creating split manifest", logger.String("tree", tree), logger.String("path", path))
		return New(tree, document.Document{"id": tree, "label": tree}), nil
	}

	doc, err := s.codec.Decode(data)
	if err != nil {
		return nil, &InvalidManifestError{Tree: tree, Err: err}
	}
	return FromDocument(tree, doc)
}

// Save writes the manifest.
func (s *Store) Save(m *Manifest) error {
	data, err := s.codec.Encode(m.Document())
	if err != nil {
		return fmt.Errorf("encode split manifest for %q: %w", m.Tree, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}
	path := s.Path(m.Tree)
	if err := util.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write split manifest %s: %w", path, err)
	}
	return nil
}

// Result describes one manifest update.
type Result struct {
	Tree     string
	Path     string
	Manifest *Manifest
	// Added holds the names that were not members before this update.
	Added   Delta
	Changed bool
	Written bool
}

// Apply loads the manifest of tree, merges delta into it and saves the result
// unless dryRun is set or nothing was added. The computed manifest is
// returned in both cases.
func (s *Store) Apply(tree string, delta Delta, dryRun bool) (*Result, error) {
	existing, err := s.Load(tree)
	if err != nil {
		return nil, err
	}

	updated, changed := Update(existing, delta)
	res := &Result{
		Tree:     tree,
		Path:     s.Path(tree),
		Manifest: updated,
		Changed:  changed,
		Added: Delta{
			Blacklist: current(existing.Blacklist).Missing(delta.Blacklist...),
			Graylist:  current(existing.Graylist).Missing(delta.Graylist...),
		},
	}

	if !changed || dryRun {
		logger.Debug("Split manifest not written",
			logger.String("tree", tree), logger.Bool("changed", changed), logger.Bool("dry_run", dryRun))
		return res, nil
	}
	if err := s.Save(updated); err != nil {
		return nil, err
	}
	res.Written = true
	logger.Info("Split manifest updated",
		logger.String("tree", tree),
		logger.Strings("blacklist_added", res.Added.Blacklist),
		logger.Strings("graylist_added", res.Added.Graylist))
	return res, nil
}

func current(s *NameSet) NameSet {
	if s == nil {
		return nil
	}
	return NewNameSet(*s...)
}
