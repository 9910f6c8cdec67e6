// Package splitmerge runs one complete reconciliation: it snapshots the
// trees, classifies every item, updates split manifests, executes the file
// plan and hands back the identity corrections.
package splitmerge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/splitmerge/pkg/config"
	"github.com/fulmenhq/splitmerge/pkg/ignore"
	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/fulmenhq/splitmerge/pkg/manifest"
	"github.com/fulmenhq/splitmerge/pkg/plan"
	"github.com/fulmenhq/splitmerge/pkg/reconcile"
	"github.com/fulmenhq/splitmerge/pkg/tree"
	"github.com/go-git/go-billy/v5"
)

// ErrInvalidTrees is returned when the requested tree names cannot form a run.
var ErrInvalidTrees = errors.New("invalid tree selection")

// Options describes one run.
type Options struct {
	// FS is rooted at the configuration root.
	FS       billy.Filesystem
	Settings *config.Settings
	Parent   string
	// Siblings holds sibling names or comma separated name lists.
	Siblings        []string
	DryRun          bool
	CreateManifests bool
}

// Outcome is everything a run decided and did.
type Outcome struct {
	Parent   string
	Siblings []string
	Default  string
	DryRun   bool

	Result      *reconcile.Result
	Manifests   []*manifest.Result
	Corrections []reconcile.Correction
	// Execution is nil for dry runs.
	Execution *plan.Result
}

// Run executes a reconciliation. When file operations fail the outcome is
// returned together with the joined operation errors.
func Run(opts Options) (*Outcome, error) {
	if opts.FS == nil {
		return nil, errors.New("splitmerge: filesystem is required")
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.Defaults()
	}

	parent, siblings, def, err := SelectTrees(opts.Parent, opts.Siblings, settings.DefaultTree)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Parent: parent, Siblings: siblings, Default: def, DryRun: opts.DryRun}

	reader, err := tree.NewReader(opts.FS, settings.Extension, settings.Ignore)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	matcher, err := ignore.Load(opts.FS)
	if err != nil {
		return nil, err
	}
	if patterns := matcher.Patterns(); len(patterns) > 0 {
		logger.Debug("Using ignore file", logger.String("file", ignore.FileName), logger.Strings("patterns", patterns))
	}
	reader.UseIgnoreFile(matcher)
	store, err := manifest.NewStore(opts.FS, def,
		manifest.WithPrefix(settings.Manifest.Prefix),
		manifest.WithExtension(settings.Extension),
		manifest.WithCreateMissing(opts.CreateManifests || settings.Manifest.CreateMissing),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	rec, err := reconcile.New(reader, reconcile.WithIdentityKey(settings.IdentityKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}

	// Every tree is listed once, before anything is decided or written.
	parentSnap, err := reader.Snapshot(parent, tree.RoleParent)
	if err != nil {
		return nil, err
	}
	siblingSnaps := make([]*tree.Snapshot, 0, len(siblings))
	for _, name := range siblings {
		snap, err := reader.Snapshot(name, tree.RoleSibling)
		if err != nil {
			return nil, err
		}
		siblingSnaps = append(siblingSnaps, snap)
	}
	defSnap, err := reader.Snapshot(def, tree.RoleDefault)
	if err != nil {
		return nil, err
	}

	if len(siblingSnaps) == 0 {
		logger.Warn("No sibling trees given; nothing to reconcile", logger.String("parent", parent))
	}

	res, err := rec.Run(parentSnap, siblingSnaps, defSnap)
	if err != nil {
		return nil, err
	}
	out.Result = res
	out.Corrections = res.SortedCorrections()

	logger.Info("Classification complete",
		logger.String("parent", parent),
		logger.Strings("siblings", siblings),
		logger.Int("copies", len(res.Plan.Copies)),
		logger.Int("deletes", len(res.Plan.Deletes)),
		logger.Int("corrections", len(out.Corrections)))

	// Manifests go first: a missing manifest must stop the run before any
	// item file moves.
	for _, t := range res.Trees() {
		mr, err := store.Apply(t, res.Delta(t), opts.DryRun)
		if err != nil {
			return nil, err
		}
		out.Manifests = append(out.Manifests, mr)
	}

	if opts.DryRun {
		logger.Info("Dry run; file plan not executed", logger.Int("operations", res.Plan.Len()))
		return out, nil
	}

	out.Execution = plan.NewExecutor(opts.FS).Execute(res.Plan)
	if err := out.Execution.Err(); err != nil {
		logger.Error("File plan finished with failures",
			logger.Int("failed", len(out.Execution.Errors)),
			logger.Int("copied", out.Execution.Copied),
			logger.Int("deleted", out.Execution.Deleted))
		return out, err
	}
	logger.Info("File plan executed",
		logger.Int("copied", out.Execution.Copied),
		logger.Int("deleted", out.Execution.Deleted))
	return out, nil
}

// SelectTrees cleans the tree names of a run and rejects selections that
// would compare a tree with itself or reconcile into a source. Sibling names
// are case-folded; parent and default names keep their case. Names that
// differ only in case count as the same tree, since they may share a
// directory on case-insensitive filesystems.
func SelectTrees(parent string, siblings []string, def string) (string, []string, string, error) {
	p, err := tree.CleanName(parent)
	if err != nil {
		return "", nil, "", fmt.Errorf("%w: parent %v", ErrInvalidTrees, err)
	}
	d, err := tree.CleanName(def)
	if err != nil {
		return "", nil, "", fmt.Errorf("%w: default %v", ErrInvalidTrees, err)
	}
	if strings.EqualFold(p, d) {
		return "", nil, "", fmt.Errorf("%w: parent %q is the default tree", ErrInvalidTrees, p)
	}
	names, err := tree.NormalizeList(siblings)
	if err != nil {
		return "", nil, "", fmt.Errorf("%w: sibling %v", ErrInvalidTrees, err)
	}
	for _, s := range names {
		switch {
		case strings.EqualFold(s, p):
			return "", nil, "", fmt.Errorf("%w: sibling %q is the parent tree", ErrInvalidTrees, s)
		case strings.EqualFold(s, d):
			return "", nil, "", fmt.Errorf("%w: sibling %q is the default tree", ErrInvalidTrees, s)
		}
	}
	return p, names, d, nil
}
