// Package reconcile classifies configuration items across a parent tree and
// its sibling trees and turns the classification into a file plan, split
// manifest membership and identity corrections.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fulmenhq/splitmerge/pkg/document"
	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/fulmenhq/splitmerge/pkg/tree"
)

// DefaultIdentityKey is the field that legitimately differs between trees.
const DefaultIdentityKey = "uuid"

// Reconciler compares snapshots. It holds no per-run state, so one value can
// serve any number of runs.
type Reconciler struct {
	reader      *tree.Reader
	identityKey string
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithIdentityKey sets the identity field name.
func WithIdentityKey(key string) Option {
	return func(r *Reconciler) error {
		if key == "" {
			return errors.New("identity key cannot be empty")
		}
		r.identityKey = key
		return nil
	}
}

// New returns a Reconciler that decodes items through reader.
func New(reader *tree.Reader, opts ...Option) (*Reconciler, error) {
	if reader == nil {
		return nil, errors.New("reconcile: reader is required")
	}
	r := &Reconciler{reader: reader, identityKey: DefaultIdentityKey}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// IdentityKey returns the configured identity field.
func (r *Reconciler) IdentityKey() string { return r.identityKey }

// Run compares parent against every sibling, in ascending name order, and
// merges the per-sibling results. Every sibling sees the same parent
// snapshot; nothing is written to disk.
func (r *Reconciler) Run(parent *tree.Snapshot, siblings []*tree.Snapshot, def *tree.Snapshot) (*Result, error) {
	ordered := append([]*tree.Snapshot(nil), siblings...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	total := NewResult()
	for _, sibling := range ordered {
		res, err := r.Compare(parent, sibling, def)
		if err != nil {
			return nil, err
		}
		total.Merge(res)
	}
	return total, nil
}

// Compare classifies every item of one (parent, sibling) pair. Each name in
// parent ∪ sibling ∪ default receives exactly one classification.
func (r *Reconciler) Compare(parent, sibling, def *tree.Snapshot) (*Result, error) {
	res := NewResult()

	for _, name := range parent.Names() {
		if !sibling.Has(name) {
			if def.Has(name) {
				res.classify(name, sibling.Name, Settled, Classification{})
				continue
			}
			res.classify(name, sibling.Name, ParentOnly, Classification{})
			res.Blacklist[parent.Name] = append(res.Blacklist[parent.Name], name)
			continue
		}

		parentDoc, err := r.reader.Load(parent, name)
		if err != nil {
			return nil, err
		}
		siblingDoc, err := r.reader.Load(sibling, name)
		if err != nil {
			return nil, err
		}

		changes := document.Diff(parentDoc, siblingDoc)
		outcome := Classify(changes, r.identityKey)
		res.classify(name, sibling.Name, outcome, Classification{Changes: changes})

		if err := r.queueCanonicalCopy(res, parent, def, name, parentDoc); err != nil {
			return nil, err
		}

		switch outcome {
		case Identical, IdentityOnly:
			res.Plan.Delete(parent.Path(name))
			res.Plan.Delete(sibling.Path(name))
			if outcome == IdentityOnly {
				r.recordCorrection(res, name, parentDoc)
			}
		case Divergent:
			res.Graylist[parent.Name] = append(res.Graylist[parent.Name], name)
			res.Graylist[sibling.Name] = append(res.Graylist[sibling.Name], name)
		}

		logger.Trace("Classified item",
			logger.String("item", name),
			logger.String("sibling", sibling.Name),
			logger.String("outcome", outcome.String()),
			logger.Int("changes", len(changes)))
	}

	for _, name := range sibling.Names() {
		if parent.Has(name) {
			continue
		}
		if def.Has(name) {
			res.classify(name, sibling.Name, Settled, Classification{})
			continue
		}
		res.classify(name, sibling.Name, SiblingOnly, Classification{})
		res.Blacklist[sibling.Name] = append(res.Blacklist[sibling.Name], name)
	}

	for _, name := range def.Names() {
		if !parent.Has(name) && !sibling.Has(name) {
			res.classify(name, sibling.Name, Settled, Classification{})
		}
	}

	logger.Debug("Compared trees",
		logger.String("parent", parent.Name),
		logger.String("sibling", sibling.Name),
		logger.Int("identical", res.Count(Identical)),
		logger.Int("identity_only", res.Count(IdentityOnly)),
		logger.Int("divergent", res.Count(Divergent)),
		logger.Int("parent_only", res.Count(ParentOnly)),
		logger.Int("sibling_only", res.Count(SiblingOnly)))
	return res, nil
}

// queueCanonicalCopy plans parent → default unless default already holds an
// equal document.
func (r *Reconciler) queueCanonicalCopy(res *Result, parent, def *tree.Snapshot, name string, parentDoc document.Document) error {
	if def.Has(name) {
		defaultDoc, err := r.reader.Load(def, name)
		if err != nil {
			return err
		}
		if document.Equal(parentDoc, defaultDoc) {
			logger.Trace("Default already canonical", logger.String("item", name))
			return nil
		}
	}
	res.Plan.Copy(parent.Path(name), r.reader.ItemPath(def.Name, name))
	return nil
}

func (r *Reconciler) recordCorrection(res *Result, name string, parentDoc document.Document) {
	v, ok := parentDoc.Get(r.identityKey)
	if !ok || v == nil {
		logger.Debug("Parent copy has no identity to restore", logger.String("item", name))
		return
	}
	res.Corrections[name] = fmt.Sprint(v)
}
