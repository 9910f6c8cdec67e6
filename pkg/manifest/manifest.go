// Package manifest models split manifests: the per-tree documents that record
// which configuration items a tree excludes (blacklist) or partially
// overrides (graylist) relative to the default tree.
package manifest

import (
	"fmt"
	"sort"

	"github.com/fulmenhq/splitmerge/pkg/document"
)

const (
	blacklistKey = "blacklist"
	graylistKey  = "graylist"
)

// NameSet is an ascending, duplicate-free list of item names.
type NameSet []string

// NewNameSet builds a NameSet from arbitrary input.
func NewNameSet(names ...string) NameSet {
	return NameSet(nil).Union(names...)
}

// Union returns the sorted, deduplicated union of s and names. s is not modified.
func (s NameSet) Union(names ...string) NameSet {
	seen := make(map[string]struct{}, len(s)+len(names))
	out := make(NameSet, 0, len(s)+len(names))
	for _, group := range [][]string{s, names} {
		for _, n := range group {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Contains reports whether name is a member.
func (s NameSet) Contains(name string) bool {
	i := sort.SearchStrings(s, name)
	return i < len(s) && s[i] == name
}

// Missing returns the names not yet in s, sorted and deduplicated.
func (s NameSet) Missing(names ...string) NameSet {
	var out NameSet
	for _, n := range NewNameSet(names...) {
		if !s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Manifest is a tree's split manifest. A nil Blacklist or Graylist means the
// field is absent from the stored document; a non-nil empty set means it is
// present and empty. All other fields are carried through untouched.
type Manifest struct {
	Tree      string
	Blacklist *NameSet
	Graylist  *NameSet

	fields document.Document
}

// New returns a manifest with the given non-list fields.
func New(tree string, fields document.Document) *Manifest {
	return &Manifest{Tree: tree, fields: fields.Clone()}
}

// Field returns a non-list field.
func (m *Manifest) Field(key string) (any, bool) {
	return m.fields.Get(key)
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{Tree: m.Tree, fields: m.fields.Clone()}
	if m.Blacklist != nil {
		bl := append(NameSet(nil), *m.Blacklist...)
		out.Blacklist = &bl
	}
	if m.Graylist != nil {
		gl := append(NameSet(nil), *m.Graylist...)
		out.Graylist = &gl
	}
	return out
}

// FromDocument splits a decoded manifest into its list fields and the rest.
// Existing list order is kept as stored; only Update re-sorts.
func FromDocument(tree string, doc document.Document) (*Manifest, error) {
	m := &Manifest{Tree: tree, fields: document.Document{}}
	for k, v := range doc {
		switch k {
		case blacklistKey, graylistKey:
			set, err := toNameSet(v)
			if err != nil {
				return nil, &InvalidManifestError{Tree: tree, Field: k, Err: err}
			}
			if k == blacklistKey {
				m.Blacklist = &set
			} else {
				m.Graylist = &set
			}
		default:
			m.fields[k] = v
		}
	}
	return m, nil
}

// Document reassembles the manifest for encoding.
func (m *Manifest) Document() document.Document {
	doc := m.fields.Clone()
	if doc == nil {
		doc = document.Document{}
	}
	if m.Blacklist != nil {
		doc[blacklistKey] = toSequence(*m.Blacklist)
	}
	if m.Graylist != nil {
		doc[graylistKey] = toSequence(*m.Graylist)
	}
	return doc
}

func toNameSet(v any) (NameSet, error) {
	if v == nil {
		return NameSet{}, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a sequence, got %T", v)
	}
	out := make(NameSet, 0, len(seq))
	for i, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected a string, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func toSequence(s NameSet) []any {
	out := make([]any, len(s))
	for i, n := range s {
		out[i] = n
	}
	return out
}
