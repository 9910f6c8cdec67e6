package reconcile

import (
	"sort"

	"github.com/fulmenhq/splitmerge/pkg/manifest"
	"github.com/fulmenhq/splitmerge/pkg/plan"
)

// Correction is an identity value that must be written back for an item
// once the parent's copy has become canonical.
type Correction struct {
	Name     string `json:"name"`
	Identity string `json:"identity"`
}

// Result accumulates everything a reconciliation decides. Each sibling
// comparison produces its own Result; Merge folds them together.
type Result struct {
	Classifications []Classification
	Plan            *plan.Plan
	// Blacklist and Graylist map a tree name to the names it must record.
	// Entries may repeat until Delta deduplicates them.
	Blacklist   map[string][]string
	Graylist    map[string][]string
	Corrections map[string]string
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{
		Plan:        plan.New(),
		Blacklist:   make(map[string][]string),
		Graylist:    make(map[string][]string),
		Corrections: make(map[string]string),
	}
}

func (r *Result) classify(name, sibling string, outcome Outcome, c Classification) {
	c.Name = name
	c.Sibling = sibling
	c.Outcome = outcome
	r.Classifications = append(r.Classifications, c)
}

// Merge folds other into r. Plans keep first-seen order, deltas are appended
// and corrections unioned.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Classifications = append(r.Classifications, other.Classifications...)
	r.Plan.Merge(other.Plan)
	for t, names := range other.Blacklist {
		r.Blacklist[t] = append(r.Blacklist[t], names...)
	}
	for t, names := range other.Graylist {
		r.Graylist[t] = append(r.Graylist[t], names...)
	}
	for name, identity := range other.Corrections {
		r.Corrections[name] = identity
	}
}

// Delta returns the deduplicated, sorted membership tree accumulated.
func (r *Result) Delta(tree string) manifest.Delta {
	var d manifest.Delta
	if names := r.Blacklist[tree]; len(names) > 0 {
		d.Blacklist = manifest.NewNameSet(names...)
	}
	if names := r.Graylist[tree]; len(names) > 0 {
		d.Graylist = manifest.NewNameSet(names...)
	}
	return d
}

// Trees returns, sorted, every tree that accumulated any membership.
func (r *Result) Trees() []string {
	seen := make(map[string]struct{})
	for _, m := range []map[string][]string{r.Blacklist, r.Graylist} {
		for t, names := range m {
			if len(names) > 0 {
				seen[t] = struct{}{}
			}
		}
	}
	trees := make([]string, 0, len(seen))
	for t := range seen {
		trees = append(trees, t)
	}
	sort.Strings(trees)
	return trees
}

// SortedCorrections returns the corrections ordered by item name.
func (r *Result) SortedCorrections() []Correction {
	out := make([]Correction, 0, len(r.Corrections))
	for name, identity := range r.Corrections {
		out = append(out, Correction{Name: name, Identity: identity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns how many classifications have the given outcome.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, c := range r.Classifications {
		if c.Outcome == o {
			n++
		}
	}
	return n
}

// Lookup returns the classification of name against sibling.
func (r *Result) Lookup(name, sibling string) (Classification, bool) {
	for _, c := range r.Classifications {
		if c.Name == name && c.Sibling == sibling {
			return c, true
		}
	}
	return Classification{}, false
}
