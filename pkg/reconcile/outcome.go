package reconcile

import (
	"github.com/fulmenhq/splitmerge/pkg/document"
)

// Outcome is the classification of one item for one (parent, sibling) pair.
type Outcome int

const (
	// Identical items exist in both trees with no differing path.
	Identical Outcome = iota
	// IdentityOnly items differ in nothing but the identity field.
	IdentityOnly
	// Divergent items differ in at least one non-identity field.
	Divergent
	// ParentOnly items exist in the parent only and are not in default.
	ParentOnly
	// SiblingOnly items exist in the sibling only and are not in default.
	SiblingOnly
	// Settled items are missing from the parent or the sibling but already
	// live in default. They need no action.
	Settled
)

// Outcomes lists every outcome in display order.
var Outcomes = []Outcome{Identical, IdentityOnly, Divergent, ParentOnly, SiblingOnly, Settled}

func (o Outcome) String() string {
	switch o {
	case Identical:
		return "identical"
	case IdentityOnly:
		return "identity-only"
	case Divergent:
		return "divergent"
	case ParentOnly:
		return "parent-only"
	case SiblingOnly:
		return "sibling-only"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// MarshalText lets outcomes appear by name in JSON and YAML output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Classify maps the diff of an item present in both trees to an outcome.
// The identity field only counts as harmless when it is the single
// top-level key that differs.
func Classify(changes []document.Change, identityKey string) Outcome {
	if len(changes) == 0 {
		return Identical
	}
	roots := document.RootKeys(changes)
	if len(roots) == 1 && roots[0] == identityKey {
		return IdentityOnly
	}
	return Divergent
}

// Classification records the outcome for one item and one sibling.
type Classification struct {
	Name    string            `json:"name"`
	Sibling string            `json:"sibling"`
	Outcome Outcome           `json:"outcome"`
	Changes []document.Change `json:"-"`
}
