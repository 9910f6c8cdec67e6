package document

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ChangeKind says on which side a differing path lives.
type ChangeKind string

const (
	// Added paths exist only on the right-hand document.
	Added ChangeKind = "added"
	// Removed paths exist only on the left-hand document.
	Removed ChangeKind = "removed"
	// Modified paths exist on both sides with different values.
	Modified ChangeKind = "modified"
)

// Change is one differing path between two documents.
type Change struct {
	Path []string
	Kind ChangeKind
}

// Root returns the top-level key the change lives under.
func (c Change) Root() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[0]
}

// String renders the change as "a.b.c (kind)".
func (c Change) String() string {
	return strings.Join(c.Path, ".") + " (" + string(c.Kind) + ")"
}

// Diff computes the recursive associative difference between left and right.
// A path differs when it exists on only one side or when the scalar values
// differ. Mappings are compared key by key and sequences index by index, so
// a single changed leaf yields a single change rather than a whole-value
// mismatch at the top level. The result is sorted by path.
func Diff(left, right Document) []Change {
	var changes []Change
	diffMaps(nil, map[string]any(left), map[string]any(right), &changes)
	sort.SliceStable(changes, func(i, j int) bool {
		return comparePaths(changes[i].Path, changes[j].Path) < 0
	})
	return changes
}

// RootKeys returns the sorted, deduplicated top-level keys touched by changes.
func RootKeys(changes []Change) []string {
	seen := make(map[string]struct{}, len(changes))
	keys := make([]string, 0, len(changes))
	for _, c := range changes {
		root := c.Root()
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		keys = append(keys, root)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two documents have no differing path.
func Equal(left, right Document) bool {
	return len(Diff(left, right)) == 0
}

func diffMaps(prefix []string, left, right map[string]any, out *[]Change) {
	for k, lv := range left {
		path := appendPath(prefix, k)
		rv, ok := right[k]
		if !ok {
			*out = append(*out, Change{Path: path, Kind: Removed})
			continue
		}
		diffValues(path, lv, rv, out)
	}
	for k := range right {
		if _, ok := left[k]; !ok {
			*out = append(*out, Change{Path: appendPath(prefix, k), Kind: Added})
		}
	}
}

func diffSequences(prefix []string, left, right []any, out *[]Change) {
	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		path := appendPath(prefix, strconv.Itoa(i))
		switch {
		case i >= len(left):
			*out = append(*out, Change{Path: path, Kind: Added})
		case i >= len(right):
			*out = append(*out, Change{Path: path, Kind: Removed})
		default:
			diffValues(path, left[i], right[i], out)
		}
	}
}

func diffValues(path []string, left, right any, out *[]Change) {
	lm, lok := left.(map[string]any)
	rm, rok := right.(map[string]any)
	if lok && rok {
		diffMaps(path, lm, rm, out)
		return
	}
	ls, lsok := left.([]any)
	rs, rsok := right.([]any)
	if lsok && rsok {
		diffSequences(path, ls, rs, out)
		return
	}
	if !scalarsEqual(left, right) {
		*out = append(*out, Change{Path: path, Kind: Modified})
	}
}

func scalarsEqual(a, b any) bool {
	if equal, ok := integersEqual(a, b); ok {
		return equal
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return numbersEqual(af, bf)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func appendPath(prefix []string, seg string) []string {
	path := make([]string, len(prefix)+1)
	copy(path, prefix)
	path[len(prefix)] = seg
	return path
}

func comparePaths(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
