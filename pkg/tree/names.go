package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fulmenhq/splitmerge/pkg/safeio"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName trims and case-folds a tree name and rejects anything that is
// not a single directory below the configuration root.
func NormalizeName(name string) (string, error) {
	folded := cases.Lower(language.Und).String(strings.TrimSpace(name))
	clean, err := safeio.CleanTreeName(folded)
	if err != nil {
		return "", fmt.Errorf("tree name %q: %w", name, err)
	}
	return clean, nil
}

// CleanName trims a parent or default tree name and rejects anything that is
// not a single directory below the configuration root. Case is kept.
func CleanName(name string) (string, error) {
	clean, err := safeio.CleanTreeName(strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("tree name %q: %w", name, err)
	}
	return clean, nil
}

// NormalizeNames parses a comma separated tree list. Entries are trimmed and
// case-folded, empty entries are dropped, and the result is deduplicated and
// sorted so processing order never depends on how the caller spelled the list.
func NormalizeNames(list string) ([]string, error) {
	return NormalizeList(strings.Split(list, ","))
}

// NormalizeList applies NormalizeNames to names that were already split,
// e.g. from repeated flags. Entries may still contain commas.
func NormalizeList(names []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(names))
	for _, raw := range names {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			name, err := NormalizeName(part)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
