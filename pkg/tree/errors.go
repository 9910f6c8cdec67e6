package tree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTree matches every MissingTreeError.
	ErrMissingTree = errors.New("tree not found")

	// ErrMissingParentTree matches a MissingTreeError for the parent role.
	ErrMissingParentTree = errors.New("parent tree not found")

	// ErrMissingSiblingTree matches a MissingTreeError for the sibling role.
	ErrMissingSiblingTree = errors.New("sibling tree not found")
)

// MissingTreeError reports a tree directory that does not exist under the
// configuration root.
type MissingTreeError struct {
	Name        string
	Role        Role
	Path        string
	Suggestions []string
}

func (e *MissingTreeError) Error() string {
	msg := fmt.Sprintf("%s tree %q does not exist (looked in %s)", e.Role, e.Name, e.Path)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// Is implements errors.Is support
func (e *MissingTreeError) Is(target error) bool {
	switch target {
	case ErrMissingTree:
		return true
	case ErrMissingParentTree:
		return e.Role == RoleParent
	case ErrMissingSiblingTree:
		return e.Role == RoleSibling
	}
	return false
}

// IsMissingTree checks if an error is a MissingTreeError
func IsMissingTree(err error) bool {
	var missing *MissingTreeError
	return errors.As(err, &missing)
}
