package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingManifest matches a MissingManifestError.
	ErrMissingManifest = errors.New("split manifest not found")

	// ErrInvalidManifest matches an InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid split manifest")
)

// MissingManifestError is returned when a tree has membership to record but
// no manifest file, and the store is not allowed to create one.
type MissingManifestError struct {
	Tree string
	Path string
}

func (e *MissingManifestError) Error() string {
	return fmt.Sprintf("split manifest for tree %q not found at %s (use --create-manifests to create it)", e.Tree, e.Path)
}

// Is implements errors.Is support
func (e *MissingManifestError) Is(target error) bool {
	return target == ErrMissingManifest
}

// InvalidManifestError reports a manifest whose list fields are malformed.
type InvalidManifestError struct {
	Tree  string
	Field string
	Err   error
}

func (e *InvalidManifestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("split manifest for tree %q: field %s: %v", e.Tree, e.Field, e.Err)
	}
	return fmt.Sprintf("split manifest for tree %q: %v", e.Tree, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *InvalidManifestError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *InvalidManifestError) Is(target error) bool {
	return target == ErrInvalidManifest
}
