// Package migration renders identity corrections into an update hook that
// restores the identity values recorded during a merge.
package migration

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/splitmerge/pkg/reconcile"
	"github.com/fulmenhq/splitmerge/pkg/safeio"
)

//go:embed templates/update_hook.php.hbs
var defaultTemplate string

// DefaultTemplate returns the built-in Handlebars template.
func DefaultTemplate() string { return defaultTemplate }

// Context is the data a template sees besides the corrections.
type Context struct {
	Module       string
	UpdateNumber int
	IdentityKey  string
	// Branch and Commit describe the configuration repository, when known.
	Branch string
	Commit string
}

// Renderer turns corrections into snippet text.
type Renderer struct {
	tpl *raymond.Template
}

// NewRenderer parses source, or the built-in template when source is empty.
func NewRenderer(source string) (*Renderer, error) {
	if strings.TrimSpace(source) == "" {
		source = defaultTemplate
	}
	tpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migration template: %w", err)
	}
	tpl.RegisterHelper("php", phpString)
	return &Renderer{tpl: tpl}, nil
}

// LoadRenderer reads a template file that must live below baseDir.
func LoadRenderer(baseDir, path string) (*Renderer, error) {
	if path == "" {
		return NewRenderer("")
	}
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid template path: %w", err)
	}
	data, err := safeio.ReadFileContained(baseDir, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration template %s: %w", path, err)
	}
	return NewRenderer(string(data))
}

// Render returns the snippet for corrections. No corrections render to the
// empty string so callers can skip output entirely.
func (r *Renderer) Render(corrections []reconcile.Correction, ctx Context) (string, error) {
	if len(corrections) == 0 {
		return "", nil
	}
	if ctx.Module == "" {
		return "", errors.New("migration module name is required")
	}

	items := make([]map[string]string, 0, len(corrections))
	for _, c := range corrections {
		items = append(items, map[string]string{"name": c.Name, "identity": c.Identity})
	}
	commit := ctx.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}

	out, err := r.tpl.Exec(map[string]any{
		"module":      ctx.Module,
		"update":      ctx.UpdateNumber,
		"identityKey": ctx.IdentityKey,
		"branch":      ctx.Branch,
		"commit":      commit,
		"corrections": items,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render migration template: %w", err)
	}
	return out, nil
}

// phpString quotes s as a single-quoted PHP string literal.
func phpString(s string) raymond.SafeString {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
	return raymond.SafeString("'" + escaped + "'")
}
