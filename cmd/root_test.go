package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/splitmerge/internal/ops"
	"github.com/fulmenhq/splitmerge/pkg/config"
	"github.com/fulmenhq/splitmerge/pkg/exitcode"
	"github.com/fulmenhq/splitmerge/pkg/manifest"
	"github.com/fulmenhq/splitmerge/pkg/plan"
	"github.com/fulmenhq/splitmerge/pkg/splitmerge"
	"github.com/fulmenhq/splitmerge/pkg/tree"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execRoot runs a fresh command tree and returns stdout and stderr.
func execRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	reg := ops.NewRegistry()
	root := newRootCommand(reg)
	require.NoError(t, registerSubcommands(root, reg))

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// isolateSettings keeps developer settings and .env files out of the test.
func isolateSettings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestInitializeLogger(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "debug", "")
	cmd.Flags().Bool("json", true, "")
	cmd.Flags().Bool("no-color", true, "")

	// This should not panic
	initializeLogger(cmd)
}

func TestRootHelpListsGroups(t *testing.T) {
	stdout, _, err := execRoot(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Reconcile Commands:")
	assert.Contains(t, stdout, "merge")
	assert.Contains(t, stdout, "Support Commands:")
	assert.Contains(t, stdout, "version")
	assert.Less(t, strings.Index(stdout, "Reconcile Commands:"), strings.Index(stdout, "Support Commands:"))

	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "merge":
			assert.True(t, strings.HasSuffix(line, "(writes files)"), line)
		case "diff", "version":
			assert.NotContains(t, line, "(writes files)")
		}
	}
}

func TestRootVersionFlag(t *testing.T) {
	stdout, _, err := execRoot(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "splitmerge "))
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"missing parent", &tree.MissingTreeError{Name: "p", Role: tree.RoleParent}, exitcode.MissingParentTree},
		{"missing sibling", fmt.Errorf("wrapped: %w", &tree.MissingTreeError{Name: "s", Role: tree.RoleSibling}), exitcode.FileSystemError},
		{"missing default role", &tree.MissingTreeError{Name: "d", Role: tree.RoleDefault}, exitcode.FileSystemError},
		{"settings", &config.SettingsError{Err: errors.New("bad")}, exitcode.ConfigError},
		{"trees", fmt.Errorf("%w: x", splitmerge.ErrInvalidTrees), exitcode.ConfigError},
		{"manifest", &manifest.MissingManifestError{Tree: "t"}, exitcode.ConfigError},
		{"dirty", fmt.Errorf("%w: 2 paths", errDirtyTrees), exitcode.ValidationError},
		{"file ops", errors.Join(&plan.FileOperationError{Op: plan.OpDelete, Path: "a", Err: os.ErrNotExist}), exitcode.FileSystemError},
		{"other", errors.New("boom"), exitcode.GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}
