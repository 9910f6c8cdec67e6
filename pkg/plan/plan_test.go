package plan

import (
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDeduplicatesInOrder(t *testing.T) {
	p := New()
	p.Copy("parent/a.yml", "default/a.yml")
	p.Copy("parent/b.yml", "default/b.yml")
	p.Copy("parent/a.yml", "default/a.yml")
	p.Delete("parent/a.yml")
	p.Delete("child1/a.yml")
	p.Delete("parent/a.yml")

	assert.Equal(t, []Copy{
		{Source: "parent/a.yml", Destination: "default/a.yml"},
		{Source: "parent/b.yml", Destination: "default/b.yml"},
	}, p.Copies)
	assert.Equal(t, []string{"parent/a.yml", "child1/a.yml"}, p.Deletes)
	assert.Equal(t, 4, p.Len())
	assert.False(t, p.Empty())
}

func TestPlanMerge(t *testing.T) {
	first := New()
	first.Copy("parent/a.yml", "default/a.yml")
	first.Delete("parent/a.yml")

	second := &Plan{}
	second.Copy("parent/a.yml", "default/a.yml")
	second.Delete("parent/a.yml")
	second.Delete("child2/a.yml")

	first.Merge(second)
	first.Merge(nil)
	assert.Len(t, first.Copies, 1)
	assert.Equal(t, []string{"parent/a.yml", "child2/a.yml"}, first.Deletes)
	assert.True(t, New().Empty())
}

func TestExecuteCopiesBeforeDeletes(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "parent/a.yml", []byte("id: a\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "child1/a.yml", []byte("id: a\n"), 0o644))

	// The delete of the copy source is queued first; execution still copies first.
	p := New()
	p.Delete("parent/a.yml")
	p.Delete("child1/a.yml")
	p.Copy("parent/a.yml", "default/a.yml")

	res := NewExecutor(fs).Execute(p)
	require.NoError(t, res.Err())
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, 2, res.Deleted)

	data, err := util.ReadFile(fs, "default/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "id: a\n", string(data))

	_, err = fs.Stat("parent/a.yml")
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = fs.Stat("child1/a.yml")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExecuteOverwritesDestination(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "parent/a.yml", []byte("v: 2\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "default/a.yml", []byte("v: 1\nlonger: content\n"), 0o644))

	p := New()
	p.Copy("parent/a.yml", "default/a.yml")
	res := NewExecutor(fs).Execute(p)
	require.NoError(t, res.Err())

	data, err := util.ReadFile(fs, "default/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "v: 2\n", string(data))
}

func TestExecuteContinuesAfterFailures(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "parent/b.yml", []byte("id: b\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "parent/c.yml", []byte("id: c\n"), 0o644))

	p := New()
	p.Copy("parent/missing.yml", "default/missing.yml")
	p.Copy("parent/b.yml", "default/b.yml")
	p.Delete("child1/gone.yml")
	p.Delete("parent/c.yml")

	res := NewExecutor(fs).Execute(p)
	assert.Equal(t, 1, res.Copied)
	assert.Equal(t, 1, res.Deleted)
	require.Len(t, res.Errors, 2)

	assert.Equal(t, OpCopy, res.Errors[0].Op)
	assert.Equal(t, "parent/missing.yml", res.Errors[0].Path)
	assert.Equal(t, OpDelete, res.Errors[1].Op)
	assert.True(t, errors.Is(res.Errors[1], os.ErrNotExist))

	err := res.Err()
	require.Error(t, err)
	var opErr *FileOperationError
	assert.True(t, errors.As(err, &opErr))
	assert.Contains(t, err.Error(), "delete child1/gone.yml")

	_, statErr := fs.Stat("default/b.yml")
	assert.NoError(t, statErr, "completed copies are kept")
}

func TestExecuteKeepsSourcesWhenCopyFails(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "parent/x.yml", []byte("id: x\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "child1/x.yml", []byte("id: x\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "parent/y.yml", []byte("id: y\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "child1/y.yml", []byte("id: y\n"), 0o644))
	// A file where the default tree should be makes every copy into it fail.
	require.NoError(t, util.WriteFile(fs, "default", []byte("blocked"), 0o644))

	p := New()
	p.Copy("parent/x.yml", "default/x.yml")
	p.Delete("parent/x.yml")
	p.Delete("child1/x.yml")
	p.Delete("child1/y.yml")

	res := NewExecutor(fs).Execute(p)
	assert.Equal(t, 0, res.Copied)
	assert.Equal(t, 1, res.Deleted)
	require.Len(t, res.Errors, 3)

	assert.Equal(t, OpCopy, res.Errors[0].Op)
	for _, e := range res.Errors[1:] {
		assert.Equal(t, OpDelete, e.Op)
		assert.True(t, errors.Is(e, ErrCopyFailed), e.Path)
	}
	assert.Equal(t, "parent/x.yml", res.Errors[1].Path)
	assert.Equal(t, "child1/x.yml", res.Errors[2].Path)

	_, err := fs.Stat("parent/x.yml")
	assert.NoError(t, err, "source survives a failed copy")
	_, err = fs.Stat("child1/x.yml")
	assert.NoError(t, err, "sibling copy survives a failed copy")
	_, err = fs.Stat("child1/y.yml")
	assert.True(t, errors.Is(err, os.ErrNotExist), "unrelated deletes still run")
}
