package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/go-git/go-billy/v5"
)

// Op names a file operation kind.
type Op string

const (
	OpCopy   Op = "copy"
	OpDelete Op = "delete"
)

// ErrCopyFailed is the cause recorded for deletes skipped because the
// canonical copy of the same item failed.
var ErrCopyFailed = errors.New("skipped: canonical copy failed")

// FileOperationError reports one failed copy or delete.
type FileOperationError struct {
	Op   Op
	Path string
	Err  error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FileOperationError) Unwrap() error {
	return e.Err
}

// Result summarizes an execution.
type Result struct {
	Copied  int
	Deleted int
	Errors  []*FileOperationError
}

// Err joins all recorded failures, or returns nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Executor applies plans to a filesystem rooted at the configuration root.
type Executor struct {
	fs billy.Filesystem
}

// NewExecutor returns an executor for fs.
func NewExecutor(fs billy.Filesystem) *Executor {
	return &Executor{fs: fs}
}

// Execute runs every copy, then every delete. A failed operation is recorded
// and the run continues; completed operations are never rolled back. When a
// copy fails, deletes of its source and of the same item file in other
// trees are skipped so the item survives somewhere.
func (e *Executor) Execute(p *Plan) *Result {
	res := &Result{}
	protected := make(map[string]bool)

	for _, c := range p.Copies {
		if err := e.copyFile(c.Source, c.Destination); err != nil {
			logger.Error("Copy failed", logger.String("source", c.Source), logger.String("destination", c.Destination), logger.Err(err))
			res.Errors = append(res.Errors, &FileOperationError{Op: OpCopy, Path: c.Source, Err: err})
			protected[c.Source] = true
			protected[filepath.Base(c.Destination)] = true
			continue
		}
		res.Copied++
		logger.Debug("Copied", logger.String("source", c.Source), logger.String("destination", c.Destination))
	}

	for _, path := range p.Deletes {
		if protected[path] || protected[filepath.Base(path)] {
			logger.Warn("Delete skipped", logger.String("path", path), logger.Err(ErrCopyFailed))
			res.Errors = append(res.Errors, &FileOperationError{Op: OpDelete, Path: path, Err: ErrCopyFailed})
			continue
		}
		if err := e.fs.Remove(path); err != nil {
			logger.Error("Delete failed", logger.String("path", path), logger.Err(err))
			res.Errors = append(res.Errors, &FileOperationError{Op: OpDelete, Path: path, Err: err})
			continue
		}
		res.Deleted++
		logger.Debug("Deleted", logger.String("path", path))
	}

	return res
}

// copyFile copies a single file from src to dst, creating dst's directory.
func (e *Executor) copyFile(src, dst string) error {
	srcFile, err := e.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() {
		if cerr := srcFile.Close(); cerr != nil {
			logger.Warn(fmt.Sprintf("Failed to close source file %s: %v", src, cerr))
		}
	}()

	srcInfo, err := e.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	if err := e.fs.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstFile, err := e.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
