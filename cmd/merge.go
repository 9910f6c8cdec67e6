/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fulmenhq/splitmerge/internal/gitctx"
	"github.com/fulmenhq/splitmerge/internal/report"
	"github.com/fulmenhq/splitmerge/pkg/config"
	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/fulmenhq/splitmerge/pkg/migration"
	"github.com/fulmenhq/splitmerge/pkg/safeio"
	"github.com/fulmenhq/splitmerge/pkg/splitmerge"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var errDirtyTrees = errors.New("configuration trees have uncommitted changes")

func newMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge PARENT SIBLINGS",
		Short: "Merge sibling trees into the default tree",
		Long: `Merge compares every item of the parent tree with each sibling tree.

Items that are identical, or differ only in their identity field, are copied
from the parent into the default tree and removed from both sources. Items
whose content differs are copied to the default tree and graylisted in both
split manifests. Items that exist on one side only are blacklisted for that
tree unless the default tree already has them.

SIBLINGS is a comma separated list; names are trimmed, lower-cased and
deduplicated. PARENT is trimmed but keeps its case. Identity corrections are printed as an update hook, or written
to --output.`,
		Args: cobra.ExactArgs(2),
		RunE: runMerge,
	}

	cmd.Flags().String("config", "", "Configuration root holding the trees (default from settings: config)")
	cmd.Flags().StringP("output", "o", "", "Write the identity correction hook to this file instead of stdout")
	cmd.Flags().Bool("dry-run", false, "Classify and report without changing any file")
	cmd.Flags().BoolP("verbose", "v", false, "Show settled items and changed paths")
	cmd.Flags().Bool("create-manifests", false, "Create missing split manifests instead of failing")
	cmd.Flags().Bool("require-clean", false, "Refuse to run when the trees have uncommitted git changes")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	createManifests, _ := cmd.Flags().GetBool("create-manifests")
	requireClean, _ := cmd.Flags().GetBool("require-clean")
	output, _ := cmd.Flags().GetString("output")

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	root, err := configRoot(cmd, settings)
	if err != nil {
		return err
	}

	if dryRun {
		logger.SetNoOp(true)
		defer logger.SetNoOp(false)
	}

	parent, siblings, def, err := splitmerge.SelectTrees(args[0], []string{args[1]}, settings.DefaultTree)
	if err != nil {
		return err
	}

	repo, err := gitctx.Inspect(root)
	if err != nil {
		logger.Warn("Could not inspect git repository", logger.String("root", root), logger.Err(err))
	}
	if dirty := repo.DirtyIn(append([]string{parent, def}, siblings...)...); len(dirty) > 0 {
		logger.Warn("Trees have uncommitted changes",
			logger.Int("paths", len(dirty)),
			logger.String("scope", repo.Scope()),
			logger.Strings("dirty", dirty))
		if requireClean && !dryRun {
			return fmt.Errorf("%w: %d paths (commit or stash them, or drop --require-clean)", errDirtyTrees, len(dirty))
		}
	}

	logger.Info("Starting merge",
		logger.String("root", root),
		logger.String("parent", parent),
		logger.Strings("siblings", siblings),
		logger.Bool("dry_run", dryRun))

	out, runErr := splitmerge.Run(splitmerge.Options{
		FS:              osfs.New(root),
		Settings:        settings,
		Parent:          parent,
		Siblings:        siblings,
		DryRun:          dryRun,
		CreateManifests: createManifests,
	})
	if out == nil {
		return runErr
	}

	stderr := cmd.ErrOrStderr()
	if err := writeReport(stderr, out, verbose); err != nil {
		return err
	}

	renderer, err := migration.LoadRenderer(".", settings.Migration.Template)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	mctx := migration.Context{
		Module:       settings.Migration.Module,
		UpdateNumber: settings.Migration.UpdateNumber,
		IdentityKey:  settings.IdentityKey,
	}
	if repo != nil {
		mctx.Branch = repo.Branch
		mctx.Commit = repo.GitSHA
	}
	hook, err := renderer.Render(out.Corrections, mctx)
	if err != nil {
		return err
	}
	if err := emitHook(cmd, hook, output, dryRun); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	_, err = fmt.Fprintln(stderr, "Done")
	return err
}

// configRoot resolves --config, falling back to the settings root.
func configRoot(cmd *cobra.Command, settings *config.Settings) (string, error) {
	root, _ := cmd.Flags().GetString("config")
	if root == "" {
		root = settings.Root
	}
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	switch {
	case err == nil && !info.IsDir():
		return "", fmt.Errorf("%w: configuration root %s is not a directory", config.ErrInvalidSettings, root)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("stat configuration root: %w", err)
	}
	// A missing root surfaces as a missing parent tree.
	return root, nil
}

func writeReport(w io.Writer, out *splitmerge.Outcome, verbose bool) error {
	if err := report.WriteClassifications(w, out.Result, verbose); err != nil {
		return err
	}
	if err := report.WritePlan(w, out.Result.Plan, out.DryRun); err != nil {
		return err
	}
	if err := report.WriteManifests(w, out.Manifests); err != nil {
		return err
	}
	_, err := io.WriteString(w, report.Summary(out))
	return err
}

// emitHook prints the hook, or writes it to path on live runs. Dry runs
// never create files, so the hook goes to stdout instead.
func emitHook(cmd *cobra.Command, hook, path string, dryRun bool) error {
	if hook == "" {
		logger.Info("No identity corrections to write")
		return nil
	}
	if path == "" || dryRun {
		if path != "" {
			logger.Info("Dry run; printing hook instead of writing it", logger.String("output", path))
		}
		_, err := io.WriteString(cmd.OutOrStdout(), hook)
		return err
	}
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return fmt.Errorf("invalid output path %q: %w", path, err)
	}
	if err := safeio.WriteFilePreservePerms(clean, []byte(hook)); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	logger.Info("Identity correction hook written", logger.String("output", clean))
	return nil
}
