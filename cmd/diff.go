/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/fulmenhq/splitmerge/pkg/config"
	"github.com/fulmenhq/splitmerge/pkg/document"
	"github.com/fulmenhq/splitmerge/pkg/ignore"
	"github.com/fulmenhq/splitmerge/pkg/reconcile"
	"github.com/fulmenhq/splitmerge/pkg/tree"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff PARENT SIBLING ITEM",
		Short: "Show how one item differs between two trees",
		Long: `Diff loads ITEM from the parent and the sibling tree, lists every
differing path and prints the classification merge would give it.`,
		Args: cobra.ExactArgs(3),
		RunE: runDiff,
	}
	cmd.Flags().String("config", "", "Configuration root holding the trees (default from settings: config)")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	root, err := configRoot(cmd, settings)
	if err != nil {
		return err
	}

	parentName, err := tree.CleanName(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	siblingName, err := tree.NormalizeName(args[1])
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	item := args[2]

	fs := osfs.New(root)
	reader, err := tree.NewReader(fs, settings.Extension, settings.Ignore)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidSettings, err)
	}
	matcher, err := ignore.Load(fs)
	if err != nil {
		return err
	}
	reader.UseIgnoreFile(matcher)
	parent, err := reader.Snapshot(parentName, tree.RoleParent)
	if err != nil {
		return err
	}
	sibling, err := reader.Snapshot(siblingName, tree.RoleSibling)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !parent.Has(item) && !sibling.Has(item):
		return fmt.Errorf("item %q exists in neither %s nor %s", item, parentName, siblingName)
	case !sibling.Has(item):
		_, err = fmt.Fprintf(out, "%s: only in %s\n", item, parentName)
		return err
	case !parent.Has(item):
		_, err = fmt.Fprintf(out, "%s: only in %s\n", item, siblingName)
		return err
	}

	left, err := reader.Load(parent, item)
	if err != nil {
		return err
	}
	right, err := reader.Load(sibling, item)
	if err != nil {
		return err
	}

	changes := document.Diff(left, right)
	outcome := reconcile.Classify(changes, settings.IdentityKey)
	if _, err := fmt.Fprintf(out, "%s: %s\n", item, outcome); err != nil {
		return err
	}
	for _, c := range changes {
		if _, err := fmt.Fprintf(out, "  %s\n", c); err != nil {
			return err
		}
	}
	return nil
}
