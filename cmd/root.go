/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"errors"
	"os"

	"github.com/fulmenhq/splitmerge/internal/ops"
	"github.com/fulmenhq/splitmerge/pkg/buildinfo"
	"github.com/fulmenhq/splitmerge/pkg/config"
	"github.com/fulmenhq/splitmerge/pkg/exitcode"
	"github.com/fulmenhq/splitmerge/pkg/logger"
	"github.com/fulmenhq/splitmerge/pkg/manifest"
	"github.com/fulmenhq/splitmerge/pkg/plan"
	"github.com/fulmenhq/splitmerge/pkg/splitmerge"
	"github.com/fulmenhq/splitmerge/pkg/tree"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand(reg *ops.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splitmerge",
		Short: "Reconcile split configuration trees into a shared default tree",
		Long: `Splitmerge compares a parent configuration tree with its sibling trees,
moves everything they agree on into the default tree and records the rest
in the split manifests.

Examples:
   splitmerge merge parent child1,child2             # Reconcile and write changes
   splitmerge merge parent child1 --dry-run          # Show what would change
   splitmerge diff parent child1 system.site         # Explain one item
   splitmerge version --extended                     # Show build info`,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("settings", "", "Settings file (default: ./splitmerge.yaml or ~/splitmerge.yaml)")

	// Wire Cobra's built-in --version using the binary version
	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("splitmerge {{.Version}}\n")

	cmd.AddGroup(ops.CobraGroups()...)

	// Grouped help in registry group order
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c.HasParent() {
			defaultHelp(c, args)
			return
		}
		c.Println(c.Long)
		c.Println()
		for _, g := range ops.CobraGroups() {
			c.Println(g.Title)
			for _, r := range reg.GetCommandsByGroup(ops.CommandGroup(g.ID)) {
				desc := r.Description
				if r.Mutates {
					desc += " (writes files)"
				}
				c.Printf("  %-12s %s\n", r.Name, desc)
			}
			c.Println()
		}
		c.Println("Flags:")
		c.Print(c.LocalFlags().FlagUsages())
	})

	return cmd
}

type subcommand struct {
	build   func() *cobra.Command
	group   ops.CommandGroup
	mutates bool
}

var subcommands = []subcommand{
	{build: newMergeCommand, group: ops.GroupReconcile, mutates: true},
	{build: newDiffCommand, group: ops.GroupReconcile},
	{build: newVersionCommand, group: ops.GroupSupport},
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(root *cobra.Command, reg *ops.Registry) error {
	for _, s := range subcommands {
		c := s.build()
		err := reg.Register(&ops.CommandRegistration{
			Name:        c.Name(),
			Group:       s.group,
			Command:     c,
			Description: c.Short,
			Mutates:     s.mutates,
		})
		if err != nil {
			return err
		}
		root.AddCommand(c)
	}
	return nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand(ops.GetRegistry())

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitCodeFor(err)
		logger.Error("Command execution failed", logger.Err(err), logger.String("exit", exitcode.String(code)))
		os.Exit(code)
	}
}

func init() {
	// Register all subcommands with the production rootCmd
	if err := registerSubcommands(rootCmd, ops.GetRegistry()); err != nil {
		panic(err)
	}
}

// exitCodeFor maps a command error to the process exit code.
func exitCodeFor(err error) int {
	var opErr *plan.FileOperationError
	switch {
	case err == nil:
		return exitcode.Success
	case tree.IsMissingTree(err):
		if errors.Is(err, tree.ErrMissingParentTree) {
			return exitcode.MissingParentTree
		}
		return exitcode.FileSystemError
	case errors.Is(err, config.ErrInvalidSettings),
		errors.Is(err, splitmerge.ErrInvalidTrees),
		errors.Is(err, manifest.ErrMissingManifest),
		errors.Is(err, manifest.ErrInvalidManifest):
		return exitcode.ConfigError
	case errors.Is(err, errDirtyTrees):
		return exitcode.ValidationError
	case errors.As(err, &opErr):
		return exitcode.FileSystemError
	default:
		return exitcode.GeneralError
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "splitmerge",
	}

	if err := logger.Initialize(config); err != nil {
		// Fallback to stderr
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
	logger.SetOutput(cmd.ErrOrStderr())
}

// loadSettings reads settings honoring the global --settings flag.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	file, _ := cmd.Flags().GetString("settings")
	settings, err := config.Load(config.Options{File: file})
	if err != nil {
		return nil, err
	}
	if settings.File != "" {
		logger.Debug("Settings loaded", logger.String("file", settings.File))
	}
	return settings, nil
}
