/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/splitmerge/pkg/buildinfo"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the splitmerge version",
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build information")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()
	info := map[string]string{
		"version":   buildinfo.Version(),
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
	if mv := buildinfo.ModuleVersion(); mv != "" {
		info["moduleVersion"] = mv
	}

	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if _, err := fmt.Fprintf(out, "splitmerge %s\n", info["version"]); err != nil {
		return err
	}
	if extended {
		if _, err := fmt.Fprintf(out, "Go: %s\nPlatform: %s/%s\n", info["goVersion"], info["platform"], info["arch"]); err != nil {
			return err
		}
		if mv, ok := info["moduleVersion"]; ok {
			if _, err := fmt.Fprintf(out, "Module: %s\n", mv); err != nil {
				return err
			}
		}
	}
	return nil
}
