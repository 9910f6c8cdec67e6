// Package report renders reconciliation outcomes for terminals.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/splitmerge/pkg/manifest"
	"github.com/fulmenhq/splitmerge/pkg/plan"
	"github.com/fulmenhq/splitmerge/pkg/reconcile"
	"github.com/fulmenhq/splitmerge/pkg/splitmerge"
	"github.com/mattn/go-runewidth"
)

// maxChanges is how many changed paths a verbose row lists before eliding.
const maxChanges = 3

// Table lays out rows in left-aligned columns sized by display width, so
// wide runes in item names do not break alignment.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := runewidth.StringWidth(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		var line strings.Builder
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
	}
	writeRow(header)
	rule := make([]string, len(header))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeRow(rule)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// Box frames lines in a single-line border.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	maxWidth := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	border := strings.Repeat("─", maxWidth+2)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range lines {
		sb.WriteString("│ " + runewidth.FillRight(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// WriteClassifications prints one row per classification. Settled rows and
// changed paths are only shown when verbose.
func WriteClassifications(w io.Writer, res *reconcile.Result, verbose bool) error {
	header := []string{"ITEM", "SIBLING", "OUTCOME"}
	if verbose {
		header = append(header, "CHANGES")
	}

	var rows [][]string
	for _, c := range res.Classifications {
		if c.Outcome == reconcile.Settled && !verbose {
			continue
		}
		row := []string{c.Name, c.Sibling, c.Outcome.String()}
		if verbose {
			row = append(row, describeChanges(c))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No items need reconciling.")
		return err
	}
	_, err := io.WriteString(w, Table(header, rows))
	return err
}

func describeChanges(c reconcile.Classification) string {
	if len(c.Changes) == 0 {
		return ""
	}
	parts := make([]string, 0, maxChanges)
	for i, ch := range c.Changes {
		if i == maxChanges {
			parts = append(parts, fmt.Sprintf("+%d more", len(c.Changes)-maxChanges))
			break
		}
		parts = append(parts, ch.String())
	}
	return strings.Join(parts, ", ")
}

// WritePlan lists planned or executed file operations.
func WritePlan(w io.Writer, p *plan.Plan, dryRun bool) error {
	if p.Empty() {
		_, err := fmt.Fprintln(w, "No file operations.")
		return err
	}
	verb := "Planned"
	if dryRun {
		verb = "Would run"
	}
	if _, err := fmt.Fprintf(w, "%s file operations:\n", verb); err != nil {
		return err
	}
	for _, c := range p.Copies {
		if _, err := fmt.Fprintf(w, "  copy   %s -> %s\n", c.Source, c.Destination); err != nil {
			return err
		}
	}
	for _, d := range p.Deletes {
		if _, err := fmt.Fprintf(w, "  delete %s\n", d); err != nil {
			return err
		}
	}
	return nil
}

// WriteManifests lists the membership each manifest gained.
func WriteManifests(w io.Writer, results []*manifest.Result) error {
	var rows [][]string
	for _, r := range results {
		if !r.Changed {
			continue
		}
		status := "updated"
		if !r.Written {
			status = "pending"
		}
		rows = append(rows, []string{
			r.Tree,
			strings.Join(r.Added.Blacklist, ", "),
			strings.Join(r.Added.Graylist, ", "),
			status,
		})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "Split manifests unchanged.")
		return err
	}
	_, err := io.WriteString(w, Table([]string{"TREE", "BLACKLIST +", "GRAYLIST +", "STATUS"}, rows))
	return err
}

// Summary condenses a run into a few boxed lines.
func Summary(out *splitmerge.Outcome) string {
	mode := "live"
	if out.DryRun {
		mode = "dry run"
	}
	lines := []string{
		fmt.Sprintf("splitmerge %s: %s -> %s", mode, out.Parent, out.Default),
		fmt.Sprintf("siblings: %s", siblingList(out.Siblings)),
	}
	if out.Result != nil {
		counts := make([]string, 0, len(reconcile.Outcomes))
		for _, o := range reconcile.Outcomes {
			counts = append(counts, fmt.Sprintf("%s %d", o, out.Result.Count(o)))
		}
		lines = append(lines, strings.Join(counts, " | "))
	}
	if out.Execution != nil {
		lines = append(lines, fmt.Sprintf("copied %d, deleted %d, failed %d",
			out.Execution.Copied, out.Execution.Deleted, len(out.Execution.Errors)))
	}
	lines = append(lines, fmt.Sprintf("identity corrections: %d", len(out.Corrections)))
	return Box(lines)
}

func siblingList(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
