package presentation

import (
	"fmt"
	"io"
	"strings"

	"structa/internal/domain"
)

const listLimit = 4

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

// PrintPlan writes the pre-flight summary. Operations are listed in verbose
// mode only.
func (p Printer) PrintPlan(req domain.Request, summary domain.Summary) {
	fmt.Fprintf(p.Writer, "Structure for %s:\n", req.BaseDir)
	fmt.Fprintln(p.Writer)

	if p.Verbose {
		for _, line := range formatOperationLines(req.Operations) {
			fmt.Fprintln(p.Writer, line)
		}
		fmt.Fprintln(p.Writer)
	}

	if summary.ExistingTargetCount > 0 {
		fmt.Fprintln(p.Writer, "Existing Targets:")
		for _, line := range truncate(summary.ExistingTargets) {
			fmt.Fprintln(p.Writer, line)
		}
		fmt.Fprintln(p.Writer)
	}

	p.printSummary(summary)

	if warnings := collectWarnings(req.Operations); p.Verbose && len(warnings) > 0 {
		fmt.Fprintln(p.Writer)
		fmt.Fprintln(p.Writer, "Warnings:")
		for _, warning := range warnings {
			fmt.Fprintln(p.Writer, "- "+warning)
		}
	}
}

// PrintResult writes the execution report.
func (p Printer) PrintResult(result domain.ExecutionResult) {
	p.printSummary(result.Summary)
	fmt.Fprintln(p.Writer)

	switch {
	case result.Succeeded():
		fmt.Fprintf(p.Writer, "Created structure in %s (%d operations).\n", result.BaseDir, result.CompletedCount)
		return
	case result.PartialSuccess:
		fmt.Fprintf(p.Writer, "Completed %d operations, %d failed.\n", result.CompletedCount, result.FailureCount)
	default:
		fmt.Fprintf(p.Writer, "All %d operations failed.\n", result.FailureCount)
	}

	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Failures:")
	lines := make([]string, 0, len(result.Failures))
	for _, failure := range result.Failures {
		lines = append(lines, fmt.Sprintf("%s %s: %s", failure.Kind, failure.TargetPath, failure.Message))
	}
	if p.Verbose {
		for _, line := range lines {
			fmt.Fprintln(p.Writer, line)
		}
		return
	}
	for _, line := range truncate(lines) {
		fmt.Fprintln(p.Writer, line)
	}
}

func (p Printer) printSummary(summary domain.Summary) {
	fmt.Fprintf(p.Writer, "%d operations: %d folders and %d files to create, %d to copy, %d to move.\n",
		summary.TotalOperations, summary.CreateDirectoryCount, summary.CreateFileCount,
		summary.CopyCount, summary.MoveCount)

	switch summary.ExistingTargetCount {
	case 0:
		fmt.Fprintln(p.Writer, "No existing targets will be overwritten.")
	case 1:
		fmt.Fprintln(p.Writer, "1 target already exists.")
	default:
		fmt.Fprintf(p.Writer, "%d targets already exist.\n", summary.ExistingTargetCount)
	}
}

func formatOperationLines(ops []domain.Operation) []string {
	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		indent := strings.Repeat("  ", max(op.Depth, 0))
		lines = append(lines, indent+describe(op))
	}
	return lines
}

func describe(op domain.Operation) string {
	name := op.Name
	if op.IsDirectory {
		name += "/"
	}
	switch op.Kind {
	case domain.KindCopy:
		return fmt.Sprintf("Copy %s from %s", name, op.SourcePath)
	case domain.KindMove:
		return fmt.Sprintf("Move %s from %s", name, op.SourcePath)
	case domain.KindIncluded:
		return fmt.Sprintf("Keep %s", name)
	default:
		return fmt.Sprintf("Create %s", name)
	}
}

func collectWarnings(ops []domain.Operation) []string {
	var warnings []string
	for _, op := range ops {
		if op.Warning != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", op.TargetPath, op.Warning))
		}
	}
	return warnings
}

// truncate keeps the first and last two lines of long lists.
func truncate(lines []string) []string {
	if len(lines) <= listLimit {
		return lines
	}
	head := append([]string{}, lines[:2]...)
	tail := lines[len(lines)-2:]
	return append(append(head, fmt.Sprintf("... %d more ...", len(lines)-listLimit)), tail...)
}
