package domain

import "strings"

// Replacement is a user-defined rename rule applied to path segments.
type Replacement struct {
	Search           string `yaml:"search" json:"search"`
	Replace          string `yaml:"replace" json:"replace"`
	ReplaceInFiles   bool   `yaml:"replaceInFiles" json:"replaceInFiles"`
	ReplaceInFolders bool   `yaml:"replaceInFolders" json:"replaceInFolders"`
}

// Blank reports whether the rule has nothing to search for or nothing to
// substitute. Blank rules are never applied.
func (r Replacement) Blank() bool {
	return strings.TrimSpace(r.Search) == "" || strings.TrimSpace(r.Replace) == ""
}

// Request is the input shared by every entry point of the engine.
type Request struct {
	Operations   []Operation
	BaseDir      string
	Replacements []Replacement
}

// Summary is the read-only pre-flight view of a request.
type Summary struct {
	TotalOperations      int
	CreateFileCount      int
	CreateDirectoryCount int
	CopyCount            int
	MoveCount            int
	ExistingTargetCount  int
	ExistingTargets      []string
}

// Summarize counts operations by kind. Existing targets are supplied by the
// caller in operation order.
func Summarize(ops []Operation, existing []string) Summary {
	summary := Summary{
		TotalOperations:     len(ops),
		ExistingTargetCount: len(existing),
		ExistingTargets:     existing,
	}
	if summary.ExistingTargets == nil {
		summary.ExistingTargets = []string{}
	}
	for _, op := range ops {
		switch op.Kind {
		case KindCreate:
			if op.IsDirectory {
				summary.CreateDirectoryCount++
			} else {
				summary.CreateFileCount++
			}
		case KindCopy:
			summary.CopyCount++
		case KindMove:
			summary.MoveCount++
		}
	}
	return summary
}
