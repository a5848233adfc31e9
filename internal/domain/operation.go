package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind tags the variant of a planned operation.
type Kind string

const (
	KindCreate   Kind = "create"
	KindCopy     Kind = "copy"
	KindMove     Kind = "move"
	KindIncluded Kind = "included"
)

var ErrMissingSource = errors.New("source path is required")

// ParseKind maps the external parser's type string onto a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindCreate:
		return KindCreate, nil
	case KindCopy:
		return KindCopy, nil
	case KindMove:
		return KindMove, nil
	case KindIncluded:
		return KindIncluded, nil
	default:
		return "", fmt.Errorf("unknown operation type %q", value)
	}
}

// NeedsSource reports whether the kind reads from a source path.
func (k Kind) NeedsSource() bool {
	return k == KindCopy || k == KindMove
}

// Operation is one planned filesystem action. Build it with the New*
// constructors; literals are accepted by the executor but validated per run.
type Operation struct {
	Kind        Kind
	TargetPath  string
	SourcePath  string
	IsDirectory bool
	Depth       int
	Name        string
	Warning     string
}

func NewCreate(target string, isDir bool) Operation {
	return newOperation(KindCreate, "", target, isDir)
}

func NewIncluded(target string, isDir bool) Operation {
	return newOperation(KindIncluded, "", target, isDir)
}

func NewCopy(source, target string, isDir bool) (Operation, error) {
	if strings.TrimSpace(source) == "" {
		return Operation{}, fmt.Errorf("copy %s: %w", target, ErrMissingSource)
	}
	return newOperation(KindCopy, source, target, isDir), nil
}

func NewMove(source, target string, isDir bool) (Operation, error) {
	if strings.TrimSpace(source) == "" {
		return Operation{}, fmt.Errorf("move %s: %w", target, ErrMissingSource)
	}
	return newOperation(KindMove, source, target, isDir), nil
}

func newOperation(kind Kind, source, target string, isDir bool) Operation {
	return Operation{
		Kind:        kind,
		TargetPath:  target,
		SourcePath:  source,
		IsDirectory: isDir,
		Name:        filepath.Base(target),
	}
}

// WithDepth returns a copy carrying the nesting level used for display.
func (o Operation) WithDepth(depth int) Operation {
	o.Depth = depth
	return o
}

// WithWarning returns a copy carrying an advisory message.
func (o Operation) WithWarning(warning string) Operation {
	o.Warning = warning
	return o
}

// Validate checks the variant-specific requirements.
func (o Operation) Validate() error {
	if strings.TrimSpace(o.TargetPath) == "" {
		return errors.New("target path is required")
	}
	switch o.Kind {
	case KindCreate, KindIncluded, KindCopy, KindMove:
	default:
		return fmt.Errorf("unknown operation type %q", o.Kind)
	}
	if o.Kind.NeedsSource() && strings.TrimSpace(o.SourcePath) == "" {
		return fmt.Errorf("%w for %s operations", ErrMissingSource, o.Kind)
	}
	return nil
}

func (o Operation) String() string {
	typ := "file"
	if o.IsDirectory {
		typ = "dir"
	}
	if o.SourcePath != "" {
		return fmt.Sprintf("%s %s %s -> %s", o.Kind, typ, o.SourcePath, o.TargetPath)
	}
	return fmt.Sprintf("%s %s %s", o.Kind, typ, o.TargetPath)
}
