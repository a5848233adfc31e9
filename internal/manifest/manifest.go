// Package manifest reads a parsed structure (operations plus replacement
// rules) from a YAML or JSON document.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"structa/internal/domain"
	"structa/internal/settings"
)

type document struct {
	BaseDir      string               `yaml:"baseDir"`
	Replacements []domain.Replacement `yaml:"replacements"`
	Operations   []operation          `yaml:"operations"`
}

type operation struct {
	Type        string `yaml:"type"`
	TargetPath  string `yaml:"targetPath"`
	SourcePath  string `yaml:"sourcePath"`
	IsDirectory bool   `yaml:"isDirectory"`
	Depth       int    `yaml:"depth"`
	Warning     string `yaml:"warning"`
}

// Load reads the manifest at path. Relative paths inside it resolve against
// the manifest's directory, and relative targets against baseDir.
func Load(path string) (domain.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Request{}, fmt.Errorf("read manifest: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Request{}, err
	}
	req, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return domain.Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}

// Parse decodes a manifest. dir anchors relative paths.
func Parse(data []byte, dir string) (domain.Request, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Request{}, fmt.Errorf("decode manifest: %w", err)
	}
	if len(doc.Operations) == 0 {
		return domain.Request{}, errors.New("manifest has no operations")
	}

	baseDir := resolve(dir, doc.BaseDir)
	if strings.TrimSpace(doc.BaseDir) == "" {
		baseDir = filepath.Clean(dir)
	}

	ops := make([]domain.Operation, 0, len(doc.Operations))
	for i, raw := range doc.Operations {
		op, err := raw.build(baseDir, dir)
		if err != nil {
			return domain.Request{}, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}

	return domain.Request{
		Operations:   ops,
		BaseDir:      baseDir,
		Replacements: doc.Replacements,
	}, nil
}

func (o operation) build(baseDir, dir string) (domain.Operation, error) {
	kind, err := domain.ParseKind(o.Type)
	if err != nil {
		return domain.Operation{}, err
	}
	if strings.TrimSpace(o.TargetPath) == "" {
		return domain.Operation{}, errors.New("targetPath is required")
	}
	target := resolve(baseDir, o.TargetPath)

	var op domain.Operation
	switch kind {
	case domain.KindCreate:
		op = domain.NewCreate(target, o.IsDirectory)
	case domain.KindIncluded:
		op = domain.NewIncluded(target, o.IsDirectory)
	case domain.KindCopy:
		op, err = domain.NewCopy(resolveSource(dir, o.SourcePath), target, o.IsDirectory)
	case domain.KindMove:
		op, err = domain.NewMove(resolveSource(dir, o.SourcePath), target, o.IsDirectory)
	}
	if err != nil {
		return domain.Operation{}, err
	}
	return op.WithDepth(o.Depth).WithWarning(o.Warning), nil
}

func resolveSource(dir, source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	return resolve(dir, source)
}

func resolve(anchor, path string) string {
	path = settings.ExpandHome(strings.TrimSpace(path))
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(anchor, filepath.FromSlash(path))
}
