package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"structa/internal/domain"
	appErrors "structa/internal/errors"
	"structa/internal/logging"
	"structa/internal/replace"
)

const dirPerm = 0o755

var (
	ErrSameSource         = errors.New("source and target are the same path")
	ErrTargetInsideSource = errors.New("target is inside the source directory")
)

// Executor applies operations in list order. A failing operation is recorded
// and the run continues with the next one; nothing is rolled back.
type Executor struct {
	FS          FileSystem
	Blanks      BlankProvider
	Preferences Preferences
	Logger      logging.Logger
	OnProgress  ProgressFunc
}

// Tally is the raw outcome of a run.
type Tally struct {
	Total    int
	Failures []domain.Failure
}

func (t Tally) Completed() int {
	return t.Total - len(t.Failures)
}

// Execute runs every operation to completion. The context is handed to the
// blank provider only; a cancelled context does not stop the run.
func (e *Executor) Execute(ctx context.Context, ops []domain.Operation, groups replace.Groups) (Tally, error) {
	if e.FS == nil {
		return Tally{}, errors.New("executor requires FS")
	}

	stop := e.Logger.Measure("Executing structure")
	defer stop()

	e.logRules(groups)

	tally := Tally{Total: len(ops), Failures: []domain.Failure{}}
	for i, op := range ops {
		if err := e.run(ctx, op, groups); err != nil {
			e.Logger.Verbosef("Failed %s: %v", op, err)
			tally.Failures = append(tally.Failures, domain.NewFailure(op, err))
		}
		if e.OnProgress != nil {
			e.OnProgress(i+1, len(ops), op)
		}
	}

	e.Logger.Verbosef("Completed %d of %d operations", tally.Completed(), tally.Total)
	return tally, nil
}

func (e *Executor) logRules(groups replace.Groups) {
	if groups.Empty() {
		return
	}
	e.Logger.Verbosef("Applying %d file rules and %d folder rules", len(groups.Files), len(groups.Folders))
	seen := make(map[string]bool)
	for _, rules := range [][]replace.Rule{groups.Files, groups.Folders} {
		for _, r := range rules {
			if r.Literal() && !seen[r.Search] {
				seen[r.Search] = true
				e.Logger.Verbosef("%q is not a valid pattern, matching it literally", r.Search)
			}
		}
	}
}

func (e *Executor) run(ctx context.Context, op domain.Operation, groups replace.Groups) error {
	if err := op.Validate(); err != nil {
		kind := appErrors.Internal
		if errors.Is(err, domain.ErrMissingSource) {
			kind = appErrors.MissingSource
		}
		return appErrors.Wrap(kind, string(op.Kind), op.TargetPath, err)
	}

	var err error
	switch op.Kind {
	case domain.KindCreate:
		if op.IsDirectory {
			err = e.FS.MkdirAll(op.TargetPath, dirPerm)
		} else {
			err = e.createFile(ctx, op.TargetPath)
		}
	case domain.KindCopy:
		if op.IsDirectory {
			err = e.copyDirectory(op.SourcePath, op.TargetPath, groups)
		} else {
			target := groups.FileTarget(op.TargetPath)
			if err = checkOverlap(op.SourcePath, target, false); err == nil {
				err = e.FS.CopyFile(op.SourcePath, target)
			}
		}
	case domain.KindMove:
		if op.IsDirectory {
			err = e.moveDirectory(op.SourcePath, op.TargetPath, groups)
		} else if err = checkOverlap(op.SourcePath, op.TargetPath, false); err == nil {
			err = e.FS.Rename(op.SourcePath, op.TargetPath)
		}
	case domain.KindIncluded:
		return nil
	}
	return appErrors.Wrap(appErrors.IOFailure, string(op.Kind), op.TargetPath, err)
}

// createFile writes a functional blank when one is available and falls back
// to an empty file otherwise. Only a failed empty write is returned.
func (e *Executor) createFile(ctx context.Context, path string) error {
	if e.functionalBlanksEnabled() {
		ext := Extension(path)
		if ext == "" {
			e.Logger.Verbosef("No extension for %s, writing empty file", path)
		} else if data, ok := e.Blanks.FunctionalBlank(ctx, ext); ok {
			err := e.FS.WriteBinaryFile(path, data)
			if err == nil {
				return nil
			}
			e.Logger.Warnf("writing functional blank to %s: %v", path, err)
		}
	}
	return e.FS.WriteFile(path, "")
}

func (e *Executor) functionalBlanksEnabled() bool {
	if e.Blanks == nil {
		return false
	}
	if e.Preferences == nil {
		return true
	}
	return e.Preferences.CreateFunctionalBlankFiles()
}

// copyDirectory recreates the source tree under target. All directories are
// created before any file is copied.
func (e *Executor) copyDirectory(source, target string, groups replace.Groups) error {
	if err := checkOverlap(source, target, true); err != nil {
		return err
	}
	info, err := e.FS.Stat(source)
	if err != nil {
		return fmt.Errorf("source %s: %w", source, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", source)
	}

	if err := e.FS.MkdirAll(target, dirPerm); err != nil {
		return err
	}

	for _, dir := range e.FS.AllDirectories(source) {
		rel := groups.RelativePath(e.FS.RelativePath(source, dir), false)
		if err := e.FS.MkdirAll(filepath.Join(target, filepath.FromSlash(rel)), dirPerm); err != nil {
			return err
		}
	}

	for _, file := range e.FS.AllFiles(source) {
		rel := groups.RelativePath(e.FS.RelativePath(source, file), true)
		if err := e.FS.CopyFile(file, filepath.Join(target, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) moveDirectory(source, target string, groups replace.Groups) error {
	if err := e.copyDirectory(source, target, groups); err != nil {
		return err
	}
	return e.FS.Remove(source, true)
}

// checkOverlap rejects a target that is the source itself or, for
// directories, lies inside it.
func checkOverlap(source, target string, isDir bool) error {
	src, dst := filepath.Clean(source), filepath.Clean(target)
	if src == dst {
		return fmt.Errorf("%w: %s", ErrSameSource, src)
	}
	if isDir {
		if rel, err := filepath.Rel(src, dst); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s is inside %s", ErrTargetInsideSource, dst, src)
		}
	}
	return nil
}

// Extension returns the lowercased extension of path without its dot.
// Dotfiles without a further extension have none.
func Extension(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
