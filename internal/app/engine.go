package app

import (
	"context"
	"fmt"

	"structa/internal/domain"
	appErrors "structa/internal/errors"
	"structa/internal/logging"
	"structa/internal/replace"
)

// Engine exposes the structure creation entry points.
type Engine struct {
	Planner  *Planner
	Executor *Executor
}

func NewEngine(fsys FileSystem, blanks BlankProvider, prefs Preferences, logger logging.Logger) *Engine {
	return &Engine{
		Planner: &Planner{FS: fsys, Logger: logger},
		Executor: &Executor{
			FS:          fsys,
			Blanks:      blanks,
			Preferences: prefs,
			Logger:      logger,
		},
	}
}

// StructureCreationPlan returns a fresh pre-flight summary. It is safe to
// call any number of times.
func (e *Engine) StructureCreationPlan(ctx context.Context, req domain.Request) domain.Summary {
	return e.Planner.Plan(ctx, req.Operations)
}

// CreateFoldersDetailed plans, executes and reports. Failed operations are
// reported in the result; the error is reserved for a misconfigured engine.
func (e *Engine) CreateFoldersDetailed(ctx context.Context, req domain.Request) (domain.ExecutionResult, error) {
	summary := e.Planner.Plan(ctx, req.Operations)

	tally, err := e.Executor.Execute(ctx, req.Operations, replace.BuildGroups(req.Replacements))
	if err != nil {
		return domain.ExecutionResult{}, appErrors.Wrap(appErrors.Internal, "execute", req.BaseDir, err)
	}
	return domain.NewExecutionResult(req.BaseDir, summary, tally.Total, tally.Failures), nil
}

// CreateFolders returns the base directory when every operation completed.
func (e *Engine) CreateFolders(ctx context.Context, req domain.Request) (string, error) {
	result, err := e.CreateFoldersDetailed(ctx, req)
	if err != nil {
		return "", err
	}
	if result.FailureCount > 0 {
		return "", appErrors.Wrap(appErrors.PartialFailure, "", "", FailureCountError(result.FailureCount))
	}
	return result.BaseDir, nil
}

// FailureCountError summarizes a failure count in one message.
func FailureCountError(count int) error {
	noun := "operations"
	if count == 1 {
		noun = "operation"
	}
	return fmt.Errorf("%d %s failed", count, noun)
}
