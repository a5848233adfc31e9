package app

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"structa/internal/domain"
	"structa/internal/logging"
)

// Planner builds the read-only pre-flight summary of a request.
type Planner struct {
	FS      FileSystem
	Workers int
	Logger  logging.Logger
}

// Plan checks every target for existence and counts operations by kind. It
// never mutates the filesystem and never fails: a target whose existence
// cannot be determined is reported as not existing.
func (p *Planner) Plan(ctx context.Context, ops []domain.Operation) domain.Summary {
	stop := p.Logger.Measure("Planning structure")
	defer stop()

	exists, errs := p.checkTargets(ctx, ops)

	existing := make([]string, 0)
	for i, op := range ops {
		if errs[i] != nil {
			p.Logger.Warnf("could not check %s: %v", op.TargetPath, errs[i])
			continue
		}
		if exists[i] {
			existing = append(existing, op.TargetPath)
		}
	}

	summary := domain.Summarize(ops, existing)
	p.Logger.Verbosef("Planned %d operations (%d dirs, %d files, %d copies, %d moves), %d targets exist",
		summary.TotalOperations, summary.CreateDirectoryCount, summary.CreateFileCount,
		summary.CopyCount, summary.MoveCount, summary.ExistingTargetCount)
	return summary
}

func (p *Planner) checkTargets(ctx context.Context, ops []domain.Operation) ([]bool, []error) {
	exists := make([]bool, len(ops))
	errs := make([]error, len(ops))
	if p.FS == nil {
		return exists, errs
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			exists[i], errs[i] = p.FS.Exists(op.TargetPath)
			return nil
		})
	}
	_ = g.Wait()
	return exists, errs
}
