package domain

// Failure records one operation that returned an error during execution.
type Failure struct {
	Kind        Kind
	TargetPath  string
	SourcePath  string
	IsDirectory bool
	Message     string
}

func NewFailure(op Operation, err error) Failure {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Failure{
		Kind:        op.Kind,
		TargetPath:  op.TargetPath,
		SourcePath:  op.SourcePath,
		IsDirectory: op.IsDirectory,
		Message:     msg,
	}
}

// ExecutionResult is the final report handed back to callers.
type ExecutionResult struct {
	BaseDir        string
	Summary        Summary
	CompletedCount int
	FailureCount   int
	Failures       []Failure
	PartialSuccess bool
}

// NewExecutionResult combines the pre-flight summary with the executor's
// tally. The summary is not recomputed.
func NewExecutionResult(baseDir string, summary Summary, total int, failures []Failure) ExecutionResult {
	if failures == nil {
		failures = []Failure{}
	}
	completed := total - len(failures)
	if completed < 0 {
		completed = 0
	}
	return ExecutionResult{
		BaseDir:        baseDir,
		Summary:        summary,
		CompletedCount: completed,
		FailureCount:   len(failures),
		Failures:       failures,
		PartialSuccess: completed > 0 && len(failures) > 0,
	}
}

// Succeeded reports whether every operation completed.
func (r ExecutionResult) Succeeded() bool {
	return r.FailureCount == 0
}
