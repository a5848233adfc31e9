package errors

import (
	stdErrors "errors"
	"fmt"
)

type Kind string

const (
	InvalidConfig  Kind = "invalid_config"
	NotFound       Kind = "not_found"
	IOFailure      Kind = "io_failure"
	MissingSource  Kind = "missing_source"
	Network        Kind = "network"
	PartialFailure Kind = "partial_failure"
	Internal       Kind = "internal"
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// New builds an AppError from a plain message.
func New(kind Kind, op, path, msg string) error {
	return Wrap(kind, op, path, stdErrors.New(msg))
}

// KindOf returns the kind of the first AppError in the chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stdErrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case InvalidConfig:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case NotFound:
		return fmt.Sprintf("Path not found: %s", appErr.Path)
	case IOFailure:
		return fmt.Sprintf("I/O error: %s: %v", appErr.Path, appErr.Err)
	case MissingSource:
		return fmt.Sprintf("Missing source path for %s", appErr.Path)
	case Network:
		return fmt.Sprintf("Network error: %v", appErr.Err)
	case PartialFailure:
		return fmt.Sprintf("Structure incomplete: %v", appErr.Err)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
