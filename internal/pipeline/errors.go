package pipeline

import (
	"errors"
	"fmt"

	"SpreadScope/internal/align"
	"SpreadScope/internal/collector"
)

// Kind classifies a pipeline failure for callers.
type Kind int

const (
	KindDataUnavailable Kind = iota + 1
	KindSchema
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindDataUnavailable:
		return "data_unavailable"
	case KindSchema:
		return "schema"
	case KindConfiguration:
		return "configuration"
	}
	return "unknown"
}

var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrSchema          = errors.New("schema error")
	ErrConfiguration   = errors.New("configuration error")
)

// Error is the only error type returned by Run.
type Error struct {
	Kind  Kind
	Stage string
	Leg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Leg != "" {
		return fmt.Sprintf("%s: %s (leg %s): %v", e.Stage, e.Kind, e.Leg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDataUnavailable:
		return e.Kind == KindDataUnavailable
	case ErrSchema:
		return e.Kind == KindSchema
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	}
	return false
}

// KindOf returns the kind of err, or 0 if it is not a pipeline error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// ConfigError wraps err as a configuration failure raised before any fetch.
func ConfigError(err error) *Error {
	return &Error{Kind: KindConfiguration, Stage: StageValidate, Err: err}
}

func fetchError(err error) *Error {
	e := &Error{Kind: KindDataUnavailable, Stage: StageFetch, Err: err}
	var le *collector.LegError
	if errors.As(err, &le) {
		e.Leg = le.Symbol
	}
	if errors.Is(err, collector.ErrSchema) {
		e.Kind = KindSchema
	}
	return e
}

func alignError(err error) *Error {
	e := &Error{Kind: KindDataUnavailable, Stage: StageAlign, Err: err}
	var le *align.LegError
	if errors.As(err, &le) {
		e.Leg = le.Symbol
	}
	if errors.Is(err, align.ErrSchema) {
		e.Kind = KindSchema
	}
	return e
}
