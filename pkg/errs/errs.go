package errs

import (
	"errors"
	"runtime"
)

const (
	traceSkip     = 3
	tracePrealloc = 50
)

type sFrame struct {
	filename string
	method   string
	line     int
}

type stack []sFrame

type errorWithTrace struct {
	error

	trace stack
}

// NewStack wraps err with the call stack of the first wrap site.
func NewStack(err error) error {
	if err == nil {
		return nil
	}

	// Add trace only once
	var errWT *errorWithTrace
	if errors.As(err, &errWT) {
		return err
	}

	return &errorWithTrace{
		error: err,
		trace: stackTrace(traceSkip),
	}
}

func (e *errorWithTrace) Unwrap() error {
	return e.error
}

func stackTrace(skip int) stack {
	pc := make([]uintptr, tracePrealloc)
	n := runtime.Callers(skip, pc)
	pc = pc[:n]

	frames := runtime.CallersFrames(pc)
	stack := make(stack, 0, n)

	for {
		frame, more := frames.Next()

		stack = append(stack, sFrame{filename: frame.File, method: frame.Function, line: frame.Line})

		if !more {
			break
		}
	}

	return stack
}
