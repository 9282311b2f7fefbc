package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// CompileError reports a formula that cannot be compiled. Context lists the
// enclosing expressions and cells, innermost first.
type CompileError struct {
	Err     error
	Context []string
}

func (e *CompileError) Error() string {
	if len(e.Context) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (in %s)", e.Err, strings.Join(e.Context, ", in "))
}

func (e *CompileError) Unwrap() error { return e.Err }

// AddContext appends the description of an enclosing element and returns e.
func (e *CompileError) AddContext(format string, args ...any) *CompileError {
	e.Context = append(e.Context, fmt.Sprintf(format, args...))
	return e
}

func compileErrorf(format string, args ...any) *CompileError {
	return &CompileError{Err: fmt.Errorf(format, args...)}
}

// withContext attaches a context description to err, wrapping it in a
// CompileError if needed.
func withContext(err error, format string, args ...any) error {
	var ce *CompileError
	if !errors.As(err, &ce) {
		ce = &CompileError{Err: err}
	}
	return ce.AddContext(format, args...)
}

// InputError reports a host input that could not be read or converted.
type InputError struct {
	Binding string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Binding, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// isFailure reports whether err is a failure of a computation, as opposed to
// a defect of the compiler.
func isFailure(err error) bool {
	var ae *numeric.ArithmeticError
	var ie *InputError
	return runtime.IsFormulaError(err) || errors.As(err, &ae) || errors.As(err, &ie)
}

// recoverFailure turns a failure raised inside compiled code into an error.
// Other panics are re-raised.
func recoverFailure(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok && isFailure(e) {
		*err = e
		return
	}
	panic(r)
}
