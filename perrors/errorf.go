/*
© 2020–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package perrors provides error construction that always attaches a
// stack trace, so that a failure deep inside a pump goroutine or a
// spawn call can be traced back to its origin once it surfaces on a
// [pshell] CommandCore's result future.
package perrors

import (
	"errors"
	"fmt"

	"github.com/haraldrudell/pshell/pruntime"
)

// stackError carries a captured stack trace alongside the wrapped error
type stackError struct {
	error
	stack []uintptr
}

func (e *stackError) Unwrap() (err error) { return e.error }

// Errorf is similar to [fmt.Errorf] but ensures the returned error has
// a stack trace attached, unless one is already present in err's chain
func Errorf(format string, a ...any) (err error) {
	err = fmt.Errorf(format, a...)
	if HasStack(err) {
		return
	}
	return withStack(err, 1)
}

// ErrorfPF is like [Errorf] but prepends the calling function's
// "pkg.Func" identifier and a space to the message
//   - ErrorfPF("bad state") inside pproc.Spawn renders “pproc.Spawn bad state”
func ErrorfPF(format string, a ...any) (err error) {
	var prefix = pruntime.NewCodeLocation(1).PackFunc() + "\x20" + format
	err = fmt.Errorf(prefix, a...)
	if HasStack(err) {
		return
	}
	return withStack(err, 1)
}

func withStack(err error, skip int) (err2 error) {
	var pcs = make([]uintptr, 32)
	var n = callersSkip(skip + 2, pcs)
	return &stackError{error: err, stack: pcs[:n]}
}

// HasStack returns whether any error in err's chain already carries a
// stack trace
func HasStack(err error) (hasStack bool) {
	for ; err != nil; err = errors.Unwrap(err) {
		if _, ok := err.(*stackError); ok {
			return true
		}
	}
	return false
}
