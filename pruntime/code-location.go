/*
© 2020–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package pruntime locates the calling function, used to annotate
// errors and debug trace lines with a short "pkg.Func" prefix.
package pruntime

import (
	"runtime"
	"strings"
)

// CodeLocation is a function identifier in package.Function form,
// eg. "pexec.Start"
type CodeLocation struct {
	// Package is the short package name, eg. "pexec"
	Package string
	// Function is the function name, eg. "Start"
	Function string
}

// NewCodeLocation returns the calling function, skipping framesToSkip
// additional frames beyond the caller of NewCodeLocation itself
func NewCodeLocation(framesToSkip int) (location *CodeLocation) {
	var pc, _, _, ok = runtime.Caller(framesToSkip + 1)
	location = &CodeLocation{}
	if !ok {
		return
	}
	var fn = runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	location.Package, location.Function = splitFuncName(fn.Name())
	return
}

// PackFunc returns "pkg.Func" for the function invoking PackFunc
func PackFunc() (packFunc string) {
	var loc = NewCodeLocation(1)
	return loc.PackFunc()
}

// PackFunc renders "pkg.Func"
func (c *CodeLocation) PackFunc() (s string) {
	if c.Package == "" && c.Function == "" {
		return "unknown.unknown"
	}
	return c.Package + "." + c.Function
}

// splitFuncName splits a fully qualified function name such as
// "github.com/haraldrudell/pshell/pproc.Start" into "pproc" and "Start"
func splitFuncName(full string) (pkg, fn string) {
	var slash = strings.LastIndex(full, "/")
	var rest = full
	if slash != -1 {
		rest = full[slash+1:]
	}
	var dot = strings.Index(rest, ".")
	if dot == -1 {
		return rest, ""
	}
	pkg = rest[:dot]
	fn = rest[dot+1:]
	// method values render as "pkg.(*Type).Method" — keep only the leaf
	if idx := strings.LastIndex(fn, "."); idx != -1 {
		fn = fn[idx+1:]
	}
	return
}
