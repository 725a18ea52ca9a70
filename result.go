/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"io"
	"os"

	"github.com/haraldrudell/pshell/psignal"
)

// CommandResult is the immutable outcome of a completed command
// (§3): exit code, the captured text of stdout/stderr (empty if that
// stream was redirected away or never buffered), and success, which
// is always exitCode == 0 regardless of the terminal reason.
type CommandResult struct {
	ExitCode       int32
	StandardOutput string
	StandardError  string
	Success        bool
}

// Command is the public surface shared by [CommandCore],
// [IoCommand], [PipelineCommand] and [AttachedCommand] (§3 "Command
// (abstract entity)").
type Command interface {
	// Wait blocks until the command's result future completes,
	// returning the terminal error (if any) alongside the best-effort
	// result snapshot
	Wait() (CommandResult, error)
	// Kill idempotently forces termination
	Kill() error
	// ProcessID returns the primary process id, and whether one is
	// available (always true once spawn has succeeded — §4.3 "pid
	// value is cached eagerly at spawn time")
	ProcessID() (pid int, ok bool)
	// ProcessIDs returns every underlying process id, in order (a
	// pipeline has one per stage)
	ProcessIDs() []int
	// TrySignalAsync best-effort delivers sig, returning false on any
	// failure or already-exited condition
	TrySignalAsync(sig psignal.Signal) bool
	// StandardInput returns the live stdin writer, or
	// *StreamRedirectedError / *StreamDisposedError
	StandardInput() (io.Writer, error)
	// StandardOutput returns the live stdout reader, or
	// *StreamRedirectedError / *StreamDisposedError
	StandardOutput() (io.Reader, error)
	// StandardError returns the live stderr reader, or
	// *StreamRedirectedError / *StreamDisposedError
	StandardError() (io.Reader, error)
	// Process returns the underlying OS process handle, or
	// *StreamDisposedError once disposeOnExit has released it (or the
	// implementation never owned one, as for AttachedCommand) — §4.3
	// "process handle accessor ... may fail when disposeOnExit is
	// true, because the underlying OS handle is released on exit"
	Process() (*os.Process, error)
	// String renders the §6 toString format
	String() string
}
