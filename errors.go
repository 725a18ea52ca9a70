/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import "fmt"

// Reason names why a command's result future completed, used to pick
// the terminal error via the §7 precedence table: SpawnFailed >
// Cancelled > TimedOut > ErrorExitCode > pump errors > natural exit
type Reason int

const (
	ReasonExited Reason = iota
	ReasonKilled
	ReasonTimedOut
	ReasonCancelled
	ReasonFailedToStart
)

func (r Reason) String() string {
	switch r {
	case ReasonExited:
		return "exited"
	case ReasonKilled:
		return "killed"
	case ReasonTimedOut:
		return "timed out"
	case ReasonCancelled:
		return "cancelled"
	case ReasonFailedToStart:
		return "failed to start"
	default:
		return "unknown"
	}
}

// SpawnFailedError: the platform refused to start the process
type SpawnFailedError struct {
	Path  string
	Cause error
}

func (e *SpawnFailedError) Error() string {
	return fmt.Sprintf("spawn failed for %q: %v", e.Path, e.Cause)
}
func (e *SpawnFailedError) Unwrap() error { return e.Cause }

// ErrorExitCodeError: throwOnError was set and the process exited
// non-zero
type ErrorExitCodeError struct{ ExitCode int32 }

func (e *ErrorExitCodeError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.ExitCode)
}

// TimedOutError: the configured timeout elapsed before natural exit
type TimedOutError struct{}

func (e *TimedOutError) Error() string { return "command timed out" }

// CancelledError: an external cancellation token fired
type CancelledError struct{}

func (e *CancelledError) Error() string { return "command cancelled" }

// StreamRedirectedError: access to a stream that has been piped
// elsewhere via redirectStandardXTo/redirectStandardInputFrom
type StreamRedirectedError struct{ Stream, Target string }

func (e *StreamRedirectedError) Error() string {
	return fmt.Sprintf("%s is redirected to %s and not directly accessible", e.Stream, e.Target)
}

// RedirectionAlreadySetError: a second redirection target was applied
// to a stream that already has one. §3: "at most one redirection
// target may be applied to each standard stream (further attempts
// fail deterministically)" — without this check, a second
// RedirectStandardOutputTo/RedirectStandardErrorTo/PipeTo would start
// a second reader racing the first against the same MemoryBuffer.
type RedirectionAlreadySetError struct{ Stream string }

func (e *RedirectionAlreadySetError) Error() string {
	return fmt.Sprintf("%s already has a redirection target", e.Stream)
}

// StreamDisposedError: access to a stream after its command has
// released its handles
type StreamDisposedError struct{ Stream string }

func (e *StreamDisposedError) Error() string {
	return fmt.Sprintf("%s has been disposed", e.Stream)
}

// PumpSourceFailedError: an operator-attached pipe source's read
// raised an error
type PumpSourceFailedError struct{ Cause error }

func (e *PumpSourceFailedError) Error() string { return fmt.Sprintf("pipe source failed: %v", e.Cause) }
func (e *PumpSourceFailedError) Unwrap() error { return e.Cause }

// PumpSinkFailedError: an operator-attached pipe sink's write raised
// an error
type PumpSinkFailedError struct{ Cause error }

func (e *PumpSinkFailedError) Error() string { return fmt.Sprintf("pipe sink failed: %v", e.Cause) }
func (e *PumpSinkFailedError) Unwrap() error { return e.Cause }

// reasonRank implements the §7 terminal-reason precedence:
// SpawnFailed > Cancelled > TimedOut > ErrorExitCode > pump errors >
// natural exit. Lower rank wins.
func reasonRank(r Reason, hasPumpErr, hasExitCodeErr bool) int {
	switch {
	case r == ReasonFailedToStart:
		return 0
	case r == ReasonCancelled:
		return 1
	case r == ReasonTimedOut:
		return 2
	case hasExitCodeErr:
		return 3
	case hasPumpErr:
		return 4
	default:
		return 5
	}
}
