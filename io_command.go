/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"context"
	"io"
	"os"

	"github.com/haraldrudell/pshell/ppump"
	"github.com/haraldrudell/pshell/psignal"
)

// redirectedStream tags which of {in, out, err} an IoCommand hides
type redirectedStream int

const (
	redirectIn redirectedStream = iota
	redirectOut
	redirectErr
)

// IoCommand wraps a *CommandCore, hiding exactly one standard stream
// and routing it to/from an operator-supplied source/sink (§4.5). The
// wrapped CommandCore's own accessors stay usable directly — only
// the IoCommand's own view of that stream is blocked.
type IoCommand struct {
	core   *CommandCore
	stream redirectedStream
	desc   string
	pump   *ppump.Pump
}

// RedirectStandardInputFrom starts a pump copying source into core's
// stdin and returns an IoCommand hiding direct stdin access (§4.3
// redirectStandardInputFrom). Fails with *RedirectionAlreadySetError
// if stdin already carries a redirection target (§3: at most one
// redirection target per standard stream).
func RedirectStandardInputFrom(core *CommandCore, source ppump.Source) (*IoCommand, error) {
	if !core.claimRedirect(redirectIn) {
		return nil, &RedirectionAlreadySetError{Stream: "standard input"}
	}
	var pump = ppump.Start(context.Background(), "stdin-redirect", source.Reader(), core.stdinW)
	core.addPump(taggedPump{pump: pump, isSink: false})
	return &IoCommand{core: core, stream: redirectIn, desc: source.String(), pump: pump}, nil
}

// RedirectStandardOutputTo starts a pump copying core's buffered
// stdout into sink and returns an IoCommand hiding direct stdout
// access (§4.3 redirectStandardOutputTo). Buffering for
// CommandResult.StandardOutput stops at the moment of redirection.
// Fails with *RedirectionAlreadySetError if stdout already carries a
// redirection target (a prior RedirectStandardOutputTo or PipeTo).
func RedirectStandardOutputTo(core *CommandCore, sink ppump.Sink) (*IoCommand, error) {
	if !core.claimRedirect(redirectOut) {
		return nil, &RedirectionAlreadySetError{Stream: "standard output"}
	}
	core.stdoutBuf.StopBuffering()
	var pump = ppump.Start(context.Background(), "stdout-redirect", core.stdoutBuf, sink.WriteCloser())
	core.addPump(taggedPump{pump: pump, isSink: true})
	return &IoCommand{core: core, stream: redirectOut, desc: sink.String(), pump: pump}, nil
}

// RedirectStandardErrorTo starts a pump copying core's buffered
// stderr into sink and returns an IoCommand hiding direct stderr
// access (§4.3 redirectStandardErrorTo). Fails with
// *RedirectionAlreadySetError if stderr already carries a redirection
// target.
func RedirectStandardErrorTo(core *CommandCore, sink ppump.Sink) (*IoCommand, error) {
	if !core.claimRedirect(redirectErr) {
		return nil, &RedirectionAlreadySetError{Stream: "standard error"}
	}
	core.stderrBuf.StopBuffering()
	var pump = ppump.Start(context.Background(), "stderr-redirect", core.stderrBuf, sink.WriteCloser())
	core.addPump(taggedPump{pump: pump, isSink: true})
	return &IoCommand{core: core, stream: redirectErr, desc: sink.String(), pump: pump}, nil
}

// RedirectStandardInputFrom is the convenience form chaining directly
// off a CommandCore
func (c *CommandCore) RedirectStandardInputFrom(source ppump.Source) (*IoCommand, error) {
	return RedirectStandardInputFrom(c, source)
}

// RedirectStandardOutputTo is the convenience form chaining directly
// off a CommandCore
func (c *CommandCore) RedirectStandardOutputTo(sink ppump.Sink) (*IoCommand, error) {
	return RedirectStandardOutputTo(c, sink)
}

// RedirectStandardErrorTo is the convenience form chaining directly
// off a CommandCore
func (c *CommandCore) RedirectStandardErrorTo(sink ppump.Sink) (*IoCommand, error) {
	return RedirectStandardErrorTo(c, sink)
}

// Wait awaits the wrapped core, clearing whichever captured-text
// field corresponds to the hidden stream: that field reads as the
// empty string, and no *StreamRedirectedError is raised for it
func (io_ *IoCommand) Wait() (result CommandResult, err error) {
	result, err = io_.core.Wait()
	switch io_.stream {
	case redirectOut:
		result.StandardOutput = ""
	case redirectErr:
		result.StandardError = ""
	}
	return
}

func (io_ *IoCommand) Kill() error { return io_.core.Kill() }

func (io_ *IoCommand) ProcessID() (int, bool) { return io_.core.ProcessID() }

func (io_ *IoCommand) ProcessIDs() []int { return io_.core.ProcessIDs() }

func (io_ *IoCommand) TrySignalAsync(sig psignal.Signal) bool { return io_.core.TrySignalAsync(sig) }

// StandardInput fails with *StreamRedirectedError if stdin is the
// stream this wrapper hides
func (io_ *IoCommand) StandardInput() (io.Writer, error) {
	if io_.stream == redirectIn {
		return nil, &StreamRedirectedError{Stream: "standard input", Target: io_.desc}
	}
	return io_.core.StandardInput()
}

// StandardOutput fails with *StreamRedirectedError if stdout is the
// stream this wrapper hides
func (io_ *IoCommand) StandardOutput() (io.Reader, error) {
	if io_.stream == redirectOut {
		return nil, &StreamRedirectedError{Stream: "standard output", Target: io_.desc}
	}
	return io_.core.StandardOutput()
}

// StandardError fails with *StreamRedirectedError if stderr is the
// stream this wrapper hides
func (io_ *IoCommand) StandardError() (io.Reader, error) {
	if io_.stream == redirectErr {
		return nil, &StreamRedirectedError{Stream: "standard error", Target: io_.desc}
	}
	return io_.core.StandardError()
}

func (io_ *IoCommand) Process() (*os.Process, error) { return io_.core.Process() }

func (io_ *IoCommand) String() string {
	var in, out, errDesc string
	switch io_.stream {
	case redirectIn:
		in = io_.desc
	case redirectOut:
		out = io_.desc
	case redirectErr:
		errDesc = io_.desc
	}
	return toStringRedirected(io_.core.String(), in, out, errDesc)
}
