/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package ppump

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/haraldrudell/pshell/perrors"
)

// Pump is a long-running asynchronous operation that owns exactly one
// reader and one writer and shuttles bytes between them until the
// reader reaches EOF or a read or write fails. Its context is not
// consulted: a pump whose reader blocks keeps running.
//   - never holds a lock across a read or write that can block on an
//     external stream (§4.2) — Pump itself holds no lock at all; the
//     lock-holding is pushed down into [MemoryBuffer] and the Sink
//     writer implementations, each of which only ever blocks inside
//     its own Write/Read, not inside Pump
//   - grounded on the teacher's pexec copyThread: a goroutine plus a
//     done-channel, generalized to report its error through Err/Wait
//     instead of an injected callback
type Pump struct {
	label string
	done  chan struct{}
	errp  atomic.Pointer[error]
}

// Start launches a pump copying from r to w until r reaches EOF or a
// read or write fails; cancelling ctx does not stop it (see run). w is
// closed when the copy ends (the PipeFrom "close child stdin
// on source EOF" contract, and the PipeTo "flush and release on child
// EOF" contract both fall out of this: for stdin pumps w is the child's
// stdin pipe; for stdout/stderr pumps w is the external sink or
// [MemoryBuffer]).
func Start(ctx context.Context, label string, r io.Reader, w io.WriteCloser) (p *Pump) {
	p = &Pump{label: label, done: make(chan struct{})}
	go p.run(ctx, r, w)
	return
}

// Discard launches a pump that drains r as fast as possible without
// ever blocking the child, discarding every byte
func Discard(label string, r io.Reader) (p *Pump) {
	return Start(context.Background(), label, r, discardWriteCloser{})
}

// run performs the copy. ctx is not used to abort io.Copy directly —
// Go gives no portable way to interrupt a blocked Read — cancellation
// instead happens because killing the child process closes the
// underlying pipe, which unblocks io.Copy with EOF or a closed-pipe
// error. ctx is accepted so a future non-process source (eg a network
// reader) can be made cancellable without changing Pump's API.
func (p *Pump) run(ctx context.Context, r io.Reader, w io.WriteCloser) {
	defer close(p.done)
	_ = ctx

	var _, copyErr = io.Copy(w, r)
	if copyErr != nil && !errors.Is(copyErr, io.ErrClosedPipe) {
		var err = perrors.ErrorfPF("%s: %w", p.label, copyErr)
		p.errp.Store(&err)
	}
	if err := w.Close(); err != nil && p.errp.Load() == nil {
		var e = perrors.ErrorfPF("%s close: %w", p.label, err)
		p.errp.Store(&e)
	}
}

// Wait blocks until the pump has completed and returns any error it
// observed — either a reader/writer failure (PumpSourceFailed /
// PumpSinkFailed in the caller's taxonomy) or nil on clean EOF
func (p *Pump) Wait() (err error) {
	<-p.done
	return p.Err()
}

// Err returns the pump's terminal error without blocking; nil before
// completion or on success
func (p *Pump) Err() (err error) {
	if ep := p.errp.Load(); ep != nil {
		err = *ep
	}
	return
}

// Done returns a channel closed when the pump has completed, for
// selecting alongside other lifecycle events
func (p *Pump) Done() <-chan struct{} { return p.done }

type discardWriteCloser struct{}

func (discardWriteCloser) Write(p []byte) (n int, err error) { return len(p), nil }
func (discardWriteCloser) Close() (err error)                { return }
