/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package pshell implements the Command runtime: the process
// lifecycle state machine, the asynchronous stream pump, the
// pipeline composition engine, and the portable signal mechanism
// (§1 core).
package pshell

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/haraldrudell/pshell/perrors"
	"github.com/haraldrudell/pshell/pids"
	"github.com/haraldrudell/pshell/plog"
	"github.com/haraldrudell/pshell/pproc"
	"github.com/haraldrudell/pshell/ppump"
	"github.com/haraldrudell/pshell/psignal"
)

// taggedPump remembers whether a completed pump's failure should
// surface as PumpSourceFailed (reading an operator-attached source)
// or PumpSinkFailed (writing an operator-attached sink) — §7.
type taggedPump struct {
	pump   *ppump.Pump
	isSink bool
}

// CommandCore is the per-command state machine of §4.3: Created is
// implicit in [newCommandCore] returning, Running spans the lifetime
// until one of Exited/Killed/TimedOut/Cancelled completes the result
// future exactly once.
type CommandCore struct {
	path    string
	args    []string
	options Options

	proc *pproc.PlatformProcess
	pid  pids.Pid

	stdinW    io.WriteCloser
	stdoutBuf *ppump.MemoryBuffer
	stderrBuf *ppump.MemoryBuffer

	killRequested atomic.Bool

	// stdinRedirected/stdoutRedirected/stderrRedirected enforce §3's
	// "at most one redirection target may be applied to each standard
	// stream" — claimed via claimRedirect before any second
	// ppump.Start is allowed to read the same MemoryBuffer/stdin
	// writer a first redirection (or a pipeline link) already owns.
	stdinRedirected  atomic.Bool
	stdoutRedirected atomic.Bool
	stderrRedirected atomic.Bool

	extraPumps   []taggedPump
	extraPumpsMu sync.Mutex

	done      chan struct{}
	completer sync.Once
	result    CommandResult
	resultErr error
}

// newCommandCore spawns path with args under options and begins
// running its lifecycle in the background. A spawn failure is
// reported as a *SpawnFailedError return rather than a zombie
// Created-state object, matching Go constructor idiom; every other
// terminal reason is reached by the returned *CommandCore's result
// future.
func newCommandCore(path string, args []string, options Options) (c *CommandCore, err error) {
	var req = SpawnRequest{Path: path, Args: args, WorkingDirectory: options.workingDirectory, Environment: options.environment}
	if options.startInfoMutator != nil {
		options.startInfoMutator(&req)
	}

	var proc *pproc.PlatformProcess
	var stdin io.WriteCloser
	var stdout, stderr io.ReadCloser
	if proc, stdin, stdout, stderr, err = pproc.SpawnPiped(req.Path, req.Args, req.Environment, req.WorkingDirectory); err != nil {
		return nil, &SpawnFailedError{Path: path, Cause: err}
	}

	c = &CommandCore{
		path:    path,
		args:    args,
		options: options,
		proc:    proc,
		pid:     proc.Pid(),
		stdinW:  &deadPipeTolerantWriter{w: stdin},
		done:    make(chan struct{}),
	}

	c.stdoutBuf = ppump.NewMemoryBuffer()
	c.stderrBuf = ppump.NewMemoryBuffer()
	var stdoutPump = ppump.Start(context.Background(), "stdout", stdout, c.stdoutBuf)
	var stderrPump = ppump.Start(context.Background(), "stderr", stderr, c.stderrBuf)
	c.extraPumps = append(c.extraPumps,
		taggedPump{pump: stdoutPump, isSink: true},
		taggedPump{pump: stderrPump, isSink: true},
	)

	if options.commandMutator != nil {
		options.commandMutator(c)
	}

	plog.Debug("pshell: spawned pid %d: %s", c.pid.Int(), c.String())
	go c.run()
	return c, nil
}

// run awaits the process exit (honoring timeout/cancellation),
// collects pump results, and completes the result future exactly
// once
func (c *CommandCore) run() {
	var ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	var timedOut atomic.Bool
	var cancelled atomic.Bool

	var timer *time.Timer
	if c.options.hasTimeout {
		timer = time.AfterFunc(c.options.timeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer timer.Stop()
	}
	if token := c.options.cancellationToken; token != nil {
		go func() {
			select {
			case <-token.Done():
				cancelled.Store(true)
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	var exitCode int
	var waitErr error
	exitCode, _, waitErr = c.proc.WaitContext(ctx)
	_ = waitErr

	var reason Reason
	switch {
	case cancelled.Load():
		reason = ReasonCancelled
	case timedOut.Load():
		reason = ReasonTimedOut
	case c.killRequested.Load():
		reason = ReasonKilled
	default:
		reason = ReasonExited
	}

	// let every pump drain to completion so captured output up to the
	// terminal point is preserved (§4.3)
	var pumpErr error
	c.extraPumpsMu.Lock()
	var pumps = append([]taggedPump(nil), c.extraPumps...)
	c.extraPumpsMu.Unlock()
	for _, tp := range pumps {
		if e := tp.pump.Wait(); e != nil && pumpErr == nil {
			if tp.isSink {
				pumpErr = &PumpSinkFailedError{Cause: e}
			} else {
				pumpErr = &PumpSourceFailedError{Cause: e}
			}
		}
	}

	var result = CommandResult{
		ExitCode:       int32(exitCode),
		Success:        exitCode == 0,
		StandardOutput: c.options.decode(c.stdoutBuf.Captured()),
		StandardError:  c.options.decode(c.stderrBuf.Captured()),
	}

	var hasExitCodeErr = c.options.throwOnError && exitCode != 0

	var resultErr error
	switch reasonRank(reason, pumpErr != nil, hasExitCodeErr) {
	case 1:
		resultErr = &CancelledError{}
	case 2:
		resultErr = &TimedOutError{}
	case 3:
		resultErr = &ErrorExitCodeError{ExitCode: int32(exitCode)}
	case 4:
		resultErr = pumpErr
	}

	plog.Debug("pshell: pid %d done: reason=%s exitCode=%d err=%v", c.pid.Int(), reason, exitCode, resultErr)

	if c.options.disposeOnExit {
		c.proc.Release()
	}
	c.complete(result, resultErr)
}

// claimRedirect atomically marks stream as carrying a redirection
// target, reporting false if one was already claimed — the
// enforcement point for §3's "at most one redirection target may be
// applied to each standard stream (further attempts fail
// deterministically)"
func (c *CommandCore) claimRedirect(stream redirectedStream) (claimed bool) {
	switch stream {
	case redirectIn:
		return c.stdinRedirected.CompareAndSwap(false, true)
	case redirectOut:
		return c.stdoutRedirected.CompareAndSwap(false, true)
	case redirectErr:
		return c.stderrRedirected.CompareAndSwap(false, true)
	default:
		return false
	}
}

func (c *CommandCore) complete(result CommandResult, err error) {
	c.completer.Do(func() {
		c.result = result
		c.resultErr = err
		close(c.done)
	})
}

// Wait blocks until the result future completes
func (c *CommandCore) Wait() (result CommandResult, err error) {
	<-c.done
	return c.result, c.resultErr
}

// Kill idempotently forces termination; a no-op once the command has
// already completed (§8 boundary: "Kill after natural exit: no
// effect")
func (c *CommandCore) Kill() (err error) {
	select {
	case <-c.done:
		return nil
	default:
	}
	c.killRequested.Store(true)
	if err = c.proc.Kill(); err != nil {
		return perrors.ErrorfPF("kill pid %s: %w", c.pid, err)
	}
	return nil
}

// ProcessID returns the cached pid, available even after disposal
// (§4.3)
func (c *CommandCore) ProcessID() (pid int, ok bool) { return c.pid.Int(), true }

// ProcessIDs returns the single pid wrapped in a slice
func (c *CommandCore) ProcessIDs() []int { return []int{c.pid.Int()} }

// TrySignalAsync delegates to [psignal.Signaler]
func (c *CommandCore) TrySignalAsync(sig psignal.Signal) bool {
	var s psignal.Signaler
	return s.TrySignalAsync(c.pid.Int(), sig)
}

// StandardInput returns the live stdin writer. This accessor is on
// the CommandCore itself, so it stays usable for introspection even
// once an [IoCommand] wrapper has hidden the stream from its own
// callers (§4.5).
func (c *CommandCore) StandardInput() (w io.Writer, err error) { return c.stdinW, nil }

// StandardOutput returns a live view of stdout (see StandardInput)
func (c *CommandCore) StandardOutput() (r io.Reader, err error) { return c.stdoutBuf, nil }

// StandardError returns a live view of stderr (see StandardInput)
func (c *CommandCore) StandardError() (r io.Reader, err error) { return c.stderrBuf, nil }

// Process returns the underlying *os.Process handle. Once the command
// has exited with disposeOnExit set, the OS handle has been released
// and Process fails (§4.3 "process handle accessor ... may fail when
// disposeOnExit is true, because the underlying OS handle is released
// on exit").
func (c *CommandCore) Process() (proc *os.Process, err error) {
	var ok bool
	if proc, ok = c.proc.OSProcess(); !ok {
		return nil, &StreamDisposedError{Stream: "process handle"}
	}
	return proc, nil
}

func (c *CommandCore) String() string { return toStringSimple(c.path, c.args, c.options.quoter()) }

func (c *CommandCore) addPump(tp taggedPump) {
	c.extraPumpsMu.Lock()
	defer c.extraPumpsMu.Unlock()
	c.extraPumps = append(c.extraPumps, tp)
}

// deadPipeTolerantWriter silently discards writes after the
// underlying pipe has gone away (§8 boundary: "Writing to stdin
// after process exit: silent no-op, no error")
type deadPipeTolerantWriter struct {
	w io.WriteCloser
}

func (d *deadPipeTolerantWriter) Write(p []byte) (n int, err error) {
	n, err = d.w.Write(p)
	if err != nil && (errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EPIPE)) {
		return len(p), nil
	}
	return
}

func (d *deadPipeTolerantWriter) Close() error { return d.w.Close() }
