/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haraldrudell/pshell/pids"
	"github.com/haraldrudell/pshell/pproc"
	"github.com/haraldrudell/pshell/psignal"
)

// attachPollInterval paces the liveness poll [AttachedCommand] uses
// to detect exit: POSIX only lets a process wait(2)/reap its own
// children, so a pid discovered post-facto (§4.8) cannot be waited on
// the way a spawned CommandCore's pid can — this is the best-effort
// substitute
const attachPollInterval = 20 * time.Millisecond

// AttachedCommand has the same public surface as CommandCore but is
// backed by a pid discovered post-facto rather than spawned locally
// (§4.8). Standard streams are always closed: the OS gives a
// non-parent no handle to redirect them after the fact.
type AttachedCommand struct {
	pid  pids.Pid
	proc *pproc.PlatformProcess

	killRequested atomic.Bool

	done      chan struct{}
	completer sync.Once
	result    CommandResult
	resultErr error
}

// TryAttach fetches a process handle for pid and, if it is alive,
// returns a running AttachedCommand; otherwise ok is false (§4.8
// tryAttach)
func TryAttach(pid int, options Options) (ac *AttachedCommand, ok bool) {
	var p = pids.NewPid(uint32(pid))
	if !p.IsAlive() {
		return nil, false
	}
	proc, err := pproc.Attach(p)
	if err != nil {
		return nil, false
	}
	ac = &AttachedCommand{pid: p, proc: proc, done: make(chan struct{})}
	go ac.run(options)
	return ac, true
}

func (ac *AttachedCommand) run(options Options) {
	var ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	var timedOut atomic.Bool
	var cancelled atomic.Bool
	var timer *time.Timer
	if options.hasTimeout {
		timer = time.AfterFunc(options.timeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer timer.Stop()
	}
	if token := options.cancellationToken; token != nil {
		go func() {
			select {
			case <-token.Done():
				cancelled.Store(true)
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	var ticker = time.NewTicker(attachPollInterval)
	defer ticker.Stop()
pollLoop:
	for {
		select {
		case <-ticker.C:
			if !ac.pid.IsAlive() {
				break pollLoop
			}
		case <-ctx.Done():
			_ = ac.proc.Kill()
			break pollLoop
		}
	}
	// allow a final liveness settle after an explicit kill/cancel/timeout
	for ac.pid.IsAlive() {
		time.Sleep(attachPollInterval)
	}

	var reason Reason
	switch {
	case cancelled.Load():
		reason = ReasonCancelled
	case timedOut.Load():
		reason = ReasonTimedOut
	case ac.killRequested.Load():
		reason = ReasonKilled
	default:
		reason = ReasonExited
	}

	// the true exit code of a non-child pid is not retrievable
	// portably in Go; report -1 on every platform when we ourselves
	// killed it, 0 otherwise
	var exitCode int32
	if reason == ReasonKilled || reason == ReasonCancelled || reason == ReasonTimedOut {
		exitCode = -1
	}

	var result = CommandResult{ExitCode: exitCode, Success: exitCode == 0}
	var resultErr error
	switch reason {
	case ReasonCancelled:
		resultErr = &CancelledError{}
	case ReasonTimedOut:
		resultErr = &TimedOutError{}
	}

	ac.completer.Do(func() {
		ac.result = result
		ac.resultErr = resultErr
		close(ac.done)
	})
}

func (ac *AttachedCommand) Wait() (CommandResult, error) {
	<-ac.done
	return ac.result, ac.resultErr
}

// Kill idempotently forces termination of the attached process
func (ac *AttachedCommand) Kill() (err error) {
	select {
	case <-ac.done:
		return nil
	default:
	}
	ac.killRequested.Store(true)
	return ac.proc.Kill()
}

func (ac *AttachedCommand) ProcessID() (int, bool) { return ac.pid.Int(), true }

func (ac *AttachedCommand) ProcessIDs() []int { return []int{ac.pid.Int()} }

func (ac *AttachedCommand) TrySignalAsync(sig psignal.Signal) bool {
	var s psignal.Signaler
	return s.TrySignalAsync(ac.pid.Int(), sig)
}

// StandardInput always fails: an attached process's streams are
// closed (§4.8)
func (ac *AttachedCommand) StandardInput() (io.Writer, error) {
	return nil, &StreamDisposedError{Stream: "standard input"}
}

// StandardOutput always fails: an attached process's streams are
// closed (§4.8)
func (ac *AttachedCommand) StandardOutput() (io.Reader, error) {
	return nil, &StreamDisposedError{Stream: "standard output"}
}

// StandardError always fails: an attached process's streams are
// closed (§4.8)
func (ac *AttachedCommand) StandardError() (io.Reader, error) {
	return nil, &StreamDisposedError{Stream: "standard error"}
}

// Process always fails: a post-facto attach never owns the target's
// OS process handle (§4.8)
func (ac *AttachedCommand) Process() (*os.Process, error) {
	return nil, &StreamDisposedError{Stream: "process handle"}
}

func (ac *AttachedCommand) String() string {
	return "attached pid " + ac.pid.String()
}
