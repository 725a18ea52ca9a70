/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package pproc wraps [os/exec.Cmd] into the PlatformProcess
// abstraction a [pshell] CommandCore spawns, attaches to, kills and
// waits on: the one place platform exit-code and kill conventions are
// reconciled (§4.1).
//   - grounded on the teacher's pexec.ExecStreamFull process-start and
//     pexec.ExitError exit-code extraction
package pproc

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/elastic/go-sysinfo"
	"github.com/haraldrudell/pshell/perrors"
	"github.com/haraldrudell/pshell/pids"
)

// killedExitCodeUnix is the conventional exit code Unix shells report
// for a process killed by SIGKILL: 128 + 9 (§4.1 kill)
const killedExitCodeUnix = 128 + 9

// killedExitCodeWindows is the exit code reported on Windows for a
// process terminated by Kill
const killedExitCodeWindows = -1

// PlatformProcess wraps one live or exited child process: the spawn
// handle when this process started the child, or an attach handle
// when it only knows the pid of a process started elsewhere
type PlatformProcess struct {
	cmd     *exec.Cmd
	pid     pids.Pid
	killed  atomic.Bool
	started bool

	// released tracks whether the *os.Process handle has been given
	// up via Release, for [pshell.CommandCore]'s disposeOnExit-gated
	// process-handle accessor
	released atomic.Bool
}

// Spawn starts a new child process running path with args, wiring its
// three standard streams to stdin/stdout/stderr (any of which may be
// nil, meaning /dev/null-equivalent for stdin, discard for
// stdout/stderr)
func Spawn(path string, args []string, env []string, dir string, stdin io.Reader, stdout, stderr io.Writer) (p *PlatformProcess, err error) {
	var cmd = exec.Command(path, args...)
	if env != nil {
		cmd.Env = env
	}
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err = cmd.Start(); err != nil {
		return nil, perrors.ErrorfPF("spawn %s: %w", path, err)
	}
	p = &PlatformProcess{cmd: cmd, pid: pids.NewPid(uint32(cmd.Process.Pid)), started: true}
	return
}

// SpawnPiped starts path with args, returning live pipe handles for
// all three standard streams instead of wiring them to fixed
// readers/writers. This is the entry point [pshell.CommandCore] uses
// so its StreamPump can attach to each pipe independently and swap
// targets later when a redirection operator is applied.
//   - grounded on the teacher's pexec.ExecStreamFull, which obtains
//     the same three pipes via exec.Cmd.StdinPipe/StdoutPipe/StderrPipe
//     ahead of Start
func SpawnPiped(path string, args []string, env []string, dir string) (p *PlatformProcess, stdin io.WriteCloser, stdout, stderr io.ReadCloser, err error) {
	var cmd = exec.Command(path, args...)
	if env != nil {
		cmd.Env = env
	}
	if dir != "" {
		cmd.Dir = dir
	}

	if stdin, err = cmd.StdinPipe(); err != nil {
		return nil, nil, nil, nil, perrors.ErrorfPF("StdinPipe: %w", err)
	}
	if stdout, err = cmd.StdoutPipe(); err != nil {
		return nil, nil, nil, nil, perrors.ErrorfPF("StdoutPipe: %w", err)
	}
	if stderr, err = cmd.StderrPipe(); err != nil {
		return nil, nil, nil, nil, perrors.ErrorfPF("StderrPipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return nil, nil, nil, nil, perrors.ErrorfPF("spawn %s: %w", path, err)
	}
	p = &PlatformProcess{cmd: cmd, pid: pids.NewPid(uint32(cmd.Process.Pid)), started: true}
	return
}

// Attach builds a PlatformProcess around a pid this process did not
// start (§4.6 AttachedCommand); it can be killed, but Wait returns an
// error for it, and it has no accessible standard streams
func Attach(pid pids.Pid) (p *PlatformProcess, err error) {
	if _, err = sysinfo.Process(pid.Int()); err != nil {
		return nil, perrors.ErrorfPF("attach pid %s: %w", pid, err)
	}
	return &PlatformProcess{pid: pid}, nil
}

// Pid returns the process identifier
func (p *PlatformProcess) Pid() pids.Pid { return p.pid }

// Wait blocks until the process has exited, returning its exit code
// using platform convention: the process' own code on natural exit,
// 137 on a Unix SIGKILL (§4.1 kill), -1 on Windows TerminateProcess
func (p *PlatformProcess) Wait() (exitCode int, err error) {
	if p.cmd == nil {
		return 0, perrors.ErrorfPF("Wait called on an attached, not spawned, process")
	}
	var waitErr = p.cmd.Wait()
	if waitErr == nil {
		return p.cmd.ProcessState.ExitCode(), nil
	}

	var exitError *exec.ExitError
	if !errors.As(waitErr, &exitError) {
		return 0, perrors.ErrorfPF("wait: %w", waitErr)
	}
	exitCode = exitError.ExitCode()
	// os.Process.Kill on Windows terminates with exit code 1, so a
	// process we killed is recognised by the killed flag there
	if p.killed.Load() && runtime.GOOS == "windows" {
		return killedExitCodeWindows, nil
	}
	if exitCode != -1 {
		return exitCode, nil
	}

	// terminated by signal: translate to platform convention
	if p.killed.Load() {
		if runtime.GOOS == "windows" {
			return killedExitCodeWindows, nil
		}
		return killedExitCodeUnix, nil
	}
	if waitStatus, ok := exitError.ProcessState.Sys().(syscall.WaitStatus); ok && waitStatus.Signaled() {
		return 128 + int(waitStatus.Signal()), nil
	}
	return exitCode, nil
}

// Kill forcefully and idempotently terminates the process: the
// TerminateProcess equivalent on Windows, SIGKILL on Unix
func (p *PlatformProcess) Kill() (err error) {
	if !p.killed.CompareAndSwap(false, true) {
		return // idempotent (§4.1 kill)
	}

	if p.cmd != nil && p.cmd.Process != nil {
		if err = p.cmd.Process.Kill(); err != nil && isAlreadyExited(err) {
			err = nil
		}
		return
	}

	// attached process: no *os.Process handle, locate one by pid
	proc, findErr := os.FindProcess(p.pid.Int())
	if findErr != nil {
		return perrors.ErrorfPF("FindProcess %s: %w", p.pid, findErr)
	}
	if err = proc.Kill(); err != nil && isAlreadyExited(err) {
		err = nil
	}
	return
}

// Signal delivers an arbitrary os.Signal (Unix) to the process. On
// Windows, Go's runtime accepts only os.Kill for this path; portable
// Ctrl-C/Ctrl-Break delivery goes through [psignal.Signaler] instead.
func (p *PlatformProcess) Signal(sig os.Signal) (err error) {
	var proc *os.Process
	if p.cmd != nil {
		proc = p.cmd.Process
	} else if found, findErr := os.FindProcess(p.pid.Int()); findErr == nil {
		proc = found
	}
	if proc == nil {
		return perrors.ErrorfPF("no process handle for pid %s", p.pid)
	}
	return proc.Signal(sig)
}

// IsAlive reports whether the process still exists in the OS process
// table
func (p *PlatformProcess) IsAlive() bool { return p.pid.IsAlive() }

// Release gives up the underlying *os.Process handle, idempotently.
// CommandCore calls this once the result future completes when
// disposeOnExit is set, matching §4.3's "the underlying OS handle is
// released on exit".
func (p *PlatformProcess) Release() (err error) {
	if !p.released.CompareAndSwap(false, true) {
		return nil
	}
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Release()
	}
	return nil
}

// OSProcess returns the live *os.Process handle, or ok false once
// Release has been called or no handle was ever owned (an attached
// PlatformProcess has none)
func (p *PlatformProcess) OSProcess() (proc *os.Process, ok bool) {
	if p.released.Load() || p.cmd == nil {
		return nil, false
	}
	return p.cmd.Process, true
}

func isAlreadyExited(err error) bool {
	return errors.Is(err, os.ErrProcessDone)
}

// waitWithContext awaits the process honoring ctx cancellation: on
// cancel, the process is killed and the wait continues so its exit
// code can still be reported (§4.3 Cancelled takes precedence in the
// CommandCore terminal-reason table, but Wait here just reports facts)
func (p *PlatformProcess) waitWithContext(ctx context.Context) (exitCode int, cancelled bool, err error) {
	var done = make(chan struct{})
	var code int
	var werr error
	go func() {
		code, werr = p.Wait()
		close(done)
	}()

	select {
	case <-done:
		return code, false, werr
	case <-ctx.Done():
		_ = p.Kill()
		<-done
		return code, true, werr
	}
}

// WaitContext is the exported, context-aware form of Wait used by
// CommandCore to implement timeout and cancellation
func (p *PlatformProcess) WaitContext(ctx context.Context) (exitCode int, cancelled bool, err error) {
	return p.waitWithContext(ctx)
}
