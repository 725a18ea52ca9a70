/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/haraldrudell/pshell/ppump"
)

// scenario 1: echo
func TestEchoStdin(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/cat")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	stdin, err := cmd.StandardInput()
	if err != nil {
		t.Fatalf("StandardInput: %v", err)
	}
	if _, err = io.WriteString(stdin, "abc"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	// close stdin so /bin/cat reaches EOF and exits
	cmd.stdinW.Close()

	result, err := cmd.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if result.StandardOutput != "abc" {
		t.Errorf("stdout = %q, want %q", result.StandardOutput, "abc")
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
}

// scenario 3: exit-code
func TestExitCodeNoThrow(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/sh", "-c", "exit 16")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	result, err := cmd.Wait()
	if err != nil {
		t.Fatalf("Wait returned error without throwOnError: %v", err)
	}
	if result.ExitCode != 16 {
		t.Errorf("exit code = %d, want 16", result.ExitCode)
	}
	if result.Success {
		t.Error("success should be false for nonzero exit code")
	}
}

func TestExitCodeThrowOnError(t *testing.T) {
	var shell = NewShell().WithOptions(DefaultOptions().WithThrowOnError(true))
	cmd, err := shell.Command("/bin/sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	_, err = cmd.Wait()
	var exitErr *ErrorExitCodeError
	if err == nil {
		t.Fatal("expected ErrorExitCodeError with throwOnError set")
	}
	if !asErrorExitCode(err, &exitErr) {
		t.Fatalf("error is not *ErrorExitCodeError: %v", err)
	}
	if exitErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", exitErr.ExitCode)
	}
}

func asErrorExitCode(err error, target **ErrorExitCodeError) bool {
	if e, ok := err.(*ErrorExitCodeError); ok {
		*target = e
		return true
	}
	return false
}

// scenario 4: timeout-on-sleep
func TestTimeoutKillsSleep(t *testing.T) {
	var shell = NewShell().WithOptions(DefaultOptions().WithTimeout(100 * time.Millisecond))
	cmd, err := shell.Command("/bin/sleep", "10")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	var start = time.Now()
	_, err = cmd.Wait()
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not fire promptly")
	}
	if _, ok := err.(*TimedOutError); !ok {
		t.Fatalf("expected *TimedOutError, got %v", err)
	}
}

// scenario 5: kill-midstream
func TestKillReportsConventionalExitCode(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/cat")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	stdin, _ := cmd.StandardInput()
	io.WriteString(stdin, "abc\n")
	time.Sleep(100 * time.Millisecond)
	if err = cmd.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	result, _ := cmd.Wait()
	if result.ExitCode != 137 {
		t.Errorf("exit code = %d, want 137", result.ExitCode)
	}
	if !strings.HasPrefix(result.StandardOutput, "abc") {
		t.Errorf("stdout = %q, want prefix %q", result.StandardOutput, "abc")
	}
}

func TestKillAfterExitIsNoOp(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/echo", "hi")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	result, _ := cmd.Wait()
	if err = cmd.Kill(); err != nil {
		t.Errorf("Kill after exit must be a no-op, got: %v", err)
	}
	if !result.Success {
		t.Error("expected success for echo")
	}
}

// scenario 2: grep-pipeline
func TestGrepPipeline(t *testing.T) {
	var shell = NewShell()
	a, err := shell.Command("/bin/grep", "a")
	if err != nil {
		t.Fatalf("Command a: %v", err)
	}
	b, err := shell.Command("/bin/grep", "b")
	if err != nil {
		t.Fatalf("Command b: %v", err)
	}
	c, err := shell.Command("/bin/grep", "c")
	if err != nil {
		t.Fatalf("Command c: %v", err)
	}
	ab, err := a.PipeTo(b)
	if err != nil {
		t.Fatalf("PipeTo a->b: %v", err)
	}
	pl, err := ab.PipeTo(c)
	if err != nil {
		t.Fatalf("PipeTo ab->c: %v", err)
	}

	stdin, err := pl.StandardInput()
	if err != nil {
		t.Fatalf("StandardInput: %v", err)
	}
	for _, line := range []string{"abcd", "a", "ab", "abc"} {
		io.WriteString(stdin, line+"\n")
	}
	stdin.(io.Closer).Close()

	result, err := pl.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	var lines = strings.Split(strings.TrimRight(result.StandardOutput, "\n"), "\n")
	var want = []string{"abcd", "abc"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

// scenario 6: attach-then-wait
func TestAttachThenWait(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/sleep", "0.1")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	pid, _ := cmd.ProcessID()

	ac, ok := TryAttach(pid, DefaultOptions())
	if !ok {
		t.Fatal("TryAttach failed on a live pid")
	}

	_, err1 := cmd.Wait()
	_, err2 := ac.Wait()
	if err1 != nil {
		t.Errorf("original command wait error: %v", err1)
	}
	if err2 != nil {
		t.Errorf("attached command wait error: %v", err2)
	}
}

func TestRedirectStandardOutputHidesText(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/echo", "secret")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	var got []string
	io_, err := cmd.RedirectStandardOutputTo(ppump.ToCollection(&got))
	if err != nil {
		t.Fatalf("RedirectStandardOutputTo: %v", err)
	}

	result, err := io_.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if result.StandardOutput != "" {
		t.Errorf("redirected stdout text = %q, want empty", result.StandardOutput)
	}
	if _, err = io_.StandardOutput(); err == nil {
		t.Error("expected StreamRedirectedError accessing redirected stdout")
	}
	if len(got) != 1 || got[0] != "secret" {
		t.Errorf("sink lines = %v, want [secret]", got)
	}
}

func TestWithEncodingDecodesCapturedText(t *testing.T) {
	var shell = NewShell().WithOptions(DefaultOptions().WithEncoding(charmap.ISO8859_1))
	// printf with an octal escape writes a raw 0xE9 byte, which ISO-8859-1 decodes to 'é'
	cmd, err := shell.Command("/bin/sh", "-c", `printf '\351'`)
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	result, err := cmd.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if result.StandardOutput != "é" {
		t.Errorf("stdout = %q, want %q", result.StandardOutput, "é")
	}
}

// a cancellation token fired before the process naturally exits must
// win out over a natural exit, and the pid must still be readable
// afterward even though disposeOnExit is the default
func TestCancellationBeforeExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var shell = NewShell().WithOptions(DefaultOptions().WithCancellationToken(ctx))
	cmd, err := shell.Command("/bin/sleep", "10")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	pid, ok := cmd.ProcessID()
	if !ok || pid <= 0 {
		t.Fatalf("ProcessID before cancel: %d, %v", pid, ok)
	}
	cancel()

	_, err = cmd.Wait()
	if _, ok := err.(*CancelledError); !ok {
		t.Fatalf("expected *CancelledError, got %v", err)
	}
	if pid2, ok := cmd.ProcessID(); !ok || pid2 != pid {
		t.Errorf("ProcessID after cancel = %d, %v, want %d, true", pid2, ok, pid)
	}
}

// writing to stdin after the process has exited must be a silent
// no-op (§8), never surfacing io.ErrClosedPipe/io.EOF to the caller
func TestWriteStdinAfterExitIsSilentNoOp(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/echo", "hi")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if _, err = cmd.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	stdin, err := cmd.StandardInput()
	if err != nil {
		t.Fatalf("StandardInput: %v", err)
	}
	if _, err = io.WriteString(stdin, "too late"); err != nil {
		t.Errorf("write after exit must be a silent no-op, got: %v", err)
	}
}

// reading any stream of an AttachedCommand must fail with
// *StreamDisposedError, since a post-facto attach never has a handle
// to the target's standard streams (§4.8)
func TestAttachedStreamsAreDisposed(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/sleep", "0.2")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	pid, _ := cmd.ProcessID()
	ac, ok := TryAttach(pid, DefaultOptions())
	if !ok {
		t.Fatal("TryAttach failed on a live pid")
	}
	defer cmd.Wait()

	if _, err = ac.StandardInput(); err == nil {
		t.Error("expected StreamDisposedError from attached StandardInput")
	}
	if _, err = ac.StandardOutput(); err == nil {
		t.Error("expected StreamDisposedError from attached StandardOutput")
	}
	if _, err = ac.StandardError(); err == nil {
		t.Error("expected StreamDisposedError from attached StandardError")
	}
}

// the configured timeout must fire close to its configured duration,
// not early and not after an unbounded delay
func TestTimeoutFiresNearConfiguredDuration(t *testing.T) {
	const timeout = 150 * time.Millisecond
	var shell = NewShell().WithOptions(DefaultOptions().WithTimeout(timeout))
	cmd, err := shell.Command("/bin/sleep", "10")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	var start = time.Now()
	_, err = cmd.Wait()
	var elapsed = time.Since(start)
	if _, ok := err.(*TimedOutError); !ok {
		t.Fatalf("expected *TimedOutError, got %v", err)
	}
	if elapsed < timeout {
		t.Errorf("timeout fired early: elapsed %v, configured %v", elapsed, timeout)
	}
	if elapsed > timeout+2*time.Second {
		t.Errorf("timeout fired too late: elapsed %v, configured %v", elapsed, timeout)
	}
}

// a second redirection target applied to the same stream must fail
// deterministically rather than starting a second concurrent reader
// against the same MemoryBuffer (§3)
func TestSecondRedirectionOnSameStreamFails(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/echo", "hi")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	var first []string
	if _, err = cmd.RedirectStandardOutputTo(ppump.ToCollection(&first)); err != nil {
		t.Fatalf("first RedirectStandardOutputTo: %v", err)
	}
	var second []string
	_, err = cmd.RedirectStandardOutputTo(ppump.ToCollection(&second))
	if err == nil {
		t.Fatal("expected *RedirectionAlreadySetError on second redirection of the same stream")
	}
	if _, ok := err.(*RedirectionAlreadySetError); !ok {
		t.Fatalf("error is not *RedirectionAlreadySetError: %v", err)
	}
	cmd.Wait()
}

// piping a CommandCore's stdout a second time (once directly via
// RedirectStandardOutputTo, once via PipeTo) must also fail
// deterministically — the two enforcement points share one flag
func TestPipeToAfterRedirectFails(t *testing.T) {
	var shell = NewShell()
	a, err := shell.Command("/bin/echo", "hi")
	if err != nil {
		t.Fatalf("Command a: %v", err)
	}
	b, err := shell.Command("/bin/cat")
	if err != nil {
		t.Fatalf("Command b: %v", err)
	}
	var sink []string
	if _, err = a.RedirectStandardOutputTo(ppump.ToCollection(&sink)); err != nil {
		t.Fatalf("RedirectStandardOutputTo: %v", err)
	}
	_, err = a.PipeTo(b)
	if err == nil {
		t.Fatal("expected *RedirectionAlreadySetError piping an already-redirected stdout")
	}
	if _, ok := err.(*RedirectionAlreadySetError); !ok {
		t.Fatalf("error is not *RedirectionAlreadySetError: %v", err)
	}
	a.Wait()
	b.Kill()
	b.Wait()
}

// Process returns a live handle while the command runs, and fails
// once disposeOnExit has released it after the command completes
// (§4.3 process handle accessor)
func TestProcessHandleReleasedAfterExit(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/sleep", "0.1")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	proc, err := cmd.Process()
	if err != nil {
		t.Fatalf("Process while running: %v", err)
	}
	if proc == nil {
		t.Fatal("Process returned nil while running")
	}
	if _, err = cmd.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, err = cmd.Process(); err == nil {
		t.Error("expected Process to fail once disposeOnExit released the handle")
	}
}

// disposeOnExit false must keep the process handle accessible after
// the command completes
func TestProcessHandleKeptWithoutDispose(t *testing.T) {
	var shell = NewShell().WithOptions(DefaultOptions().WithDisposeOnExit(false))
	cmd, err := shell.Command("/bin/echo", "hi")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if _, err = cmd.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, err = cmd.Process(); err != nil {
		t.Errorf("Process should stay available when disposeOnExit is false, got: %v", err)
	}
}

func TestZeroArgsSpawnSucceeds(t *testing.T) {
	var shell = NewShell()
	cmd, err := shell.Command("/bin/echo")
	if err != nil {
		t.Fatalf("Command with zero args: %v", err)
	}
	if cmd.String() != "/bin/echo" {
		t.Errorf("String() = %q, want %q", cmd.String(), "/bin/echo")
	}
	if _, err = cmd.Wait(); err != nil {
		t.Errorf("Wait: %v", err)
	}
}
