/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package psignal

import "testing"

func TestControlCIsPseudo(t *testing.T) {
	if !ControlC.IsPseudo() || !ControlBreak.IsPseudo() {
		t.Error("ControlC/ControlBreak must report IsPseudo true")
	}
	if Raw(9).IsPseudo() {
		t.Error("a raw signal number must not report IsPseudo true")
	}
}

func TestTrySignalAsyncInvalidPidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for pid <= 0")
		}
	}()
	var s Signaler
	s.TrySignalAsync(0, ControlC)
}

func TestTrySignalAsyncNonexistentPid(t *testing.T) {
	// a pid astronomically unlikely to be alive must report false,
	// not error or panic
	var s Signaler
	if s.TrySignalAsync(1<<30, Raw(9)) {
		t.Error("expected false signaling a nonexistent pid")
	}
}
