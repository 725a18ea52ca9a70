//go:build !windows

/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package psignal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// String renders sig the way a Unix signal is conventionally printed
// in diagnostics: name and numeric value, eg. `signal SIGINT 2`.
//   - grounded on the teacher's punix.SignalString
func (sig Signal) String() (s string) {
	switch sig {
	case ControlC:
		return "ControlC (SIGINT)"
	case ControlBreak:
		return "ControlBreak (SIGQUIT)"
	}

	var unixSignal = unix.Signal(int(sig))
	var name = unix.SignalName(unixSignal)
	if name != "" {
		name = "\x20" + name
	}
	return fmt.Sprintf("signal%s %d", name, int(sig))
}
