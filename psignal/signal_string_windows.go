//go:build windows

/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package psignal

import "fmt"

// String renders sig for diagnostics: the two pseudo-signals by name,
// anything else as a bare number (Windows has no raw signal numbers)
func (sig Signal) String() (s string) {
	switch sig {
	case ControlC:
		return "ControlC (CTRL_C_EVENT)"
	case ControlBreak:
		return "ControlBreak (CTRL_BREAK_EVENT)"
	}
	return fmt.Sprintf("signal %d", int(sig))
}
