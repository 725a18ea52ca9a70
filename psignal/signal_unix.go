//go:build !windows

/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package psignal

import "golang.org/x/sys/unix"

// trySignalAsync delivers sig to pid with a direct kill(2) call.
// ControlC maps to SIGINT, ControlBreak to SIGQUIT (§4.7); any other
// value is passed through as a raw unix.Signal number.
func trySignalAsync(pid int, sig Signal) (ok bool) {
	var unixSignal unix.Signal
	switch sig {
	case ControlC:
		unixSignal = unix.SIGINT
	case ControlBreak:
		unixSignal = unix.SIGQUIT
	default:
		unixSignal = unix.Signal(int(sig))
	}
	return unix.Kill(pid, unixSignal) == nil
}
