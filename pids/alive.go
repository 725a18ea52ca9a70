/*
© 2022–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pids

import (
	gosysinfo "github.com/elastic/go-sysinfo"
)

// IsAlive returns whether pid identifies a process currently known to
// the operating system.
//   - used by [pshell.AttachedCommand] tryAttach: an absent process
//     means the attach fails rather than returning a command whose
//     every operation would fail
//   - go-sysinfo abstracts the platform-specific process lookup
//     (procfs on Linux, sysctl on Darwin, OpenProcess on Windows)
func (pid Pid) IsAlive() (isAlive bool) {
	if !pid.IsNonZero() {
		return
	}
	_, err := gosysinfo.Process(pid.Int())
	isAlive = err == nil
	return
}
