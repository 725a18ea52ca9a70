/*
© 2022–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package pids provides the typed process identifier held by
// [pshell.CommandCore] and [pshell.AttachedCommand].
package pids

import "strconv"

// Pid is a unique named type for process identifiers
//   - Pid implements [fmt.Stringer]
//   - Pid remains readable after the underlying OS process handle has
//     been released, because CommandCore caches it eagerly at spawn time
type Pid uint32

// NewPid returns a process identifier based on a 32-bit integer
func NewPid(u32 uint32) (pid Pid) { return Pid(u32) }

// IsNonZero returns whether the process identifier contains a valid process ID
func (pid Pid) IsNonZero() (isValid bool) { return pid != 0 }

// Int converts a process identifier to a platform-specific sized int
func (pid Pid) Int() (pidInt int) { return int(pid) }

// Uint32 converts a process identifier to a 32-bit unsigned integer
func (pid Pid) Uint32() (pidUint32 uint32) { return uint32(pid) }

func (pid Pid) String() (s string) { return strconv.Itoa(int(pid)) }
