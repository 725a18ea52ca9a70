/*
© 2020–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package plog provides the ambient trace logging used throughout
// pshell: Debug prints are gated behind a process-wide flag so that
// the command-core checkpoints (spawn and result completion) can stay
// in the source without adding noise in production.
package plog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var stderrLogger = log.New(os.Stderr, "", 0)
var printer = message.NewPrinter(language.English)
var debugFlag atomic.Bool
var silentFlag atomic.Bool

// SetDebug turns Debug-level tracing on or off process-wide
func SetDebug(on bool) { debugFlag.Store(on) }

// IsDebug returns whether Debug-level tracing is active
func IsDebug() (isDebug bool) { return debugFlag.Load() }

// SetSilent silences Info output when on is true
func SetSilent(on bool) { silentFlag.Store(on) }

func sprintf(format string, a ...any) (s string) {
	if len(a) == 0 {
		return format
	}
	return printer.Sprintf(format, a...)
}

// Log always prints, regardless of silence or debug settings
func Log(format string, a ...any) {
	stderrLogger.Output(2, sprintf(format, a...))
}

// Info prints unless SetSilent(true) was configured
func Info(format string, a ...any) {
	if silentFlag.Load() {
		return
	}
	stderrLogger.Output(2, sprintf(format, a...))
}

// Debug prints only when SetDebug(true) is active
func Debug(format string, a ...any) {
	if !debugFlag.Load() {
		return
	}
	stderrLogger.Output(2, sprintf(format, a...))
}

// Out prints intended command output to stdout, bypassing the logger
func Out(format string, a ...any) {
	fmt.Fprintln(os.Stdout, sprintf(format, a...))
}
