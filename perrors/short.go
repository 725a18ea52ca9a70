/*
© 2020–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package perrors

// Short returns err's message without its stack trace, suitable for a
// single test-failure log line
//   - Short(nil) → ""
func Short(err error) (s string) {
	if err == nil {
		return
	}
	return err.Error()
}
