/*
© 2020–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package perrors

import "errors"

// New is similar to [errors.New] but ensures the returned error has a
// stack trace attached
func New(s string) (err error) {
	return withStack(errors.New(s), 1)
}
