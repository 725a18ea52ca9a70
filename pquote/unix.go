/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pquote

import shellquote "github.com/kballard/go-shellquote"

// UnixQuoter formats and parses command lines using Bourne-shell
// quoting rules, grounded on github.com/kballard/go-shellquote, the
// library the teacher's pack uses wherever a shell-safe argument join
// is needed.
type UnixQuoter struct{}

// Quote joins args into a single Bourne-shell command line, quoting
// each argument only when it contains characters a shell would
// otherwise treat specially
func (UnixQuoter) Quote(args []string) string {
	return shellquote.Join(args...)
}

// Parse splits s back into its argument vector using Bourne-shell
// word-splitting and quote-removal rules
func (UnixQuoter) Parse(s string) (args []string, err error) {
	return shellquote.Split(s)
}
