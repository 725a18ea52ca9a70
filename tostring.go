/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"strings"

	"github.com/haraldrudell/pshell/pquote"
)

// toStringSimple renders the §6 toString format for a single,
// unredirected command: "<path> <quoted-args>"
func toStringSimple(path string, args []string, quoter pquote.Quoter) string {
	if len(args) == 0 {
		return path
	}
	return path + " " + quoter.Quote(args)
}

// toStringRedirected appends the §6 redirection suffix
// (" < <source>", " > <sink>", " 2> <sink>") to base, for as many of
// in/out/err as are non-empty
func toStringRedirected(base, in, out, errDesc string) string {
	var b strings.Builder
	b.WriteString(base)
	if in != "" {
		b.WriteString(" < ")
		b.WriteString(in)
	}
	if out != "" {
		b.WriteString(" > ")
		b.WriteString(out)
	}
	if errDesc != "" {
		b.WriteString(" 2> ")
		b.WriteString(errDesc)
	}
	return b.String()
}

// toStringPipeline joins stage descriptions with " | " (§6)
func toStringPipeline(stages []string) string {
	return strings.Join(stages, " | ")
}
