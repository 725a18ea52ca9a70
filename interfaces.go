/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

var (
	_ Command = (*CommandCore)(nil)
	_ Command = (*IoCommand)(nil)
	_ Command = (*PipelineCommand)(nil)
	_ Command = (*AttachedCommand)(nil)
)
