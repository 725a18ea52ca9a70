/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"context"
	"time"

	"golang.org/x/text/encoding"

	"github.com/haraldrudell/pshell/pquote"
)

// ArgumentSyntax selects which [pquote.Quoter] a Shell uses to render
// toString command lines
type ArgumentSyntax int

const (
	ArgumentSyntaxUnix ArgumentSyntax = iota
	ArgumentSyntaxWindows
)

// StartInfoMutator is an opaque pre-spawn adjustment to the spawn
// request, applied after Options are otherwise resolved
type StartInfoMutator func(*SpawnRequest)

// CommandMutator is an opaque post-spawn hook receiving the freshly
// created command, used to chain redirections programmatically
// without an implicit ambient carrier (§9 "async-local plumbing")
type CommandMutator func(Command)

// SpawnRequest is the resolved, mutable spawn request a
// StartInfoMutator may adjust before [PlatformProcess] spawn
type SpawnRequest struct {
	Path             string
	Args             []string
	WorkingDirectory string
	Environment      []string
}

// Options is an immutable configuration overlay for commands a Shell
// creates. Every With* method returns a new Options value; the
// receiver is never mutated (§4.6).
type Options struct {
	throwOnError      bool
	timeout           time.Duration
	hasTimeout        bool
	cancellationToken context.Context
	disposeOnExit     bool
	workingDirectory  string
	environment       []string
	argumentSyntax    ArgumentSyntax
	startInfoMutator  StartInfoMutator
	commandMutator    CommandMutator
	encoding          encoding.Encoding
}

// DefaultOptions returns the baseline Options: throwOnError false, no
// timeout, no cancellation token, disposeOnExit true, inherited
// working directory and environment, Unix argument syntax
func DefaultOptions() Options {
	return Options{disposeOnExit: true}
}

func (o Options) WithThrowOnError(v bool) Options { o.throwOnError = v; return o }

func (o Options) WithTimeout(d time.Duration) Options {
	o.timeout = d
	o.hasTimeout = true
	return o
}

func (o Options) WithCancellationToken(ctx context.Context) Options {
	o.cancellationToken = ctx
	return o
}

func (o Options) WithDisposeOnExit(v bool) Options { o.disposeOnExit = v; return o }

func (o Options) WithWorkingDirectory(dir string) Options { o.workingDirectory = dir; return o }

func (o Options) WithEnvironment(env []string) Options { o.environment = env; return o }

func (o Options) WithArgumentSyntax(s ArgumentSyntax) Options { o.argumentSyntax = s; return o }

func (o Options) WithStartInfoMutator(m StartInfoMutator) Options { o.startInfoMutator = m; return o }

func (o Options) WithCommandMutator(m CommandMutator) Options { o.commandMutator = m; return o }

// WithEncoding sets the codec used to decode captured stdout/stderr
// bytes into CommandResult's text fields (§3 "encoding (for text view
// of the streams)"); the zero value decodes as UTF-8.
func (o Options) WithEncoding(enc encoding.Encoding) Options { o.encoding = enc; return o }

// decode renders b as text per the configured encoding, defaulting to
// a plain UTF-8 passthrough when none was set
func (o Options) decode(b []byte) string {
	if o.encoding == nil {
		return string(b)
	}
	decoded, err := o.encoding.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

// Overlay applies other on top of o, right-biased: any field other
// sets explicitly (throwOnError true, timeout, cancellation token,
// mutators, encoding, non-empty strings/slices) overrides o's value,
// and those fields fall back to o when zero-valued in other.
// disposeOnExit and argumentSyntax are always taken from other, even
// when other holds their zero value (§3 Options composition)
func (o Options) Overlay(other Options) (merged Options) {
	merged = o
	if other.throwOnError {
		merged.throwOnError = true
	}
	if other.hasTimeout {
		merged.timeout = other.timeout
		merged.hasTimeout = true
	}
	if other.cancellationToken != nil {
		merged.cancellationToken = other.cancellationToken
	}
	merged.disposeOnExit = other.disposeOnExit
	if other.workingDirectory != "" {
		merged.workingDirectory = other.workingDirectory
	}
	if other.environment != nil {
		merged.environment = other.environment
	}
	merged.argumentSyntax = other.argumentSyntax
	if other.startInfoMutator != nil {
		merged.startInfoMutator = other.startInfoMutator
	}
	if other.commandMutator != nil {
		merged.commandMutator = other.commandMutator
	}
	if other.encoding != nil {
		merged.encoding = other.encoding
	}
	return
}

func (o Options) quoter() pquote.Quoter {
	if o.argumentSyntax == ArgumentSyntaxWindows {
		return pquote.WindowsQuoter{}
	}
	return pquote.UnixQuoter{}
}

// Shell is a factory applying a fixed Options overlay to every command
// it creates. Shell is immutable: WithOptions returns a new Shell.
type Shell struct {
	options Options
}

// NewShell returns a Shell starting from [DefaultOptions]
func NewShell() Shell { return Shell{options: DefaultOptions()} }

// WithOptions returns a new Shell overlaying additional onto the
// receiver's current options (§4.6: "building a new Shell with
// additional options returns a new Shell")
func (s Shell) WithOptions(additional Options) Shell {
	return Shell{options: s.options.Overlay(additional)}
}

// Options returns the Shell's currently resolved option set
func (s Shell) Options() Options { return s.options }

// Command builds and spawns a new CommandCore for path and args under
// the Shell's current options
func (s Shell) Command(path string, args ...string) (cmd *CommandCore, err error) {
	return newCommandCore(path, args, s.options)
}
