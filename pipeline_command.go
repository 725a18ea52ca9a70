/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pshell

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/haraldrudell/pshell/ppump"
	"github.com/haraldrudell/pshell/psignal"
)

// PipelineCommand chains ≥2 CommandCores stdout→stdin (§4.4). Its
// handles list is the concatenation, in order, of every stage's
// handles; stderr is never merged across stages.
type PipelineCommand struct {
	stages []*CommandCore
	links  []*ppump.Pump

	done      chan struct{}
	completer sync.Once
	result    CommandResult
	resultErr error
}

// PipeTo connects left's stdout to right's stdin and returns the
// resulting two-stage pipeline (§4.3 pipeTo). Fails with
// *RedirectionAlreadySetError if left's stdout or right's stdin
// already carries a redirection target (§3: at most one redirection
// target per standard stream).
func PipeTo(left, right *CommandCore) (*PipelineCommand, error) {
	var pl = &PipelineCommand{stages: []*CommandCore{left}, done: make(chan struct{})}
	return pl.appendStage(right)
}

// PipeTo is the convenience form chaining directly off a CommandCore
func (c *CommandCore) PipeTo(other *CommandCore) (*PipelineCommand, error) {
	return PipeTo(c, other)
}

// PipeTo extends an existing pipeline with one more stage, connecting
// only the new link (the existing upstream links and their pumps are
// untouched — rebuilding them would race a second reader against the
// pump already draining each stage's stdout buffer)
func (pl *PipelineCommand) PipeTo(other *CommandCore) (*PipelineCommand, error) {
	var extended = &PipelineCommand{
		stages: append([]*CommandCore(nil), pl.stages...),
		links:  append([]*ppump.Pump(nil), pl.links...),
		done:   make(chan struct{}),
	}
	return extended.appendStage(other)
}

// appendStage connects the receiver's current last stage's stdout to
// other's stdin, appends other, and launches the background
// completion goroutine. The upstream stdout and other's stdin are
// each claimed via claimRedirect first, so piping into a stage whose
// stdin a caller already redirected elsewhere (or piping from a stage
// whose stdout is already spoken for) fails deterministically instead
// of racing a second reader against the same MemoryBuffer (§3).
func (pl *PipelineCommand) appendStage(other *CommandCore) (*PipelineCommand, error) {
	if len(pl.stages) > 0 {
		var upstream = pl.stages[len(pl.stages)-1]
		if !upstream.claimRedirect(redirectOut) {
			return nil, &RedirectionAlreadySetError{Stream: "standard output"}
		}
		if !other.claimRedirect(redirectIn) {
			return nil, &RedirectionAlreadySetError{Stream: "standard input"}
		}
		upstream.stdoutBuf.StopBuffering()
		var link = ppump.Start(context.Background(), "pipe-link", upstream.stdoutBuf, other.stdinW)
		pl.links = append(pl.links, link)
	}
	pl.stages = append(pl.stages, other)
	go pl.run()
	return pl, nil
}

func (pl *PipelineCommand) run() {
	var lastResult CommandResult
	var firstErr error
	for _, s := range pl.stages {
		result, err := s.Wait()
		lastResult = result
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}
	for _, link := range pl.links {
		if err := link.Wait(); err != nil && firstErr == nil {
			firstErr = &PumpSinkFailedError{Cause: err}
		}
	}

	pl.completer.Do(func() {
		pl.result = CommandResult{
			ExitCode:       lastResult.ExitCode,
			StandardOutput: lastResult.StandardOutput,
			StandardError:  lastResult.StandardError,
			Success:        lastResult.Success,
		}
		pl.resultErr = firstErr
		close(pl.done)
	})
}

// Wait blocks until every stage and every connecting pump has
// completed; the result reflects the last stage's exit code and
// captured streams (§4.4)
func (pl *PipelineCommand) Wait() (result CommandResult, err error) {
	<-pl.done
	return pl.result, pl.resultErr
}

// Kill kills every stage leaf-to-root (last stage first, so upstream
// producers do not keep writing into an already-dead consumer) and
// waits for every stage's future (§4.4)
func (pl *PipelineCommand) Kill() (err error) {
	for i := len(pl.stages) - 1; i >= 0; i-- {
		if e := pl.stages[i].Kill(); e != nil && err == nil {
			err = e
		}
	}
	for _, s := range pl.stages {
		s.Wait()
	}
	return
}

// ProcessID returns the first stage's pid, the pipeline's producer
func (pl *PipelineCommand) ProcessID() (pid int, ok bool) { return pl.stages[0].ProcessID() }

// ProcessIDs returns every stage's pid, in order (§3 "its handles
// list is the concatenation in order")
func (pl *PipelineCommand) ProcessIDs() []int {
	var ids = make([]int, 0, len(pl.stages))
	for _, s := range pl.stages {
		ids = append(ids, s.ProcessIDs()...)
	}
	return ids
}

// TrySignalAsync signals the last stage, the pipeline's consumer and
// conventionally the process a caller means to interrupt
func (pl *PipelineCommand) TrySignalAsync(sig psignal.Signal) bool {
	return pl.stages[len(pl.stages)-1].TrySignalAsync(sig)
}

// StandardInput resolves to the first stage's (§4.4)
func (pl *PipelineCommand) StandardInput() (io.Writer, error) {
	return pl.stages[0].StandardInput()
}

// StandardOutput resolves to the last stage's (§4.4)
func (pl *PipelineCommand) StandardOutput() (io.Reader, error) {
	return pl.stages[len(pl.stages)-1].StandardOutput()
}

// StandardError resolves to the last stage's; stderr is never merged
// across stages (§4.4)
func (pl *PipelineCommand) StandardError() (io.Reader, error) {
	return pl.stages[len(pl.stages)-1].StandardError()
}

// Process resolves to the first stage's, the pipeline's producer (see
// ProcessID)
func (pl *PipelineCommand) Process() (*os.Process, error) { return pl.stages[0].Process() }

func (pl *PipelineCommand) String() string {
	var parts = make([]string, len(pl.stages))
	for i, s := range pl.stages {
		parts[i] = s.String()
	}
	return toStringPipeline(parts)
}
