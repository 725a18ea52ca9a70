/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package ppump

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// SinkKind tags the concrete endpoint type behind a [Sink]
type SinkKind int

const (
	_ SinkKind = iota
	// SinkWriter: an arbitrary io.Writer
	SinkWriter
	// SinkFile: a file path opened for writing
	SinkFile
	// SinkLines: a callback invoked once per complete line
	SinkLines
	// SinkCollection: an accumulator receiving each line in order
	SinkCollection
)

// Sink is a tagged union of the endpoint types a [Pump] can copy into
// as a consumer draining a child process' standard output or standard
// error
//   - grounded on the teacher's pio write-closer family
//     (WriteCloserToString, WriteCloserToChanLine, WriteCloserToChan):
//     each is one concrete Sink variant here
type Sink struct {
	kind   SinkKind
	writer io.WriteCloser
	desc   string
}

// ToWriter builds a Sink that writes directly to w; the pump never
// closes w and makes no flush or Sync call on it
func ToWriter(w io.Writer, desc string) Sink {
	return Sink{kind: SinkWriter, writer: nopCloseWriter{w}, desc: desc}
}

// ToFile builds a Sink writing to a newly created/truncated file
func ToFile(path string) (sink Sink, err error) {
	var f *os.File
	if f, err = os.Create(path); err != nil {
		return
	}
	return Sink{kind: SinkFile, writer: f, desc: path}, nil
}

// ToLines builds a Sink invoking onLine once per complete line (without
// its terminator) observed in the child's output
func ToLines(onLine func(line string)) Sink {
	return Sink{kind: SinkLines, writer: newLineCallbackWriter(onLine), desc: "lines"}
}

// ToCollection builds a Sink appending each line to dst in arrival order
func ToCollection(dst *[]string) Sink {
	return ToLines(func(line string) { *dst = append(*dst, line) })
}

// Kind reports the tagged variant of sink
func (s Sink) Kind() SinkKind { return s.kind }

// WriteCloser returns the underlying sink the pump copies into
func (s Sink) WriteCloser() io.WriteCloser { return s.writer }

// String renders the toString description, eg. for "> description"
func (s Sink) String() string { return s.desc }

type nopCloseWriter struct{ io.Writer }

func (nopCloseWriter) Close() (err error) { return }

// lineCallbackWriter splits arriving bytes on LF and invokes a callback
// per complete line; thread-safe because a pump is the sole writer but
// Close may race a final partial-line flush
type lineCallbackWriter struct {
	lock    sync.Mutex
	onLine  func(string)
	pending []byte
	closed  bool
}

func newLineCallbackWriter(onLine func(string)) *lineCallbackWriter {
	return &lineCallbackWriter{onLine: onLine}
}

func (w *lineCallbackWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	w.pending = append(w.pending, p...)
	for {
		var idx = bytes.IndexByte(w.pending, '\n')
		if idx == -1 {
			break
		}
		var line = trimNewline(w.pending[:idx+1])
		w.pending = w.pending[idx+1:]
		w.onLine(line)
	}
	return len(p), nil
}

func (w *lineCallbackWriter) Close() (err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	if len(w.pending) > 0 {
		w.onLine(string(w.pending))
		w.pending = nil
	}
	return
}
