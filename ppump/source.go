/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package ppump

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// SourceKind tags the concrete endpoint type behind a [Source], so the
// pump can dispatch on it and [pshell] can render it in toString output
type SourceKind int

const (
	_ SourceKind = iota
	// SourceReader: an arbitrary io.Reader
	SourceReader
	// SourceBytes: a fixed byte sequence
	SourceBytes
	// SourceText: a fixed string
	SourceText
	// SourceLines: a collection of strings, newline-joined
	SourceLines
	// SourceFile: a file path opened for reading
	SourceFile
	// SourceCollection: a channel of strings, newline-joined as produced
	SourceCollection
)

// Source is a tagged union of the endpoint types a [Pump] can copy
// from as a producer feeding a child process' standard input
//   - grounded on the teacher's ExecStreamFull stdin parameter, which
//     accepted any io.Reader — Source generalizes that into the
//     explicit variant set §9 calls for, each with its own toString
//     description
type Source struct {
	kind   SourceKind
	reader io.Reader
	desc   string
}

// FromReader builds a Source wrapping an arbitrary reader
func FromReader(r io.Reader, desc string) Source {
	return Source{kind: SourceReader, reader: r, desc: desc}
}

// FromBytes builds a Source that feeds a fixed byte sequence
func FromBytes(b []byte) Source {
	return Source{kind: SourceBytes, reader: bytes.NewReader(b), desc: "bytes"}
}

// FromText builds a Source that feeds a fixed string
func FromText(s string) Source {
	return Source{kind: SourceText, reader: strings.NewReader(s), desc: "string"}
}

// FromLines builds a Source from a finite collection of lines, each
// terminated with LF as it is written to the child
func FromLines(lines []string) Source {
	return Source{kind: SourceLines, reader: strings.NewReader(strings.Join(lines, "\n") + stringsSuffix(lines)), desc: "lines"}
}

func stringsSuffix(lines []string) (suffix string) {
	if len(lines) > 0 {
		suffix = "\n"
	}
	return
}

// FromFile builds a Source that streams a file's contents
func FromFile(path string) (source Source, err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		return
	}
	return Source{kind: SourceFile, reader: f, desc: path}, nil
}

// FromCollection builds a Source draining a channel of lines, each
// written newline-terminated until ch closes
func FromCollection(ch <-chan string) Source {
	return Source{kind: SourceCollection, reader: newChanReader(ch), desc: "collection"}
}

// Kind reports the tagged variant of source
func (s Source) Kind() SourceKind { return s.kind }

// Reader returns the underlying io.Reader the pump copies from
func (s Source) Reader() io.Reader { return s.reader }

// String renders the toString description, eg. for "< description"
func (s Source) String() string { return s.desc }

// chanReader adapts a <-chan string into an io.Reader, each received
// string newline-terminated; closes (EOF) when ch closes
type chanReader struct {
	ch      <-chan string
	pending []byte
}

func newChanReader(ch <-chan string) *chanReader { return &chanReader{ch: ch} }

func (r *chanReader) Read(p []byte) (n int, err error) {
	if len(r.pending) == 0 {
		line, ok := <-r.ch
		if !ok {
			return 0, io.EOF
		}
		r.pending = []byte(line + "\n")
	}
	n = copy(p, r.pending)
	r.pending = r.pending[n:]
	return
}
