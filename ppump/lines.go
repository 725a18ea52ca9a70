/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

// Package ppump implements the StreamPump: the asynchronous byte
// shuttle that moves data between a child process stream and an
// external source or sink without letting either side block the
// other.
package ppump

import (
	"bytes"
	"errors"
	"io"

	"github.com/haraldrudell/pshell/perrors"
)

const (
	newLine           = byte('\n')
	defaultAllocation = 1024
	minBuffer         = 512
	// maxLineLength bounds a single line view entry; a line longer than
	// this is delivered unterminated rather than growing forever
	maxLineLength = 1024 * 1024
)

// LineReader presents a byte stream as a sequence of newline-terminated
// reads: each Read returns at most one line, split on LF or CRLF.
//   - grounded on the same incremental-scan approach as the teacher's
//     line reader, generalized to be driven by [Lines] into a finite
//     sequence rather than an ad hoc io.Reader wrapper
type LineReader struct {
	reader           io.Reader
	isEOF            bool
	pending          []byte
	searchStart      int
	nextNewlineIndex int
}

// NewLineReader wraps reader so that each Read returns a line at a time
func NewLineReader(reader io.Reader) (lr *LineReader) {
	if reader == nil {
		panic(perrors.ErrorfPF("reader cannot be nil"))
	}
	return &LineReader{reader: reader, nextNewlineIndex: -1}
}

// Read returns a byte sequence ending in newline when p is large enough
//   - on EOF without a trailing newline, the final partial line is
//     returned with err == io.EOF
func (lr *LineReader) Read(p []byte) (n int, err error) {
	for {
		if len(lr.pending) > 0 {
			var index int
			var isLastEOF bool
			if index = lr.nextNewlineIndex; index != -1 {
				lr.nextNewlineIndex = -1
			} else if index = bytes.IndexByte(lr.pending[lr.searchStart:], newLine); index != -1 {
				index += lr.searchStart + 1
				lr.searchStart = index
			} else if lr.isEOF {
				index = len(lr.pending)
				isLastEOF = true
			} else {
				index = -1
			}
			if index != -1 {
				if len(p) < index {
					n = len(p)
					lr.nextNewlineIndex = index - n
				} else {
					n = index
					if isLastEOF {
						err = io.EOF
					}
				}
				copy(p, lr.pending[:n])
				lr.pending = lr.pending[n:]
				lr.searchStart -= n
				if lr.searchStart < 0 {
					lr.searchStart = 0
				}
				return
			}
		}
		if lr.isEOF {
			err = io.EOF
			return
		}

		var n0 int
		n0, err = lr.reader.Read(p)
		if err != nil {
			if lr.isEOF = errors.Is(err, io.EOF); lr.isEOF {
				err = nil
			} else {
				return
			}
		}
		if idx := bytes.IndexByte(p[:n0], newLine); idx != -1 {
			idx++
			if idx < n0 {
				lr.pending = append(lr.pending, p[idx:n0]...)
				n0 = idx
			}
			n = n0
			return
		}
		lr.pending = append(lr.pending, p[:n0]...)
		lr.searchStart = len(lr.pending)
	}
}

// Lines returns a finite, lazily produced sequence of lines read from r,
// split on LF or CRLF, terminating at EOF. Each call to next blocks until
// a full line or EOF is available.
//   - the LF/CRLF terminator is stripped from the returned line
func Lines(r io.Reader) (next func() (line string, ok bool)) {
	var lr = NewLineReader(r)
	var buf = make([]byte, 0, defaultAllocation)
	var done bool
	next = func() (line string, ok bool) {
		if done {
			return
		}
		for {
			if need := len(buf) + minBuffer; cap(buf) < need && len(buf) < maxLineLength {
				grown := make([]byte, len(buf), need)
				copy(grown, buf)
				buf = grown
			}
			var n int
			var err error
			n, err = lr.Read(buf[len(buf):cap(buf)])
			buf = buf[:len(buf)+n]
			if n > 0 && buf[len(buf)-1] == newLine {
				line = trimNewline(buf)
				ok = true
				buf = buf[:0]
				return
			}
			if err != nil {
				done = true
				if len(buf) == 0 {
					return
				}
				line = trimNewline(buf)
				ok = true
				return
			}
			if len(buf) >= maxLineLength {
				line = string(buf)
				ok = true
				buf = buf[:0]
				return
			}
		}
	}
	return
}

func trimNewline(b []byte) (s string) {
	n := len(b)
	if n > 0 && b[n-1] == newLine {
		n--
		if n > 0 && b[n-1] == '\r' {
			n--
		}
	}
	return string(b[:n])
}
