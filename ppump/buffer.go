/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package ppump

import (
	"io"
	"sync"
)

// passthroughBacklog bounds how far a StopBuffering'd MemoryBuffer lets
// the child get ahead of its reader before Write blocks — the
// backpressure §4.2 requires once buffering is stopped
const passthroughBacklog = 64 * 1024

// MemoryBuffer is the default sink a [pshell] CommandCore attaches to
// stdout/stderr when the caller supplied no external sink (§4.2
// Buffer). It is simultaneously:
//   - an io.Writer the pump copies the child's bytes into
//   - a live io.Reader for CommandCore's standard-stream accessors
//   - a String()/Captured() snapshot for CommandResult's captured text
//
// Grounded on the teacher's pio.WriteCloserToString, generalized with
// a StopBuffering transition: once called, accumulation for
// CommandResult freezes and Write begins to block the writer once
// passthroughBacklog unread bytes have accumulated, handing control of
// pacing to whoever is reading.
type MemoryBuffer struct {
	lock        sync.Mutex
	cond        *sync.Cond
	unread      []byte
	captured    []byte
	closed      bool
	passthrough bool
}

// NewMemoryBuffer returns a buffering sink, initially unbounded
func NewMemoryBuffer() (m *MemoryBuffer) {
	m = &MemoryBuffer{}
	m.cond = sync.NewCond(&m.lock)
	return
}

// Write implements io.Writer for the pump copying the child's output in
func (m *MemoryBuffer) Write(p []byte) (n int, err error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for m.passthrough && len(m.unread) >= passthroughBacklog && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	m.unread = append(m.unread, p...)
	if !m.passthrough {
		m.captured = append(m.captured, p...)
	}
	m.cond.Broadcast()
	return len(p), nil
}

// Read implements io.Reader so a live view of the stream is available
// to CommandCore's standard-stream accessor while the pump still runs
func (m *MemoryBuffer) Read(p []byte) (n int, err error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for len(m.unread) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.unread) == 0 {
		return 0, io.EOF
	}
	n = copy(p, m.unread)
	m.unread = m.unread[n:]
	m.cond.Broadcast()
	return
}

// Close marks the buffer EOF: the pump calls this once the child
// stream itself reaches EOF
func (m *MemoryBuffer) Close() (err error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.closed = true
	m.cond.Broadcast()
	return
}

// StopBuffering converts a buffering MemoryBuffer into a pass-through
// one: CommandResult's captured text freezes at its current value, and
// subsequent reads consume directly from the child stream's live bytes
func (m *MemoryBuffer) StopBuffering() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.passthrough = true
	m.cond.Broadcast()
}

// Captured returns the bytes accumulated for CommandResult so far. Once
// StopBuffering has been called, this value no longer grows
func (m *MemoryBuffer) Captured() (b []byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	b = make([]byte, len(m.captured))
	copy(b, m.captured)
	return
}

// String returns the captured text decoded as UTF-8
func (m *MemoryBuffer) String() (s string) { return string(m.Captured()) }
