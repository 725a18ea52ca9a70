/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package ppump

import (
	"context"
	"strings"
	"testing"
)

func TestPumpCopiesToMemoryBuffer(t *testing.T) {
	var m = NewMemoryBuffer()
	var p = Start(context.Background(), "stdout", strings.NewReader("abc"), m)
	if err := p.Wait(); err != nil {
		t.Fatalf("pump failed: %v", err)
	}
	if got := m.String(); got != "abc" {
		t.Errorf("captured = %q, want %q", got, "abc")
	}
}

func TestPumpToLinesSink(t *testing.T) {
	var got []string
	var sink = ToCollection(&got)
	var p = Start(context.Background(), "stdout", strings.NewReader("a\nb\nc"), sink.WriteCloser())
	if err := p.Wait(); err != nil {
		t.Fatalf("pump failed: %v", err)
	}
	var want = []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLinesIterator(t *testing.T) {
	var next = Lines(strings.NewReader("x\ny\n"))
	var lines []string
	for {
		line, ok := next()
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) != 2 || lines[0] != "x" || lines[1] != "y" {
		t.Errorf("lines = %v", lines)
	}
}

func TestMemoryBufferStopBuffering(t *testing.T) {
	var m = NewMemoryBuffer()
	if _, err := m.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	m.StopBuffering()
	if _, err := m.Write([]byte(" world")); err != nil {
		t.Fatal(err)
	}
	if got := m.String(); got != "hello" {
		t.Errorf("captured after StopBuffering = %q, want frozen %q", got, "hello")
	}
}
