/*
© 2021–present Harald Rudell <harald.rudell@gmail.com> (https://haraldrudell.github.io/haraldrudell/)
ISC License
*/

package pproc

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpawnEchoExitsZero(t *testing.T) {
	var out bytes.Buffer
	p, err := Spawn("/bin/echo", []string{"hi"}, nil, "", nil, &out, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	code, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(out.String()) != "hi" {
		t.Errorf("stdout = %q, want %q", out.String(), "hi")
	}
}

func TestSpawnFalseNonZeroExit(t *testing.T) {
	p, err := Spawn("/bin/false", nil, nil, "", nil, nil, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	code, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if code == 0 {
		t.Error("expected nonzero exit code from /bin/false")
	}
}

func TestKillReportsConventionalExitCode(t *testing.T) {
	p, err := Spawn("/bin/sleep", []string{"5"}, nil, "", nil, nil, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err = p.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	code, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if code != 137 {
		t.Errorf("killed exit code = %d, want 137", code)
	}
}

func TestKillIsIdempotent(t *testing.T) {
	p, err := Spawn("/bin/sleep", []string{"5"}, nil, "", nil, nil, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err = p.Kill(); err != nil {
		t.Fatalf("first Kill: %v", err)
	}
	if err = p.Kill(); err != nil {
		t.Errorf("second Kill must be a no-op, got: %v", err)
	}
	_, _ = p.Wait()
}

func TestWaitContextTimeout(t *testing.T) {
	p, err := Spawn("/bin/sleep", []string{"5"}, nil, "", nil, nil, nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, cancelled, _ := p.WaitContext(ctx)
	if !cancelled {
		t.Error("expected WaitContext to report cancelled on timeout")
	}
}
