package sudo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/localdev/apachedev/internal/executor"
)

// countingExecutor wraps MockExecutor with a mutex so the keep-alive
// goroutine and the test can touch Calls concurrently.
type countingExecutor struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (c *countingExecutor) Execute(name string, args ...string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]string{name}, args...))
	return nil, c.err
}

func (c *countingExecutor) ExecuteContext(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Execute(name, args...)
}

func (c *countingExecutor) LookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func (c *countingExecutor) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestPrime(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		s := NewSession(mock)

		if err := s.Prime(); err != nil {
			t.Fatalf("Prime failed: %v", err)
		}
		if len(mock.Calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(mock.Calls))
		}
		if mock.Calls[0].Name != "sudo" || mock.Calls[0].Args[0] != "-v" {
			t.Errorf("unexpected call: %+v", mock.Calls[0])
		}
	})

	t.Run("failure", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				return []byte("sudo: 3 incorrect password attempts"), fmt.Errorf("exit status 1")
			},
		}
		s := NewSession(mock)
		if err := s.Prime(); err == nil {
			t.Error("expected error")
		}
	})
}

func TestKeepalive(t *testing.T) {
	t.Run("refreshes until canceled", func(t *testing.T) {
		mock := &countingExecutor{}
		s := NewSessionWithInterval(mock, 5*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		s.Keepalive(ctx)

		// Wait for at least two refresh ticks
		deadline := time.After(time.Second)
		for mock.callCount() < 2 {
			select {
			case <-deadline:
				t.Fatal("keep-alive never refreshed")
			case <-time.After(time.Millisecond):
			}
		}
		cancel()

		// After cancel the loop must stop; allow in-flight tick to finish
		time.Sleep(20 * time.Millisecond)
		after := mock.callCount()
		time.Sleep(20 * time.Millisecond)
		if mock.callCount() != after {
			t.Error("keep-alive kept refreshing after cancel")
		}
	})

	t.Run("refresh failure does not stop the loop", func(t *testing.T) {
		mock := &countingExecutor{err: fmt.Errorf("exit status 1")}
		s := NewSessionWithInterval(mock, 5*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s.Keepalive(ctx)

		deadline := time.After(time.Second)
		for mock.callCount() < 3 {
			select {
			case <-deadline:
				t.Fatal("keep-alive stopped after a failure")
			case <-time.After(time.Millisecond):
			}
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("wraps command with sudo -n", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		s := NewSession(mock)

		_, err := s.Run("security", "add-trusted-cert", "-d", "/tmp/localhost.crt")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		call := mock.Calls[0]
		if call.Name != "sudo" {
			t.Errorf("expected sudo, got %s", call.Name)
		}
		want := []string{"-n", "security", "add-trusted-cert", "-d", "/tmp/localhost.crt"}
		if len(call.Args) != len(want) {
			t.Fatalf("expected %d args, got %d", len(want), len(call.Args))
		}
		for i, arg := range want {
			if call.Args[i] != arg {
				t.Errorf("arg %d: expected %s, got %s", i, arg, call.Args[i])
			}
		}
	})

	t.Run("failure includes output", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				return []byte("sudo: a password is required"), fmt.Errorf("exit status 1")
			},
		}
		s := NewSession(mock)
		if _, err := s.Run("security", "verify-cert"); err == nil {
			t.Error("expected error")
		}
	})
}
