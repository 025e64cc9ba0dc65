package input

import (
	"errors"
	"io"
	"testing"
)

func TestStringReader(t *testing.T) {
	t.Run("returns inputs in order", func(t *testing.T) {
		r := NewStringReader("y\n", "n\n")

		first, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != "y\n" {
			t.Errorf("expected y\\n, got %q", first)
		}

		second, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second != "n\n" {
			t.Errorf("expected n\\n, got %q", second)
		}
	})

	t.Run("EOF when exhausted", func(t *testing.T) {
		r := NewStringReader("y\n")
		_, _ = r.ReadString('\n')

		_, err := r.ReadString('\n')
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})

	t.Run("empty reader", func(t *testing.T) {
		r := NewStringReader()
		if _, err := r.ReadString('\n'); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})
}
