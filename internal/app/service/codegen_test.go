package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCodeGenerator_Next(t *testing.T) {
	g := NewCodeGenerator(func(context.Context, string) (bool, error) { return false, nil })

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := g.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), codeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("only %d distinct codes out of 200", len(seen))
	}
}

func TestCodeGenerator_Exhausted(t *testing.T) {
	calls := 0
	g := NewCodeGenerator(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})

	_, err := g.Next(context.Background())
	if !errors.Is(err, ErrCodeGenerationExhausted) {
		t.Fatalf("Next() error = %v, want ErrCodeGenerationExhausted", err)
	}
	if calls != maxCodeAttempts {
		t.Fatalf("exists called %d times, want %d", calls, maxCodeAttempts)
	}
}

func TestCodeGenerator_RetriesAfterCollision(t *testing.T) {
	calls := 0
	g := NewCodeGenerator(func(context.Context, string) (bool, error) {
		calls++
		return calls == 1, nil
	})

	code, err := g.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("exists called %d times, want 2", calls)
	}
	// the returned code is only marked once it has been stored
	if g.maybeTaken(code) {
		t.Fatalf("fresh code %q should not be marked taken yet", code)
	}
}

func TestCodeGenerator_ExistsError(t *testing.T) {
	boom := errors.New("db down")
	g := NewCodeGenerator(func(context.Context, string) (bool, error) { return false, boom })

	if _, err := g.Next(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Next() error = %v, want %v", err, boom)
	}
}

func TestCodeGenerator_MarkTaken(t *testing.T) {
	g := NewCodeGenerator(func(context.Context, string) (bool, error) { return false, nil })
	g.MarkTaken("abcdefg")
	if !g.maybeTaken("abcdefg") {
		t.Fatal("expected marked code to be reported as taken")
	}
}
