package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	metrics "github.com/sifan077/PowerBio/internal/infra/prometheus"
)

const (
	codeAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 7
	maxCodeAttempts = 10

	// Sizing of the taken-code filter; it is a hint, not a registry.
	filterCapacity = 1_000_000
	filterFPRate   = 0.001
)

// ErrCodeGenerationExhausted means every candidate collided. It is transient;
// callers may retry.
var ErrCodeGenerationExhausted = errors.New("failed to generate a unique short code")

// CodeGenerator draws short codes from a crypto-random source. Codes this
// process has already issued or resolved are remembered in a Bloom filter so
// obvious collisions are skipped without a directory round-trip.
type CodeGenerator struct {
	exists      func(ctx context.Context, code string) (bool, error)
	length      int
	maxAttempts int

	mu    sync.Mutex
	taken *bloom.BloomFilter
}

// NewCodeGenerator checks candidates against exists.
func NewCodeGenerator(exists func(ctx context.Context, code string) (bool, error)) *CodeGenerator {
	return &CodeGenerator{
		exists:      exists,
		length:      codeLength,
		maxAttempts: maxCodeAttempts,
		taken:       bloom.NewWithEstimates(filterCapacity, filterFPRate),
	}
}

// Next returns a code that was free when checked. Uniqueness is finally
// enforced by the directory's unique index.
func (g *CodeGenerator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := randomCode(g.length)
		if err != nil {
			return "", fmt.Errorf("draw short code: %w", err)
		}

		if g.maybeTaken(code) {
			metrics.CodeCollisionsTotal.Inc()
			continue
		}

		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
		if taken {
			g.MarkTaken(code)
			metrics.CodeCollisionsTotal.Inc()
			continue
		}
		return code, nil
	}
	return "", ErrCodeGenerationExhausted
}

// MarkTaken records code as in use.
func (g *CodeGenerator) MarkTaken(code string) {
	g.mu.Lock()
	g.taken.AddString(code)
	g.mu.Unlock()
}

func (g *CodeGenerator) maybeTaken(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.taken.TestString(code)
}

func randomCode(n int) (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
