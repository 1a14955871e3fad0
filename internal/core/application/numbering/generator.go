// Package numbering produces human-readable order numbers.
//
// A Generator formats a seed drawn from a ports.OrderNumberSequence. Provider holds the
// strategy in use and swaps it on an explicit Reconfigure call.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/ports"
)

const (
	// DefaultPrefix is used when no prefix is configured.
	DefaultPrefix = "ORD"

	StrategySequence = "sequence"
	StrategyDated    = "dated"
)

// Generator returns the next order number. Implementations must never return the
// same number twice.
type Generator interface {
	Next(ctx context.Context) (string, error)
}

// SequenceGenerator formats numbers as <prefix>-<seq>.
type SequenceGenerator struct {
	prefix   string
	sequence ports.OrderNumberSequence
}

func NewSequenceGenerator(prefix string, sequence ports.OrderNumberSequence) (*SequenceGenerator, error) {
	if sequence == nil {
		return nil, errors.New("sequence generator: sequence is required")
	}
	return &SequenceGenerator{prefix: normalizePrefix(prefix), sequence: sequence}, nil
}

func (g *SequenceGenerator) Next(ctx context.Context) (string, error) {
	seq, err := g.sequence.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next order number seed: %w", err)
	}
	return fmt.Sprintf("%s-%d", g.prefix, seq), nil
}

// DatedGenerator formats numbers as <prefix>-<yyyy>-<seq zero-padded to 6>, for
// deployments that want the year visible in the number. The seed sequence is shared
// across years, so numbers stay unique.
type DatedGenerator struct {
	prefix   string
	sequence ports.OrderNumberSequence
	clock    kernel.Clock
}

func NewDatedGenerator(prefix string, sequence ports.OrderNumberSequence, clock kernel.Clock) (*DatedGenerator, error) {
	if sequence == nil {
		return nil, errors.New("dated generator: sequence is required")
	}
	if clock == nil {
		clock = kernel.SystemClock
	}
	return &DatedGenerator{prefix: normalizePrefix(prefix), sequence: sequence, clock: clock}, nil
}

func (g *DatedGenerator) Next(ctx context.Context) (string, error) {
	seq, err := g.sequence.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next order number seed: %w", err)
	}
	now := g.clock().In(time.UTC)
	return fmt.Sprintf("%s-%04d-%06d", g.prefix, now.Year(), seq), nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "-")
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}
