package numbering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"
)

// ProviderDeps bundles what a Provider needs to build its strategies.
type ProviderDeps struct {
	Prefix   string
	Sequence ports.OrderNumberSequence
	Clock    kernel.Clock
	// Strategy is the initial strategy name; empty means StrategySequence.
	Strategy string
}

// Provider is the Generator the lifecycle engine holds. The active strategy is
// replaced only through Reconfigure.
type Provider struct {
	mu         sync.RWMutex
	active     Generator
	activeName string
	strategies map[string]Generator
}

func NewProvider(deps ProviderDeps) (*Provider, error) {
	if deps.Sequence == nil {
		return nil, errors.New("numbering provider: sequence is required")
	}

	sequential, err := NewSequenceGenerator(deps.Prefix, deps.Sequence)
	if err != nil {
		return nil, err
	}
	dated, err := NewDatedGenerator(deps.Prefix, deps.Sequence, deps.Clock)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		strategies: map[string]Generator{
			StrategySequence: sequential,
			StrategyDated:    dated,
		},
	}

	name := deps.Strategy
	if name == "" {
		name = StrategySequence
	}
	if err = p.Reconfigure(name); err != nil {
		return nil, err
	}
	return p, nil
}

// Register adds or replaces a named strategy. It does not activate it.
func (p *Provider) Register(name string, g Generator) error {
	if name == "" {
		return errs.NewValueIsRequiredError("strategy name")
	}
	if g == nil {
		return errs.NewValueIsRequiredError("generator")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strategies[name] = g
	return nil
}

// Reconfigure switches the active strategy.
func (p *Provider) Reconfigure(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.strategies[name]
	if !ok {
		return errs.NewValueIsInvalidErrorWithCause("order number strategy", fmt.Errorf(
			"%q is not one of %v", name, p.namesLocked()))
	}
	p.active = g
	p.activeName = name
	return nil
}

func (p *Provider) Active() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeName
}

func (p *Provider) Next(ctx context.Context) (string, error) {
	p.mu.RLock()
	g := p.active
	p.mu.RUnlock()
	return g.Next(ctx)
}

func (p *Provider) namesLocked() []string {
	names := make([]string, 0, len(p.strategies))
	for name := range p.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
