// Package mock provides a test double for the decision.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/clemgrt/rendezvox/pkg/provider/decision"
)

// Compile-time assertion that Provider implements decision.Provider.
var _ decision.Provider = (*Provider)(nil)

// Provider is a mock implementation of decision.Provider.
type Provider struct {
	mu sync.Mutex

	// Decisions are returned in order; the last one repeats once exhausted.
	Decisions []decision.Decision

	// Err, if non-nil, is returned instead of a decision.
	Err error

	// Calls records the requests passed to Decide, in order.
	Calls []decision.Request
}

// Decide implements decision.Provider.
func (p *Provider) Decide(_ context.Context, req decision.Request) (decision.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := len(p.Calls)
	p.Calls = append(p.Calls, req)
	if p.Err != nil {
		return decision.Decision{}, p.Err
	}
	if len(p.Decisions) == 0 {
		return decision.Decision{Action: decision.ActionAskClarification}, nil
	}
	if idx >= len(p.Decisions) {
		idx = len(p.Decisions) - 1
	}
	return p.Decisions[idx], nil
}

// CallCount returns the number of Decide invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
