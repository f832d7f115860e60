// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/clemgrt/rendezvox/pkg/provider/tts"
)

// Compile-time assertion that Provider implements tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// Audio is returned as the synthesis result on every call.
	Audio audio.Buffer

	// Err, if non-nil, is returned instead of audio.
	Err error

	// Calls records the texts passed to Synthesize, in order.
	Calls []string
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(_ context.Context, text string) (audio.Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, text)
	if p.Err != nil {
		return audio.Buffer{}, p.Err
	}
	return p.Audio, nil
}

// CallCount returns the number of Synthesize invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
