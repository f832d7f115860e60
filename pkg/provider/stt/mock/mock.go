// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider to script transcripts for successive calls and to inspect the
// utterances the caller submitted.
package mock

import (
	"context"
	"sync"

	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/clemgrt/rendezvox/pkg/provider/stt"
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcripts is the sequence of transcripts returned by successive
	// Transcribe calls. The last entry repeats once exhausted; an empty
	// slice yields "".
	Transcripts []string

	// Err, if non-nil, is returned by every Transcribe call.
	Err error

	// Calls records the utterances passed to Transcribe, in order.
	Calls []audio.Buffer

	next int
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(_ context.Context, utterance audio.Buffer) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, utterance)
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Transcripts) == 0 {
		return "", nil
	}
	i := p.next
	if i >= len(p.Transcripts) {
		i = len(p.Transcripts) - 1
	}
	p.next++
	return p.Transcripts[i], nil
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
