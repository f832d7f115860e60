// Package tts defines the interface for text-to-speech providers.
package tts

import (
	"context"

	"github.com/clemgrt/rendezvox/pkg/audio"
)

// Provider converts text into speech audio.
type Provider interface {
	// Synthesize renders text into a mono audio buffer at the provider's
	// native sample rate. Callers resample for their output device.
	Synthesize(ctx context.Context, text string) (audio.Buffer, error)
}
