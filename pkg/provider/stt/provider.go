// Package stt defines the Provider interface for batch speech-to-text
// backends.
//
// Unlike streaming STT systems, the rendezvox pipeline transcribes one
// finalized utterance per turn: the segmenter hands over a complete buffer
// and the provider returns the full transcript in a single call. Degenerate
// input (empty or shorter than roughly 100 ms) must yield an empty transcript
// without touching the network, and a provider-reported "payload too short"
// condition is likewise mapped to an empty transcript rather than an error —
// the turn loop treats "" as silence.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"

	"github.com/clemgrt/rendezvox/pkg/audio"
)

// Provider is the abstraction over any batch transcription backend.
type Provider interface {
	// Transcribe converts one utterance to text. An empty or too-short
	// buffer returns ("", nil) without a network call. Errors are returned
	// only for genuine failures the caller may want to log; the turn loop
	// degrades every failure to an empty transcript.
	Transcribe(ctx context.Context, utterance audio.Buffer) (string, error)
}
