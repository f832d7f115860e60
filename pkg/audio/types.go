// Package audio provides the buffer type and sample-format utilities shared by
// the capture, segmentation, synthesis, and playback stages of the rendezvox
// pipeline.
//
// All pipeline audio is mono. Buffers carry normalized float32 samples in
// [-1, 1]; the wire format (the WAV payload uploaded to the transcription
// service) and the playback path use 16-bit signed little-endian PCM,
// converted via [FloatToPCM16] / [PCM16ToFloat].
package audio

import "time"

// Buffer is an ordered sequence of mono audio samples at a fixed sample rate.
// A Buffer is immutable once finalized by its producer; callers must not
// mutate the Samples slice.
type Buffer struct {
	// Samples holds normalized float32 samples in [-1, 1].
	Samples []float32

	// SampleRate in Hz (e.g., 16000 for STT input, 48000 for playback).
	SampleRate int
}

// Duration returns the playback duration of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Empty reports whether the buffer contains no samples.
func (b Buffer) Empty() bool { return len(b.Samples) == 0 }
