// Package segment implements silence-bounded speech segmentation over a live
// stream of fixed-size audio blocks.
//
// The segmenter consumes normalized float32 blocks from a capture queue and
// applies an RMS energy heuristic: speech starts after a sustained run of
// above-threshold blocks, and ends after a sustained run of below-threshold
// blocks — subject to a minimum recorded duration and an unconditional
// maximum. One call to [Segmenter.Segment] yields exactly one finalized
// utterance buffer (possibly empty, when speech never starts).
package segment

import (
	"context"
	"time"

	"github.com/clemgrt/rendezvox/pkg/audio"
)

// Defaults tuned for conversational French speech over a 16 kHz mono stream.
const (
	DefaultSampleRate   = 16000
	DefaultBlockFrames  = 1024
	DefaultRMSThreshold = 0.010

	DefaultMinSpeech   = 800 * time.Millisecond
	DefaultSilence     = 1800 * time.Millisecond
	DefaultMaxRecord   = 15 * time.Second
	DefaultMinRecorded = 2 * time.Second

	// DefaultPollTimeout bounds each wait on the capture queue so the loop
	// stays responsive to cancellation when the source stalls.
	DefaultPollTimeout = time.Second
)

// Config holds the tuning parameters of a [Segmenter]. Zero fields take the
// package defaults.
type Config struct {
	// SampleRate is the sample rate of incoming blocks in Hz.
	SampleRate int

	// BlockFrames is the number of samples per block delivered by the source.
	BlockFrames int

	// RMSThreshold is the energy level (on normalized samples) at or above
	// which a block counts as speech.
	RMSThreshold float64

	// MinSpeech is the sustained above-threshold duration required before
	// speech is declared started.
	MinSpeech time.Duration

	// Silence is the sustained below-threshold duration that ends the
	// utterance once speech has started.
	Silence time.Duration

	// MaxRecord caps the total number of blocks consumed per call,
	// regardless of state.
	MaxRecord time.Duration

	// MinRecorded is the minimum buffered duration required before the
	// silence rule may end the utterance.
	MinRecorded time.Duration

	// PollTimeout is the bounded wait per attempt on the block source.
	PollTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BlockFrames <= 0 {
		c.BlockFrames = DefaultBlockFrames
	}
	if c.RMSThreshold <= 0 {
		c.RMSThreshold = DefaultRMSThreshold
	}
	if c.MinSpeech <= 0 {
		c.MinSpeech = DefaultMinSpeech
	}
	if c.Silence <= 0 {
		c.Silence = DefaultSilence
	}
	if c.MaxRecord <= 0 {
		c.MaxRecord = DefaultMaxRecord
	}
	if c.MinRecorded <= 0 {
		c.MinRecorded = DefaultMinRecorded
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	return c
}

// blocks converts a duration to a block count: floor division by the block
// duration, clamped to at least 1.
func (c Config) blocks(d time.Duration) int {
	blockDur := time.Duration(c.BlockFrames) * time.Second / time.Duration(c.SampleRate)
	if blockDur <= 0 {
		return 1
	}
	n := int(d / blockDur)
	if n < 1 {
		n = 1
	}
	return n
}

// Segmenter extracts one utterance per call from a stream of audio blocks.
// A Segmenter is stateless between calls and safe to reuse; it is not safe
// for concurrent calls.
type Segmenter struct {
	cfg Config
}

// New creates a Segmenter with the given configuration. Zero config fields
// take the package defaults.
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg.withDefaults()}
}

// Config returns the effective (defaulted) configuration.
func (s *Segmenter) Config() Config { return s.cfg }

// Segment consumes blocks until one utterance is finalized and returns it as
// a single contiguous buffer.
//
// Speech is declared started after MinSpeech worth of consecutive
// above-threshold blocks; buffering begins with the block that completed the
// run. Once started, every block is buffered and the utterance ends after
// Silence worth of consecutive below-threshold blocks, provided at least
// MinRecorded has been buffered. Consumption stops unconditionally after
// MaxRecord worth of received blocks.
//
// Blocks are awaited with a bounded poll (PollTimeout per attempt). Idle
// waiting does not advance the max-duration counter — only received blocks
// count. A closed source ends the call early with whatever was buffered.
//
// If speech never starts, the returned buffer is empty (zero samples) at the
// configured sample rate; this is not an error. The only error returned is
// ctx.Err() on cancellation.
func (s *Segmenter) Segment(ctx context.Context, source <-chan []float32) (audio.Buffer, error) {
	cfg := s.cfg

	minSpeechBlocks := cfg.blocks(cfg.MinSpeech)
	silenceBlocks := cfg.blocks(cfg.Silence)
	maxBlocks := cfg.blocks(cfg.MaxRecord)
	minBlocks := cfg.blocks(cfg.MinRecorded)

	var (
		started    bool
		aboveCount int
		belowCount int
		blocksSeen int
		buffered   [][]float32
	)

	timer := time.NewTimer(cfg.PollTimeout)
	defer timer.Stop()

	for blocksSeen < maxBlocks {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(cfg.PollTimeout)

		var block []float32
		select {
		case <-ctx.Done():
			return audio.Buffer{SampleRate: cfg.SampleRate}, ctx.Err()
		case <-timer.C:
			// Source stalled; keep waiting without advancing blocksSeen.
			continue
		case b, ok := <-source:
			if !ok {
				return s.finalize(buffered), nil
			}
			block = b
		}

		blocksSeen++
		rms := audio.RMS(block)

		if !started {
			if rms >= cfg.RMSThreshold {
				aboveCount++
			} else {
				aboveCount = 0
			}
			if aboveCount >= minSpeechBlocks {
				started = true
				buffered = append(buffered, block)
			}
			continue
		}

		buffered = append(buffered, block)
		if rms < cfg.RMSThreshold {
			belowCount++
		} else {
			belowCount = 0
		}
		if belowCount >= silenceBlocks && len(buffered) >= minBlocks {
			break
		}
	}

	return s.finalize(buffered), nil
}

// finalize concatenates buffered blocks into a single immutable buffer.
func (s *Segmenter) finalize(buffered [][]float32) audio.Buffer {
	total := 0
	for _, b := range buffered {
		total += len(b)
	}
	samples := make([]float32, 0, total)
	for _, b := range buffered {
		samples = append(samples, b...)
	}
	return audio.Buffer{Samples: samples, SampleRate: s.cfg.SampleRate}
}
