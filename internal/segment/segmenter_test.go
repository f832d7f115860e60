package segment_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/clemgrt/rendezvox/internal/segment"
)

// Test tuning: 1 kHz stream in 100-sample blocks, so one block = 100 ms and
// every threshold maps to a small whole number of blocks.
func testConfig() segment.Config {
	return segment.Config{
		SampleRate:   1000,
		BlockFrames:  100,
		RMSThreshold: 0.010,
		MinSpeech:    200 * time.Millisecond, // 2 blocks
		Silence:      300 * time.Millisecond, // 3 blocks
		MaxRecord:    2 * time.Second,        // 20 blocks
		MinRecorded:  400 * time.Millisecond, // 4 blocks
		PollTimeout:  50 * time.Millisecond,
	}
}

// speechBlock is a 440 Hz sine block whose RMS (~0.35) is well above the
// 0.010 threshold.
func speechBlock(frames int) []float32 {
	b := make([]float32, frames)
	for i := range b {
		b[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return b
}

// silenceBlock is an all-zero block (RMS = 0).
func silenceBlock(frames int) []float32 {
	return make([]float32, frames)
}

// feed sends the given blocks on a fresh channel and closes it.
func feed(blocks ...[]float32) <-chan []float32 {
	ch := make(chan []float32, len(blocks))
	for _, b := range blocks {
		ch <- b
	}
	close(ch)
	return ch
}

func TestSegment_SpeechThenSilence_ReturnsUtterance(t *testing.T) {
	cfg := testConfig()
	s := segment.New(cfg)

	// One leading silence block, two speech blocks (speech starts on the
	// second), one more speech block, then three silence blocks to end it.
	source := feed(
		silenceBlock(100),
		speechBlock(100), speechBlock(100), speechBlock(100),
		silenceBlock(100), silenceBlock(100), silenceBlock(100),
	)

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}

	// Buffering starts with the block that completed the speech run
	// (the third block): 2 speech + 3 silence = 5 blocks.
	if want := 5 * 100; len(buf.Samples) != want {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), want)
	}
	if buf.SampleRate != cfg.SampleRate {
		t.Fatalf("got sample rate %d, want %d", buf.SampleRate, cfg.SampleRate)
	}
}

func TestSegment_SpeechNeverStarts_ReturnsEmpty(t *testing.T) {
	s := segment.New(testConfig())

	source := feed(
		silenceBlock(100), silenceBlock(100), silenceBlock(100),
	)

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if !buf.Empty() {
		t.Fatalf("expected empty buffer, got %d samples", len(buf.Samples))
	}
}

func TestSegment_ShortSpeechBurst_DoesNotStart(t *testing.T) {
	s := segment.New(testConfig())

	// A single above-threshold block never reaches the 2-block start run;
	// the intervening silence resets the counter.
	source := feed(
		speechBlock(100), silenceBlock(100),
		speechBlock(100), silenceBlock(100),
	)

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if !buf.Empty() {
		t.Fatalf("expected empty buffer, got %d samples", len(buf.Samples))
	}
}

func TestSegment_MinRecorded_HoldsUtteranceOpen(t *testing.T) {
	cfg := testConfig()
	cfg.MinRecorded = 600 * time.Millisecond // 6 blocks
	s := segment.New(cfg)

	// Speech starts on block 2 (1 block buffered); the silence run reaches
	// 3 consecutive blocks at 4 buffered, below the 6-block minimum, so the
	// utterance stays open until 6 blocks are buffered.
	source := feed(
		speechBlock(100), speechBlock(100),
		silenceBlock(100), silenceBlock(100), silenceBlock(100),
		silenceBlock(100), silenceBlock(100),
	)

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if want := 6 * 100; len(buf.Samples) != want {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), want)
	}
}

func TestSegment_MaxRecord_CapsConsumption(t *testing.T) {
	cfg := testConfig()
	s := segment.New(cfg)

	// Unbounded speech: the channel stays open and keeps delivering, but
	// Segment must stop after 20 received blocks.
	source := make(chan []float32, 32)
	go func() {
		for i := 0; i < 32; i++ {
			source <- speechBlock(100)
		}
	}()

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}

	// Speech starts on block 2, so 19 of the 20 consumed blocks are buffered.
	if want := 19 * 100; len(buf.Samples) != want {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), want)
	}
}

func TestSegment_IdleWaiting_DoesNotAdvanceMaxCounter(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRecord = 300 * time.Millisecond // 3 blocks
	cfg.PollTimeout = 10 * time.Millisecond
	s := segment.New(cfg)

	source := make(chan []float32)
	go func() {
		defer close(source)
		source <- speechBlock(100)
		// Stall long enough for several poll timeouts to fire. If idle
		// polls counted against MaxRecord, Segment would give up here.
		time.Sleep(80 * time.Millisecond)
		source <- speechBlock(100)
		source <- speechBlock(100)
	}()

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}

	// All three real blocks were consumed; speech started on block 2, so
	// two blocks are buffered.
	if want := 2 * 100; len(buf.Samples) != want {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), want)
	}
}

func TestSegment_ClosedSource_ReturnsBuffered(t *testing.T) {
	s := segment.New(testConfig())

	// Speech starts, then the source closes mid-utterance.
	source := feed(
		speechBlock(100), speechBlock(100), speechBlock(100),
	)

	buf, err := s.Segment(context.Background(), source)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if want := 2 * 100; len(buf.Samples) != want {
		t.Fatalf("got %d samples, want %d", len(buf.Samples), want)
	}
}

func TestSegment_ContextCancelled_ReturnsError(t *testing.T) {
	s := segment.New(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, err := s.Segment(ctx, make(chan []float32))
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if !buf.Empty() {
		t.Fatalf("expected empty buffer, got %d samples", len(buf.Samples))
	}
}

func TestConfig_BlockDerivation(t *testing.T) {
	cfg := segment.New(segment.Config{}).Config()

	if cfg.SampleRate != segment.DefaultSampleRate {
		t.Fatalf("got sample rate %d, want %d", cfg.SampleRate, segment.DefaultSampleRate)
	}
	if cfg.BlockFrames != segment.DefaultBlockFrames {
		t.Fatalf("got block frames %d, want %d", cfg.BlockFrames, segment.DefaultBlockFrames)
	}
	if cfg.MinSpeech != segment.DefaultMinSpeech {
		t.Fatalf("got min speech %v, want %v", cfg.MinSpeech, segment.DefaultMinSpeech)
	}
}
