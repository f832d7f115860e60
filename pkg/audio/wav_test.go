package audio_test

import (
	"math"
	"testing"
	"time"

	"github.com/clemgrt/rendezvox/pkg/audio"
)

func TestEncodeWAV_EmptyBuffer_HeaderOnly(t *testing.T) {
	wav := audio.EncodeWAV(audio.Buffer{SampleRate: 16000})
	if len(wav) != audio.WAVHeaderSize {
		t.Fatalf("got %d bytes, want %d", len(wav), audio.WAVHeaderSize)
	}

	buf, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if !buf.Empty() {
		t.Fatalf("expected empty buffer, got %d samples", len(buf.Samples))
	}
	if buf.SampleRate != 16000 {
		t.Fatalf("got sample rate %d, want 16000", buf.SampleRate)
	}
}

func TestEncodeDecodeWAV_RoundTrip(t *testing.T) {
	in := audio.Buffer{SampleRate: 16000, Samples: make([]float32, 1600)}
	for i := range in.Samples {
		in.Samples[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	out, err := audio.DecodeWAV(audio.EncodeWAV(in))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if out.SampleRate != in.SampleRate {
		t.Fatalf("got sample rate %d, want %d", out.SampleRate, in.SampleRate)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("got %d samples, want %d", len(out.Samples), len(in.Samples))
	}
	for i := range out.Samples {
		if diff := math.Abs(float64(out.Samples[i] - in.Samples[i])); diff > 1.0/32768 {
			t.Fatalf("sample %d differs by %g after round trip", i, diff)
		}
	}
}

func TestDecodeWAV_NotRIFF_ReturnsError(t *testing.T) {
	if _, err := audio.DecodeWAV([]byte("definitely not a wav file")); err == nil {
		t.Fatal("expected error for non-RIFF input, got nil")
	}
}

func TestDecodeWAV_TruncatedChunk_ReturnsError(t *testing.T) {
	wav := audio.EncodeWAV(audio.Buffer{SampleRate: 16000, Samples: make([]float32, 100)})
	if _, err := audio.DecodeWAV(wav[:len(wav)-10]); err == nil {
		t.Fatal("expected error for truncated data chunk, got nil")
	}
}

func TestBuffer_Duration(t *testing.T) {
	b := audio.Buffer{SampleRate: 16000, Samples: make([]float32, 16000)}
	if got := b.Duration(); got != time.Second {
		t.Fatalf("got %v, want 1s", got)
	}
}
