package audio

import (
	"math"
	"time"
)

// Tone generates a sine wave at the given frequency, duration, and peak
// amplitude. Used for the short listening cue played before each turn.
func Tone(freq float64, dur time.Duration, amplitude float64, sampleRate int) Buffer {
	if sampleRate <= 0 || dur <= 0 {
		return Buffer{SampleRate: sampleRate}
	}
	n := int(float64(sampleRate) * dur.Seconds())
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return Buffer{Samples: samples, SampleRate: sampleRate}
}
