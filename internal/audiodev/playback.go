package audiodev

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/gen2brain/malgo"
)

// Play renders buf on the selected output device at the buffer's sample
// rate and blocks until playback finishes or ctx is cancelled. Empty
// buffers return immediately.
func (c *Context) Play(ctx context.Context, buf audio.Buffer, sel OutputSelector) error {
	if buf.Empty() {
		return nil
	}

	deviceID, err := c.resolveOutput(sel)
	if err != nil {
		return err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = 1
	cfg.Playback.DeviceID = deviceID
	cfg.SampleRate = uint32(buf.SampleRate)
	cfg.Alsa.NoMMap = 1

	var (
		pos  int
		once sync.Once
		done = make(chan struct{})
	)
	onSendFrames := func(pOutput, _ []byte, framecount uint32) {
		for i := 0; i < int(framecount); i++ {
			var sample float32
			if pos < len(buf.Samples) {
				sample = buf.Samples[pos]
				pos++
			}
			binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(sample))
		}
		if pos >= len(buf.Samples) {
			once.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(c.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		return fmt.Errorf("audiodev: init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("audiodev: start playback device: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Beep plays a short sine cue on the selected output device. Failures are
// returned but callers normally treat the cue as best-effort.
func (c *Context) Beep(ctx context.Context, freq float64, sel OutputSelector) error {
	return c.Play(ctx, audio.Tone(freq, 100*time.Millisecond, 0.2, 44100), sel)
}
