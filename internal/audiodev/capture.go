package audiodev

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
)

// Capture is a running microphone stream delivering fixed-size blocks of
// mono float32 samples on Blocks. Blocks are dropped when the consumer
// falls behind rather than stalling the device callback.
type Capture struct {
	device *malgo.Device
	blocks chan []float32
}

// Blocks returns the channel of captured sample blocks. The channel is
// closed by Close.
func (c *Capture) Blocks() <-chan []float32 {
	return c.blocks
}

// Close stops the device and closes the block channel.
func (c *Capture) Close() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	close(c.blocks)
}

// OpenCapture starts the default microphone at sampleRate Hz and delivers
// blocks of blockFrames mono float32 samples.
func (c *Context) OpenCapture(sampleRate, blockFrames int) (*Capture, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	stream := &Capture{
		blocks: make(chan []float32, 64),
	}

	var pending []float32
	onRecvFrames := func(_, pSample []byte, framecount uint32) {
		if framecount == 0 {
			return
		}
		for i := 0; i < int(framecount); i++ {
			bits := binary.LittleEndian.Uint32(pSample[i*4:])
			pending = append(pending, math.Float32frombits(bits))
		}
		for len(pending) >= blockFrames {
			block := make([]float32, blockFrames)
			copy(block, pending[:blockFrames])
			pending = append(pending[:0], pending[blockFrames:]...)
			select {
			case stream.blocks <- block:
			default:
				// drop if consumer is slow
			}
		}
	}

	device, err := malgo.InitDevice(c.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return nil, fmt.Errorf("audiodev: init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("audiodev: start capture device: %w", err)
	}

	stream.device = device
	return stream, nil
}

// PCMCapture is a running microphone stream delivering raw little-endian
// s16 mono PCM chunks, sized by the device period.
type PCMCapture struct {
	device *malgo.Device
	chunks chan []byte
}

// Chunks returns the channel of captured PCM chunks. The channel is closed
// by Close.
func (c *PCMCapture) Chunks() <-chan []byte {
	return c.chunks
}

// Close stops the device and closes the chunk channel.
func (c *PCMCapture) Close() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	close(c.chunks)
}

// OpenCapturePCM16 starts the default microphone at sampleRate Hz and
// delivers raw s16le mono PCM as produced by the device, for relaying to a
// pipe without a format conversion round trip.
func (c *Context) OpenCapturePCM16(sampleRate int) (*PCMCapture, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	stream := &PCMCapture{
		chunks: make(chan []byte, 64),
	}

	onRecvFrames := func(_, pSample []byte, framecount uint32) {
		if framecount == 0 {
			return
		}
		chunk := make([]byte, len(pSample))
		copy(chunk, pSample)
		select {
		case stream.chunks <- chunk:
		default:
			// drop if consumer is slow
		}
	}

	device, err := malgo.InitDevice(c.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return nil, fmt.Errorf("audiodev: init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("audiodev: start capture device: %w", err)
	}

	stream.device = device
	return stream, nil
}
