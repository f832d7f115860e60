// Command virtmic relays the physical microphone into a PulseAudio or
// PipeWire pipe-source virtual microphone.
//
// Load the pipe source first:
//
//	pactl load-module module-pipe-source \
//	  source_name=virt_mic file=/tmp/virt_mic.pcm format=s16le rate=48000 channels=1
//
// then run virtmic and select "virt_mic" as microphone in the target
// application. Ctrl+C stops the relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clemgrt/rendezvox/internal/audiodev"
	"github.com/clemgrt/rendezvox/internal/pipe"
	"github.com/clemgrt/rendezvox/pkg/audio"
)

const (
	defaultFIFOPath   = "/tmp/virt_mic.pcm"
	defaultSampleRate = 48000
)

func main() {
	os.Exit(run())
}

func run() int {
	fifoPath := flag.String("fifo", defaultFIFOPath, "path of the pipe-source FIFO")
	sampleRate := flag.Int("rate", defaultSampleRate, "pipe-source sample rate in Hz")
	deviceRate := flag.Int("device-rate", 0, "microphone capture rate in Hz when it differs from the pipe rate (0 = pipe rate)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audioCtx, err := audiodev.NewContext()
	if err != nil {
		slog.Error("failed to initialise audio backend", "err", err)
		return 1
	}
	defer audioCtx.Close()

	captureRate := *sampleRate
	if *deviceRate > 0 {
		captureRate = *deviceRate
	}

	capture, err := audioCtx.OpenCapturePCM16(captureRate)
	if err != nil {
		slog.Error("failed to open microphone", "err", err)
		return 1
	}
	defer capture.Close()

	writer := pipe.NewWriter(*fifoPath)
	defer writer.Close()

	slog.Info("relaying microphone to pipe source",
		"fifo", *fifoPath,
		"pipe_rate", *sampleRate,
		"capture_rate", captureRate,
	)

	if err := relay(ctx, capture, writer, captureRate, *sampleRate); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("relay error", "err", err)
		return 1
	}

	fmt.Println("Au revoir !")
	return 0
}

// relay pumps PCM chunks from the microphone into the FIFO until ctx is
// cancelled, resampling each chunk when the capture rate differs from the
// pipe rate.
func relay(ctx context.Context, capture *audiodev.PCMCapture, writer *pipe.Writer, srcRate, dstRate int) error {
	if err := writer.Open(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-capture.Chunks():
			if !ok {
				return nil
			}
			chunk = audio.ResampleMono16(chunk, srcRate, dstRate)
			if err := writer.Write(ctx, chunk); err != nil {
				return err
			}
		}
	}
}
