// Package pipe writes raw PCM into a named pipe backing a PulseAudio or
// PipeWire module-pipe-source virtual microphone.
//
// A FIFO opened O_WRONLY fails with ENXIO while no reader is attached, so
// Open retries with exponential backoff until the pipe source picks up the
// file. A reader going away surfaces as EPIPE on write; the writer then
// reopens and resumes with the next chunk.
package pipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"
)

// Default reopen backoff parameters.
const (
	defaultBackoff    = 200 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second
)

// Writer writes PCM chunks to a FIFO, reopening it whenever the reader
// side disappears. Not safe for concurrent use.
type Writer struct {
	path       string
	backoff    time.Duration
	maxBackoff time.Duration
	file       *os.File
}

// Option is a functional option for Writer.
type Option func(*Writer)

// WithBackoff sets the initial and maximum delay between open attempts
// while no reader is attached.
func WithBackoff(initial, max time.Duration) Option {
	return func(w *Writer) {
		if initial > 0 {
			w.backoff = initial
		}
		if max > 0 {
			w.maxBackoff = max
		}
	}
}

// NewWriter creates a Writer for the FIFO at path. The pipe is not opened
// until Open or the first Write.
func NewWriter(path string, opts ...Option) *Writer {
	w := &Writer{
		path:       path,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Open blocks until the FIFO can be opened for writing, i.e. until a
// reader is attached, or until ctx is cancelled.
func (w *Writer) Open(ctx context.Context) error {
	if w.file != nil {
		return nil
	}

	delay := w.backoff
	for {
		f, err := os.OpenFile(w.path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			w.file = f
			return nil
		}
		if !errors.Is(err, syscall.ENXIO) && !os.IsNotExist(err) {
			return fmt.Errorf("pipe: open %s: %w", w.path, err)
		}

		slog.Debug("waiting for pipe reader", "path", w.path, "retry_in", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > w.maxBackoff {
			delay = w.maxBackoff
		}
	}
}

// Write sends one PCM chunk down the FIFO. If the reader has gone away the
// chunk is dropped, the pipe is reopened and writing resumes with the next
// chunk.
func (w *Writer) Write(ctx context.Context, chunk []byte) error {
	if err := w.Open(ctx); err != nil {
		return err
	}

	_, err := w.file.Write(chunk)
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.EPIPE) {
		slog.Info("pipe reader went away, reopening", "path", w.path)
		w.file.Close()
		w.file = nil
		return w.Open(ctx)
	}
	return fmt.Errorf("pipe: write %s: %w", w.path, err)
}

// Close closes the underlying FIFO, if open.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
