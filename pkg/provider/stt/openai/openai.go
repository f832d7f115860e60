// Package openai provides an stt.Provider backed by the OpenAI audio
// transcription API (whisper-1).
//
// The provider encodes each utterance as a mono 16-bit WAV document and
// uploads it in a single request. Two guard rails keep degenerate input away
// from the API: payloads below a fixed byte threshold (~100 ms of 16 kHz
// audio) are short-circuited to an empty transcript locally, and a 400
// response from the provider (audio too short) is mapped to an empty
// transcript instead of an error.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/clemgrt/rendezvox/pkg/provider/stt"
)

// MinWAVBytes is the smallest WAV payload worth sending: ~0.1 s of 16 kHz
// mono int16 PCM (3200 bytes) plus the 44-byte header, rounded up.
const MinWAVBytes = 3500

const defaultModel = oai.AudioModelWhisper1

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// config holds optional construction parameters.
type config struct {
	model    string
	language string
	baseURL  string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithModel overrides the transcription model. Defaults to whisper-1.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithLanguage sets the ISO-639-1 language hint sent with each request
// (e.g., "fr"). Empty lets the model auto-detect.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout. Defaults to 60 s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Provider implements stt.Provider using the OpenAI transcription endpoint.
// Safe for concurrent use.
type Provider struct {
	client   oai.Client
	model    string
	language string
}

// New constructs a Provider. apiKey must not be empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai stt: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel, timeout: 60 * time.Second}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Provider{
		client:   oai.NewClient(reqOpts...),
		model:    cfg.model,
		language: cfg.language,
	}, nil
}

// Transcribe implements stt.Provider. The utterance is WAV-encoded at its own
// sample rate; callers are expected to hand over 16 kHz mono buffers.
func (p *Provider) Transcribe(ctx context.Context, utterance audio.Buffer) (string, error) {
	wav := audio.EncodeWAV(utterance)
	if len(wav) < MinWAVBytes {
		return "", nil
	}

	params := oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(p.model),
		File:  oai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
	}
	if p.language != "" {
		params.Language = oai.String(p.language)
	}

	tr, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apierr *oai.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusBadRequest {
			// Provider rejected the payload (typically audio_too_short);
			// recoverable, treated as silence.
			slog.Debug("transcription request rejected, treating as silence", "err", err)
			return "", nil
		}
		return "", fmt.Errorf("openai stt: transcribe: %w", err)
	}

	return strings.TrimSpace(tr.Text), nil
}
