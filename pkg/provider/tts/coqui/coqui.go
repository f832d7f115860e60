// Package coqui provides a TTS provider backed by a locally-running Coqui
// XTTS v2 API server. Synthesis is performed via POST /tts_to_audio/ with a
// JSON body; the server answers with a WAV file which is decoded into a
// mono float32 buffer.
//
// Typical usage:
//
//	p, err := coqui.New("http://localhost:8020",
//	    coqui.WithLanguage("fr"),
//	    coqui.WithTimeout(15*time.Second),
//	)
//	buf, err := p.Synthesize(ctx, "Bonjour !")
package coqui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/clemgrt/rendezvox/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultLanguage = "fr"
	defaultTimeout  = 30 * time.Second
	ttsEndpoint     = "/tts_to_audio/"
)

// Option is a functional option for configuring a Coqui Provider.
type Option func(*Provider)

// WithLanguage sets the language code sent to the server (e.g. "fr", "en").
// Defaults to "fr".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithSpeakerWav sets the speaker reference used for voice selection.
func WithSpeakerWav(speaker string) Option {
	return func(p *Provider) {
		p.speakerWav = speaker
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements tts.Provider backed by a Coqui XTTS v2 server.
// It is safe for concurrent use.
type Provider struct {
	serverURL  string
	language   string
	speakerWav string
	httpClient *http.Client
}

// New creates a Provider targeting the XTTS server at serverURL
// (e.g. "http://localhost:8020"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("coqui: serverURL must not be empty")
	}
	p := &Provider{
		serverURL: strings.TrimRight(serverURL, "/"),
		language:  defaultLanguage,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ttsRequest is the JSON body sent to POST /tts_to_audio/.
type ttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav,omitempty"`
	Language   string `json:"language"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string) (audio.Buffer, error) {
	if strings.TrimSpace(text) == "" {
		return audio.Buffer{}, errors.New("coqui: text must not be empty")
	}

	data, err := json.Marshal(ttsRequest{
		Text:       text,
		SpeakerWav: p.speakerWav,
		Language:   p.language,
	})
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("coqui: marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+ttsEndpoint, bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("coqui: create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("coqui: POST %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return audio.Buffer{}, fmt.Errorf("coqui: POST %s returned status %d", ttsEndpoint, resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("coqui: read WAV response: %w", err)
	}

	buf, err := audio.DecodeWAV(wav)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("coqui: decode WAV response: %w", err)
	}
	return buf, nil
}
