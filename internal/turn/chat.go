package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clemgrt/rendezvox/internal/observe"
	"github.com/clemgrt/rendezvox/internal/segment"
	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/clemgrt/rendezvox/pkg/provider/llm"
	"github.com/clemgrt/rendezvox/pkg/provider/stt"
	"github.com/clemgrt/rendezvox/pkg/provider/tts"
)

const chatSystemPrompt = "Tu es un assistant vocal francophone, réponds brièvement en français."

// emptyTranscriptReply is spoken when nothing intelligible was captured.
const emptyTranscriptReply = "Je n'ai rien entendu. Peux-tu répéter ?"

// Chat runs the free-form conversation loop: capture an utterance,
// transcribe it, generate a short French reply and speak it. Every failure
// downgrades to a deterministic spoken fallback so the session keeps
// going.
type Chat struct {
	segmenter *segment.Segmenter
	stt       stt.Provider
	llm       llm.Provider
	tts       tts.Provider
	player    Player
	metrics   *observe.Metrics

	// OutputRate is the playback sample rate synthesized replies are
	// resampled to. Zero keeps the synthesizer's native rate.
	OutputRate int
}

// ChatConfig wires a Chat loop's collaborators.
type ChatConfig struct {
	Segmenter  *segment.Segmenter
	STT        stt.Provider
	LLM        llm.Provider
	TTS        tts.Provider
	Player     Player
	Metrics    *observe.Metrics
	OutputRate int
}

// NewChat creates a free-form conversation loop.
func NewChat(cfg ChatConfig) *Chat {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Chat{
		segmenter:  cfg.Segmenter,
		stt:        cfg.STT,
		llm:        cfg.LLM,
		tts:        cfg.TTS,
		player:     cfg.Player,
		metrics:    metrics,
		OutputRate: cfg.OutputRate,
	}
}

// Run executes the chat session over the given capture source until ctx is
// cancelled. Cancellation is the normal way to end a session and returns
// nil.
func (c *Chat) Run(ctx context.Context, source <-chan []float32) error {
	slog.Info("chat session started, speak after the beep")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		c.cue(ctx)

		utterance, err := c.segmenter.Segment(ctx, source)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("turn: capture utterance: %w", err)
		}

		text := c.transcribe(ctx, utterance)
		reply := c.reply(ctx, text)
		slog.Info("reply", "text", reply)

		c.speak(ctx, reply)
		c.metrics.RecordTurn(ctx, "chat")
	}
}

// transcribe runs STT over the utterance, degrading provider failures to
// an empty transcript.
func (c *Chat) transcribe(ctx context.Context, utterance audio.Buffer) string {
	start := time.Now()
	text, err := c.stt.Transcribe(ctx, utterance)
	c.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		slog.Warn("transcription failed", "error", err)
		c.metrics.RecordProviderError(ctx, "openai", "stt")
		return ""
	}
	return text
}

// reply produces the agent's answer for the transcript. An empty
// transcript gets the fixed repeat prompt; an LLM failure or empty
// completion falls back to echoing the caller.
func (c *Chat) reply(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return emptyTranscriptReply
	}

	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: chatSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		slog.Warn("reply generation failed", "error", err)
		c.metrics.RecordProviderError(ctx, "llm", "completion")
		return "Tu as dit : " + text
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "Tu as dit : " + text
	}
	return reply
}

// speak synthesizes and plays the reply, resampling to the configured
// output rate. Synthesis or playback failures log and move on; the next
// turn still happens.
func (c *Chat) speak(ctx context.Context, reply string) {
	start := time.Now()
	buf, err := c.tts.Synthesize(ctx, reply)
	c.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		slog.Warn("speech synthesis failed", "error", err)
		c.metrics.RecordProviderError(ctx, "coqui", "tts")
		return
	}

	if c.OutputRate > 0 && buf.SampleRate != c.OutputRate {
		buf = audio.Resample(buf, c.OutputRate)
	}

	playStart := time.Now()
	if err := c.player.Play(ctx, buf); err != nil {
		slog.Warn("reply playback failed", "error", err)
		return
	}
	c.metrics.PlaybackDuration.Record(ctx, time.Since(playStart).Seconds())
}

// cue plays the listening beep.
func (c *Chat) cue(ctx context.Context) {
	tone := audio.Tone(chatBeepFreq, 100*time.Millisecond, 0.2, 44100)
	if err := c.player.Play(ctx, tone); err != nil {
		slog.Debug("listening cue failed", "error", err)
	}
}
