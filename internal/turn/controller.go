// Package turn drives the conversation loop: cue the caller, capture one
// utterance, transcribe it, and act on the outcome. Controller implements
// the scripted appointment flow over gated pre-recorded segments; Chat
// implements the free-form reply loop.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/clemgrt/rendezvox/internal/dialog"
	"github.com/clemgrt/rendezvox/internal/manifest"
	"github.com/clemgrt/rendezvox/internal/observe"
	"github.com/clemgrt/rendezvox/internal/segment"
	"github.com/clemgrt/rendezvox/pkg/audio"
	"github.com/clemgrt/rendezvox/pkg/provider/decision"
	"github.com/clemgrt/rendezvox/pkg/provider/stt"
)

// Listening cue frequencies, in Hz.
const (
	scriptedBeepFreq = 880
	chatBeepFreq     = 440
)

// Player renders an audio buffer on the output device, blocking until
// playback finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, buf audio.Buffer) error
}

// Controller runs the scripted appointment flow: each turn captures one
// utterance, updates the dialogue memory, asks the decision provider for
// the next move and plays the gated segment it settles on. The session
// ends when the invitation has been sent or the provider asks to end.
type Controller struct {
	segmenter *segment.Segmenter
	stt       stt.Provider
	decider   decision.Provider
	manifest  *manifest.Manifest
	gate      *dialog.Gate
	memory    *dialog.Memory
	player    Player
	metrics   *observe.Metrics

	// LoadSegment reads a segment audio file into a buffer. Defaults to
	// reading WAV files from disk; tests substitute their own.
	LoadSegment func(path string) (audio.Buffer, error)
}

// ControllerConfig wires a Controller's collaborators.
type ControllerConfig struct {
	Segmenter *segment.Segmenter
	STT       stt.Provider
	Decider   decision.Provider
	Manifest  *manifest.Manifest
	Player    Player
	Metrics   *observe.Metrics
}

// NewController creates a scripted-flow controller with a fresh session
// memory.
func NewController(cfg ControllerConfig) *Controller {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Controller{
		segmenter:   cfg.Segmenter,
		stt:         cfg.STT,
		decider:     cfg.Decider,
		manifest:    cfg.Manifest,
		gate:        dialog.NewGate(cfg.Manifest.IDs()),
		memory:      dialog.NewMemory(),
		player:      cfg.Player,
		metrics:     metrics,
		LoadSegment: loadWAVFile,
	}
}

// Memory exposes the session memory, for inspection after Run returns.
func (c *Controller) Memory() *dialog.Memory { return c.memory }

// Run executes the scripted session over the given capture source until
// the flow terminates or ctx is cancelled. Cancellation is a normal way
// to end a session and returns nil.
func (c *Controller) Run(ctx context.Context, source <-chan []float32) error {
	if c.manifest.Has(dialog.RecordBonjour) {
		slog.Info("playing greeting segment", "record_id", dialog.RecordBonjour)
		// The flag is set even when playback fails: a broken greeting file
		// must not pin the gate to the greeting step forever.
		c.playRecord(ctx, dialog.RecordBonjour)
		c.memory.Greeted = true
	}

	slog.Info("session started, speak after the beep")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		c.beep(ctx, scriptedBeepFreq)

		utterance, err := c.segmenter.Segment(ctx, source)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("turn: capture utterance: %w", err)
		}

		text := c.transcribe(ctx, utterance)
		if text != "" {
			slog.Info("transcript", "text", text)
		} else {
			slog.Info("transcript empty or inaudible")
		}

		c.memory.ObserveTranscript(text)

		allowed := c.gate.AllowedRecords(c.memory)
		dec := c.decide(ctx, text, allowed)
		c.metrics.RecordDecision(ctx, string(dec.Action))

		done, err := c.act(ctx, dec, allowed)
		if err != nil {
			return err
		}
		c.metrics.RecordTurn(ctx, "scripted")
		if done {
			return nil
		}
	}
}

// transcribe runs STT over the utterance. Provider failures degrade to an
// empty transcript so the turn continues; the caller cannot fix a flaky
// upstream by crashing.
func (c *Controller) transcribe(ctx context.Context, utterance audio.Buffer) string {
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

// decide asks the decision provider for the next move. Provider failures
// degrade to ask_clarification, mirroring the malformed-output default.
func (c *Controller) decide(ctx context.Context, text string, allowed []string) decision.Decision {
	records := c.manifest.Records()
	summaries := make([]decision.RecordSummary, len(records))
	for i, r := range records {
		summaries[i] = decision.RecordSummary{ID: r.ID, Intent: r.Intent}
	}

	start := time.Now()
	dec, err := c.decider.Decide(ctx, decision.Request{
		LastUserText:     text,
		Flags:            c.memory.Flags(),
		Records:          summaries,
		AllowedRecordIDs: allowed,
	})
	c.metrics.DecisionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		slog.Warn("decision provider failed", "error", err)
		c.metrics.RecordProviderError(ctx, "openai", "decision")
		return decision.Decision{Action: decision.ActionAskClarification, Reason: "fallback"}
	}
	return dec
}

// act performs the decided action. It returns done=true when the session
// should end.
func (c *Controller) act(ctx context.Context, dec decision.Decision, allowed []string) (bool, error) {
	switch dec.Action {
	case decision.ActionPlayRecord:
		if dec.RecordID == "" {
			slog.Warn("play_record decision without a record id")
			return false, nil
		}
		recordID := dec.RecordID
		if resolved, ok := c.manifest.Resolve(recordID); ok {
			recordID = resolved
		}
		enforced, overridden := dialog.Enforce(recordID, allowed)
		if overridden {
			slog.Info("segment not allowed at this step, substituting",
				"proposed", recordID,
				"substituted", enforced,
				"allowed", allowed,
			)
			c.metrics.GateOverrides.Add(ctx, 1)
			recordID = enforced
		}
		if c.playRecord(ctx, recordID) {
			c.memory.MarkPlayed(recordID)
		}
		return false, nil

	case decision.ActionDoTool:
		email := c.memory.ResolveEmail(dec.Email())
		if email == "" {
			slog.Warn("invitation requested but no email captured yet")
			return false, nil
		}
		c.sendInvite(email)
		if c.manifest.Has(dialog.RecordInvitationOK) {
			c.playRecord(ctx, dialog.RecordInvitationOK)
		}
		return true, nil

	case decision.ActionAskClarification:
		slog.Info("asking for clarification, listening again", "reason", dec.Reason)
		return false, nil

	case decision.ActionEnd:
		slog.Info("session end requested by decision provider")
		return true, nil

	default:
		slog.Warn("unknown decision action", "action", dec.Action)
		return false, nil
	}
}

// playRecord loads and plays one manifest segment. Returns whether the
// segment was actually played; a missing file or playback failure logs and
// moves the session on without advancing memory.
func (c *Controller) playRecord(ctx context.Context, recordID string) bool {
	path, ok := c.manifest.PathFor(recordID)
	if !ok {
		slog.Warn("segment has no audio file", "record_id", recordID)
		return false
	}

	buf, err := c.LoadSegment(path)
	if err != nil {
		slog.Warn("could not load segment", "record_id", recordID, "path", path, "error", err)
		return false
	}

	start := time.Now()
	if err := c.player.Play(ctx, buf); err != nil {
		slog.Warn("segment playback failed", "record_id", recordID, "error", err)
		return false
	}
	c.metrics.PlaybackDuration.Record(ctx, time.Since(start).Seconds())
	slog.Debug("played segment", "record_id", recordID, "duration", buf.Duration())
	return true
}

// sendInvite performs the (simulated) dashboard invitation.
func (c *Controller) sendInvite(email string) {
	slog.Info("invitation sent", "email", email)
	c.memory.InviteSent = true
}

// beep plays the listening cue. Cue failures are not worth interrupting
// the session over.
func (c *Controller) beep(ctx context.Context, freq float64) {
	tone := audio.Tone(freq, 100*time.Millisecond, 0.2, 44100)
	if err := c.player.Play(ctx, tone); err != nil {
		slog.Debug("listening cue failed", "error", err)
	}
}

// loadWAVFile reads a WAV segment file into a buffer.
func loadWAVFile(path string) (audio.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Buffer{}, err
	}
	return audio.DecodeWAV(data)
}
