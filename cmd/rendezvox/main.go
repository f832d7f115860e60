// Command rendezvox is a French voice agent that books an appointment over
// the microphone: scripted mode plays gated pre-recorded segments chosen by
// a decision model, chat mode answers with free-form synthesized speech.
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

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/clemgrt/rendezvox/internal/audiodev"
	"github.com/clemgrt/rendezvox/internal/config"
	"github.com/clemgrt/rendezvox/internal/manifest"
	"github.com/clemgrt/rendezvox/internal/observe"
	"github.com/clemgrt/rendezvox/internal/segment"
	"github.com/clemgrt/rendezvox/internal/turn"
	"github.com/clemgrt/rendezvox/pkg/audio"
	decisionoai "github.com/clemgrt/rendezvox/pkg/provider/decision/openai"
	"github.com/clemgrt/rendezvox/pkg/provider/llm/anyllm"
	sttoai "github.com/clemgrt/rendezvox/pkg/provider/stt/openai"
	"github.com/clemgrt/rendezvox/pkg/provider/tts/coqui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	mode := flag.String("mode", "", "agent mode: scripted or chat (overrides config)")
	deviceIndex := flag.Int("device-index", -1, "output audio device index (overrides config)")
	flag.Parse()

	// ── Configuration ─────────────────────────────────────────────────────────
	config.LoadDotenv(".env")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rendezvox: %v\n", err)
		return 1
	}
	if *mode != "" {
		cfg.Mode = config.Mode(*mode)
		if !cfg.Mode.IsValid() {
			fmt.Fprintf(os.Stderr, "rendezvox: -mode %q is invalid; valid values: scripted, chat\n", *mode)
			return 1
		}
	}
	if *deviceIndex >= 0 {
		cfg.Audio.OutputDeviceIndex = *deviceIndex
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel))

	slog.Info("rendezvox starting",
		"config", *configPath,
		"mode", cfg.Mode,
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		if err := shutdownObserve(context.Background()); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── Audio devices ─────────────────────────────────────────────────────────
	audioCtx, err := audiodev.NewContext()
	if err != nil {
		slog.Error("failed to initialise audio backend", "err", err)
		return 1
	}
	defer audioCtx.Close()

	if devices, err := audioCtx.PlaybackDevices(); err != nil {
		slog.Warn("could not enumerate playback devices", "err", err)
	} else {
		slog.Info("playback devices", "count", len(devices), "names", devices)
	}

	capture, err := audioCtx.OpenCapture(cfg.Audio.InputSampleRate, cfg.Audio.BlockFrames)
	if err != nil {
		slog.Error("failed to open microphone", "err", err)
		return 1
	}
	defer capture.Close()

	outputSel := audiodev.OutputSelector{
		Index: cfg.Audio.OutputDeviceIndex,
		Name:  cfg.Audio.OutputDevice,
	}
	player := &devicePlayer{ctx: audioCtx, sel: outputSel}

	// Short cue up front: fails fast on a bad output device selection
	// instead of discovering it mid-session.
	if err := audioCtx.Beep(ctx, 880, outputSel); err != nil {
		slog.Error("output device check failed", "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	sttKey, err := config.RequireCredential("stt", cfg.Providers.STT)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur: OPENAI_API_KEY n'est pas défini dans l'environnement.")
		return 1
	}
	sttOpts := []sttoai.Option{sttoai.WithLanguage("fr")}
	if cfg.Providers.STT.Model != "" {
		sttOpts = append(sttOpts, sttoai.WithModel(cfg.Providers.STT.Model))
	}
	if cfg.Providers.STT.BaseURL != "" {
		sttOpts = append(sttOpts, sttoai.WithBaseURL(cfg.Providers.STT.BaseURL))
	}
	transcriber, err := sttoai.New(sttKey, sttOpts...)
	if err != nil {
		slog.Error("failed to build STT provider", "err", err)
		return 1
	}

	// ── Run group: turn loop + optional metrics listener ──────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		srv := observe.NewServer(cfg.MetricsAddr)
		g.Go(func() error { return srv.Run(gctx) })
		slog.Info("metrics listening", "addr", cfg.MetricsAddr)
	}

	switch cfg.Mode {
	case config.ModeChat:
		chat, err := buildChat(cfg, transcriber, player)
		if err != nil {
			slog.Error("failed to build chat session", "err", err)
			return 1
		}
		g.Go(func() error { return chat.Run(gctx, capture.Blocks()) })

	default:
		controller, err := buildScripted(cfg, transcriber, player)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rendezvox: %v\n", err)
			return 1
		}
		g.Go(func() error {
			defer stop() // scripted sessions terminate on their own
			return controller.Run(gctx, capture.Blocks())
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	fmt.Println("Au revoir !")
	return 0
}

// buildScripted assembles the scripted-mode controller.
func buildScripted(cfg *config.Config, transcriber *sttoai.Provider, player turn.Player) (*turn.Controller, error) {
	man, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	key, err := config.RequireCredential("decision", cfg.Providers.Decision)
	if err != nil {
		return nil, err
	}
	deciderOpts := []decisionoai.Option{}
	if cfg.Providers.Decision.Model != "" {
		deciderOpts = append(deciderOpts, decisionoai.WithModel(cfg.Providers.Decision.Model))
	}
	if cfg.Providers.Decision.BaseURL != "" {
		deciderOpts = append(deciderOpts, decisionoai.WithBaseURL(cfg.Providers.Decision.BaseURL))
	}
	decider, err := decisionoai.New(key, deciderOpts...)
	if err != nil {
		return nil, err
	}

	return turn.NewController(turn.ControllerConfig{
		Segmenter: newSegmenter(cfg),
		STT:       transcriber,
		Decider:   decider,
		Manifest:  man,
		Player:    player,
	}), nil
}

// buildChat assembles the chat-mode loop.
func buildChat(cfg *config.Config, transcriber *sttoai.Provider, player turn.Player) (*turn.Chat, error) {
	entry := cfg.Providers.LLM
	var llmOpts []anyllmlib.Option
	if entry.APIKey != "" {
		llmOpts = append(llmOpts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		llmOpts = append(llmOpts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	replier, err := anyllm.New(entry.Name, entry.Model, llmOpts...)
	if err != nil {
		return nil, err
	}

	synth, err := coqui.New(cfg.Providers.TTS.BaseURL, coqui.WithLanguage("fr"))
	if err != nil {
		return nil, err
	}

	return turn.NewChat(turn.ChatConfig{
		Segmenter:  newSegmenter(cfg),
		STT:        transcriber,
		LLM:        replier,
		TTS:        synth,
		Player:     player,
		OutputRate: cfg.Audio.OutputSampleRate,
	}), nil
}

// newSegmenter builds a segmenter from config tuning.
func newSegmenter(cfg *config.Config) *segment.Segmenter {
	return segment.New(segment.Config{
		SampleRate:   cfg.Audio.InputSampleRate,
		BlockFrames:  cfg.Audio.BlockFrames,
		RMSThreshold: cfg.Segmenter.RMSThreshold,
		MinSpeech:    cfg.Segmenter.MinSpeech,
		Silence:      cfg.Segmenter.Silence,
		MaxRecord:    cfg.Segmenter.MaxRecord,
		MinRecorded:  cfg.Segmenter.MinRecorded,
	})
}

// devicePlayer adapts the audio backend to the turn.Player interface with a
// fixed output device selection.
type devicePlayer struct {
	ctx *audiodev.Context
	sel audiodev.OutputSelector
}

func (p *devicePlayer) Play(ctx context.Context, buf audio.Buffer) error {
	return p.ctx.Play(ctx, buf, p.sel)
}

// newLogger builds the process-wide text logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
