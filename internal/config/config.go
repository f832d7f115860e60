// Package config provides the configuration schema and loader for the
// rendezvox voice agent.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Mode selects how the agent answers the caller.
type Mode string

const (
	// ModeScripted answers with gated pre-recorded segments chosen by the
	// decision model.
	ModeScripted Mode = "scripted"

	// ModeChat answers with free-form LLM replies rendered through TTS.
	ModeChat Mode = "chat"
)

// IsValid reports whether m is a recognised agent mode.
func (m Mode) IsValid() bool {
	return m == ModeScripted || m == ModeChat
}

// Config is the root configuration structure for rendezvox.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Mode selects the scripted or chat pipeline. Defaults to scripted.
	Mode Mode `yaml:"mode"`

	// ManifestPath points at the segment manifest JSON. Only used in
	// scripted mode.
	ManifestPath string `yaml:"manifest_path"`

	// MetricsAddr is the TCP address the metrics/health endpoint listens
	// on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	Audio     AudioConfig     `yaml:"audio"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Providers ProvidersConfig `yaml:"providers"`
}

// AudioConfig holds capture and playback device settings.
type AudioConfig struct {
	// InputSampleRate is the microphone capture rate in Hz.
	InputSampleRate int `yaml:"input_sample_rate"`

	// BlockFrames is the number of samples per capture block.
	BlockFrames int `yaml:"block_frames"`

	// OutputSampleRate is the playback rate synthesized speech is
	// resampled to. Segment files keep their native rate.
	OutputSampleRate int `yaml:"output_sample_rate"`

	// OutputDevice selects the playback device by case-insensitive
	// substring of its name. Empty uses the system default.
	OutputDevice string `yaml:"output_device"`

	// OutputDeviceIndex selects the playback device by enumeration index.
	// Takes precedence over OutputDevice when >= 0.
	OutputDeviceIndex int `yaml:"output_device_index"`
}

// SegmenterConfig tunes the silence-based speech segmenter. Zero values
// fall back to the segmenter's defaults.
type SegmenterConfig struct {
	// RMSThreshold is the block RMS level above which a block counts as
	// speech.
	RMSThreshold float64 `yaml:"rms_threshold"`

	// MinSpeech is how long speech must persist before recording starts.
	MinSpeech time.Duration `yaml:"min_speech"`

	// Silence is how long silence must persist before recording ends.
	Silence time.Duration `yaml:"silence"`

	// MaxRecord caps the length of a single utterance.
	MaxRecord time.Duration `yaml:"max_record"`

	// MinRecorded discards utterances shorter than this.
	MinRecorded time.Duration `yaml:"min_recorded"`
}

// ProvidersConfig declares provider settings per pipeline stage.
type ProvidersConfig struct {
	STT      ProviderEntry `yaml:"stt"`
	Decision ProviderEntry `yaml:"decision"`
	LLM      ProviderEntry `yaml:"llm"`
	TTS      ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider
// types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "openai", "coqui").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	// Usually left empty in the file and supplied via environment.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "whisper-1", "gpt-5-nano").
	Model string `yaml:"model"`
}

// Default returns a Config with the standard rendezvox settings.
func Default() *Config {
	return &Config{
		LogLevel:     LogInfo,
		Mode:         ModeScripted,
		ManifestPath: "segments/manifest.json",
		Audio: AudioConfig{
			InputSampleRate:   16000,
			BlockFrames:       1024,
			OutputSampleRate:  48000,
			OutputDeviceIndex: -1,
		},
		Providers: ProvidersConfig{
			STT:      ProviderEntry{Name: "openai", Model: "whisper-1"},
			Decision: ProviderEntry{Name: "openai", Model: "gpt-5-nano"},
			LLM:      ProviderEntry{Name: "openai", Model: "gpt-5-nano"},
			TTS:      ProviderEntry{Name: "coqui", BaseURL: "http://localhost:8020"},
		},
	}
}
