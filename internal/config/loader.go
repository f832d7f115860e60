package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":      {"openai"},
	"decision": {"openai"},
	"llm":      {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts":      {"coqui"},
}

// Load reads the YAML configuration file at path, applies environment
// overrides and returns a validated [Config]. A missing file is not an
// error: the defaults are used.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		applyEnv(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment
// overrides over it and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotenv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is fine.
func LoadDotenv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "path", path, "error", err)
	}
}

// applyEnv overlays well-known environment variables onto cfg.
func applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.Providers.STT.Name == "openai" && cfg.Providers.STT.APIKey == "" {
			cfg.Providers.STT.APIKey = key
		}
		if cfg.Providers.Decision.Name == "openai" && cfg.Providers.Decision.APIKey == "" {
			cfg.Providers.Decision.APIKey = key
		}
		if cfg.Providers.LLM.Name == "openai" && cfg.Providers.LLM.APIKey == "" {
			cfg.Providers.LLM.APIKey = key
		}
	}
	if dev := os.Getenv("RENDEZVOX_OUTPUT_DEVICE"); dev != "" {
		cfg.Audio.OutputDevice = dev
	}
	if rate := os.Getenv("RENDEZVOX_OUTPUT_RATE"); rate != "" {
		if n, err := strconv.Atoi(rate); err == nil && n > 0 {
			cfg.Audio.OutputSampleRate = n
		} else {
			slog.Warn("ignoring invalid RENDEZVOX_OUTPUT_RATE", "value", rate)
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.Mode != "" && !cfg.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("mode %q is invalid; valid values: scripted, chat", cfg.Mode))
	}

	if cfg.Audio.InputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.input_sample_rate must be positive, got %d", cfg.Audio.InputSampleRate))
	}
	if cfg.Audio.BlockFrames <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_frames must be positive, got %d", cfg.Audio.BlockFrames))
	}
	if cfg.Audio.OutputSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.output_sample_rate must be positive, got %d", cfg.Audio.OutputSampleRate))
	}
	if cfg.Segmenter.RMSThreshold < 0 {
		errs = append(errs, fmt.Errorf("segmenter.rms_threshold must not be negative, got %g", cfg.Segmenter.RMSThreshold))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("decision", cfg.Providers.Decision.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Mode == ModeScripted && cfg.ManifestPath == "" {
		errs = append(errs, errors.New("manifest_path is required in scripted mode"))
	}
	if cfg.Mode == ModeChat && cfg.Providers.TTS.Name == "" {
		errs = append(errs, errors.New("providers.tts is required in chat mode"))
	}

	return errors.Join(errs...)
}

// RequireCredential returns the API key for the given provider entry,
// failing when it is absent. Used at startup so a missing key aborts
// before any audio device is opened.
func RequireCredential(kind string, entry ProviderEntry) (string, error) {
	if entry.APIKey == "" {
		return "", fmt.Errorf("config: providers.%s.api_key is not set (set OPENAI_API_KEY or the config file)", kind)
	}
	return entry.APIKey, nil
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
