package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/clemgrt/rendezvox/internal/config"
)

// ---- helpers ----

func load(t *testing.T, yaml string) (*config.Config, error) {
	t.Helper()
	return config.LoadFromReader(strings.NewReader(yaml))
}

// ---- tests ----

func TestLoadFromReader_EmptyInput_YieldsDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "")
	t.Setenv("RENDEZVOX_OUTPUT_RATE", "")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Mode != config.ModeScripted {
		t.Errorf("got mode %q, want scripted", cfg.Mode)
	}
	if cfg.LogLevel != config.LogInfo {
		t.Errorf("got log level %q, want info", cfg.LogLevel)
	}
	if cfg.ManifestPath != "segments/manifest.json" {
		t.Errorf("got manifest path %q, want segments/manifest.json", cfg.ManifestPath)
	}
	if cfg.Audio.InputSampleRate != 16000 || cfg.Audio.BlockFrames != 1024 {
		t.Errorf("got audio %d Hz / %d frames, want 16000 / 1024",
			cfg.Audio.InputSampleRate, cfg.Audio.BlockFrames)
	}
	if cfg.Audio.OutputDeviceIndex != -1 {
		t.Errorf("got output device index %d, want -1", cfg.Audio.OutputDeviceIndex)
	}
	if cfg.Providers.STT.Model != "whisper-1" {
		t.Errorf("got stt model %q, want whisper-1", cfg.Providers.STT.Model)
	}
}

func TestLoadFromReader_ValidYAML_OverridesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "")
	t.Setenv("RENDEZVOX_OUTPUT_RATE", "")

	cfg, err := load(t, `
log_level: debug
mode: chat
metrics_addr: ":9090"
audio:
  output_sample_rate: 44100
segmenter:
  rms_threshold: 0.02
  silence: 2s
providers:
  llm:
    name: ollama
    model: mistral
    base_url: http://localhost:11434
  tts:
    name: coqui
    base_url: http://localhost:8020
`)
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.LogLevel != config.LogDebug {
		t.Errorf("got log level %q, want debug", cfg.LogLevel)
	}
	if cfg.Mode != config.ModeChat {
		t.Errorf("got mode %q, want chat", cfg.Mode)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("got metrics addr %q, want :9090", cfg.MetricsAddr)
	}
	if cfg.Audio.OutputSampleRate != 44100 {
		t.Errorf("got output rate %d, want 44100", cfg.Audio.OutputSampleRate)
	}
	if cfg.Segmenter.RMSThreshold != 0.02 {
		t.Errorf("got rms threshold %g, want 0.02", cfg.Segmenter.RMSThreshold)
	}
	if cfg.Segmenter.Silence != 2*time.Second {
		t.Errorf("got silence %v, want 2s", cfg.Segmenter.Silence)
	}
	if cfg.Providers.LLM.Name != "ollama" || cfg.Providers.LLM.Model != "mistral" {
		t.Errorf("got llm %s/%s, want ollama/mistral",
			cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	}
	// Untouched sections keep their defaults.
	if cfg.Audio.InputSampleRate != 16000 {
		t.Errorf("got input rate %d, want default 16000", cfg.Audio.InputSampleRate)
	}
}

func TestLoadFromReader_UnknownField_ReturnsError(t *testing.T) {
	if _, err := load(t, "does_not_exist: true\n"); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_InvalidValues_ReturnsJoinedErrors(t *testing.T) {
	_, err := load(t, `
log_level: verbose
mode: freestyle
audio:
  input_sample_rate: -1
`)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	msg := err.Error()
	for _, want := range []string{"log_level", "mode", "input_sample_rate"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestLoadFromReader_ScriptedWithoutManifest_ReturnsError(t *testing.T) {
	if _, err := load(t, "manifest_path: \"\"\n"); err == nil {
		t.Fatal("expected error for scripted mode without manifest, got nil")
	}
}

func TestLoadFromReader_OpenAIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-test")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "")
	t.Setenv("RENDEZVOX_OUTPUT_RATE", "")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Providers.STT.APIKey != "sk-env-test" {
		t.Errorf("stt api key not filled from env, got %q", cfg.Providers.STT.APIKey)
	}
	if cfg.Providers.Decision.APIKey != "sk-env-test" {
		t.Errorf("decision api key not filled from env, got %q", cfg.Providers.Decision.APIKey)
	}
}

func TestLoadFromReader_FileAPIKey_WinsOverEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-test")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "")
	t.Setenv("RENDEZVOX_OUTPUT_RATE", "")

	cfg, err := load(t, `
providers:
  stt:
    name: openai
    api_key: sk-from-file
`)
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Providers.STT.APIKey != "sk-from-file" {
		t.Errorf("got stt api key %q, want sk-from-file", cfg.Providers.STT.APIKey)
	}
}

func TestLoadFromReader_OutputDeviceFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "USB Speaker")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Audio.OutputDevice != "USB Speaker" {
		t.Errorf("got output device %q, want USB Speaker", cfg.Audio.OutputDevice)
	}
}

func TestLoadFromReader_OutputRateFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "")
	t.Setenv("RENDEZVOX_OUTPUT_RATE", "44100")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Audio.OutputSampleRate != 44100 {
		t.Errorf("got output rate %d, want 44100", cfg.Audio.OutputSampleRate)
	}
}

func TestLoadFromReader_InvalidOutputRateEnv_Ignored(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RENDEZVOX_OUTPUT_DEVICE", "")
	t.Setenv("RENDEZVOX_OUTPUT_RATE", "not-a-number")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Audio.OutputSampleRate != 48000 {
		t.Errorf("got output rate %d, want default 48000", cfg.Audio.OutputSampleRate)
	}
}

func TestRequireCredential(t *testing.T) {
	key, err := config.RequireCredential("stt", config.ProviderEntry{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("RequireCredential: %v", err)
	}
	if key != "sk-test" {
		t.Fatalf("got key %q, want sk-test", key)
	}

	if _, err := config.RequireCredential("decision", config.ProviderEntry{}); err == nil {
		t.Fatal("expected error for missing credential, got nil")
	}
}
