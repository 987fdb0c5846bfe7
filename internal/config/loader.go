package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":  {"whisper", "whisper-native"},
	"vad":  {"energy", "webrtc"},
	"sink": {"none", "sqlite", "postgres"},
}

// webrtcSampleRates are the capture rates the webrtc scorer accepts.
var webrtcSampleRates = []int{8000, 16000, 32000, 48000}

// commandKinds are the vocabulary keys [Validate] accepts.
var commandKinds = []string{"pause", "resume", "stop", "set-context"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
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

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)
	validateProviderName("sink", cfg.Providers.Sink.Name)

	if cfg.Providers.STT.Name == "whisper" && cfg.Providers.STT.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt.base_url is required when providers.stt.name is whisper"))
	}
	if cfg.Providers.STT.Name == "whisper-native" && cfg.Providers.STT.Model == "" {
		errs = append(errs, errors.New("providers.stt.model is required when providers.stt.name is whisper-native"))
	}
	switch cfg.Providers.Sink.Name {
	case "sqlite", "postgres":
		if cfg.Providers.Sink.DSN == "" {
			errs = append(errs, fmt.Errorf("providers.sink.dsn is required when providers.sink.name is %s", cfg.Providers.Sink.Name))
		}
	}

	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is invalid", cfg.Audio.SampleRate))
	}
	if cfg.Providers.VAD.Name == "webrtc" && cfg.Audio.SampleRate != 0 &&
		!slices.Contains(webrtcSampleRates, cfg.Audio.SampleRate) {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is not supported by the webrtc scorer; valid values: 8000, 16000, 32000, 48000", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSizeMs < 0 {
		errs = append(errs, fmt.Errorf("audio.frame_size_ms %d is invalid", cfg.Audio.FrameSizeMs))
	}

	if cfg.Detector.Threshold < 0 || cfg.Detector.Threshold > 1 {
		errs = append(errs, fmt.Errorf("detector.threshold %.2f is out of range [0, 1]", cfg.Detector.Threshold))
	}

	if cfg.Commands.Similarity != 0 {
		if cfg.Commands.Similarity <= 0 || cfg.Commands.Similarity > 1 {
			errs = append(errs, fmt.Errorf("commands.similarity %.2f is out of range (0, 1]", cfg.Commands.Similarity))
		}
	}
	for kind := range cfg.Commands.Vocabulary {
		if !slices.Contains(commandKinds, kind) {
			errs = append(errs, fmt.Errorf("commands.vocabulary key %q is unknown; valid keys: pause, resume, stop, set-context", kind))
		}
	}

	if cfg.Numeric.MinValue != 0 || cfg.Numeric.MaxValue != 0 {
		if cfg.Numeric.MinValue >= cfg.Numeric.MaxValue {
			errs = append(errs, fmt.Errorf("numeric.min_value %.2f must be below numeric.max_value %.2f", cfg.Numeric.MinValue, cfg.Numeric.MaxValue))
		}
	}

	if cfg.Providers.Sink.Name == "" || cfg.Providers.Sink.Name == "none" {
		slog.Warn("no persistence sink configured; measurements are kept in memory only")
	}

	return errors.Join(errs...)
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
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
