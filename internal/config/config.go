// Package config provides the configuration schema and loader for the
// voxtally capture daemon.
package config

import (
	"time"

	"github.com/voxtally/voxtally/internal/pipeline"
	"github.com/voxtally/voxtally/internal/segment"
)

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

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	Providers ProvidersConfig `yaml:"providers"`
	Detector  DetectorConfig  `yaml:"detector"`
	Commands  CommandsConfig  `yaml:"commands"`
	Numeric   NumericConfig   `yaml:"numeric"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Hotkeys   HotkeysConfig   `yaml:"hotkeys"`
}

// ServerConfig holds logging and the metrics endpoint settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the /metrics endpoint listens on.
	// Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AudioConfig holds capture device settings.
type AudioConfig struct {
	// SampleRate in Hz. Default: 16000. Must be one of 8000, 16000, 32000,
	// 48000 when the webrtc scorer is selected.
	SampleRate int `yaml:"sample_rate"`

	// FrameSizeMs is the capture frame length in milliseconds. Default: 20.
	FrameSizeMs int `yaml:"frame_size_ms"`

	// DeviceName selects an input device by substring match. Empty uses the
	// system default.
	DeviceName string `yaml:"device_name"`
}

// ProvidersConfig declares which implementation to use for each pluggable
// stage.
type ProvidersConfig struct {
	STT  ProviderEntry `yaml:"stt"`
	VAD  ProviderEntry `yaml:"vad"`
	Sink ProviderEntry `yaml:"sink"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds.
type ProviderEntry struct {
	// Name selects the implementation (e.g. "whisper", "webrtc", "sqlite").
	Name string `yaml:"name"`

	// BaseURL is the endpoint for server-backed providers (whisper).
	BaseURL string `yaml:"base_url"`

	// Model is a model path or name, where the provider takes one.
	Model string `yaml:"model"`

	// Language hints the recognizer. Default: "zh".
	Language string `yaml:"language"`

	// DSN is the connection string or file path for sink providers.
	DSN string `yaml:"dsn"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// DetectorConfig holds the endpoint detection timings, in milliseconds.
type DetectorConfig struct {
	// Threshold is the speech probability cutoff. Default: 0.5.
	Threshold float64 `yaml:"threshold"`

	MinSpeechMs     int `yaml:"min_speech_ms"`
	MinSilenceMs    int `yaml:"min_silence_ms"`
	LongUtteranceMs int `yaml:"long_utterance_ms"`
	LongSilenceMs   int `yaml:"long_silence_ms"`
	MinSegmentMs    int `yaml:"min_segment_ms"`
	PrerollMs       int `yaml:"preroll_ms"`
}

// CommandsConfig tunes the voice command matcher.
type CommandsConfig struct {
	// Similarity is the minimum Jaro-Winkler score for a fuzzy match.
	// Default: 0.85.
	Similarity float64 `yaml:"similarity"`

	// MinMatchLen is the minimum text length in runes for fuzzy matching.
	// Default: 2.
	MinMatchLen int `yaml:"min_match_len"`

	// Vocabulary overrides trigger phrases per kind. Keys: pause, resume,
	// stop, set-context.
	Vocabulary map[string][]string `yaml:"vocabulary"`

	// Fillers replaces the tokens stripped before matching.
	Fillers []string `yaml:"fillers"`
}

// NumericConfig bounds and filters extracted measurements.
type NumericConfig struct {
	// MinValue and MaxValue bound accepted measurements. Both zero disables
	// the range check.
	MinValue float64 `yaml:"min_value"`
	MaxValue float64 `yaml:"max_value"`

	// NoiseContextLen is the surrounding-context length at which an exact
	// multiple of 100 is treated as incidental. Default: 2.
	NoiseContextLen int `yaml:"noise_context_len"`
}

// PipelineConfig tunes the recognition path.
type PipelineConfig struct {
	// RecognitionTimeoutMs bounds each recognizer call. Default: 15000.
	RecognitionTimeoutMs int `yaml:"recognition_timeout_ms"`

	// SegmentQueue is the assembly-to-recognition buffer depth. Default: 8.
	SegmentQueue int `yaml:"segment_queue"`
}

// HotkeysConfig gates global keyboard shortcut registration.
type HotkeysConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PipelineConfig converts the schema into the pipeline's runtime config.
func (c *Config) PipelineConfig() pipeline.Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return pipeline.Config{
		Detector: segment.DetectorConfig{
			Threshold:     c.Detector.Threshold,
			MinSpeech:     ms(c.Detector.MinSpeechMs),
			MinSilence:    ms(c.Detector.MinSilenceMs),
			LongUtterance: ms(c.Detector.LongUtteranceMs),
			LongSilence:   ms(c.Detector.LongSilenceMs),
		},
		Assembler: segment.AssemblerConfig{
			MinSegment: ms(c.Detector.MinSegmentMs),
			Preroll:    ms(c.Detector.PrerollMs),
		},
		RecognitionTimeout: ms(c.Pipeline.RecognitionTimeoutMs),
		SegmentQueue:       c.Pipeline.SegmentQueue,
	}
}
