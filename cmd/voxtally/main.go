// Command voxtally is the hands-free voice measurement capture daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxtally/voxtally/internal/command"
	"github.com/voxtally/voxtally/internal/config"
	"github.com/voxtally/voxtally/internal/numeric"
	"github.com/voxtally/voxtally/internal/observe"
	"github.com/voxtally/voxtally/internal/pipeline"
	"github.com/voxtally/voxtally/internal/record"
	recordpg "github.com/voxtally/voxtally/internal/record/postgres"
	recordsqlite "github.com/voxtally/voxtally/internal/record/sqlite"
	"github.com/voxtally/voxtally/internal/trigger"
	"github.com/voxtally/voxtally/pkg/audio/portaudio"
	"github.com/voxtally/voxtally/pkg/provider/stt"
	"github.com/voxtally/voxtally/pkg/provider/stt/whisper"
	"github.com/voxtally/voxtally/pkg/provider/vad"
	"github.com/voxtally/voxtally/pkg/provider/vad/energy"
	"github.com/voxtally/voxtally/pkg/provider/vad/webrtc"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxtally: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxtally: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxtally starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	if cfg.Server.MetricsAddr != "" {
		go serveMetrics(cfg.Server.MetricsAddr)
	}

	// ── Recognizer ────────────────────────────────────────────────────────────
	recognizer, err := buildRecognizer(cfg)
	if err != nil {
		slog.Error("failed to build recognizer", "err", err)
		return 1
	}

	// ── VAD scorer with energy fallback ───────────────────────────────────────
	scorer, vadStatus := buildScorer(cfg)
	defer scorer.Close()
	if vadStatus.FellBack {
		slog.Warn("requested vad scorer unavailable, fell back to energy",
			"requested", vadStatus.Requested, "active", vadStatus.Active)
	}

	// ── Persistence sink ──────────────────────────────────────────────────────
	sink, err := buildSink(ctx, cfg)
	if err != nil {
		slog.Error("failed to open persistence sink", "err", err)
		return 1
	}
	defer sink.Close()

	// ── Assemble the pipeline ─────────────────────────────────────────────────
	classifier := buildClassifier(cfg)
	extractor := numeric.NewExtractor(numeric.Config{
		MinValue:        cfg.Numeric.MinValue,
		MaxValue:        cfg.Numeric.MaxValue,
		NoiseContextLen: cfg.Numeric.NoiseContextLen,
		IsSetContext:    classifier.IsSetContext,
	})
	store := record.NewStore(sink, logger)

	source := portaudio.New(portaudio.Config{
		SampleRate:  cfg.Audio.SampleRate,
		FrameSizeMs: cfg.Audio.FrameSizeMs,
		DeviceName:  cfg.Audio.DeviceName,
	})
	defer source.Close()

	p := pipeline.New(cfg.PipelineConfig(), pipeline.Deps{
		Source: source,
		Scorer: scorer,
		Dispatcher: pipeline.NewDispatcher(recognizer,
			cfg.PipelineConfig().RecognitionTimeout, nil, logger),
		Classifier: classifier,
		Extractor:  extractor,
		Store:      store,
		Log:        logger,
	})

	// ── Hotkeys (optional) ────────────────────────────────────────────────────
	if cfg.Hotkeys.Enabled {
		hk, err := trigger.Register(ctx, p, logger)
		if err != nil {
			slog.Warn("hotkey registration failed, voice commands only", "err", err)
		} else {
			defer hk.Unregister()
		}
	}

	printStartupSummary(cfg, vadStatus)

	slog.Info("capturing — say a number to record it, press Ctrl+C to shut down")

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("pipeline error", "err", err)
		return 1
	}

	slog.Info("goodbye", "records", store.Len())
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

func buildRecognizer(cfg *config.Config) (stt.Recognizer, error) {
	entry := cfg.Providers.STT
	lang := entry.Language
	if lang == "" {
		lang = "zh"
	}

	switch entry.Name {
	case "", "whisper":
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		opts = append(opts, whisper.WithLanguage(lang))
		r, err := whisper.New(entry.BaseURL, opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "whisper-native":
		r, err := whisper.NewNative(entry.Model, whisper.WithNativeLanguage(lang))
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

// buildScorer constructs the configured VAD scorer, falling back to the
// always-available energy scorer when construction fails. The fallback is
// reported in the returned status, never as an error.
func buildScorer(cfg *config.Config) (vad.Scorer, vad.Status) {
	requested := cfg.Providers.VAD.Name
	if requested == "" {
		requested = "energy"
	}

	if requested == "webrtc" {
		rate := cfg.Audio.SampleRate
		if rate == 0 {
			rate = 16000
		}
		mode := optInt(cfg.Providers.VAD.Options, "mode")
		s, err := webrtc.New(rate, mode)
		if err == nil {
			return s, vad.Status{Requested: requested, Active: "webrtc"}
		}
		slog.Warn("webrtc scorer construction failed", "err", err)
		return energy.New(), vad.Status{Requested: requested, Active: "energy", FellBack: true}
	}

	return energy.New(), vad.Status{Requested: requested, Active: "energy", FellBack: requested != "energy"}
}

func buildSink(ctx context.Context, cfg *config.Config) (record.Sink, error) {
	entry := cfg.Providers.Sink
	switch entry.Name {
	case "", "none":
		return record.NopSink{}, nil
	case "sqlite":
		s, err := recordsqlite.Open(entry.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := recordpg.New(ctx, entry.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink provider %q", entry.Name)
	}
}

func buildClassifier(cfg *config.Config) *command.Classifier {
	var opts []command.Option
	if cfg.Commands.Similarity > 0 {
		opts = append(opts, command.WithSimilarity(cfg.Commands.Similarity))
	}
	if cfg.Commands.MinMatchLen > 0 {
		opts = append(opts, command.WithMinMatchLen(cfg.Commands.MinMatchLen))
	}
	if len(cfg.Commands.Fillers) > 0 {
		opts = append(opts, command.WithFillers(cfg.Commands.Fillers))
	}
	if len(cfg.Commands.Vocabulary) > 0 {
		vocab := command.Vocabulary{}
		for key, phrases := range cfg.Commands.Vocabulary {
			switch key {
			case "pause":
				vocab[command.Pause] = phrases
			case "resume":
				vocab[command.Resume] = phrases
			case "stop":
				vocab[command.Stop] = phrases
			case "set-context":
				vocab[command.SetContext] = phrases
			}
		}
		opts = append(opts, command.WithVocabulary(vocab))
	}
	return command.New(opts...)
}

// ── Metrics endpoint ──────────────────────────────────────────────────────────

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics endpoint stopped", "err", err)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, vadStatus vad.Status) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        voxtally — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printEntry("VAD", vadStatus.Active, "")
	printEntry("Sink", cfg.Providers.Sink.Name, "")
	printEntry("Device", cfg.Audio.DeviceName, "")
	if cfg.Server.MetricsAddr != "" {
		fmt.Printf("║  %-12s : %-21s ║\n", "Metrics", cfg.Server.MetricsAddr)
	}
	if cfg.Hotkeys.Enabled {
		fmt.Printf("║  %-12s : %-21s ║\n", "Hotkeys", "ctrl+shift+space / q")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printEntry(kind, name, model string) {
	value := name
	if value == "" {
		value = "(default)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 21 {
		value = value[:18] + "…"
	}
	fmt.Printf("║  %-12s : %-21s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

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

// ── Helpers ───────────────────────────────────────────────────────────────────

// optInt extracts an int value from a provider Options map[string]any.
// Returns 0 if the map is nil, the key is absent, or the value is not an int.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	v, ok := opts[key]
	if !ok {
		return 0
	}
	n, ok := v.(int)
	if !ok {
		return 0
	}
	return n
}
