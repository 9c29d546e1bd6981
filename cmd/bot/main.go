package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"news_bot/internal/bot"
	"news_bot/internal/collector"
	"news_bot/internal/config"
	"news_bot/internal/pipeline"
	"news_bot/internal/scheduler"
	"news_bot/internal/search"
	"news_bot/internal/state"
	"news_bot/internal/storage"
)

const (
	modeOnce    = "once"
	modePreview = "preview"
	modeServe   = "serve"
)

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("mode", modeServe, "run mode: once, preview or serve")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load env file", "path", *envFile, "error", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}

	log := newLogger(cfg.LogLevel)

	kv, err := storage.Open(cfg.StateBackend, cfg.DatabasePath)
	if err != nil {
		log.Error("open state store", "backend", cfg.StateBackend, "path", cfg.DatabasePath, "error", err)
		return 1
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("close state store", "error", err)
		}
	}()

	st := state.New(kv, log)

	b, err := bot.New(cfg.TelegramBotToken, cfg, st, log)
	if err != nil {
		log.Error("create bot", "error", err)
		return 1
	}

	searcher := search.New(&http.Client{Timeout: 30 * time.Second}, cfg.SearchURL, cfg.SearchClientID, cfg.SearchClientSecret)
	p := pipeline.New(pipeline.Deps{
		Collector:       collector.New(searcher, log),
		State:           st,
		Notifier:        b,
		Static:          cfg.Settings,
		Location:        cfg.Location(),
		InitialLookback: cfg.InitialLookback,
		Log:             log,
	})
	b.SetRunner(p)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case modeOnce:
		out := p.TriggerScheduled(ctx)
		log.Info("run complete", "status", out.Status, "slot", out.Slot, "candidates", out.Candidates)
	case modePreview:
		out := p.TriggerPreview(ctx)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Error("write preview", "error", err)
			return 1
		}
	case modeServe:
		// The scheduler and /run share p, which runs one pass at a time.
		sched := scheduler.New(p, log)
		sched.SetTickInterval(cfg.TickInterval)

		log.Info("starting bot", "backend", cfg.StateBackend, "tick", cfg.TickInterval)

		go sched.Run(ctx)

		b.Run(ctx)

		log.Info("bot stopped")
	default:
		log.Error("unknown mode", "mode", *mode)
		return 2
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
