package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shortform-pipeline/analysis"
	"shortform-pipeline/config"
	"shortform-pipeline/kb"
	"shortform-pipeline/planner"
)

func main() {
	godotenv.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	log := zl.Sugar().Named("planner")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalw("config load failed", "error", err)
	}

	for _, dir := range []string{cfg.Paths.Raw, cfg.Paths.Plans, cfg.Paths.BGMLibrary} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalw("create dir failed", "dir", dir, "error", err)
		}
	}

	// The knowledge base is optional: without it the planner produces
	// un-styled plans.
	var db *kb.KB
	if _, err := os.Stat(cfg.Paths.KB); err == nil {
		db, err = kb.Open(cfg.Paths.KB)
		if err != nil {
			log.Warnw("knowledge base unavailable", "path", cfg.Paths.KB, "error", err)
			db = nil
		}
	} else {
		log.Warnw("knowledge base not found, planning without trend styles", "path", cfg.Paths.KB)
	}

	var analyzer planner.Analyzer
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		analyzer = analysis.New(apiKey, cfg.Model(), cfg.PollInterval(), log.Named("analysis"))
	} else {
		log.Warnw("GEMINI_API_KEY not set, incoming videos will fail analysis")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	p := planner.New(cfg, db, analyzer, rng, log)
	w := planner.NewWatcher(p, cfg.Paths.Raw, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("watching for new videos", "dir", cfg.Paths.Raw)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalw("watcher stopped", "error", err)
	}
	log.Infow("shutting down")
}
