package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shortform-pipeline/analysis"
	"shortform-pipeline/config"
	"shortform-pipeline/crawler"
	"shortform-pipeline/kb"
)

func main() {
	godotenv.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	log := zl.Sugar().Named("trendwatcher")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalw("config load failed", "error", err)
	}

	// The schema is migrated on every start so init_db is idempotent and
	// crawl never races a missing table.
	db, err := kb.Open(cfg.Paths.KB)
	if err != nil {
		log.Fatalw("open knowledge base failed", "path", cfg.Paths.KB, "error", err)
	}
	if err := db.Init(); err != nil {
		log.Fatalw("migrate knowledge base failed", "error", err)
	}

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "init_db":
		log.Infow("knowledge base initialized", "path", cfg.Paths.KB)

	case "crawl":
		fs := flag.NewFlagSet("crawl", flag.ExitOnError)
		genre := fs.String("genre", cfg.Crawl.DefaultGenre, "genre to search for")
		limit := fs.Int("limit", cfg.Crawl.DefaultLimit, "number of candidate videos")
		fs.Parse(os.Args[2:])

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runCrawl(ctx, cfg, db, log, *genre, *limit)

	default:
		// No subcommand: stay resident so the container keeps the schema
		// warm and crawls can be triggered via exec.
		log.Infow("no command given, idling (use init_db or crawl)")
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		log.Infow("shutting down")
	}
}

func runCrawl(ctx context.Context, cfg *config.Config, db *kb.KB, log *zap.SugaredLogger, genre string, limit int) {
	search, err := crawler.NewYouTubeSearcher(ctx, os.Getenv("YOUTUBE_API_KEY"))
	if err != nil {
		log.Fatalw("search client failed", "error", err)
	}

	var analyzer crawler.Analyzer
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		analyzer = analysis.New(apiKey, cfg.Model(), cfg.PollInterval(), log.Named("analysis"))
	} else {
		log.Warnw("GEMINI_API_KEY not set, candidates will be recorded without fingerprints")
	}

	c := crawler.New(cfg, db, analyzer, search, crawler.NewYtDlpDownloader(log), log)
	if err := c.Run(ctx, genre, limit); err != nil {
		log.Fatalw("crawl failed", "genre", genre, "error", err)
	}
	log.Infow("crawl complete", "genre", genre)
}
