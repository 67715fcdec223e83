package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"shortform-pipeline/config"
	"shortform-pipeline/kb"
	"shortform-pipeline/types"
)

// Analyzer is the slice of the analysis client the crawler needs
type Analyzer interface {
	Analyze(ctx context.Context, filePath, prompt string) (json.RawMessage, error)
}

// Crawler builds the trend knowledge base: search, dedup, sample, analyze,
// persist, harvest. One bounded batch per Run invocation.
type Crawler struct {
	cfg      *config.Config
	db       *kb.KB
	analyzer Analyzer
	search   Searcher
	dl       Downloader
	log      *zap.SugaredLogger
}

// New creates a Crawler. analyzer may be nil (missing API key): discovered
// videos are still recorded as seen, but no fingerprint is extracted.
func New(cfg *config.Config, db *kb.KB, analyzer Analyzer, search Searcher, dl Downloader, log *zap.SugaredLogger) *Crawler {
	return &Crawler{cfg: cfg, db: db, analyzer: analyzer, search: search, dl: dl, log: log}
}

// Run crawls one genre. A search failure aborts the invocation; a failure
// on any single entry is logged and the crawl moves on.
func (c *Crawler) Run(ctx context.Context, genre string, limit int) error {
	c.log.Infow("crawl starting", "genre", genre, "limit", limit)

	if err := os.MkdirAll(c.cfg.Paths.Samples, 0755); err != nil {
		return fmt.Errorf("create sample dir: %w", err)
	}

	results, err := c.search.Search(ctx, genre, limit)
	if err != nil {
		return fmt.Errorf("search %q: %w", genre, err)
	}
	c.log.Infow("search complete", "candidates", len(results))

	for _, entry := range results {
		c.processEntry(ctx, genre, entry)
	}
	return nil
}

// processEntry runs the per-candidate state machine. The SourceVideo row is
// written before any downloading, so a failed entry is never retried on a
// later invocation.
func (c *Crawler) processEntry(ctx context.Context, genre string, entry SearchResult) {
	seen, err := c.db.HasSourceVideo(entry.VideoID)
	if err != nil {
		c.log.Errorw("dedup check failed", "video_id", entry.VideoID, "error", err)
		return
	}
	if seen {
		c.log.Infow("skipping duplicate", "video_id", entry.VideoID)
		return
	}

	if err := c.db.InsertSourceVideo(entry.VideoID, entry.Title, genre, entry.ViewCount); err != nil {
		c.log.Errorw("record source video failed", "video_id", entry.VideoID, "error", err)
		return
	}

	c.log.Infow("processing candidate", "video_id", entry.VideoID, "title", entry.Title)

	sample, err := c.dl.DownloadSample(ctx, entry.URL, c.cfg.Paths.Samples, entry.VideoID, c.cfg.Crawl.SampleSeconds)
	if err != nil {
		c.log.Errorw("sample download failed", "video_id", entry.VideoID, "error", err)
		return
	}
	// The sample is scoped to this entry: delete it whatever analysis does,
	// to bound local storage.
	defer os.Remove(sample)

	if c.analyzer == nil {
		c.log.Warnw("analysis client not configured, skipping fingerprint", "video_id", entry.VideoID)
		return
	}

	raw, err := c.analyzer.Analyze(ctx, sample, stylePrompt(genre))
	if err != nil {
		c.log.Errorw("style analysis failed", "video_id", entry.VideoID, "error", err)
		return
	}

	var fp types.StyleFingerprint
	if err := json.Unmarshal(raw, &fp); err != nil {
		c.log.Errorw("fingerprint parse failed", "video_id", entry.VideoID, "error", err)
		return
	}

	if err := c.db.InsertStyle(genre, &fp); err != nil {
		c.log.Errorw("fingerprint persist failed", "video_id", entry.VideoID, "error", err)
		return
	}
	if err := c.db.MarkProcessed(entry.VideoID); err != nil {
		c.log.Warnw("mark processed failed", "video_id", entry.VideoID, "error", err)
	}
	c.log.Infow("style saved", "video_id", entry.VideoID, "mood", fp.BGMMood, "cuts_per_min", fp.CutsPerMin)

	if fp.BGMMood != "" {
		c.harvest(ctx, "No copyright music "+fp.BGMMood, "bgm")
	}
	for _, tag := range fp.SETags {
		if tag == "" || tag == "none" {
			continue
		}
		c.harvest(ctx, "Sound effect "+tag, "se")
	}
}

// stylePrompt asks for a fingerprint-shaped JSON for the genre
func stylePrompt(genre string) string {
	return fmt.Sprintf(`Analyze this %s video style.
Output JSON:
{
    "cuts_per_min": 0.0,
    "avg_shot_duration": 0.0,
    "filter_usage": "dominant filter or 'none'",
    "transition_type": "cut/fade/mix",
    "caption_style": "minimal/heavy/colorful/none",
    "bgm_mood": "energetic/calm/lofi/etc",
    "se_tags": ["whoosh", "pop", "laugh", "none"]
}`, genre)
}
