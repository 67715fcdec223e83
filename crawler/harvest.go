package crawler

import (
	"context"
	"os"
	"path/filepath"
)

// harvest searches for one asset matching the query and ingests it.
// Dedup is by (kind, canonical URL), not by filename. All failures are
// logged and swallowed: a lost asset never fails the crawl entry.
func (c *Crawler) harvest(ctx context.Context, query, kind string) {
	c.log.Infow("searching asset", "query", query, "kind", kind)

	destDir := c.cfg.Paths.AssetsBGM
	if kind == "se" {
		destDir = c.cfg.Paths.AssetsSE
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		c.log.Errorw("create asset dir failed", "dir", destDir, "error", err)
		return
	}

	results, err := c.search.Search(ctx, query, 1)
	if err != nil {
		c.log.Errorw("asset search failed", "query", query, "error", err)
		return
	}
	if len(results) == 0 {
		c.log.Warnw("no asset found", "query", query)
		return
	}
	entry := results[0]

	exists, err := c.db.HasAsset(kind, entry.URL)
	if err != nil {
		c.log.Errorw("asset dedup check failed", "url", entry.URL, "error", err)
		return
	}
	if exists {
		c.log.Infow("asset already harvested", "title", entry.Title)
		return
	}

	c.log.Infow("downloading asset", "title", entry.Title)
	if err := c.dl.DownloadAudio(ctx, entry.URL, destDir); err != nil {
		c.log.Errorw("asset download failed", "url", entry.URL, "error", err)
		return
	}

	// yt-dlp names the file <id>.<ext> and the extension is only known
	// after the download; the recorded path is the id-based prefix.
	predicted := filepath.Join(destDir, entry.VideoID)

	if err := c.db.InsertAsset(kind, entry.Title, predicted, query, entry.URL); err != nil {
		c.log.Errorw("asset persist failed", "url", entry.URL, "error", err)
		return
	}
	c.log.Infow("asset saved", "title", entry.Title, "kind", kind)
}
