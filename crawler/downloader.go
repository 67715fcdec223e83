package crawler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Downloader fetches media from the platform
type Downloader interface {
	// DownloadSample grabs the first sampleSeconds of the video as mp4 and
	// returns the local path.
	DownloadSample(ctx context.Context, url, destDir, videoID string, sampleSeconds int) (string, error)
	// DownloadAudio grabs the best audio track into destDir under the
	// platform's id-based naming.
	DownloadAudio(ctx context.Context, url, destDir string) error
}

// YtDlpDownloader shells out to yt-dlp
type YtDlpDownloader struct {
	bin string
	log *zap.SugaredLogger
}

// NewYtDlpDownloader uses yt-dlp from PATH
func NewYtDlpDownloader(log *zap.SugaredLogger) *YtDlpDownloader {
	return &YtDlpDownloader{bin: "yt-dlp", log: log}
}

func (d *YtDlpDownloader) DownloadSample(ctx context.Context, url, destDir, videoID string, sampleSeconds int) (string, error) {
	outPath := filepath.Join(destDir, videoID+".mp4")

	cmd := exec.CommandContext(ctx, d.bin,
		"-f", "best[ext=mp4]/best",
		"--quiet",
		"--no-playlist",
		"--download-sections", fmt.Sprintf("*0-%d", sampleSeconds),
		"--force-keyframes-at-cuts",
		"-o", outPath,
		url,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp sample download: %w", err)
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("sample missing after download: %w", err)
	}
	return outPath, nil
}

func (d *YtDlpDownloader) DownloadAudio(ctx context.Context, url, destDir string) error {
	cmd := exec.CommandContext(ctx, d.bin,
		"-f", "bestaudio/best",
		"--quiet",
		"--no-playlist",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
		url,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp audio download: %w", err)
	}
	return nil
}
