package planner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// videoExtensions are the intake extensions the watcher reacts to
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
}

// IsVideoFile classifies a path by extension, case-insensitive. Everything
// else under the intake directory (sidecars, partial uploads, directories)
// is ignored.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Watcher dispatches file-creation events to the planner, one at a time in
// delivery order. There is no persisted cursor: files created while the
// process was down are never picked up (supervision handles backfill).
type Watcher struct {
	planner *Planner
	dir     string
	log     *zap.SugaredLogger
}

// NewWatcher creates a watcher over dir
func NewWatcher(p *Planner, dir string, log *zap.SugaredLogger) *Watcher {
	return &Watcher{planner: p, dir: dir, log: log}
}

// Run blocks until ctx is cancelled, processing each new video
// synchronously. A failure for one file is logged and must not stop the
// loop.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Infow("watching for raw videos", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			w.handleCreate(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleCreate(ctx context.Context, path string) {
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return
	}
	if !IsVideoFile(path) {
		return
	}

	filename := filepath.Base(path)
	w.log.Infow("new video detected", "file", filename)

	if err := w.planner.ProcessVideo(ctx, path); err != nil {
		w.log.Errorw("video processing failed", "file", filename, "error", err)
	}
}
