package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"shortform-pipeline/config"
	"shortform-pipeline/kb"
)

type fakeSearcher struct {
	genreResults []SearchResult
	queries      []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	f.queries = append(f.queries, query)
	if strings.HasPrefix(query, "No copyright music") {
		return []SearchResult{{VideoID: "bgm-hit", Title: "Lofi Mix", URL: "https://example.com/bgm-hit"}}, nil
	}
	if strings.HasPrefix(query, "Sound effect") {
		return []SearchResult{{VideoID: "se-hit", Title: "Whoosh Pack", URL: "https://example.com/se-hit"}}, nil
	}
	if limit < len(f.genreResults) {
		return f.genreResults[:limit], nil
	}
	return f.genreResults, nil
}

type fakeDownloader struct {
	samples []string
	audio   []string
	failAll bool
}

func (f *fakeDownloader) DownloadSample(ctx context.Context, url, destDir, videoID string, sampleSeconds int) (string, error) {
	if f.failAll {
		return "", fmt.Errorf("download refused")
	}
	f.samples = append(f.samples, videoID)
	path := filepath.Join(destDir, videoID+".mp4")
	if err := os.WriteFile(path, []byte("sample"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeDownloader) DownloadAudio(ctx context.Context, url, destDir string) error {
	if f.failAll {
		return fmt.Errorf("download refused")
	}
	f.audio = append(f.audio, url)
	return nil
}

type fakeAnalyzer struct {
	response json.RawMessage
	err      error
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, filePath, prompt string) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

const fakeFingerprint = `{
  "cuts_per_min": 24.0,
  "avg_shot_duration": 2.5,
  "filter_usage": "warm",
  "transition_type": "cut",
  "caption_style": "heavy",
  "bgm_mood": "energetic",
  "se_tags": ["whoosh", "none", "pop"]
}`

func testSetup(t *testing.T) (*config.Config, *kb.KB) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Crawl.SampleSeconds = 60
	cfg.Paths.Samples = filepath.Join(t.TempDir(), "samples")
	cfg.Paths.AssetsBGM = filepath.Join(t.TempDir(), "bgm")
	cfg.Paths.AssetsSE = filepath.Join(t.TempDir(), "se")

	db, err := kb.Open(filepath.Join(t.TempDir(), "trends.db"))
	if err != nil {
		t.Fatalf("open kb: %v", err)
	}
	if err := db.Init(); err != nil {
		t.Fatalf("init kb: %v", err)
	}
	return cfg, db
}

func TestRunSkipsSeenVideos(t *testing.T) {
	cfg, db := testSetup(t)

	search := &fakeSearcher{genreResults: []SearchResult{
		{VideoID: "v1", Title: "one", URL: "u1", ViewCount: 100},
		{VideoID: "v2", Title: "two", URL: "u2", ViewCount: 90},
		{VideoID: "v3", Title: "three", URL: "u3", ViewCount: 80},
	}}
	for _, id := range []string{"v1", "v2"} {
		if err := db.InsertSourceVideo(id, "seen", "vlog", 0); err != nil {
			t.Fatal(err)
		}
	}

	dl := &fakeDownloader{}
	fa := &fakeAnalyzer{response: json.RawMessage(fakeFingerprint)}
	c := New(cfg, db, fa, search, dl, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 5); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(dl.samples) != 1 || dl.samples[0] != "v3" {
		t.Fatalf("downloaded %v, want only v3", dl.samples)
	}
	if fa.calls != 1 {
		t.Fatalf("analyzer called %d times, want 1", fa.calls)
	}

	style, err := db.LatestStyle()
	if err != nil {
		t.Fatalf("LatestStyle: %v", err)
	}
	if style == nil || style.BGMMood != "energetic" {
		t.Fatalf("style not persisted: %+v", style)
	}
}

func TestRunHarvestsAssets(t *testing.T) {
	cfg, db := testSetup(t)

	search := &fakeSearcher{genreResults: []SearchResult{{VideoID: "v1", Title: "one", URL: "u1"}}}
	dl := &fakeDownloader{}
	fa := &fakeAnalyzer{response: json.RawMessage(fakeFingerprint)}
	c := New(cfg, db, fa, search, dl, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var sawBGM, sawSE, sawNone bool
	for _, q := range search.queries {
		switch q {
		case "No copyright music energetic":
			sawBGM = true
		case "Sound effect whoosh", "Sound effect pop":
			sawSE = true
		case "Sound effect none":
			sawNone = true
		}
	}
	if !sawBGM || !sawSE {
		t.Fatalf("harvest queries missing: %v", search.queries)
	}
	if sawNone {
		t.Fatalf("'none' tag harvested: %v", search.queries)
	}

	for _, check := range []struct{ kind, url string }{
		{"bgm", "https://example.com/bgm-hit"},
		{"se", "https://example.com/se-hit"},
	} {
		ok, err := db.HasAsset(check.kind, check.url)
		if err != nil {
			t.Fatalf("HasAsset: %v", err)
		}
		if !ok {
			t.Fatalf("asset %s/%s not recorded", check.kind, check.url)
		}
	}
}

func TestRunHarvestDedup(t *testing.T) {
	cfg, db := testSetup(t)

	if err := db.InsertAsset("bgm", "Lofi Mix", "p", "q", "https://example.com/bgm-hit"); err != nil {
		t.Fatal(err)
	}

	search := &fakeSearcher{genreResults: []SearchResult{{VideoID: "v1", Title: "one", URL: "u1"}}}
	dl := &fakeDownloader{}
	fa := &fakeAnalyzer{response: json.RawMessage(fakeFingerprint)}
	c := New(cfg, db, fa, search, dl, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, url := range dl.audio {
		if url == "https://example.com/bgm-hit" {
			t.Fatal("already-harvested asset downloaded again")
		}
	}
}

func TestRunRemovesSamples(t *testing.T) {
	cfg, db := testSetup(t)

	search := &fakeSearcher{genreResults: []SearchResult{{VideoID: "v1", Title: "one", URL: "u1"}}}
	dl := &fakeDownloader{}
	fa := &fakeAnalyzer{response: json.RawMessage(fakeFingerprint)}
	c := New(cfg, db, fa, search, dl, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.Samples, "v1.mp4")); !os.IsNotExist(err) {
		t.Fatalf("sample not deleted: %v", err)
	}
}

func TestRunRecordsVideoEvenWhenAnalysisFails(t *testing.T) {
	cfg, db := testSetup(t)

	search := &fakeSearcher{genreResults: []SearchResult{{VideoID: "v1", Title: "one", URL: "u1"}}}
	dl := &fakeDownloader{}
	fa := &fakeAnalyzer{err: errors.New("model overloaded")}
	c := New(cfg, db, fa, search, dl, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	seen, err := db.HasSourceVideo("v1")
	if err != nil {
		t.Fatalf("HasSourceVideo: %v", err)
	}
	if !seen {
		t.Fatal("failed entry not recorded as seen")
	}
	style, err := db.LatestStyle()
	if err != nil {
		t.Fatalf("LatestStyle: %v", err)
	}
	if style != nil {
		t.Fatalf("style persisted despite analysis failure: %+v", style)
	}

	// Sample is deleted whatever analysis does
	if _, err := os.Stat(filepath.Join(cfg.Paths.Samples, "v1.mp4")); !os.IsNotExist(err) {
		t.Fatalf("sample not deleted: %v", err)
	}
}

func TestRunWithoutAnalyzer(t *testing.T) {
	cfg, db := testSetup(t)

	search := &fakeSearcher{genreResults: []SearchResult{{VideoID: "v1", Title: "one", URL: "u1"}}}
	dl := &fakeDownloader{}
	c := New(cfg, db, nil, search, dl, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	seen, err := db.HasSourceVideo("v1")
	if err != nil {
		t.Fatalf("HasSourceVideo: %v", err)
	}
	if !seen {
		t.Fatal("video not recorded without analyzer")
	}
}

func TestRunSearchFailureAborts(t *testing.T) {
	cfg, db := testSetup(t)
	c := New(cfg, db, nil, failingSearcher{}, &fakeDownloader{}, zap.NewNop().Sugar())

	if err := c.Run(context.Background(), "vlog", 1); err == nil {
		t.Fatal("expected error when search fails")
	}
}

type failingSearcher struct{}

func (failingSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return nil, errors.New("quota exceeded")
}
