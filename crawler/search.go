package crawler

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// SearchResult is one platform video candidate
type SearchResult struct {
	VideoID   string
	Title     string
	URL       string
	ViewCount int64
}

// Searcher finds candidate videos on the platform
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// YouTubeSearcher queries the YouTube Data API v3 with an API key.
// Read-only search needs no OAuth.
type YouTubeSearcher struct {
	svc *youtube.Service
}

// NewYouTubeSearcher builds the API client
func NewYouTubeSearcher(ctx context.Context, apiKey string) (*YouTubeSearcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY not set")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubeSearcher{svc: svc}, nil
}

// Search returns up to limit short videos for the query, most viewed first,
// with view counts resolved through a second statistics call.
func (s *YouTubeSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	call := s.svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		VideoDuration("short").
		Order("viewCount").
		MaxResults(int64(limit))

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}

	var results []SearchResult
	var ids []string
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		id := item.Id.VideoId
		ids = append(ids, id)
		results = append(results, SearchResult{
			VideoID: id,
			Title:   item.Snippet.Title,
			URL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s", id),
		})
	}

	// View counts come from videos.list; a failure here only loses the
	// counts, not the crawl.
	if len(ids) > 0 {
		stats, err := s.svc.Videos.List([]string{"statistics"}).Id(ids...).Context(ctx).Do()
		if err == nil {
			counts := make(map[string]int64)
			for _, v := range stats.Items {
				if v.Statistics != nil {
					counts[v.Id] = int64(v.Statistics.ViewCount)
				}
			}
			for i := range results {
				results[i].ViewCount = counts[results[i].VideoID]
			}
		}
	}

	return results, nil
}
