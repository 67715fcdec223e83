package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shortform-pipeline/types"
)

// Style is one analyzed trend sample. Append-only: the newest row by
// created_at is the current trending style.
type Style struct {
	ID              uint   `gorm:"primaryKey"`
	Genre           string `gorm:"not null"`
	CutsPerMin      float64
	AvgShotDuration float64
	FilterUsage     string
	TransitionType  string
	CaptionStyle    string
	BGMMood         string `gorm:"column:bgm_mood"`
	SETags          string `gorm:"column:se_tags"` // JSON-encoded []string
	CreatedAt       time.Time
}

func (Style) TableName() string { return "styles" }

// Asset is one harvested audio artifact (bgm or se). The (type, source_url)
// pair is the dedup key: the same remote asset is never downloaded twice.
type Asset struct {
	ID        uint   `gorm:"primaryKey"`
	Type      string `gorm:"not null;uniqueIndex:idx_assets_type_url"`
	Name      string
	Path      string
	Tags      string
	SourceURL string `gorm:"uniqueIndex:idx_assets_type_url"`
	CreatedAt time.Time
}

func (Asset) TableName() string { return "assets" }

// SourceVideo records every platform video ever considered, whether or not
// analysis succeeded. video_id uniqueness is the crawl dedup invariant.
type SourceVideo struct {
	ID          uint   `gorm:"primaryKey"`
	VideoID     string `gorm:"uniqueIndex;not null"`
	Title       string
	Genre       string
	ViewCount   int64
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

func (SourceVideo) TableName() string { return "source_videos" }

// KB wraps the sqlite knowledge base shared by the planner and the crawler
type KB struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite file at path
func Open(path string) (*KB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open kb %s: %w", path, err)
	}
	return &KB{db: db}, nil
}

// Init creates the three tables. Safe to call repeatedly.
func (k *KB) Init() error {
	return k.db.AutoMigrate(&Style{}, &Asset{}, &SourceVideo{})
}

// InsertStyle persists a fingerprint for a genre
func (k *KB) InsertStyle(genre string, fp *types.StyleFingerprint) error {
	tags, err := json.Marshal(fp.SETags)
	if err != nil {
		return fmt.Errorf("encode se_tags: %w", err)
	}
	row := Style{
		Genre:           genre,
		CutsPerMin:      fp.CutsPerMin,
		AvgShotDuration: fp.AvgShotDuration,
		FilterUsage:     fp.FilterUsage,
		TransitionType:  fp.TransitionType,
		CaptionStyle:    fp.CaptionStyle,
		BGMMood:         fp.BGMMood,
		SETags:          string(tags),
	}
	if err := k.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert style: %w", err)
	}
	return nil
}

// LatestStyle returns the most recent fingerprint, or (nil, nil) when the
// knowledge base holds none.
func (k *KB) LatestStyle() (*Style, error) {
	var row Style
	err := k.db.Order("created_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest style: %w", err)
	}
	return &row, nil
}

// Fingerprint converts the persisted row back to the wire shape
func (s *Style) Fingerprint() *types.StyleFingerprint {
	fp := &types.StyleFingerprint{
		CutsPerMin:      s.CutsPerMin,
		AvgShotDuration: s.AvgShotDuration,
		FilterUsage:     s.FilterUsage,
		TransitionType:  s.TransitionType,
		CaptionStyle:    s.CaptionStyle,
		BGMMood:         s.BGMMood,
	}
	_ = json.Unmarshal([]byte(s.SETags), &fp.SETags)
	return fp
}

// RandomBGMPath picks one bgm asset whose tag string contains mood,
// uniformly at random among matches. Empty string when nothing matches.
func (k *KB) RandomBGMPath(mood string, rng *rand.Rand) (string, error) {
	var rows []Asset
	pattern := "%" + strings.ToLower(mood) + "%"
	err := k.db.Where("type = ? AND lower(tags) LIKE ?", "bgm", pattern).Find(&rows).Error
	if err != nil {
		return "", fmt.Errorf("bgm lookup: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[rng.Intn(len(rows))].Path, nil
}

// HasSourceVideo reports whether a platform video id was already recorded
func (k *KB) HasSourceVideo(videoID string) (bool, error) {
	var n int64
	if err := k.db.Model(&SourceVideo{}).Where("video_id = ?", videoID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("source video lookup: %w", err)
	}
	return n > 0, nil
}

// InsertSourceVideo records a discovered video before any processing
func (k *KB) InsertSourceVideo(videoID, title, genre string, viewCount int64) error {
	row := SourceVideo{VideoID: videoID, Title: title, Genre: genre, ViewCount: viewCount}
	if err := k.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert source video %s: %w", videoID, err)
	}
	return nil
}

// MarkProcessed stamps processed_at on a source video
func (k *KB) MarkProcessed(videoID string) error {
	now := time.Now()
	return k.db.Model(&SourceVideo{}).Where("video_id = ?", videoID).
		Update("processed_at", &now).Error
}

// HasAsset reports whether an asset of kind with this source URL exists
func (k *KB) HasAsset(kind, sourceURL string) (bool, error) {
	var n int64
	if err := k.db.Model(&Asset{}).Where("type = ? AND source_url = ?", kind, sourceURL).Count(&n).Error; err != nil {
		return false, fmt.Errorf("asset lookup: %w", err)
	}
	return n > 0, nil
}

// InsertAsset records a harvested audio file
func (k *KB) InsertAsset(kind, name, path, tags, sourceURL string) error {
	row := Asset{Type: kind, Name: name, Path: path, Tags: tags, SourceURL: sourceURL}
	if err := k.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert asset %s: %w", sourceURL, err)
	}
	return nil
}
