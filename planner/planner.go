package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"shortform-pipeline/config"
	"shortform-pipeline/kb"
	"shortform-pipeline/types"
)

// Analyzer is the slice of the analysis client the planner needs
type Analyzer interface {
	Analyze(ctx context.Context, filePath, prompt string) (json.RawMessage, error)
}

// Planner turns one raw video into one persisted edit plan. db and analyzer
// may be nil: without a knowledge base the planner degrades to un-styled
// plans, without an analyzer every file fails (and is logged) individually.
type Planner struct {
	cfg      *config.Config
	db       *kb.KB
	analyzer Analyzer
	rng      *rand.Rand
	log      *zap.SugaredLogger
}

// New creates a Planner
func New(cfg *config.Config, db *kb.KB, analyzer Analyzer, rng *rand.Rand, log *zap.SugaredLogger) *Planner {
	return &Planner{cfg: cfg, db: db, analyzer: analyzer, rng: rng, log: log}
}

// ProcessVideo runs the full per-file pipeline: sidecar metadata, style
// resolution, analysis, manual-instruction merge, BGM selection, plan write.
func (p *Planner) ProcessVideo(ctx context.Context, path string) error {
	filename := filepath.Base(path)

	if p.analyzer == nil {
		return fmt.Errorf("analysis client not configured (missing API key)")
	}

	meta := p.loadMetadata(path)
	style, kbBGM := p.resolveStyle()

	script := ""
	if meta != nil {
		script = meta.Script
	}
	prompt := buildPrompt(style, script)

	p.log.Infow("analyzing video", "file", filename)
	raw, err := p.analyzer.Analyze(ctx, path, prompt)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", filename, err)
	}

	var plan types.EditPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return fmt.Errorf("parse edit plan for %s: %w", filename, err)
	}
	plan.OriginalFilename = filename

	if meta != nil && meta.ManualInstructions != nil {
		if err := Merge(&plan, meta.ManualInstructions); err != nil {
			return fmt.Errorf("merge instructions for %s: %w", filename, err)
		}
	}

	if !meta.AutoSoundEffects() {
		plan.SEEvents = nil
	}

	if meta.GenerateBGM() {
		bgm := kbBGM
		if bgm == "" {
			bgm = SelectBGM(plan.EditingStyle.Mood, p.cfg.Paths.BGMLibrary, p.rng)
		}
		plan.BGMPath = bgm
	}

	outPath := filepath.Join(p.cfg.Paths.Plans, filename+".json")
	if err := savePlan(outPath, &plan); err != nil {
		return fmt.Errorf("save plan for %s: %w", filename, err)
	}

	p.log.Infow("edit plan saved", "file", filename, "path", outPath,
		"cuts", len(plan.Cuts), "mood", plan.EditingStyle.Mood)
	return nil
}

// loadMetadata reads the optional <video>_metadata.json sidecar. Absence is
// normal; unreadable or malformed sidecars are logged and ignored.
func (p *Planner) loadMetadata(videoPath string) *types.VideoMetadata {
	sidecar := videoPath + "_metadata.json"
	data, err := os.ReadFile(sidecar)
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warnw("metadata sidecar unreadable", "path", sidecar, "error", err)
		}
		return nil
	}
	var meta types.VideoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		p.log.Warnw("metadata sidecar malformed", "path", sidecar, "error", err)
		return nil
	}
	return &meta
}

// resolveStyle fetches the latest trending style and a matching KB music
// asset. Planning must degrade gracefully without a knowledge base, so every
// failure here is logged and reported as absence.
func (p *Planner) resolveStyle() (*types.StyleFingerprint, string) {
	if p.db == nil {
		return nil, ""
	}
	row, err := p.db.LatestStyle()
	if err != nil {
		p.log.Warnw("style lookup failed", "error", err)
		return nil, ""
	}
	if row == nil {
		return nil, ""
	}
	fp := row.Fingerprint()

	bgm := ""
	if fp.BGMMood != "" {
		bgm, err = p.db.RandomBGMPath(fp.BGMMood, p.rng)
		if err != nil {
			p.log.Warnw("kb bgm lookup failed", "mood", fp.BGMMood, "error", err)
			bgm = ""
		}
	}
	return fp, bgm
}

func savePlan(path string, plan *types.EditPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
