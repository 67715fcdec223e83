package types

// CaptionStyle describes how a cut's caption is rendered
type CaptionStyle struct {
	Font            string `json:"font"`     // sans | serif | handwriting
	Color           string `json:"color"`    // white | yellow | cyan
	Position        string `json:"position"` // bottom | center | top
	Box             bool   `json:"box"`
	BackgroundAsset string `json:"background_asset"` // simple_box | news_ticker | none
}

// Cut is one segment of the edit plan. Timestamps are HH:MM:SS strings.
type Cut struct {
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time"`
	Description    string       `json:"description"`
	Filter         string       `json:"filter"`
	TransitionType string       `json:"transition_type"`
	FocusPoint     float64      `json:"focus_point"` // horizontal subject position, 0.0-1.0
	Caption        string       `json:"caption"`
	CaptionStyle   CaptionStyle `json:"caption_style"`
}

// EditingStyle summarizes the overall pacing of the plan
type EditingStyle struct {
	Tempo string `json:"tempo"` // fast | slow | dynamic
	Mood  string `json:"mood"`  // exciting | calm | ...
}

// SEEvent is a single sound-effect trigger
type SEEvent struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"` // impact | whoosh | laugh | correct | incorrect
	Tag       string `json:"tag"`
}

// VisualEffect is a zoom/pan applied over a time range
type VisualEffect struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`  // zoom_in | zoom_out | pan_left | pan_right
	Speed string `json:"speed"` // slow | fast
}

// Thumbnail picks the clickbait frame and title
type Thumbnail struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Color     string `json:"color"`
}

// EditPlan is the full machine+human edit description for one raw video,
// consumed by the external renderer.
type EditPlan struct {
	Cuts             []Cut          `json:"cuts"`
	EditingStyle     EditingStyle   `json:"editing_style"`
	SEEvents         []SEEvent      `json:"se_events"`
	VisualEffects    []VisualEffect `json:"visual_effects"`
	Thumbnail        Thumbnail      `json:"thumbnail"`
	BGMPath          string         `json:"bgm_path,omitempty"`
	OriginalFilename string         `json:"original_filename"`
}

// StyleFingerprint is the JSON shape the analysis service returns for a
// trend sample. The persisted form lives in the kb package.
type StyleFingerprint struct {
	CutsPerMin      float64  `json:"cuts_per_min"`
	AvgShotDuration float64  `json:"avg_shot_duration"`
	FilterUsage     string   `json:"filter_usage"`
	TransitionType  string   `json:"transition_type"`
	CaptionStyle    string   `json:"caption_style"`
	BGMMood         string   `json:"bgm_mood"`
	SETags          []string `json:"se_tags"`
}

// CutInstruction asks for machine cuts inside [Start, End] to be removed
type CutInstruction struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Action string `json:"action"` // "remove" (empty means remove)
}

// CaptionInstruction overwrites the caption of the cut containing Timestamp
type CaptionInstruction struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Style     string `json:"style"` // caption color override, optional
}

// EffectInstruction appends a zero-duration visual effect at Timestamp
type EffectInstruction struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// ManualInstructions are user-authored overrides layered onto a machine plan
type ManualInstructions struct {
	Cuts     []CutInstruction     `json:"cuts"`
	Captions []CaptionInstruction `json:"captions"`
	Effects  []EffectInstruction  `json:"effects"`
}

// VideoOptions toggles per-video planner behavior. Pointers so that an
// absent field defaults to enabled rather than false.
type VideoOptions struct {
	AutoSoundEffects *bool `json:"auto_sound_effects"`
	GenerateBGM      *bool `json:"generate_bgm"`
}

// VideoMetadata is the optional <video>_metadata.json sidecar uploaded
// alongside a raw video.
type VideoMetadata struct {
	Script             string              `json:"script"`
	Options            VideoOptions        `json:"options"`
	ManualInstructions *ManualInstructions `json:"manual_instructions"`
}

// AutoSoundEffects reports the option with its default (true)
func (m *VideoMetadata) AutoSoundEffects() bool {
	if m == nil || m.Options.AutoSoundEffects == nil {
		return true
	}
	return *m.Options.AutoSoundEffects
}

// GenerateBGM reports the option with its default (true)
func (m *VideoMetadata) GenerateBGM() bool {
	if m == nil || m.Options.GenerateBGM == nil {
		return true
	}
	return *m.Options.GenerateBGM
}
