package planner

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// moodTable maps analysis moods to music categories
var moodTable = map[string]string{
	"exciting": "energetic",
	"peaceful": "calm",
	"serious":  "dramatic",
	"cheerful": "happy",
	"positive": "upbeat",
}

// categoryTracks lists candidate files per category, relative to the
// library root
var categoryTracks = map[string][]string{
	"energetic": {"energetic_pulse.mp3", "upbeat_energy_loop.mp3", "drive_beat.mp3"},
	"calm":      {"calm_waves.mp3", "soft_piano_loop.mp3", "ambient_drift.mp3"},
	"dramatic":  {"dark_tension.mp3", "cinematic_rise.mp3"},
	"happy":     {"sunny_day.mp3", "happy_clap_loop.mp3"},
	"upbeat":    {"feelgood_groove.mp3", "upbeat_pop_loop.mp3"},
}

// fallbackTrack is used when no candidate exists on disk
const fallbackTrack = "default_loop.mp3"

// SelectBGM picks a background-music file under libraryRoot for a mood.
// Candidates are filtered to files that actually exist; when none do, the
// fallback filename is returned whether or not it exists. Never fails and
// always returns a non-empty path — the caller does not verify it.
func SelectBGM(mood, libraryRoot string, rng *rand.Rand) string {
	category := moodCategory(mood)

	var existing []string
	for _, name := range categoryTracks[category] {
		if _, err := os.Stat(filepath.Join(libraryRoot, name)); err == nil {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		existing = []string{fallbackTrack}
	}

	pick := existing[rng.Intn(len(existing))]
	return filepath.Join(libraryRoot, pick)
}

// moodCategory resolves a mood through the fixed table, then substring
// fallbacks in order, defaulting to energetic
func moodCategory(mood string) string {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if cat, ok := moodTable[mood]; ok {
		return cat
	}
	switch {
	case strings.Contains(mood, "calm") || strings.Contains(mood, "quiet"):
		return "calm"
	case strings.Contains(mood, "sad") || strings.Contains(mood, "dark"):
		return "dramatic"
	default:
		return "energetic"
	}
}
